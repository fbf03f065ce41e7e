package telegramapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/quailyquaily/tgrelay/internal/delivery"
)

// RequestError is returned when Telegram answers with an error.
type RequestError struct {
	Method      string
	StatusCode  int
	ErrorCode   int
	Description string
	Body        string
}

func (e *RequestError) Error() string {
	if e == nil {
		return "telegram request failed"
	}
	prefix := "telegram"
	if e.Method != "" {
		prefix = "telegram " + e.Method
	}
	desc := strings.TrimSpace(e.Description)
	if desc != "" {
		if e.StatusCode > 0 {
			return fmt.Sprintf("%s: http %d: %s", prefix, e.StatusCode, desc)
		}
		return prefix + ": " + desc
	}
	body := strings.TrimSpace(e.Body)
	if e.StatusCode > 0 {
		if body != "" {
			return fmt.Sprintf("%s: http %d: %s", prefix, e.StatusCode, body)
		}
		return fmt.Sprintf("%s: http %d", prefix, e.StatusCode)
	}
	if body != "" {
		return prefix + ": " + body
	}
	return prefix + ": request failed"
}

// Is makes 400 answers about the message text match
// delivery.ErrMarkupRejected: unparsable entities and over-long text, both
// of which a plainer rendering can get past. Other 400s, such as "chat not
// found", are delivery failures.
func (e *RequestError) Is(target error) bool {
	if e == nil || target != delivery.ErrMarkupRejected {
		return false
	}
	if e.StatusCode != http.StatusBadRequest && e.ErrorCode != http.StatusBadRequest {
		return false
	}
	return isMarkupDescription(e.Description)
}

// IsMarkdownParseError reports whether Telegram refused the entities of a
// formatted message.
func IsMarkdownParseError(err error) bool {
	if err == nil {
		return false
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) && isParseEntitiesDescription(reqErr.Description) {
		return true
	}
	return isParseEntitiesDescription(err.Error())
}

func isParseEntitiesDescription(desc string) bool {
	desc = strings.ToLower(strings.TrimSpace(desc))
	return strings.Contains(desc, "can't parse entities") || strings.Contains(desc, "can't parse entity")
}

func isMarkupDescription(desc string) bool {
	if isParseEntitiesDescription(desc) {
		return true
	}
	desc = strings.ToLower(strings.TrimSpace(desc))
	return strings.Contains(desc, "message is too long") || strings.Contains(desc, "text is too long")
}
