package outputfmt

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	absoluteURLInTextRE = regexp.MustCompile(`https?://[^\s"'<>]+`)
	botTokenPathRE      = regexp.MustCompile(`/bot[0-9]+:[A-Za-z0-9_-]+`)
)

// FormatErrorForDisplay sanitizes error text for logs and chat replies.
// URL hosts are removed and bot tokens are redacted.
func FormatErrorForDisplay(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeErrorText(err.Error())
}

// SanitizeErrorText removes URL hosts from arbitrary text while keeping
// path/query/fragment details. Bot tokens in paths are redacted.
func SanitizeErrorText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	raw = absoluteURLInTextRE.ReplaceAllStringFunc(raw, sanitizeURLInText)
	return RedactBotToken(raw)
}

// RedactBotToken replaces the token in Bot API paths such as
// "/bot123:ABC/sendMessage".
func RedactBotToken(raw string) string {
	return botTokenPathRE.ReplaceAllString(raw, "/bot[redacted]")
}

func sanitizeURLInText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return raw
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if q := redactSensitiveQuery(u.Query()); q != "" {
		path += "?" + q
	}
	if frag := strings.TrimSpace(u.EscapedFragment()); frag != "" {
		path += "#" + frag
	}
	return path
}

func redactSensitiveQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	for k := range q {
		if isSensitiveQueryKey(k) {
			q.Set(k, "[redacted]")
		}
	}
	return q.Encode()
}

func isSensitiveQueryKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return false
	}
	n := strings.ReplaceAll(strings.ReplaceAll(k, "-", ""), "_", "")
	if n == "key" {
		return true
	}
	for _, s := range []string{"apikey", "authorization", "token", "secret", "password"} {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}
