package telegramutil

import (
	"regexp"
	"strings"
)

var (
	completeFenceRe  = regexp.MustCompile("(?s)```.*?```")
	completeInlineRe = regexp.MustCompile("`[^`]*`")
	fenceLanguageRe  = regexp.MustCompile(`^[\w+#.-]+$`)
)

// inlineDelimiters are checked in this order after code spans are removed.
// ignore is stripped from a working copy before counting delim, so that
// "**" does not count as two italic stars.
var inlineDelimiters = []struct {
	delim  string
	ignore string
}{
	{delim: "**"},
	{delim: "~~"},
	{delim: "*", ignore: "**"},
	{delim: "_", ignore: "__"},
}

// ChunkRepair records the delimiters FixChunks added around one chunk.
type ChunkRepair struct {
	Reopen string
	Close  string
}

// FixChunks closes formatting left open at the end of each chunk and reopens
// it at the start of the next one, so every chunk parses on its own. A
// single chunk is returned unchanged.
func FixChunks(chunks []string) []string {
	fixed, _ := RepairChunks(chunks)
	return fixed
}

// RepairChunks is FixChunks that also reports the added delimiters.
func RepairChunks(chunks []string) ([]string, []ChunkRepair) {
	if len(chunks) <= 1 {
		return chunks, make([]ChunkRepair, len(chunks))
	}
	fixed := make([]string, 0, len(chunks))
	repairs := make([]ChunkRepair, 0, len(chunks))
	reopen := ""
	for _, chunk := range chunks {
		text := reopen + chunk
		closing, next := unbalancedDelimiters(text)
		fixed = append(fixed, text+closing)
		repairs = append(repairs, ChunkRepair{Reopen: reopen, Close: closing})
		reopen = next
	}
	return fixed, repairs
}

// unbalancedDelimiters returns the suffix that closes every span left open in
// chunk and the prefix that reopens them in the following chunk.
func unbalancedDelimiters(chunk string) (string, string) {
	if strings.Count(chunk, "```")%2 == 1 {
		return "\n```", "```" + openFenceLanguage(chunk) + "\n"
	}

	var closing strings.Builder
	stripped := completeFenceRe.ReplaceAllString(chunk, "")
	if strings.Count(stripped, "`")%2 == 1 {
		closing.WriteString("`")
		// The tail after the open backtick is code, not formatting.
		stripped += "`"
	}
	stripped = completeInlineRe.ReplaceAllString(stripped, "")

	for _, d := range inlineDelimiters {
		working := stripped
		if d.ignore != "" {
			working = strings.ReplaceAll(working, d.ignore, "")
		}
		if strings.Count(working, d.delim)%2 == 1 {
			closing.WriteString(d.delim)
		}
	}
	return closing.String(), closing.String()
}

// openFenceLanguage returns the language tag of the last fence in chunk, or
// "" when the fence line carries none.
func openFenceLanguage(chunk string) string {
	i := strings.LastIndex(chunk, "```")
	if i < 0 {
		return ""
	}
	line := chunk[i+3:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	line = strings.TrimSpace(line)
	if !fenceLanguageRe.MatchString(line) {
		return ""
	}
	return line
}

// PrepareChunks splits text for delivery and repairs formatting across the
// chunk boundaries. The chunks are still source markdown.
func PrepareChunks(text string, opts SplitOptions) []string {
	return FixChunks(SplitMessage(text, opts))
}

// RenderChunks returns the MarkdownV2 form of every prepared chunk.
func RenderChunks(text string, opts SplitOptions) []string {
	chunks := PrepareChunks(text, opts)
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out = append(out, ConvertMarkdownV2(chunk))
	}
	return out
}
