package telegramutil

const (
	// DefaultMaxMessageChars stays below Telegram's 4096 limit so the
	// delimiters added by FixChunks still fit.
	DefaultMaxMessageChars = 4000
	// DefaultCutThresholdDivisor rejects cut points in the first
	// maxChars/divisor characters of a window.
	DefaultCutThresholdDivisor = 4
)

// SplitOptions controls SplitMessage. Lengths are counted in characters
// (runes), not bytes.
type SplitOptions struct {
	MaxChars            int
	CutThresholdDivisor int
}

func (o SplitOptions) normalized() SplitOptions {
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxMessageChars
	}
	if o.CutThresholdDivisor <= 0 {
		o.CutThresholdDivisor = DefaultCutThresholdDivisor
	}
	return o
}

// SplitMessage splits text into chunks of at most opts.MaxChars characters.
// Cut points are tried in order: before a ``` fence, at a blank line, at a
// newline, at a space. A cut point is only taken past the first quarter of
// the window (see CutThresholdDivisor); otherwise the window is hard cut.
// Newlines directly after a cut are dropped.
func SplitMessage(text string, opts SplitOptions) []string {
	opts = opts.normalized()
	rs := []rune(text)
	if len(rs) <= opts.MaxChars {
		return []string{text}
	}

	var chunks []string
	for len(rs) > 0 {
		if len(rs) <= opts.MaxChars {
			chunks = append(chunks, string(rs))
			break
		}
		cut := findCut(rs[:opts.MaxChars], opts)
		chunks = append(chunks, string(rs[:cut]))
		rs = trimLeadingNewlines(rs[cut:])
	}
	return chunks
}

func findCut(window []rune, opts SplitOptions) int {
	minCut := opts.MaxChars / opts.CutThresholdDivisor
	if i := lastIndexRunes(window, []rune("\n```")); i > minCut {
		// Keep the newline with this chunk; the fence opens the next one.
		return i + 1
	}
	for _, sep := range []string{"\n\n", "\n", " "} {
		if i := lastIndexRunes(window, []rune(sep)); i > minCut {
			return i
		}
	}
	return len(window)
}

func lastIndexRunes(rs, sep []rune) int {
	for i := len(rs) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if rs[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func trimLeadingNewlines(rs []rune) []rune {
	i := 0
	for i < len(rs) && rs[i] == '\n' {
		i++
	}
	return rs[i:]
}
