package telegramutil

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	fencedCodeRe = regexp.MustCompile("```(?:[^\\n]*\\n)?(?s:.*?)```")
	inlineCodeRe = regexp.MustCompile("`[^`\\n]+`")
)

type spanKind int

const (
	spanBold spanKind = iota + 1
	spanItalicStar
	spanItalicUnderscore
	spanStrike
	spanLink
)

func (k spanKind) String() string {
	switch k {
	case spanBold:
		return "bold"
	case spanItalicStar:
		return "italic_star"
	case spanItalicUnderscore:
		return "italic_underscore"
	case spanStrike:
		return "strikethrough"
	case spanLink:
		return "link"
	default:
		return "plain"
	}
}

// formatMatch is a span found at a given rune offset. end is exclusive.
type formatMatch struct {
	end   int
	inner string
	url   string
}

// formatRule maps one source-markdown span onto its MarkdownV2 delimiters.
type formatRule struct {
	kind  spanKind
	open  string
	close string
	match func(rs []rune, pos int) (formatMatch, bool)
}

// formatRules is evaluated in order at every position; the first rule that
// matches wins. Bold must stay ahead of italic-star since both start with '*'.
var formatRules = []formatRule{
	{kind: spanBold, open: "*", close: "*", match: matchDoubled('*')},
	{kind: spanItalicStar, open: "_", close: "_", match: matchItalicStar},
	{kind: spanItalicUnderscore, open: "_", close: "_", match: matchItalicUnderscore},
	{kind: spanStrike, open: "~", close: "~", match: matchDoubled('~')},
	{kind: spanLink, open: "[", close: ")", match: matchLink},
}

func (r formatRule) render(m formatMatch) string {
	if r.kind == spanLink {
		return r.open + EscapeMarkdownV2(m.inner) + "](" + EscapeMarkdownV2URL(m.url) + r.close
	}
	return r.open + EscapeMarkdownV2(m.inner) + r.close
}

// ConvertMarkdownV2 converts the markdown subset produced by chat models
// (fenced and inline code, **bold**, *italic*, _italic_, ~~strike~~ and
// [links](url)) into Telegram MarkdownV2. Everything else is escaped, so the
// result is always accepted by Telegram as long as the input spans are
// balanced. It never fails; unmatched markers are escaped as literal text.
func ConvertMarkdownV2(source string) string {
	var b strings.Builder
	b.Grow(len(source) + len(source)/4)
	last := 0
	for _, loc := range fencedCodeRe.FindAllStringIndex(source, -1) {
		b.WriteString(convertInline(source[last:loc[0]]))
		block := source[loc[0]:loc[1]]
		b.WriteString("```")
		b.WriteString(EscapeMarkdownV2Code(block[3 : len(block)-3]))
		b.WriteString("```")
		last = loc[1]
	}
	b.WriteString(convertInline(source[last:]))
	return b.String()
}

func convertInline(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	last := 0
	for _, loc := range inlineCodeRe.FindAllStringIndex(text, -1) {
		b.WriteString(convertFormatting(text[last:loc[0]]))
		b.WriteString("`")
		b.WriteString(EscapeMarkdownV2Code(text[loc[0]+1 : loc[1]-1]))
		b.WriteString("`")
		last = loc[1]
	}
	b.WriteString(convertFormatting(text[last:]))
	return b.String()
}

func convertFormatting(text string) string {
	if text == "" {
		return ""
	}
	rs := []rune(text)
	var b strings.Builder
	last := 0
	for pos := 0; pos < len(rs); {
		rule, m, ok := matchFormatAt(rs, pos)
		if !ok {
			pos++
			continue
		}
		b.WriteString(EscapeMarkdownV2(string(rs[last:pos])))
		b.WriteString(rule.render(m))
		pos = m.end
		last = m.end
	}
	b.WriteString(EscapeMarkdownV2(string(rs[last:])))
	return b.String()
}

func matchFormatAt(rs []rune, pos int) (formatRule, formatMatch, bool) {
	for _, rule := range formatRules {
		if m, ok := rule.match(rs, pos); ok {
			return rule, m, true
		}
	}
	return formatRule{}, formatMatch{}, false
}

// matchDoubled matches XX<text>XX on a single line, taking the nearest
// closing pair.
func matchDoubled(delim rune) func([]rune, int) (formatMatch, bool) {
	return func(rs []rune, pos int) (formatMatch, bool) {
		if pos+1 >= len(rs) || rs[pos] != delim || rs[pos+1] != delim {
			return formatMatch{}, false
		}
		start := pos + 2
		for j := start + 1; j+1 < len(rs); j++ {
			if rs[j-1] == '\n' {
				return formatMatch{}, false
			}
			if rs[j] == delim && rs[j+1] == delim {
				return formatMatch{end: j + 2, inner: string(rs[start:j])}, true
			}
		}
		return formatMatch{}, false
	}
}

// matchItalicStar matches *text* where neither delimiter touches another '*'.
func matchItalicStar(rs []rune, pos int) (formatMatch, bool) {
	if rs[pos] != '*' || pos+1 >= len(rs) || rs[pos+1] == '*' {
		return formatMatch{}, false
	}
	if pos > 0 && rs[pos-1] == '*' {
		return formatMatch{}, false
	}
	start := pos + 1
	for j := start + 1; j < len(rs); j++ {
		if rs[j-1] == '\n' {
			return formatMatch{}, false
		}
		if rs[j] != '*' || rs[j-1] == '*' {
			continue
		}
		if j+1 < len(rs) && rs[j+1] == '*' {
			continue
		}
		return formatMatch{end: j + 1, inner: string(rs[start:j])}, true
	}
	return formatMatch{}, false
}

// matchItalicUnderscore matches _text_ outside of identifiers such as
// snake_case names.
func matchItalicUnderscore(rs []rune, pos int) (formatMatch, bool) {
	if rs[pos] != '_' {
		return formatMatch{}, false
	}
	if pos > 0 && isWordRune(rs[pos-1]) {
		return formatMatch{}, false
	}
	j := pos + 1
	for j < len(rs) && rs[j] != '_' {
		j++
	}
	if j >= len(rs) || j == pos+1 {
		return formatMatch{}, false
	}
	if j+1 < len(rs) && isWordRune(rs[j+1]) {
		return formatMatch{}, false
	}
	return formatMatch{end: j + 1, inner: string(rs[pos+1 : j])}, true
}

// matchLink matches [text](url).
func matchLink(rs []rune, pos int) (formatMatch, bool) {
	if rs[pos] != '[' {
		return formatMatch{}, false
	}
	j := pos + 1
	for j < len(rs) && rs[j] != ']' {
		j++
	}
	if j >= len(rs) || j == pos+1 || j+1 >= len(rs) || rs[j+1] != '(' {
		return formatMatch{}, false
	}
	k := j + 2
	for k < len(rs) && rs[k] != ')' {
		k++
	}
	if k >= len(rs) || k == j+2 {
		return formatMatch{}, false
	}
	return formatMatch{end: k + 1, inner: string(rs[pos+1 : j]), url: string(rs[j+2 : k])}, true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
