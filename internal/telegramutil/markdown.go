package telegramutil

import "strings"

// Characters Telegram MarkdownV2 reserves outside of code and link targets.
var markdownV2Escapes = map[rune]bool{
	'\\': true,
	'_':  true,
	'*':  true,
	'[':  true,
	']':  true,
	'(':  true,
	')':  true,
	'~':  true,
	'`':  true,
	'>':  true,
	'#':  true,
	'+':  true,
	'-':  true,
	'=':  true,
	'|':  true,
	'{':  true,
	'}':  true,
	'.':  true,
	'!':  true,
}

var (
	codeEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`")
	urlEscaper  = strings.NewReplacer(`\`, `\\`, ")", `\)`)
)

// EscapeMarkdownV2 escapes every MarkdownV2 reserved character so the text
// renders literally.
func EscapeMarkdownV2(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 8)
	for _, r := range text {
		if markdownV2Escapes[r] {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeMarkdownV2Code escapes text placed inside `code` or ```pre``` entities.
func EscapeMarkdownV2Code(text string) string {
	return codeEscaper.Replace(text)
}

// EscapeMarkdownV2URL escapes the target part of an inline link.
func EscapeMarkdownV2URL(url string) string {
	return urlEscaper.Replace(url)
}
