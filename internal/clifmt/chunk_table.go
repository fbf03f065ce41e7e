package clifmt

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	defaultTableWidth      = 100
	defaultMinPreviewWidth = 16
)

// ChunkRow is one line of the render statistics table.
type ChunkRow struct {
	Index    int
	Chars    int
	Rendered int
	Reopen   string
	Close    string
	Preview  string
}

type ChunkTableOptions struct {
	Title        string
	Rows         []ChunkRow
	MaxChars     int
	DefaultWidth int
}

// PrintChunkTable prints one row per chunk. Chunks whose rendered length
// exceeds MaxChars are highlighted.
func PrintChunkTable(out io.Writer, opts ChunkTableOptions) {
	if out == nil {
		out = os.Stdout
	}

	title := strings.TrimSpace(opts.Title)
	if title != "" {
		fmt.Fprintln(out, Headerf("%s (%d)", title, len(opts.Rows)))
	}
	if len(opts.Rows) == 0 {
		fmt.Fprintln(out, Warn("No chunks."))
		return
	}

	headers := []string{"#", "CHARS", "RENDERED", "REPAIRS"}
	cells := make([][]string, 0, len(opts.Rows))
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range opts.Rows {
		line := []string{
			strconv.Itoa(row.Index + 1),
			strconv.Itoa(row.Chars),
			strconv.Itoa(row.Rendered),
			repairLabel(row.Reopen, row.Close),
		}
		for i, c := range line {
			if w := runewidth.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
		cells = append(cells, line)
	}

	fixed := 0
	for _, w := range widths {
		fixed += w + 2
	}
	previewWidth := tableWidth(out, opts.DefaultWidth) - fixed
	if previewWidth < defaultMinPreviewWidth {
		previewWidth = defaultMinPreviewWidth
	}

	var head, rule []string
	for i, h := range headers {
		head = append(head, Key(padRight(h, widths[i])))
		rule = append(rule, Dim(strings.Repeat("-", widths[i])))
	}
	fmt.Fprintf(out, "%s  %s\n", strings.Join(head, "  "), Key("PREVIEW"))
	fmt.Fprintf(out, "%s  %s\n", strings.Join(rule, "  "), Dim(strings.Repeat("-", previewWidth)))

	for i, row := range opts.Rows {
		var parts []string
		for j, c := range cells[i] {
			c = padRight(c, widths[j])
			if j == 2 && opts.MaxChars > 0 && row.Rendered > opts.MaxChars {
				c = Warn(c)
			} else if j == 0 {
				c = Success(c)
			}
			parts = append(parts, c)
		}
		fmt.Fprintf(out, "%s  %s\n", strings.Join(parts, "  "), previewLine(row.Preview, previewWidth))
	}
}

func repairLabel(reopen, closing string) string {
	reopen = strings.TrimSpace(reopen)
	closing = strings.TrimSpace(closing)
	switch {
	case reopen == "" && closing == "":
		return "-"
	case reopen == "":
		return "close " + closing
	case closing == "":
		return "reopen " + reopen
	default:
		return "reopen " + reopen + " close " + closing
	}
}

func tableWidth(out io.Writer, defaultWidth int) int {
	if defaultWidth <= 0 {
		defaultWidth = defaultTableWidth
	}
	if file, ok := out.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		if terminalWidth, _, err := term.GetSize(int(file.Fd())); err == nil && terminalWidth > 0 {
			return terminalWidth
		}
	}
	return defaultWidth
}

func padRight(s string, width int) string {
	missing := width - runewidth.StringWidth(s)
	if missing <= 0 {
		return s
	}
	return s + strings.Repeat(" ", missing)
}

// previewLine flattens s to one line at most width terminal cells wide.
func previewLine(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
