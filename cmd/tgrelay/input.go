package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quailyquaily/tgrelay/internal/markdown"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readDocument reads the reply document from the file named by args[0], or
// from stdin when no file (or "-") is given.
func readDocument(cmd *cobra.Command, args []string) (markdown.DeliveryFrontmatter, string, error) {
	var raw []byte
	var err error
	if len(args) > 0 && strings.TrimSpace(args[0]) != "-" {
		raw, err = os.ReadFile(args[0])
		if err != nil {
			return markdown.DeliveryFrontmatter{}, "", fmt.Errorf("read %s: %w", args[0], err)
		}
	} else {
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return markdown.DeliveryFrontmatter{}, "", fmt.Errorf("no input: pass a file or pipe markdown on stdin")
		}
		raw, err = io.ReadAll(in)
		if err != nil {
			return markdown.DeliveryFrontmatter{}, "", fmt.Errorf("read stdin: %w", err)
		}
	}
	fm, body := markdown.ParseDocument(string(raw))
	return fm, body, nil
}
