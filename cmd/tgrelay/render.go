package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/quailyquaily/tgrelay/internal/clifmt"
	"github.com/quailyquaily/tgrelay/internal/telegramutil"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Print the MarkdownV2 chunks a reply would be sent as",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, body, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			opts := splitOptionsFromViper(cmd)
			raw, _ := cmd.Flags().GetBool("raw")
			stats, _ := cmd.Flags().GetBool("stats")

			out := cmd.OutOrStdout()
			if stats {
				printRenderStats(cmd, body, opts)
				return nil
			}

			var chunks []string
			if raw {
				chunks = telegramutil.PrepareChunks(body, opts)
			} else {
				chunks = telegramutil.RenderChunks(body, opts)
			}
			for i, chunk := range chunks {
				if len(chunks) > 1 {
					_, _ = fmt.Fprintln(out, clifmt.Dim(fmt.Sprintf("--- chunk %d/%d (%d chars) ---", i+1, len(chunks), utf8.RuneCountInString(chunk))))
				}
				_, _ = fmt.Fprintln(out, chunk)
			}
			return nil
		},
	}

	cmd.Flags().Bool("raw", false, "Print the repaired source chunks without converting them.")
	cmd.Flags().Bool("stats", false, "Print a per-chunk table instead of the chunks.")

	return cmd
}

func printRenderStats(cmd *cobra.Command, body string, opts telegramutil.SplitOptions) {
	split := telegramutil.SplitMessage(body, opts)
	fixed, repairs := telegramutil.RepairChunks(split)

	rows := make([]clifmt.ChunkRow, 0, len(fixed))
	for i, chunk := range fixed {
		rows = append(rows, clifmt.ChunkRow{
			Index:    i,
			Chars:    utf8.RuneCountInString(split[i]),
			Rendered: utf8.RuneCountInString(telegramutil.ConvertMarkdownV2(chunk)),
			Reopen:   repairs[i].Reopen,
			Close:    repairs[i].Close,
			Preview:  chunk,
		})
	}
	clifmt.PrintChunkTable(cmd.OutOrStdout(), clifmt.ChunkTableOptions{
		Title:    "Chunks",
		Rows:     rows,
		MaxChars: telegramMessageLimit,
	})
}
