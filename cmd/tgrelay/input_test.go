package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestReadDocument_FromFileWithFrontmatter(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "reply.md")
	doc := "---\nchat_id: 1001\nreply_to: 55\ndisable_preview: false\n---\n**hi**\n"
	if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	fm, body, err := readDocument(&cobra.Command{}, []string{p})
	if err != nil {
		t.Fatalf("readDocument() error = %v", err)
	}
	if fm.ChatID != 1001 || fm.ReplyTo != 55 {
		t.Fatalf("unexpected frontmatter: %+v", fm)
	}
	if fm.DisablePreview == nil || *fm.DisablePreview {
		t.Fatalf("disable_preview = %v, want false", fm.DisablePreview)
	}
	if strings.TrimSpace(body) != "**hi**" {
		t.Fatalf("body = %q", body)
	}
}

func TestReadDocument_FromStdin(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("plain *text*"))

	fm, body, err := readDocument(cmd, []string{"-"})
	if err != nil {
		t.Fatalf("readDocument() error = %v", err)
	}
	if fm.ChatID != 0 || body != "plain *text*" {
		t.Fatalf("unexpected result: %+v %q", fm, body)
	}
}

func TestReadDocument_MissingFile(t *testing.T) {
	_, _, err := readDocument(&cobra.Command{}, []string{filepath.Join(t.TempDir(), "nope.md")})
	if err == nil || !strings.Contains(err.Error(), "nope.md") {
		t.Fatalf("expected read error naming the file, got %v", err)
	}
}

func TestRenderCmd_PrintsConvertedText(t *testing.T) {
	cmd := newRenderCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader("Use `a_b` and **bold**."))
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := "Use `a_b` and *bold*\\.\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestRenderCmd_RawKeepsSourceMarkdown(t *testing.T) {
	cmd := newRenderCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader("**bold**."))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--raw"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.String() != "**bold**.\n" {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRecipientFor_FlagsOverrideFrontmatter(t *testing.T) {
	cmd := newSendCmd()
	if err := cmd.ParseFlags([]string{"--chat-id", "7", "--disable-preview=false"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	yes := true
	to := recipientFor(cmd, 1001, 3, 55, &yes)
	if to.ChatID != 7 || to.ThreadID != 3 || to.ReplyToMessageID != 55 || to.DisablePreview {
		t.Fatalf("unexpected recipient: %+v", to)
	}
}

func TestRecipientFor_FrontmatterWithoutFlags(t *testing.T) {
	cmd := newSendCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	no := false
	to := recipientFor(cmd, 1001, 0, 9, &no)
	if to.ChatID != 1001 || to.ReplyToMessageID != 9 || to.DisablePreview {
		t.Fatalf("unexpected recipient: %+v", to)
	}
}
