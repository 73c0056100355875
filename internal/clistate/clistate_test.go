package clistate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseModeAliases(t *testing.T) {
	cases := map[string]OutputMode{
		"list":     ModeList,
		"csv":      ModeCSV,
		"column":   ModeColumn,
		"columns":  ModeColumn,
		"box":      ModeTable,
		"table":    ModeTable,
		"markdown": ModeMarkdown,
		"md":       ModeMarkdown,
	}
	for name, want := range cases {
		got, ok := ParseMode(name)
		if !ok || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v, true", name, got, ok, want)
		}
	}
}

func TestParseModeUnknown(t *testing.T) {
	if _, ok := ParseMode("nonsense"); ok {
		t.Error("expected ParseMode to reject an unknown mode name")
	}
}

func TestModeForExtension(t *testing.T) {
	cases := map[string]OutputMode{
		".csv":      ModeCSV,
		".json":     ModeJSON,
		".jsonl":    ModeJSONL,
		".ndjson":   ModeJSONL,
		".md":       ModeMarkdown,
		".markdown": ModeMarkdown,
	}
	for ext, want := range cases {
		got, ok := ModeForExtension(ext)
		if !ok || got != want {
			t.Errorf("ModeForExtension(%q) = %v, %v; want %v, true", ext, got, ok, want)
		}
	}
	if _, ok := ModeForExtension(".txt"); ok {
		t.Error("expected .txt to not auto-switch mode")
	}
}

func TestPromptReflectsBufferState(t *testing.T) {
	s := New(":memory:", false)
	if got := s.Prompt(); got != "rsqlite3> " {
		t.Errorf("got prompt %q for empty buffer", got)
	}
	s.AppendLine("SELECT 1")
	if got := s.Prompt(); got != "     ...> " {
		t.Errorf("got prompt %q for non-empty buffer", got)
	}
}

func TestAppendLineJoinsWithSpace(t *testing.T) {
	s := New(":memory:", false)
	s.AppendLine("SELECT *")
	s.AppendLine("FROM users;")
	if got := s.TakeBuffer(); got != "SELECT * FROM users;" {
		t.Errorf("got buffer %q", got)
	}
	if s.SQLBuffer != "" {
		t.Error("TakeBuffer should clear the buffer")
	}
}

func TestRedirectAndRevert(t *testing.T) {
	s := New(":memory:", false)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	if err := s.RedirectToFile(path); err != nil {
		t.Fatalf("RedirectToFile: %v", err)
	}
	if !s.IsRedirected() {
		t.Fatal("expected IsRedirected to be true after redirect")
	}

	if _, err := s.Writer().Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.RevertToStdout(); err != nil {
		t.Fatalf("RevertToStdout: %v", err)
	}
	if s.IsRedirected() {
		t.Fatal("expected IsRedirected to be false after revert")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != "hello" {
		t.Errorf("got file content %q", content)
	}
}

func TestWidthForOutOfRange(t *testing.T) {
	s := New(":memory:", false)
	s.Widths = []int{10, 20}
	if got := s.WidthFor(0); got != 10 {
		t.Errorf("got %d, want 10", got)
	}
	if got := s.WidthFor(5); got != 0 {
		t.Errorf("got %d, want 0 for out-of-range index", got)
	}
}
