package sqlhighlight

import (
	"strings"
	"testing"
)

func TestAvailableReportsRegisteredComponents(t *testing.T) {
	if !Available() {
		t.Skip("sql lexer/terminal256 formatter/monokai style not registered in this build")
	}
}

func TestHighlightContainsOriginalText(t *testing.T) {
	sql := "SELECT * FROM users"
	out := Highlight(sql)
	if !strings.Contains(out, "SELECT") {
		t.Errorf("expected highlighted output to retain SELECT, got %q", out)
	}
}

func TestHighlightOrdinaryInputYieldsText(t *testing.T) {
	// Highlight never errors outward regardless of registry state; this
	// just pins that calling it on ordinary input never panics and
	// always yields non-empty text.
	out := Highlight("SELECT 1")
	if out == "" {
		t.Error("expected non-empty output")
	}
}
