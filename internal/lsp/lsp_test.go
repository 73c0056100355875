package lsp

import (
	"strings"
	"testing"

	"github.com/dbshell/rsqlite3/internal/engine"
	"github.com/dbshell/rsqlite3/internal/schemacache"
)

func testSetup(t *testing.T) (*engine.Engine, *schemacache.Cache) {
	t.Helper()
	eng, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	if _, err := eng.Execute(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	cache, err := schemacache.Refresh(eng)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return eng, cache
}

func TestHoverResolvesTable(t *testing.T) {
	_, cache := testSetup(t)
	text := "SELECT * FROM users"
	offset := strings.Index(text, "users") + 2
	h := Hover(text, offset, cache)
	if h.Kind != HoverTable {
		t.Fatalf("got kind %v, want HoverTable", h.Kind)
	}
	if h.Word != "users" {
		t.Errorf("got word %q", h.Word)
	}
}

func TestHoverResolvesColumn(t *testing.T) {
	_, cache := testSetup(t)
	text := "SELECT name FROM users"
	offset := strings.Index(text, "name") + 2
	h := Hover(text, offset, cache)
	if h.Kind != HoverColumn {
		t.Fatalf("got kind %v, want HoverColumn", h.Kind)
	}
}

func TestHoverResolvesKeyword(t *testing.T) {
	_, cache := testSetup(t)
	text := "SELECT * FROM users"
	h := Hover(text, 3, cache)
	if h.Kind != HoverKeyword {
		t.Fatalf("got kind %v, want HoverKeyword", h.Kind)
	}
}

func TestHoverTableIncludesIndexNames(t *testing.T) {
	eng, _ := testSetup(t)
	if _, err := eng.Execute(`CREATE INDEX idx_users_name ON users (name)`); err != nil {
		t.Fatalf("create index: %v", err)
	}
	cache, err := schemacache.Refresh(eng)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	text := "SELECT * FROM users"
	offset := strings.Index(text, "users") + 2
	h := Hover(text, offset, cache)
	if !strings.Contains(h.Text, "idx_users_name") {
		t.Errorf("expected hover text to mention idx_users_name, got %q", h.Text)
	}
}

func TestHoverNoneOnEmptyPosition(t *testing.T) {
	_, cache := testSetup(t)
	h := Hover("   ", 1, cache)
	if h.Kind != HoverNone {
		t.Fatalf("got kind %v, want HoverNone", h.Kind)
	}
}

func TestGotoResolvesTableDefinition(t *testing.T) {
	_, cache := testSetup(t)
	text := "SELECT * FROM users"
	offset := strings.Index(text, "users") + 2
	def := Goto(text, offset, cache)
	if !def.Found || def.Table != "users" || def.Column != "" {
		t.Fatalf("got %+v", def)
	}
	if !strings.Contains(def.CreateText, "CREATE TABLE") {
		t.Errorf("expected create text, got %q", def.CreateText)
	}
}

func TestGotoResolvesColumnDefinition(t *testing.T) {
	_, cache := testSetup(t)
	text := "SELECT name FROM users"
	offset := strings.Index(text, "name") + 2
	def := Goto(text, offset, cache)
	if !def.Found || def.Table != "users" || def.Column != "name" {
		t.Fatalf("got %+v", def)
	}
}

func TestDiagnoseValidStatement(t *testing.T) {
	eng, _ := testSetup(t)
	diags := Diagnose("SELECT * FROM users;", eng)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestDiagnoseInvalidStatement(t *testing.T) {
	eng, _ := testSetup(t)
	diags := Diagnose("SELECT FROM FROM;", eng)
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic for invalid SQL")
	}
}

func TestDiagnoseMultipleStatementsOnlyFlagsBadOne(t *testing.T) {
	eng, _ := testSetup(t)
	diags := Diagnose("SELECT * FROM users; SELEC BAD SYNTAX;", eng)
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %v", len(diags), diags)
	}
}

func TestDiagnoseLineColumnAcrossNewlines(t *testing.T) {
	eng, _ := testSetup(t)
	text := "SELECT * FROM users;\nSELEC BAD;"
	diags := Diagnose(text, eng)
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d", len(diags))
	}
	if diags[0].Line != 2 {
		t.Errorf("got line %d, want 2", diags[0].Line)
	}
}
