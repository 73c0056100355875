package dotcmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dbshell/rsqlite3/internal/clistate"
	"github.com/dbshell/rsqlite3/internal/engine"
)

func testSetup(t *testing.T) (*engine.Engine, *clistate.State) {
	t.Helper()
	eng, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	state := clistate.New(":memory:", false)
	return eng, state
}

func TestExecuteLineQuit(t *testing.T) {
	eng, state := testSetup(t)
	var out bytes.Buffer
	res, err := ExecuteLine(".quit", eng, state, &out)
	if err != nil {
		t.Fatalf("ExecuteLine: %v", err)
	}
	if res.Outcome != Quit {
		t.Errorf("got outcome %v, want Quit", res.Outcome)
	}
}

func TestExecuteLineTables(t *testing.T) {
	eng, state := testSetup(t)
	if _, err := eng.Execute(`CREATE TABLE users (id INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	var out bytes.Buffer
	if _, err := ExecuteLine(".tables", eng, state, &out); err != nil {
		t.Fatalf("ExecuteLine: %v", err)
	}
	if !strings.Contains(out.String(), "users") {
		t.Errorf("expected users in .tables output, got %q", out.String())
	}
}

func TestExecuteLineModeSetAndQuery(t *testing.T) {
	eng, state := testSetup(t)
	var out bytes.Buffer
	if _, err := ExecuteLine(".mode csv", eng, state, &out); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if state.Mode != clistate.ModeCSV {
		t.Fatalf("got mode %v, want csv", state.Mode)
	}

	out.Reset()
	if _, err := ExecuteLine(".mode", eng, state, &out); err != nil {
		t.Fatalf("query mode: %v", err)
	}
	if !strings.Contains(out.String(), "csv") {
		t.Errorf("got %q", out.String())
	}
}

func TestExecuteLineUnknownCommandSuggestsDidYouMean(t *testing.T) {
	eng, state := testSetup(t)
	var out bytes.Buffer
	_, err := ExecuteLine(".tabls", eng, state, &out)
	if err == nil {
		t.Fatal("expected an error for an unknown command")
	}
	if !strings.Contains(err.Error(), ".tables") {
		t.Errorf("expected a did-you-mean suggestion for .tables, got %q", err.Error())
	}
}

func TestExecuteLineHeadersToggle(t *testing.T) {
	eng, state := testSetup(t)
	var out bytes.Buffer
	if _, err := ExecuteLine(".headers off", eng, state, &out); err != nil {
		t.Fatalf("headers off: %v", err)
	}
	if state.Headers {
		t.Error("expected headers to be off")
	}
}

func TestExecuteLineOpenReturnsChangeDb(t *testing.T) {
	eng, state := testSetup(t)
	var out bytes.Buffer
	res, err := ExecuteLine(".open other.db", eng, state, &out)
	if err != nil {
		t.Fatalf("ExecuteLine: %v", err)
	}
	if res.Outcome != ChangeDb || res.DBPath != "other.db" {
		t.Errorf("got %+v", res)
	}
}

func TestExecuteLineSeparatorShowAndSet(t *testing.T) {
	eng, state := testSetup(t)
	var out bytes.Buffer
	if _, err := ExecuteLine(".separator ,", eng, state, &out); err != nil {
		t.Fatalf("set separator: %v", err)
	}
	if state.Separator != "," {
		t.Errorf("got separator %q, want ,", state.Separator)
	}
}

func TestExecuteLineDumpProducesSQL(t *testing.T) {
	eng, state := testSetup(t)
	if _, err := eng.Execute(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	var out bytes.Buffer
	if _, err := ExecuteLine(".dump", eng, state, &out); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(out.String(), "CREATE TABLE t") {
		t.Errorf("expected dump to contain CREATE TABLE, got %q", out.String())
	}
}

func TestExecuteLineHoverDescribesTable(t *testing.T) {
	eng, state := testSetup(t)
	if _, err := eng.Execute(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	var out bytes.Buffer
	if _, err := ExecuteLine(".hover users", eng, state, &out); err != nil {
		t.Fatalf("ExecuteLine: %v", err)
	}
	if !strings.Contains(out.String(), "name") {
		t.Errorf("expected hover text to mention column name, got %q", out.String())
	}
}

func TestExecuteLineGotoResolvesColumn(t *testing.T) {
	eng, state := testSetup(t)
	if _, err := eng.Execute(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	var out bytes.Buffer
	if _, err := ExecuteLine(".goto name", eng, state, &out); err != nil {
		t.Fatalf("ExecuteLine: %v", err)
	}
	if !strings.Contains(out.String(), "users.name") {
		t.Errorf("got %q, want output to contain users.name", out.String())
	}
}

func TestExecuteLineHoverUnknownWord(t *testing.T) {
	eng, state := testSetup(t)
	var out bytes.Buffer
	if _, err := ExecuteLine(".hover nosuchword", eng, state, &out); err != nil {
		t.Fatalf("ExecuteLine: %v", err)
	}
	if !strings.Contains(out.String(), "no information") {
		t.Errorf("got %q", out.String())
	}
}

func TestExecuteLineEmptyIsError(t *testing.T) {
	eng, state := testSetup(t)
	var out bytes.Buffer
	if _, err := ExecuteLine("   ", eng, state, &out); err == nil {
		t.Error("expected an error for an empty command line")
	}
}
