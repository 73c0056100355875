package main

import (
	"testing"

	"github.com/dbshell/rsqlite3/internal/clistate"
)

func TestDecideColorExplicitFlags(t *testing.T) {
	if !decideColor(options{Color: true}) {
		t.Error("--color should force color on")
	}
	if decideColor(options{NoColor: true}) {
		t.Error("--no-color should force color off")
	}
	if decideColor(options{Color: true, NoColor: true}) {
		t.Error("--no-color should win when both flags are set")
	}
}

func TestApplyOptionsMode(t *testing.T) {
	state := clistate.New(":memory:", false)
	opts := options{Mode: "json", Separator: ",", NullValue: "NULL_MARK", Echo: true, Bail: true}
	applyOptions(state, opts)

	if state.Mode != clistate.ModeJSON {
		t.Errorf("got mode %v, want json", state.Mode)
	}
	if state.Separator != "," {
		t.Errorf("got separator %q", state.Separator)
	}
	if state.NullValue != "NULL_MARK" {
		t.Errorf("got nullvalue %q", state.NullValue)
	}
	if !state.Echo || !state.Bail {
		t.Error("expected echo and bail to be set")
	}
}

func TestApplyOptionsHeaderToggle(t *testing.T) {
	state := clistate.New(":memory:", false)
	applyOptions(state, options{NoHeader: true})
	if state.Headers {
		t.Error("expected --noheader to turn headers off")
	}

	state2 := clistate.New(":memory:", false)
	state2.Headers = false
	applyOptions(state2, options{Header: true})
	if !state2.Headers {
		t.Error("expected --header to turn headers on")
	}
}

func TestParseOptionsPositionalArgs(t *testing.T) {
	opts, rest := parseOptions([]string{"mydb.sqlite", "SELECT 1"})
	if len(rest) != 0 {
		t.Fatalf("expected no leftover args, got %v", rest)
	}
	if opts.Positional.Database != "mydb.sqlite" || opts.Positional.SQL != "SELECT 1" {
		t.Fatalf("got positional %+v", opts.Positional)
	}
}
