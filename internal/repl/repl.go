// Package repl drives the interactive line-editor loop: it owns the
// engine connection and session state, accumulates multi-line SQL,
// dispatches dot-commands, and wires completion and highlighting into
// the line editor.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/dbshell/rsqlite3/internal/clistate"
	"github.com/dbshell/rsqlite3/internal/completion"
	"github.com/dbshell/rsqlite3/internal/dotcmd"
	"github.com/dbshell/rsqlite3/internal/engine"
	"github.com/dbshell/rsqlite3/internal/lsp"
	"github.com/dbshell/rsqlite3/internal/output"
	"github.com/dbshell/rsqlite3/internal/schemacache"
	"github.com/dbshell/rsqlite3/internal/sqlhighlight"
)

const version = "0.1.0"

// REPL is the interactive shell: readline instance, engine, schema
// cache, and session state, kept consistent across `.open` reconnects.
type REPL struct {
	eng   *engine.Engine
	state *clistate.State
	cache *schemacache.Cache
	rl    *readline.Instance
}

// New wraps an already-open engine and session state in a REPL ready to
// Run. Callers apply CLI flags or an --init script to state before
// calling this so the interactive loop starts already configured.
func New(eng *engine.Engine, state *clistate.State) (*REPL, error) {
	r := &REPL{eng: eng, state: state}
	if err := r.refreshCache(); err != nil {
		return nil, err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          state.Prompt(),
		AutoComplete:    &completer{repl: r},
		Painter:         &painter{repl: r},
		InterruptPrompt: "^C",
		EOFPrompt:       "^D",
	})
	if err != nil {
		return nil, err
	}
	r.rl = rl

	return r, nil
}

func (r *REPL) refreshCache() error {
	cache, err := schemacache.Refresh(r.eng)
	if err != nil {
		return err
	}
	r.cache = cache
	return nil
}

// Run drives the read-eval-print loop until Quit or EOF.
func (r *REPL) Run() error {
	defer r.rl.Close()
	r.printWelcome()

	for {
		r.rl.SetPrompt(r.state.Prompt())
		line, err := r.rl.Readline()

		switch {
		case errors.Is(err, readline.ErrInterrupt):
			r.state.TakeBuffer()
			fmt.Fprintln(os.Stdout, "^C")
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		outcome, err := r.processLine(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			if r.state.Bail {
				return err
			}
			r.state.TakeBuffer()
			continue
		}

		switch outcome.Outcome {
		case dotcmd.Quit:
			return nil
		case dotcmd.ChangeDb:
			if err := r.reopen(outcome.DBPath); err != nil {
				fmt.Fprintf(os.Stderr, "Error opening database: %s\n", err)
			} else {
				fmt.Fprintf(os.Stdout, "Connected to %s\n", outcome.DBPath)
			}
		}
	}
}

func (r *REPL) processLine(line string) (dotcmd.Result, error) {
	trimmed := strings.TrimSpace(line)

	if r.state.SQLBuffer == "" && strings.HasPrefix(trimmed, ".") {
		return r.dispatchDot(trimmed)
	}

	r.state.AppendLine(line)

	if strings.HasSuffix(strings.TrimSpace(r.state.SQLBuffer), ";") {
		sql := strings.TrimSpace(r.state.TakeBuffer())
		if r.state.Echo {
			fmt.Fprintln(os.Stdout, sql)
		}
		if err := r.executeAndDisplay(sql); err != nil {
			return dotcmd.Result{}, err
		}
	}

	return dotcmd.Result{Outcome: dotcmd.Continue}, nil
}

func (r *REPL) dispatchDot(command string) (dotcmd.Result, error) {
	res, err := dotcmd.ExecuteLine(command, r.eng, r.state, r.state.Writer())
	r.state.Flush()
	if err != nil {
		return dotcmd.Result{}, err
	}

	if strings.HasPrefix(command, ".schema") || strings.HasPrefix(command, ".tables") {
		if refreshErr := r.refreshCache(); refreshErr != nil {
			return dotcmd.Result{}, refreshErr
		}
	}

	return res, nil
}

func (r *REPL) executeAndDisplay(sql string) error {
	var start time.Time
	if r.state.Timer {
		start = time.Now()
	}

	result, err := r.eng.Execute(sql)
	if err != nil {
		return enrichWithDiagnostics(err, sql, r.eng)
	}

	if len(result.Columns) > 0 {
		rendered, err := output.Format(result, r.state)
		if err != nil {
			return err
		}
		fmt.Fprintln(r.state.Writer(), rendered)
		r.state.Flush()
	}

	if r.state.Timer {
		fmt.Fprintf(os.Stderr, "Run Time: real %.3f\n", time.Since(start).Seconds())
	}

	return nil
}

func (r *REPL) reopen(path string) error {
	newEng, err := engine.Open(path)
	if err != nil {
		return err
	}
	r.eng.Close()
	r.eng = newEng
	r.state.DBPath = path
	return r.refreshCache()
}

// enrichWithDiagnostics re-locates an execution failure through
// lsp.Diagnose so the error message carries a line:column position
// (spec.md §7: "engine errors ... surfaced as messages plus, in the LSP
// diagnostics path, as ranges"). Falls back to the raw error if Diagnose
// turns up nothing (e.g. a runtime constraint violation rather than a
// statement that fails to prepare).
func enrichWithDiagnostics(err error, sql string, eng *engine.Engine) error {
	diags := lsp.Diagnose(sql, eng)
	if len(diags) == 0 {
		return err
	}
	d := diags[0]
	return fmt.Errorf("%d:%d: %s", d.Line, d.Column, d.Message)
}

func (r *REPL) printWelcome() {
	fmt.Fprintf(os.Stdout, "rsqlite3 version %s\n", version)
	fmt.Fprintln(os.Stdout, `Enter ".help" for usage hints.`)
	fmt.Fprintf(os.Stdout, "Connected to %s\n", r.state.DBPath)
}

// completer bridges the completion/lsp engines into readline's
// AutoCompleter interface: Do receives the full line and cursor
// position (in runes) and returns candidate suffixes.
type completer struct {
	repl *REPL
}

func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	items := completion.Complete(text, len(text), c.repl.cache)

	prefix, _ := currentWord(text)
	suffixes := make([][]rune, 0, len(items))
	for _, item := range items {
		if len(item.Label) >= len(prefix) {
			suffixes = append(suffixes, []rune(item.Label[len(prefix):]))
		}
	}
	return suffixes, len(prefix)
}

func currentWord(text string) (string, int) {
	start := len(text)
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	return text[start:], start
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// painter applies SQL syntax highlighting to the in-progress line as the
// user types, the other half of spec.md §4.8's "seed the line editor
// with the completer as both completion and highlight helper". Dot-
// commands and blank lines are left unhighlighted.
type painter struct {
	repl *REPL
}

func (p *painter) Paint(line []rune, pos int) []rune {
	if !p.repl.state.ColorOutput || !sqlhighlight.Available() {
		return line
	}
	text := string(line)
	if strings.HasPrefix(strings.TrimSpace(text), ".") {
		return line
	}
	return []rune(sqlhighlight.Highlight(text))
}

// RunOneShot executes a single SQL argument (possibly containing several
// `;`-separated statements) and prints results, honoring the state's
// configured mode.
func RunOneShot(eng *engine.Engine, state *clistate.State, sql string) error {
	for _, stmt := range strings.Split(sql, ";") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		result, err := eng.Execute(trimmed)
		if err != nil {
			return enrichWithDiagnostics(err, trimmed, eng)
		}
		if len(result.Columns) > 0 {
			rendered, err := output.Format(result, state)
			if err != nil {
				return err
			}
			fmt.Fprintln(state.Writer(), rendered)
			state.Flush()
		}
	}
	return nil
}

// RunPiped reads all of r, splits on `;`, and runs each non-empty piece
// as SQL (dot-commands are not supported in piped mode).
func RunPiped(eng *engine.Engine, state *clistate.State, r io.Reader) error {
	buf, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return RunOneShot(eng, state, string(buf))
}
