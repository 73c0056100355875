// Package dotcmd implements the dot-command dispatcher: a closed set of
// directives (.tables, .schema, .mode, ...) parsed from a whitespace-
// split line and executed against the live engine and session state.
package dotcmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/dbshell/rsqlite3/internal/clistate"
	"github.com/dbshell/rsqlite3/internal/engine"
	"github.com/dbshell/rsqlite3/internal/importexport"
	"github.com/dbshell/rsqlite3/internal/lsp"
	"github.com/dbshell/rsqlite3/internal/output"
	"github.com/dbshell/rsqlite3/internal/schemacache"
	"github.com/dbshell/rsqlite3/internal/sqlhighlight"
)

// Command is the closed set of recognized dot-commands.
type Command int

const (
	CmdQuit Command = iota
	CmdExit
	CmdHelp
	CmdTables
	CmdSchema
	CmdMode
	CmdHeaders
	CmdShow
	CmdDump
	CmdOutput
	CmdRead
	CmdDatabases
	CmdSeparator
	CmdNullValue
	CmdImport
	CmdTimer
	CmdEcho
	CmdWidth
	CmdBail
	CmdOpen
	CmdHover
	CmdGoto
)

var byName = map[string]Command{
	".quit": CmdQuit, ".exit": CmdExit, ".help": CmdHelp, ".tables": CmdTables,
	".schema": CmdSchema, ".mode": CmdMode, ".headers": CmdHeaders, ".show": CmdShow,
	".dump": CmdDump, ".output": CmdOutput, ".read": CmdRead, ".databases": CmdDatabases,
	".separator": CmdSeparator, ".nullvalue": CmdNullValue, ".import": CmdImport,
	".timer": CmdTimer, ".echo": CmdEcho, ".width": CmdWidth, ".bail": CmdBail, ".open": CmdOpen,
	".hover": CmdHover, ".goto": CmdGoto,
}

var allCommandNames = func() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

// didYouMean fuzzy-matches an unrecognized command against the known
// command names, used only to improve the error message; it never
// influences dispatch itself.
func didYouMean(typed string) (string, bool) {
	matches := fuzzy.Find(typed, allCommandNames)
	if len(matches) == 0 {
		return "", false
	}
	return allCommandNames[matches[0].Index], true
}

// Outcome is the tristate the dispatcher returns to the REPL loop.
type Outcome int

const (
	Continue Outcome = iota
	Quit
	ChangeDb
)

// Result carries the dispatch outcome plus, for ChangeDb, the new path.
type Result struct {
	Outcome Outcome
	DBPath  string
}

// Writer is the minimal sink dot-commands write human-readable text to;
// clistate.State satisfies it via its Writer() io.Writer.
type Writer interface {
	Write(p []byte) (int, error)
}

// ExecuteLine parses and runs one dot-command line, writing any textual
// output (not query results) to out.
func ExecuteLine(line string, eng *engine.Engine, state *clistate.State, out Writer) (Result, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Result{}, fmt.Errorf("empty command")
	}

	cmd, ok := byName[parts[0]]
	if !ok {
		if guess, found := didYouMean(parts[0]); found {
			return Result{}, fmt.Errorf("unknown command: %s. Did you mean %s? Enter \".help\" for help", parts[0], guess)
		}
		return Result{}, fmt.Errorf("unknown command: %s. Enter \".help\" for help", parts[0])
	}
	args := parts[1:]

	switch cmd {
	case CmdQuit, CmdExit:
		return Result{Outcome: Quit}, nil

	case CmdHelp:
		writeLine(out, helpText())

	case CmdTables:
		if err := cmdTables(eng, out, argOrEmpty(args, 0)); err != nil {
			return Result{}, err
		}

	case CmdSchema:
		if err := cmdSchema(eng, state, out, argOrEmpty(args, 0)); err != nil {
			return Result{}, err
		}

	case CmdMode:
		if err := cmdMode(state, out, args); err != nil {
			return Result{}, err
		}

	case CmdHeaders:
		if err := cmdHeaders(state, out, args); err != nil {
			return Result{}, err
		}

	case CmdShow:
		writeLine(out, showSettings(state))

	case CmdDump:
		if err := cmdDump(eng, out, argOrEmpty(args, 0)); err != nil {
			return Result{}, err
		}

	case CmdOutput:
		if err := cmdOutput(state, out, args); err != nil {
			return Result{}, err
		}

	case CmdRead:
		if len(args) < 1 {
			return Result{}, fmt.Errorf("usage: .read FILE")
		}
		return cmdRead(args[0], eng, state, out)

	case CmdDatabases:
		if err := cmdDatabases(eng, out); err != nil {
			return Result{}, err
		}

	case CmdSeparator:
		cmdSeparator(state, out, args)

	case CmdNullValue:
		cmdNullValue(state, out, args)

	case CmdImport:
		if len(args) < 2 {
			return Result{}, fmt.Errorf("usage: .import FILE TABLE")
		}
		if _, err := importexport.ImportCSV(eng, args[0], args[1]); err != nil {
			return Result{}, err
		}

	case CmdTimer:
		if err := cmdBoolToggle(&state.Timer, "timer", out, args); err != nil {
			return Result{}, err
		}

	case CmdEcho:
		if err := cmdBoolToggle(&state.Echo, "echo", out, args); err != nil {
			return Result{}, err
		}

	case CmdWidth:
		if err := cmdWidth(state, args); err != nil {
			return Result{}, err
		}

	case CmdBail:
		if err := cmdBoolToggle(&state.Bail, "bail", out, args); err != nil {
			return Result{}, err
		}

	case CmdOpen:
		if len(args) < 1 {
			return Result{}, fmt.Errorf("usage: .open FILENAME")
		}
		return Result{Outcome: ChangeDb, DBPath: args[0]}, nil

	case CmdHover:
		if len(args) < 1 {
			return Result{}, fmt.Errorf("usage: .hover WORD")
		}
		if err := cmdHover(eng, out, args[0]); err != nil {
			return Result{}, err
		}

	case CmdGoto:
		if len(args) < 1 {
			return Result{}, fmt.Errorf("usage: .goto WORD")
		}
		if err := cmdGoto(eng, out, args[0]); err != nil {
			return Result{}, err
		}
	}

	return Result{Outcome: Continue}, nil
}

func writeLine(w Writer, s string) {
	fmt.Fprintln(w, s)
}

func argOrEmpty(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func helpText() string {
	return strings.TrimSpace(`
.bail on|off           Stop after hitting an error.  Default OFF
.databases             List names and files of attached databases
.dump ?TABLE?          Render database content as SQL
.echo on|off           Turn command echo on or off
.exit                  Exit this program
.goto WORD             Show what table/column WORD refers to, and its CREATE statement
.headers on|off        Turn display of headers on or off
.help                  Show this message
.hover WORD            Show schema documentation for WORD (table, column, keyword, or function)
.import FILE TABLE     Import data from FILE into TABLE
.mode MODE             Set output mode
                       MODE is one of: list, csv, column, line, json, jsonl, table, markdown
.nullvalue STRING      Use STRING in place of NULL values
.open FILE             Close existing database and reopen FILE
.output FILE           Send output to FILE (or stdout if FILE is omitted)
.quit                  Exit this program
.read FILE             Read input from FILE
.schema ?TABLE?        Show the CREATE statements
.separator SEP         Change separator for output mode "list"
.show                  Show the current values for various settings
.tables ?PATTERN?      List names of tables matching PATTERN
.timer on|off          Turn SQL timer on or off
.width NUM1 NUM2 ...   Set column widths for "column" mode
`)
}

func cmdTables(eng *engine.Engine, out Writer, pattern string) error {
	tables, err := eng.TableNames()
	if err != nil {
		return err
	}
	for _, t := range tables {
		if pattern == "" || strings.Contains(t, pattern) {
			writeLine(out, t)
		}
	}
	return nil
}

var schemaKindOrder = map[string]int{"table": 1, "view": 2, "index": 3, "trigger": 4}

func cmdSchema(eng *engine.Engine, state *clistate.State, out Writer, table string) error {
	useHighlight := state.ColorOutput && !state.IsRedirected()

	type entry struct {
		kind, name, sql string
	}
	var query string
	var args []any
	if table != "" {
		query = `select type, name, sql from sqlite_master where
			(type='table' and name=?) or
			(type='index' and tbl_name=? and sql is not null) or
			(type='trigger' and tbl_name=?) or
			(type='view' and name=?)`
		args = []any{table, table, table, table}
	} else {
		query = `select type, name, sql from sqlite_master where sql is not null and name not like 'sqlite_%'`
	}

	rows, err := eng.DB().Query(query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	var entries []entry
	for rows.Next() {
		var e entry
		var sql *string
		if err := rows.Scan(&e.kind, &e.name, &sql); err != nil {
			return err
		}
		if sql == nil {
			continue
		}
		e.sql = *sql
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		oi, oj := schemaKindOrder[entries[i].kind], schemaKindOrder[entries[j].kind]
		if oi != oj {
			return oi < oj
		}
		return entries[i].name < entries[j].name
	})

	for i, e := range entries {
		if i > 0 {
			writeLine(out, "")
		}
		text := e.sql
		if useHighlight {
			text = sqlhighlight.Highlight(text)
		}
		writeLine(out, text+";")
	}

	return nil
}

func cmdMode(state *clistate.State, out Writer, args []string) error {
	if len(args) == 0 {
		writeLine(out, "current output mode: "+state.Mode.String())
		return nil
	}
	mode, ok := clistate.ParseMode(args[0])
	if !ok {
		return fmt.Errorf("mode should be one of: list, csv, column, line, json, jsonl, table, markdown")
	}
	state.Mode = mode
	return nil
}

func cmdHeaders(state *clistate.State, out Writer, args []string) error {
	if len(args) == 0 {
		writeLine(out, "headers: "+onOff(state.Headers))
		return nil
	}
	b, ok := parseBoolArg(args[0])
	if !ok {
		return fmt.Errorf("usage: .headers on|off (got: %s)", args[0])
	}
	state.Headers = b
	return nil
}

func showSettings(state *clistate.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %s\n", "database:", state.DBPath)
	fmt.Fprintf(&b, "%-20s %s\n", "mode:", state.Mode.String())
	fmt.Fprintf(&b, "%-20s %s\n", "headers:", onOff(state.Headers))
	fmt.Fprintf(&b, "%-20s %q\n", "separator:", state.Separator)
	fmt.Fprintf(&b, "%-20s %q\n", "nullvalue:", state.NullValue)
	fmt.Fprintf(&b, "%-20s %s\n", "echo:", onOff(state.Echo))
	fmt.Fprintf(&b, "%-20s %s\n", "bail:", onOff(state.Bail))
	fmt.Fprintf(&b, "%-20s %s\n", "timer:", onOff(state.Timer))
	fmt.Fprintf(&b, "%-20s %v", "width:", state.Widths)
	return b.String()
}

func cmdDump(eng *engine.Engine, out Writer, table string) error {
	var tables []string
	if table != "" {
		tables = []string{table}
	}
	dump, err := importexport.Dump(eng, tables)
	if err != nil {
		return err
	}
	writeLine(out, strings.TrimRight(dump, "\n"))
	return nil
}

func cmdOutput(state *clistate.State, out Writer, args []string) error {
	if len(args) == 0 || args[0] == "" {
		if state.SavedMode != nil {
			state.Mode = *state.SavedMode
			state.SavedMode = nil
		}
		return state.RevertToStdout()
	}

	file := args[0]
	if err := state.RedirectToFile(file); err != nil {
		return err
	}

	ext := extOf(file)
	if mode, ok := clistate.ModeForExtension(ext); ok {
		if state.SavedMode == nil {
			saved := state.Mode
			state.SavedMode = &saved
		}
		state.Mode = mode
	}
	return nil
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(path[idx:])
}

func cmdRead(path string, eng *engine.Engine, state *clistate.State, out Writer) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read file: %s: %w", path, err)
	}

	for _, stmt := range strings.Split(string(content), ";") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ".") {
			res, err := ExecuteLine(trimmed, eng, state, out)
			if err != nil {
				return Result{}, err
			}
			switch res.Outcome {
			case ChangeDb:
				return Result{}, fmt.Errorf("cannot change database inside .read")
			case Quit:
				return Result{Outcome: Quit}, nil
			}
			continue
		}
		result, err := eng.Execute(trimmed)
		if err != nil {
			return Result{}, err
		}
		if result != nil && len(result.Columns) > 0 {
			rendered, err := output.Format(result, state)
			if err != nil {
				return Result{}, err
			}
			writeLine(out, rendered)
		}
	}

	return Result{Outcome: Continue}, nil
}

func cmdDatabases(eng *engine.Engine, out Writer) error {
	dbs, err := eng.DatabaseList()
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("seq  name             file\n")
	b.WriteString("---  ---------------  --------------------------------------------------------\n")
	for _, d := range dbs {
		fmt.Fprintf(&b, "%-3d  %-15s  %s\n", d.Seq, d.Name, d.File)
	}
	writeLine(out, strings.TrimRight(b.String(), "\n"))
	return nil
}

// cmdHover and cmdGoto expose the Hover/Goto Engine (internal/lsp) as
// dot-commands, since this shell has no editor front-end to drive cursor
// hover directly. Both resolve WORD as if the cursor sat just past it.
func cmdHover(eng *engine.Engine, out Writer, word string) error {
	cache, err := schemacache.Refresh(eng)
	if err != nil {
		return err
	}
	h := lsp.Hover(word, len(word), cache)
	if h.Kind == lsp.HoverNone {
		writeLine(out, fmt.Sprintf("no information for %q", word))
		return nil
	}
	writeLine(out, h.Text)
	return nil
}

func cmdGoto(eng *engine.Engine, out Writer, word string) error {
	cache, err := schemacache.Refresh(eng)
	if err != nil {
		return err
	}
	def := lsp.Goto(word, len(word), cache)
	if !def.Found {
		writeLine(out, fmt.Sprintf("no definition for %q", word))
		return nil
	}
	if def.Column != "" {
		writeLine(out, fmt.Sprintf("%s.%s", def.Table, def.Column))
	} else {
		writeLine(out, def.Table)
	}
	if def.CreateText != "" {
		writeLine(out, def.CreateText)
	}
	return nil
}

func cmdSeparator(state *clistate.State, out Writer, args []string) {
	if len(args) == 0 {
		writeLine(out, fmt.Sprintf("current separator: %q", state.Separator))
		return
	}
	state.Separator = args[0]
}

func cmdNullValue(state *clistate.State, out Writer, args []string) {
	if len(args) == 0 {
		writeLine(out, fmt.Sprintf("current nullvalue: %q", state.NullValue))
		return
	}
	state.NullValue = args[0]
}

func cmdBoolToggle(flag *bool, name string, out Writer, args []string) error {
	if len(args) == 0 {
		writeLine(out, name+": "+onOff(*flag))
		return nil
	}
	b, ok := parseBoolArg(args[0])
	if !ok {
		return fmt.Errorf("usage: .%s on|off (got: %s)", name, args[0])
	}
	*flag = b
	return nil
}

func cmdWidth(state *clistate.State, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: .width NUM1 NUM2 ...")
	}
	widths := make([]int, len(args))
	for i, a := range args {
		w, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("invalid width: %s", a)
		}
		widths[i] = w
	}
	state.Widths = widths
	return nil
}

func parseBoolArg(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "on", "1", "yes", "true":
		return true, true
	case "off", "0", "no", "false":
		return false, true
	default:
		return false, false
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
