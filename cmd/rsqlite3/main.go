// Command rsqlite3 is an interactive SQL shell for SQLite-compatible
// database files: a line editor with context-sensitive completion,
// hover, and diagnostics, plus a dot-command dispatcher and an
// eight-mode output formatter.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/mattn/go-isatty"

	"github.com/dbshell/rsqlite3/internal/clistate"
	"github.com/dbshell/rsqlite3/internal/dotcmd"
	"github.com/dbshell/rsqlite3/internal/engine"
	"github.com/dbshell/rsqlite3/internal/repl"
	"github.com/dbshell/rsqlite3/internal/util"
)

var version = "dev"

type options struct {
	Header    bool   `short:"H" long:"header" description:"Turn on display of headers"`
	NoHeader  bool   `long:"noheader" description:"Turn off display of headers"`
	Mode      string `short:"m" long:"mode" description:"Set output mode" value-name:"MODE" default:"list"`
	Separator string `short:"s" long:"separator" description:"Set output field separator" value-name:"SEP" default:"|"`
	NullValue string `short:"n" long:"nullvalue" description:"Set string used to represent NULL" value-name:"STR"`
	ReadOnly  bool   `short:"r" long:"readonly" description:"Open the database read-only"`
	Init      string `long:"init" description:"Run FILE containing SQL/dot-commands on startup" value-name:"FILE"`
	Cmd       string `long:"cmd" description:"Run COMMAND as the SQL to execute when no SQL argument is given (stdin is then not read)" value-name:"COMMAND"`
	Echo      bool   `short:"e" long:"echo" description:"Print commands before execution"`
	Bail      bool   `short:"b" long:"bail" description:"Stop after hitting an error"`
	Color     bool   `long:"color" description:"Force colored output"`
	NoColor   bool   `long:"no-color" description:"Disable colored output"`
	Version   bool   `long:"version" description:"Show version and exit"`

	Positional struct {
		Database string `positional-arg-name:"DATABASE"`
		SQL      string `positional-arg-name:"SQL"`
	} `positional-args:"yes"`
}

func main() {
	util.InitSlog()

	opts, args := parseOptions(os.Args[1:])
	if opts.Version {
		fmt.Println(version)
		return
	}

	dbPath := opts.Positional.Database
	if dbPath == "" {
		dbPath = "database.db"
	}

	colorOutput := decideColor(opts)

	eng, err := engine.OpenMode(dbPath, opts.ReadOnly)
	if err != nil {
		log.Fatalf("Error opening database: %s", err)
	}
	defer eng.Close()

	state := clistate.New(dbPath, colorOutput)
	applyOptions(state, opts)

	if opts.Init != "" {
		if _, err := dotcmd.ExecuteLine(".read "+opts.Init, eng, state, state.Writer()); err != nil {
			log.Fatalf("Error: %s", err)
		}
		state.Flush()
	}

	oneShotSQL := opts.Positional.SQL
	if oneShotSQL == "" && opts.Cmd != "" {
		oneShotSQL = opts.Cmd
	}

	switch {
	case len(args) > 0:
		log.Fatalf("Error: unexpected arguments: %v", args)

	case oneShotSQL != "":
		if err := repl.RunOneShot(eng, state, oneShotSQL); err != nil {
			log.Fatalf("Error: %s", err)
		}

	case !isatty.IsTerminal(os.Stdin.Fd()):
		if err := repl.RunPiped(eng, state, os.Stdin); err != nil {
			log.Fatalf("Error: %s", err)
		}

	default:
		r, err := repl.New(eng, state)
		if err != nil {
			log.Fatalf("Error: %s", err)
		}
		if err := r.Run(); err != nil {
			log.Fatalf("Error: %s", err)
		}
	}
}

func parseOptions(args []string) (options, []string) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[options] [DATABASE] [SQL]"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		log.Fatal(err)
	}

	return opts, rest
}

func applyOptions(state *clistate.State, opts options) {
	if opts.Header {
		state.Headers = true
	}
	if opts.NoHeader {
		state.Headers = false
	}
	if mode, ok := clistate.ParseMode(opts.Mode); ok {
		state.Mode = mode
	}
	if opts.Separator != "" {
		state.Separator = opts.Separator
	}
	state.NullValue = opts.NullValue
	state.Echo = opts.Echo
	state.Bail = opts.Bail
}

func decideColor(opts options) bool {
	if opts.NoColor {
		return false
	}
	if opts.Color {
		return true
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
