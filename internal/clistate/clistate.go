// Package clistate holds the REPL's mutable session state: output mode,
// display toggles, the SQL accumulation buffer, and the active output
// sink. Nothing outside the REPL loop mutates it.
package clistate

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// OutputMode is one of the eight result-rendering encodings.
type OutputMode int

const (
	ModeList OutputMode = iota
	ModeCSV
	ModeColumn
	ModeLine
	ModeJSON
	ModeJSONL
	ModeTable
	ModeMarkdown
)

func (m OutputMode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeCSV:
		return "csv"
	case ModeColumn:
		return "column"
	case ModeLine:
		return "line"
	case ModeJSON:
		return "json"
	case ModeJSONL:
		return "jsonl"
	case ModeTable:
		return "table"
	case ModeMarkdown:
		return "markdown"
	default:
		return "list"
	}
}

// ParseMode maps a user-typed mode name (including aliases) to an
// OutputMode. ok is false for unrecognized names.
func ParseMode(name string) (OutputMode, bool) {
	switch name {
	case "list":
		return ModeList, true
	case "csv":
		return ModeCSV, true
	case "column", "columns":
		return ModeColumn, true
	case "line":
		return ModeLine, true
	case "json":
		return ModeJSON, true
	case "jsonl":
		return ModeJSONL, true
	case "table", "box":
		return ModeTable, true
	case "markdown", "md":
		return ModeMarkdown, true
	default:
		return ModeList, false
	}
}

// ModeForExtension maps a filename extension to the mode `.output`
// auto-switches to, and false if the extension isn't one it recognizes.
func ModeForExtension(ext string) (OutputMode, bool) {
	switch ext {
	case ".csv":
		return ModeCSV, true
	case ".json":
		return ModeJSON, true
	case ".jsonl", ".ndjson":
		return ModeJSONL, true
	case ".md", ".markdown":
		return ModeMarkdown, true
	default:
		return ModeList, false
	}
}

// State is the REPL's full session state.
type State struct {
	Mode        OutputMode
	SavedMode   *OutputMode // non-nil iff redirected via auto mode switch
	Headers     bool
	Separator   string
	NullValue   string
	Echo        bool
	Bail        bool
	Timer       bool
	Widths      []int
	DBPath      string
	ColorOutput bool

	sink       io.Writer
	sinkCloser io.Closer
	writer     *bufio.Writer

	SQLBuffer string
}

// New builds the default session state, writing to stdout.
func New(dbPath string, colorOutput bool) *State {
	s := &State{
		Mode:        ModeList,
		Headers:     true,
		Separator:   "|",
		NullValue:   "",
		ColorOutput: colorOutput,
		DBPath:      dbPath,
	}
	s.sink = os.Stdout
	s.writer = bufio.NewWriter(os.Stdout)
	return s
}

// Writer returns the current output destination.
func (s *State) Writer() io.Writer {
	return s.writer
}

// Flush flushes any buffered output.
func (s *State) Flush() error {
	return s.writer.Flush()
}

// RedirectToFile switches the output sink to path, closing any
// previously-opened file sink. Does not touch Mode/SavedMode; callers
// handle the mode auto-switch logic themselves so the saved-mode
// invariant stays in one place (the dot-command dispatcher).
func (s *State) RedirectToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := s.closeSink(); err != nil {
		f.Close()
		return err
	}
	s.sink = f
	s.sinkCloser = f
	s.writer = bufio.NewWriter(f)
	return nil
}

// RevertToStdout closes any open file sink and restores stdout.
func (s *State) RevertToStdout() error {
	if err := s.closeSink(); err != nil {
		return err
	}
	s.sink = os.Stdout
	s.sinkCloser = nil
	s.writer = bufio.NewWriter(os.Stdout)
	return nil
}

// IsRedirected reports whether output currently goes to a file.
func (s *State) IsRedirected() bool {
	return s.sinkCloser != nil
}

func (s *State) closeSink() error {
	if err := s.writer.Flush(); err != nil {
		return err
	}
	if s.sinkCloser != nil {
		return s.sinkCloser.Close()
	}
	return nil
}

// Prompt returns the REPL prompt appropriate to the current buffer state.
func (s *State) Prompt() string {
	if s.SQLBuffer == "" {
		return "rsqlite3> "
	}
	return "     ...> "
}

// AppendLine appends a raw input line to the SQL buffer, prefixing a
// single space when the buffer is already non-empty.
func (s *State) AppendLine(line string) {
	if s.SQLBuffer == "" {
		s.SQLBuffer = line
		return
	}
	s.SQLBuffer = s.SQLBuffer + " " + line
}

// TakeBuffer returns the accumulated buffer and clears it.
func (s *State) TakeBuffer() string {
	buf := s.SQLBuffer
	s.SQLBuffer = ""
	return buf
}

// WidthFor returns the configured width override for column index idx,
// or 0 if none was set.
func (s *State) WidthFor(idx int) int {
	if idx < 0 || idx >= len(s.Widths) {
		return 0
	}
	return s.Widths[idx]
}
