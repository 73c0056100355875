// Package lsp implements hover, goto-definition, and diagnostics: the
// "what is this identifier" and "is this SQL valid" services the REPL
// and an editor integration would share.
package lsp

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dbshell/rsqlite3/internal/engine"
	"github.com/dbshell/rsqlite3/internal/schemacache"
)

// Range is a byte span of the hovered/defined word.
type Range struct {
	Start int
	End   int
}

// HoverKind tags what kind of identifier a hover resolved to.
type HoverKind int

const (
	HoverTable HoverKind = iota
	HoverColumn
	HoverKeyword
	HoverFunction
	HoverNone
)

// Hover is the payload returned for a hovered word.
type Hover struct {
	Kind  HoverKind
	Word  string
	Text  string
	Range Range
}

// Definition is the payload returned by goto-definition.
type Definition struct {
	Table      string
	Column     string // "" when the goto resolved to a table, not a column
	CreateText string // "" when no CREATE statement is cached
	Found      bool
}

var keywordSignatures = map[string]string{
	"SELECT": "SELECT ... FROM ... [WHERE ...]",
	"FROM":   "FROM table [alias]",
	"WHERE":  "WHERE condition",
	"INSERT": "INSERT INTO table (cols) VALUES (...)",
	"UPDATE": "UPDATE table SET col = value [WHERE ...]",
	"DELETE": "DELETE FROM table [WHERE ...]",
	"CREATE": "CREATE TABLE|INDEX|VIEW ...",
	"JOIN":   "JOIN table ON condition",
	"GROUP":  "GROUP BY column [, ...]",
	"ORDER":  "ORDER BY column [ASC|DESC]",
}

var functionSignatures = map[string]string{
	"COUNT":        "COUNT(expr) -> INTEGER",
	"SUM":          "SUM(expr) -> NUMERIC",
	"AVG":          "AVG(expr) -> REAL",
	"MIN":          "MIN(expr) -> any",
	"MAX":          "MAX(expr) -> any",
	"ABS":          "ABS(x) -> NUMERIC",
	"COALESCE":     "COALESCE(x, ...) -> first non-null",
	"LENGTH":       "LENGTH(x) -> INTEGER",
	"LOWER":        "LOWER(x) -> TEXT",
	"UPPER":        "UPPER(x) -> TEXT",
	"SUBSTR":       "SUBSTR(x, start [, length]) -> TEXT",
	"TRIM":         "TRIM(x) -> TEXT",
	"ROUND":        "ROUND(x [, digits]) -> REAL",
	"REPLACE":      "REPLACE(x, from, to) -> TEXT",
	"IFNULL":       "IFNULL(x, default) -> any",
	"STRFTIME":     "STRFTIME(format, time) -> TEXT",
	"GROUP_CONCAT": "GROUP_CONCAT(expr [, sep]) -> TEXT",
	"CAST":         "CAST(expr AS type) -> type",
}

// Hover resolves the word at offset: table lookup first, then column,
// then keyword, then function.
func Hover(text string, offset int, cache *schemacache.Cache) Hover {
	word, rng := wordAt(text, offset)
	if word == "" {
		return Hover{Kind: HoverNone}
	}

	if table, ok := cache.ResolveTable(word); ok {
		return Hover{Kind: HoverTable, Word: word, Range: rng, Text: tableHoverText(table, cache)}
	}

	if detail, ok := columnHoverText(word, cache); ok {
		return Hover{Kind: HoverColumn, Word: word, Range: rng, Text: detail}
	}

	upper := strings.ToUpper(word)
	if sig, ok := keywordSignatures[upper]; ok {
		return Hover{Kind: HoverKeyword, Word: word, Range: rng, Text: sig}
	}
	if sig, ok := functionSignatures[upper]; ok {
		return Hover{Kind: HoverFunction, Word: word, Range: rng, Text: sig}
	}

	return Hover{Kind: HoverNone, Word: word, Range: rng}
}

// Goto resolves the word at offset the same way Hover does, but returns
// a structured (table, column, create-text) result for navigation.
func Goto(text string, offset int, cache *schemacache.Cache) Definition {
	word, _ := wordAt(text, offset)
	if word == "" {
		return Definition{}
	}

	if table, ok := cache.ResolveTable(word); ok {
		return Definition{Table: table, CreateText: cache.CreateStatement(table), Found: true}
	}

	for _, col := range cache.AllColumns() {
		if strings.EqualFold(col.Name, word) {
			return Definition{
				Table:      col.Table,
				Column:     col.Name,
				CreateText: cache.CreateStatement(col.Table),
				Found:      true,
			}
		}
	}

	return Definition{}
}

func tableHoverText(table string, cache *schemacache.Cache) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", table)
	for _, col := range cache.Columns(table) {
		fmt.Fprintf(&b, "  %s %s", col.Name, col.Type)
		if col.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
		}
		if !col.Nullable {
			b.WriteString(" NOT NULL")
		}
		b.WriteString("\n")
	}
	if indexes := cache.IndexesForTable(table); len(indexes) > 0 {
		fmt.Fprintf(&b, "  indexes: %s\n", strings.Join(indexes, ", "))
	}
	if create := cache.CreateStatement(table); create != "" {
		b.WriteString("\n")
		b.WriteString(create)
	}
	return b.String()
}

func columnHoverText(word string, cache *schemacache.Cache) (string, bool) {
	for _, col := range cache.AllColumns() {
		if strings.EqualFold(col.Name, word) {
			parts := []string{col.Table, col.Type}
			if col.PrimaryKey {
				parts = append(parts, "pk")
			}
			if !col.Nullable {
				parts = append(parts, "not null")
			}
			if col.Default != nil {
				parts = append(parts, "default "+*col.Default)
			}
			return strings.Join(parts, ", "), true
		}
	}
	return "", false
}

// wordAt returns the [A-Za-z0-9_] run touching offset and its range.
func wordAt(text string, offset int) (string, Range) {
	if offset > len(text) {
		offset = len(text)
	}
	start := offset
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	end := offset
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}
	if start == end {
		return "", Range{}
	}
	return text[start:end], Range{Start: start, End: end}
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Diagnostic is a single validation failure located in the source text.
type Diagnostic struct {
	Line    int // 1-based
	Column  int // 1-based, in runes
	Message string
}

// Diagnose splits text on ';' and attempts Prepare against eng for each
// non-empty trimmed statement, reporting a diagnostic at the statement's
// start for every one that fails to parse.
func Diagnose(text string, eng *engine.Engine) []Diagnostic {
	var diags []Diagnostic
	offset := 0

	for _, stmt := range strings.Split(text, ";") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed != "" {
			if err := eng.Prepare(trimmed); err != nil {
				line, col := lineColumn(text, offset+strings.Index(stmt, trimmed))
				diags = append(diags, Diagnostic{Line: line, Column: col, Message: err.Error()})
			}
		}
		offset += len(stmt) + 1
	}

	return diags
}

// lineColumn walks text UTF-8-correctly up to byteOffset and returns the
// 1-based line and rune column of that position.
func lineColumn(text string, byteOffset int) (int, int) {
	if byteOffset > len(text) {
		byteOffset = len(text)
	}
	line := 1
	col := 1
	for i := 0; i < byteOffset; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i += size
	}
	return line, col
}
