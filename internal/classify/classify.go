// Package classify implements the context classifier: given SQL text and
// a cursor offset, it decides what kind of identifier the user is about
// to type so the completion engine knows which candidate set to offer.
//
// It is specified as an explicit state machine over a bounded reverse
// scan, with parenthesis depth tracked as an independent dimension, not
// as ad-hoc string matching.
package classify

import (
	"strings"

	"github.com/dbshell/rsqlite3/internal/sqltoken"
)

// Context is the classifier's verdict.
type Context int

const (
	Default Context = iota
	TableCtx
	ColumnCtx
	TypeCtx
	IndexCtx
	InsertCtx
)

func (c Context) String() string {
	switch c {
	case TableCtx:
		return "TableCtx"
	case ColumnCtx:
		return "ColumnCtx"
	case TypeCtx:
		return "TypeCtx"
	case IndexCtx:
		return "IndexCtx"
	case InsertCtx:
		return "InsertCtx"
	default:
		return "Default"
	}
}

// windowSize bounds how many meaningful tokens the reverse scan walks
// back before giving up; it keeps classification local so a SELECT far
// upstream never leaks into a later, unrelated clause.
const windowSize = 10

var tableKeywords = map[string]bool{"FROM": true, "JOIN": true, "UPDATE": true, "INTO": true, "TABLE": true}
var columnKeywords = map[string]bool{"SELECT": true, "WHERE": true, "SET": true, "BY": true, "HAVING": true, "AND": true, "OR": true}
var defaultKeywords = map[string]bool{"LIMIT": true, "OFFSET": true, "UNION": true, "EXCEPT": true, "INTERSECT": true, "CREATE": true}

// Classify determines the context at byte offset cursor within text.
func Classify(text string, cursor int) Context {
	if cursor > len(text) {
		cursor = len(text)
	}
	all := sqltoken.SignificantTokens(sqltoken.Tokenize(text[:cursor]))
	if len(all) == 0 {
		return Default
	}

	last := all[len(all)-1]

	switch {
	case last.Kind == sqltoken.Word && tableKeywords[strings.ToUpper(last.Text)]:
		return TableCtx
	case last.Kind == sqltoken.Word && columnKeywords[strings.ToUpper(last.Text)]:
		return ColumnCtx
	case last.IsKeyword("INSERT"):
		return InsertCtx
	case last.IsKeyword("ON"):
		if isCreateIndexOn(all) {
			if parenDepth(all) > 0 {
				return ColumnCtx
			}
			return TableCtx
		}
		return ColumnCtx
	case last.IsKeyword("INDEX", "EXISTS"):
		if isDropIndexContext(all) {
			return IndexCtx
		}
	case last.Kind == sqltoken.Word && defaultKeywords[strings.ToUpper(last.Text)]:
		return Default
	}

	switch last.Kind {
	case sqltoken.Comma:
		return reverseScan(all[:len(all)-1])
	case sqltoken.LParen:
		if isInsideIndexOrInsertColumnList(all) {
			return ColumnCtx
		}
	}

	return reverseScan(all)
}

// reverseScan walks backward over a bounded window of tokens looking for
// the governing clause keyword, tracking paren depth as it goes. An
// unmatched '(' walking backward increases depth; the scan treats depth
// 0 as "outside" any parenthesis group.
func reverseScan(tokens []Token) Context {
	depth := 0
	steps := 0

	for i := len(tokens) - 1; i >= 0 && steps < windowSize; i-- {
		tok := tokens[i]
		steps++

		switch tok.Kind {
		case sqltoken.RParen:
			depth--
			continue
		case sqltoken.LParen:
			depth++
			continue
		}

		if tok.Kind != sqltoken.Word {
			continue
		}
		word := strings.ToUpper(tok.Text)

		if tableKeywords[word] {
			return TableCtx
		}
		if columnKeywords[word] {
			return ColumnCtx
		}
		if word == "INSERT" {
			return InsertCtx
		}
		if word == "ON" {
			if isCreateIndexOn(tokens[:i+1]) {
				if depth > 0 {
					return ColumnCtx
				}
				return TableCtx
			}
			return ColumnCtx
		}
		if defaultKeywords[word] {
			return Default
		}

		if typeCtxForCreateTable(tokens, i) {
			return TypeCtx
		}
	}

	return Default
}

// Token is a re-export used only to keep this file's signatures short;
// callers outside the package should use sqltoken.Token directly.
type Token = sqltoken.Token

// isCreateIndexOn reports whether the token run ends in an ON that is
// governed by an earlier CREATE ... INDEX.
func isCreateIndexOn(tokens []Token) bool {
	sawIndex, sawCreate := false, false
	steps := 0
	for i := len(tokens) - 1; i >= 0 && steps < windowSize; i-- {
		steps++
		if tokens[i].Kind != sqltoken.Word {
			continue
		}
		word := strings.ToUpper(tokens[i].Text)
		if word == "INDEX" {
			sawIndex = true
		}
		if word == "CREATE" && sawIndex {
			sawCreate = true
			break
		}
		if word == "ON" && i != len(tokens)-1 {
			break
		}
	}
	return sawCreate && sawIndex
}

// isDropIndexContext reports whether the trailing tokens form
// "DROP INDEX [IF [EXISTS]]".
func isDropIndexContext(tokens []Token) bool {
	words := trailingWords(tokens, 4)
	n := len(words)
	if n < 2 {
		return false
	}
	// strip optional IF EXISTS off the end
	if n >= 1 && words[n-1] == "EXISTS" {
		if n >= 2 && words[n-2] == "IF" {
			words = words[:n-2]
		} else {
			words = words[:n-1]
		}
	} else if n >= 1 && words[n-1] == "IF" {
		words = words[:n-1]
	}
	n = len(words)
	if n < 2 {
		return false
	}
	return words[n-2] == "DROP" && words[n-1] == "INDEX"
}

// isInsideIndexOrInsertColumnList reports whether the trailing '(' opens
// the column list of CREATE INDEX ... ON t ( or INSERT INTO t (.
func isInsideIndexOrInsertColumnList(tokens []Token) bool {
	// tokens ends with the '(' itself; look at what precedes it.
	if len(tokens) < 2 {
		return false
	}
	body := tokens[:len(tokens)-1]
	if len(body) == 0 {
		return false
	}
	// last token before '(' should be a table name (a Word), preceded by
	// ON (index case) or INTO (insert case).
	if body[len(body)-1].Kind != sqltoken.Word {
		return false
	}
	if len(body) < 2 {
		return false
	}
	prev := body[len(body)-2]
	if prev.Kind != sqltoken.Word {
		return false
	}
	switch strings.ToUpper(prev.Text) {
	case "ON":
		return isCreateIndexOn(body[:len(body)-1])
	case "INTO":
		return true
	}
	return false
}

// typeCtxForCreateTable reports whether position i (a non-keyword word)
// sits inside the column-definition list of the nearest preceding
// CREATE ... TABLE, with exactly one paren level open.
func typeCtxForCreateTable(tokens []Token, i int) bool {
	// find nearest CREATE ... TABLE at or before i
	sawTable := false
	createIdx := -1
	for j := i; j >= 0; j-- {
		if tokens[j].Kind != sqltoken.Word {
			continue
		}
		word := strings.ToUpper(tokens[j].Text)
		if word == "TABLE" {
			sawTable = true
			continue
		}
		if word == "CREATE" && sawTable {
			createIdx = j
			break
		}
	}
	if createIdx < 0 {
		return false
	}

	depth := 0
	for j := createIdx; j <= i; j++ {
		switch tokens[j].Kind {
		case sqltoken.LParen:
			depth++
		case sqltoken.RParen:
			depth--
		}
	}
	return depth == 1
}

func parenDepth(tokens []Token) int {
	depth := 0
	for _, t := range tokens {
		switch t.Kind {
		case sqltoken.LParen:
			depth++
		case sqltoken.RParen:
			depth--
		}
	}
	return depth
}

func trailingWords(tokens []Token, max int) []string {
	var words []string
	for i := len(tokens) - 1; i >= 0 && len(words) < max; i-- {
		if tokens[i].Kind == sqltoken.Word {
			words = append([]string{strings.ToUpper(tokens[i].Text)}, words...)
		}
	}
	return words
}
