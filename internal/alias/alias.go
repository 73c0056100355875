// Package alias extracts a name -> table_name map from a SQL fragment,
// covering FROM/JOIN aliases, INSERT INTO, and CREATE INDEX ... ON.
package alias

import (
	"strings"

	"github.com/dbshell/rsqlite3/internal/sqltoken"
)

// clauseDenylist holds words that can legally follow a table reference
// but are never themselves an implicit alias.
var clauseDenylist = map[string]bool{
	"WHERE": true, "JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true,
	"FULL": true, "CROSS": true, "ON": true, "ORDER": true, "GROUP": true,
	"LIMIT": true, "HAVING": true, "SET": true, "ASC": true, "DESC": true,
	"AND": true, "OR": true,
}

// Map is name -> table_name, case preserved as written; lookups should
// fold case via Resolve.
type Map map[string]string

// Resolve looks up name case-insensitively.
func (m Map) Resolve(name string) (string, bool) {
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Tables returns the distinct set of tables referenced in the map.
func (m Map) Tables() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range m {
		if !seen[strings.ToLower(t)] {
			seen[strings.ToLower(t)] = true
			out = append(out, t)
		}
	}
	return out
}

// Resolve scans the whole fragment (not just the text before the
// cursor) and builds the alias map.
func Resolve(text string) Map {
	tokens := sqltoken.SignificantTokens(sqltoken.Tokenize(text))
	m := Map{}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind != sqltoken.Word {
			continue
		}
		word := strings.ToUpper(tok.Text)

		switch word {
		case "FROM", "JOIN":
			bindTableAndAlias(tokens, i+1, m)
		case "INTO":
			if table, ok := wordAt(tokens, i+1); ok {
				m[table] = table
			}
		}

		if word == "INDEX" {
			if onIdx, ok := findOn(tokens, i+1); ok {
				if table, ok := wordAt(tokens, onIdx+1); ok {
					m[table] = table
				}
			}
		}
	}

	return m
}

// bindTableAndAlias handles "FROM t [AS alias | alias]" starting at the
// table-name token index idx.
func bindTableAndAlias(tokens []sqltoken.Token, idx int, m Map) {
	table, ok := wordAt(tokens, idx)
	if !ok {
		return
	}
	m[table] = table

	next := idx + 1
	if next >= len(tokens) {
		return
	}
	if tokens[next].Kind == sqltoken.Word && strings.EqualFold(tokens[next].Text, "AS") {
		if explicit, ok := wordAt(tokens, next+1); ok {
			m[explicit] = table
		}
		return
	}
	if tokens[next].Kind == sqltoken.Word {
		candidate := tokens[next].Text
		if !clauseDenylist[strings.ToUpper(candidate)] {
			m[candidate] = table
		}
	}
}

// findOn returns the index of the first ON token at or after idx within
// a short lookahead, used to locate "CREATE INDEX ... ON t".
func findOn(tokens []sqltoken.Token, idx int) (int, bool) {
	for i := idx; i < len(tokens) && i < idx+6; i++ {
		if tokens[i].Kind == sqltoken.Word && strings.EqualFold(tokens[i].Text, "ON") {
			return i, true
		}
	}
	return 0, false
}

func wordAt(tokens []sqltoken.Token, idx int) (string, bool) {
	if idx < 0 || idx >= len(tokens) {
		return "", false
	}
	if tokens[idx].Kind != sqltoken.Word {
		return "", false
	}
	return tokens[idx].Text, true
}
