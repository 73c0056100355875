// Package completion implements the context-sensitive SQL completion
// engine: it turns (text, cursor, schema) into an ordered list of
// candidate identifiers, matching what the user has typed so far.
package completion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dbshell/rsqlite3/internal/alias"
	"github.com/dbshell/rsqlite3/internal/classify"
	"github.com/dbshell/rsqlite3/internal/schemacache"
)

// Kind tags the category of a completion candidate.
type Kind int

const (
	KindTable Kind = iota
	KindColumn
	KindFunction
	KindType
	KindKeyword
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "Table"
	case KindColumn:
		return "Column"
	case KindFunction:
		return "Function"
	case KindType:
		return "Type"
	default:
		return "Keyword"
	}
}

// Item is a single completion candidate.
type Item struct {
	Label  string
	Kind   Kind
	Detail string
}

var postTableKeywords = []string{
	"WHERE", "JOIN", "ON", "GROUP", "ORDER", "LIMIT", "HAVING", "INNER",
	"LEFT", "RIGHT", "OUTER", "CROSS", "AS", "SET", "VALUES", "SELECT",
}

var postColumnKeywords = []string{"FROM", "AS", "WHERE", "GROUP", "ORDER", "LIMIT"}

var insertKeywords = []string{"INTO"}

var typeNames = []string{
	"TEXT", "INTEGER", "REAL", "BLOB", "NUMERIC", "VARCHAR", "CHAR",
	"BOOLEAN", "DATETIME", "DATE", "TIME", "FLOAT", "DOUBLE", "INT",
	"BIGINT", "SMALLINT", "TINYINT",
}

var typeConstraintKeywords = []string{
	"PRIMARY", "KEY", "NOT", "NULL", "DEFAULT", "REFERENCES", "UNIQUE",
	"CHECK", "AUTOINCREMENT",
}

var indexKeywords = []string{"IF", "EXISTS"}

var scalarFunctions = []string{
	"COUNT", "SUM", "AVG", "MIN", "MAX", "ABS", "COALESCE", "LENGTH",
	"LOWER", "UPPER", "SUBSTR", "TRIM", "ROUND", "REPLACE", "IFNULL",
	"DATETIME", "DATE", "STRFTIME", "GROUP_CONCAT", "CAST",
}

var defaultKeywords = []string{
	"SELECT", "FROM", "WHERE", "INSERT", "INTO", "VALUES", "UPDATE",
	"SET", "DELETE", "CREATE", "TABLE", "INDEX", "DROP", "ALTER", "VIEW",
	"TRIGGER", "JOIN", "INNER", "LEFT", "RIGHT", "OUTER", "CROSS", "ON",
	"GROUP", "BY", "ORDER", "HAVING", "LIMIT", "OFFSET", "UNION", "ALL",
	"DISTINCT", "AS", "AND", "OR", "NOT", "NULL", "IS", "IN", "LIKE",
	"BETWEEN", "EXISTS", "CASE", "WHEN", "THEN", "ELSE", "END",
}

// Complete computes the ordered candidate list for text at byte offset.
func Complete(text string, offset int, cache *schemacache.Cache) []Item {
	if offset > len(text) {
		offset = len(text)
	}

	prefix, replacementStart := currentWord(text, offset)

	if qual, ok := qualifier(text, replacementStart); ok {
		return completeQualified(qual, prefix, text, cache)
	}

	ctx := classify.Classify(text, offset)
	aliases := alias.Resolve(text)

	var candidates []Item
	switch ctx {
	case classify.TableCtx:
		candidates = tableCandidates(cache)
		candidates = append(candidates, keywordItems(postTableKeywords)...)
	case classify.ColumnCtx:
		candidates = columnCandidates(cache, aliases)
		candidates = append(candidates, functionItems(scalarFunctions)...)
		candidates = append(candidates, keywordItems(postColumnKeywords)...)
		candidates = append(candidates, aliasItems(aliases)...)
	case classify.InsertCtx:
		candidates = keywordItems(insertKeywords)
	case classify.TypeCtx:
		candidates = append(candidates, typeItems(typeNames)...)
		candidates = append(candidates, keywordItems(typeConstraintKeywords)...)
	case classify.IndexCtx:
		candidates = append(candidates, indexItems(cache.Indexes())...)
		candidates = append(candidates, keywordItems(indexKeywords)...)
	default:
		candidates = append(candidates, keywordItems(defaultKeywords)...)
		candidates = append(candidates, functionItems(scalarFunctions)...)
		candidates = append(candidates, tableCandidates(cache)...)
	}

	return filterByPrefix(candidates, prefix)
}

// currentWord returns the [A-Za-z0-9_] run that ends at offset (the part
// of the word left of the cursor) and the byte offset where a replacement
// should start.
func currentWord(text string, offset int) (string, int) {
	start := offset
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	end := offset
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}
	return text[start:offset], start
}

// qualifier looks one byte left of replacementStart, past ASCII
// whitespace, for a '.'; if found, returns the identifier left of the dot.
func qualifier(text string, replacementStart int) (string, bool) {
	i := replacementStart
	for i > 0 && isASCIISpace(text[i-1]) {
		i--
	}
	if i == 0 || text[i-1] != '.' {
		return "", false
	}
	dot := i - 1
	end := dot
	start := dot
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	if start == end {
		return "", false
	}
	return text[start:end], true
}

func completeQualified(qual, prefix string, text string, cache *schemacache.Cache) []Item {
	aliases := alias.Resolve(text)

	var table string
	if resolved, ok := aliases.Resolve(qual); ok {
		table = resolved
	} else if resolved, ok := cache.ResolveTable(qual); ok {
		table = resolved
	} else {
		return nil
	}

	var items []Item
	for _, col := range cache.Columns(table) {
		items = append(items, Item{Label: col.Name, Kind: KindColumn, Detail: columnDetail(col)})
	}
	return filterByPrefix(items, prefix)
}

func tableCandidates(cache *schemacache.Cache) []Item {
	var items []Item
	for _, t := range cache.Tables() {
		items = append(items, Item{Label: t, Kind: KindTable})
	}
	return items
}

// columnCandidates implements the two-pass rule: columns of aliased
// tables first; if that set is empty, all columns; deduplicated by name,
// first occurrence wins.
func columnCandidates(cache *schemacache.Cache, aliases alias.Map) []Item {
	var pool []schemacache.Column
	for _, t := range aliases.Tables() {
		pool = append(pool, cache.Columns(t)...)
	}
	if len(pool) == 0 {
		pool = cache.AllColumns()
	}

	seen := map[string]bool{}
	var items []Item
	for _, col := range pool {
		key := strings.ToLower(col.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, Item{Label: col.Name, Kind: KindColumn, Detail: columnDetail(col)})
	}
	return items
}

func columnDetail(col schemacache.Column) string {
	return fmt.Sprintf("%s (%s)", col.Type, col.Table)
}

func keywordItems(words []string) []Item {
	items := make([]Item, len(words))
	for i, w := range words {
		items[i] = Item{Label: w, Kind: KindKeyword}
	}
	return items
}

func functionItems(words []string) []Item {
	items := make([]Item, len(words))
	for i, w := range words {
		items[i] = Item{Label: w, Kind: KindFunction}
	}
	return items
}

func typeItems(words []string) []Item {
	items := make([]Item, len(words))
	for i, w := range words {
		items[i] = Item{Label: w, Kind: KindType}
	}
	return items
}

func indexItems(names []string) []Item {
	items := make([]Item, len(names))
	for i, n := range names {
		items[i] = Item{Label: n, Kind: KindKeyword}
	}
	return items
}

func aliasItems(aliases alias.Map) []Item {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	items := make([]Item, len(names))
	for i, n := range names {
		items[i] = Item{Label: n, Kind: KindColumn}
	}
	return items
}

// filterByPrefix keeps candidates whose label case-insensitively starts
// with prefix, preserving the input order (which encodes category order).
func filterByPrefix(items []Item, prefix string) []Item {
	if prefix == "" {
		return items
	}
	lower := strings.ToLower(prefix)
	var out []Item
	for _, it := range items {
		if strings.HasPrefix(strings.ToLower(it.Label), lower) {
			out = append(out, it)
		}
	}
	return out
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
