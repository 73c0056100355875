// Package schemacache holds a read-only snapshot of a database's tables,
// columns, create statements, and user indexes. The completion, hover,
// and goto-definition engines read from it; nothing mutates it except a
// full Refresh, which publishes a new snapshot atomically.
package schemacache

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/dbshell/rsqlite3/internal/engine"
)

// Column is an immutable snapshot of one table column.
type Column struct {
	Table      string
	Name       string
	Type       string
	PrimaryKey bool
	Nullable   bool
	Default    *string // nil when the column has no default
}

// CreateStatement records the verbatim CREATE SQL for a table, populated
// only when the catalogue returned non-empty SQL for it.
type CreateStatement struct {
	Table string
	SQL   string
}

// autoIndexPrefix is the engine-reserved prefix for implicit indexes
// (e.g. those backing PRIMARY KEY/UNIQUE constraints) that are never
// user-created and must be excluded from the index name set.
const autoIndexPrefix = "sqlite_autoindex_"

// Cache is an immutable snapshot; Refresh produces a new one and the
// holder swaps it in as a single pointer assignment, so readers never
// observe a half-written cache.
type Cache struct {
	tables         []string
	columns        map[string][]Column // lower(table) -> columns, declaration order
	creates        map[string]string   // lower(table) -> CREATE SQL
	indexes        []string            // user-created index names only, deduplicated
	indexesByTable map[string][]string // lower(table) -> its user-created index names
}

// Empty returns a Cache with no tables, used before the first refresh.
func Empty() *Cache {
	return &Cache{columns: map[string][]Column{}, creates: map[string]string{}, indexesByTable: map[string][]string{}}
}

// Refresh builds a brand-new snapshot from the live engine. It never
// mutates an existing Cache; callers replace their pointer with the
// result.
func Refresh(eng *engine.Engine) (*Cache, error) {
	tables, err := eng.TableNames()
	if err != nil {
		return nil, err
	}

	c := &Cache{
		tables:  tables,
		columns: make(map[string][]Column, len(tables)),
		creates: make(map[string]string, len(tables)),
	}

	for _, table := range tables {
		cols, err := eng.TableColumns(table)
		if err != nil {
			return nil, err
		}
		snapshot := make([]Column, 0, len(cols))
		for _, col := range cols {
			snapshot = append(snapshot, Column{
				Table:      table,
				Name:       col.Name,
				Type:       col.Type,
				PrimaryKey: col.PK,
				Nullable:   !col.NotNull,
				Default:    col.DefaultValue,
			})
		}
		c.columns[strings.ToLower(table)] = snapshot

		create, err := eng.CreateStatement(table)
		if err != nil {
			return nil, err
		}
		if create != "" {
			c.creates[strings.ToLower(table)] = create
		}
	}

	indexes, byTable, err := userIndexNames(eng, tables)
	if err != nil {
		return nil, err
	}
	c.indexes = indexes
	c.indexesByTable = byTable

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug("schemacache: refreshed", "tables", len(c.tables), "indexes", len(c.indexes))
		pp.Println(c)
	}

	return c, nil
}

// userIndexNames returns both the deduplicated, sorted flat index-name
// list (used by completion's IndexCtx) and the per-table association
// (used by hover, which reports a table's own indexes).
func userIndexNames(eng *engine.Engine, tables []string) ([]string, map[string][]string, error) {
	seen := map[string]bool{}
	var names []string
	byTable := make(map[string][]string, len(tables))
	for _, table := range tables {
		idxs, err := eng.TableIndexes(table)
		if err != nil {
			return nil, nil, err
		}
		for _, idx := range idxs {
			if strings.HasPrefix(idx.Name, autoIndexPrefix) {
				continue
			}
			key := strings.ToLower(table)
			byTable[key] = append(byTable[key], idx.Name)
			if seen[idx.Name] {
				continue
			}
			seen[idx.Name] = true
			names = append(names, idx.Name)
		}
	}
	sort.Strings(names)
	for key := range byTable {
		sort.Strings(byTable[key])
	}
	return names, byTable, nil
}

// Tables returns every known table name in catalogue order.
func (c *Cache) Tables() []string {
	return c.tables
}

// HasTable reports whether name matches a known table, case-insensitively.
func (c *Cache) HasTable(name string) bool {
	_, ok := c.columns[strings.ToLower(name)]
	return ok
}

// ResolveTable returns the canonical stored name for a case-insensitive
// table reference.
func (c *Cache) ResolveTable(name string) (string, bool) {
	key := strings.ToLower(name)
	if _, ok := c.columns[key]; !ok {
		return "", false
	}
	for _, t := range c.tables {
		if strings.EqualFold(t, name) {
			return t, true
		}
	}
	return name, true
}

// Columns returns the columns of table, case-insensitive, in declaration
// order, or nil if the table is unknown.
func (c *Cache) Columns(table string) []Column {
	return c.columns[strings.ToLower(table)]
}

// AllColumns returns every column of every table, grouped by table in
// catalogue order.
func (c *Cache) AllColumns() []Column {
	var all []Column
	for _, t := range c.tables {
		all = append(all, c.columns[strings.ToLower(t)]...)
	}
	return all
}

// CreateStatement returns the cached CREATE SQL for table, or "" if none
// was recorded.
func (c *Cache) CreateStatement(table string) string {
	return c.creates[strings.ToLower(table)]
}

// Indexes returns the user-created index names, sorted.
func (c *Cache) Indexes() []string {
	return c.indexes
}

// IndexesForTable returns the user-created index names that belong to
// table, case-insensitive, sorted, or nil if it has none.
func (c *Cache) IndexesForTable(table string) []string {
	return c.indexesByTable[strings.ToLower(table)]
}
