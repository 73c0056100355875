// Package engine owns the connection to the embedded SQLite database file
// and registers the SQLite driver. Packages that need raw access
// (import/export, .schema) work on the *sql.DB that DB returns.
package engine

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"
)

// QueryResult is the typed, display-ready outcome of executing one SQL
// statement: either a row set (Columns/Rows populated) or a modification
// (RowsAffected populated).
type QueryResult struct {
	Columns      []string
	Rows         [][]string
	RowsAffected *int64
}

// Engine wraps the single *sql.DB connection to a database file.
type Engine struct {
	path string
	db   *sql.DB
}

// Open connects to the SQLite file at path, creating it if absent.
func Open(path string) (*Engine, error) {
	return OpenMode(path, false)
}

// OpenMode connects to the SQLite file at path, optionally opening it
// read-only (used by --readonly, which must not create a missing file
// or accept writes).
func OpenMode(path string, readOnly bool) (*Engine, error) {
	dsn := path
	if readOnly && path != ":memory:" {
		dsn = "file:" + path + "?mode=ro"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	slog.Debug("engine: opened database", "path", path, "read_only", readOnly)
	return &Engine{path: path, db: db}, nil
}

// Path returns the path the engine was opened with.
func (e *Engine) Path() string { return e.path }

// DB exposes the raw handle for components (import/export, .schema) that
// need direct access to Query/Prepare/Begin without going through Execute.
func (e *Engine) DB() *sql.DB { return e.db }

// Close releases the underlying connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Prepare validates that a single SQL statement parses against the live
// engine, without executing it for its side effects. Used by Diagnostics.
func (e *Engine) Prepare(sql string) error {
	stmt, err := e.db.Prepare(sql)
	if err != nil {
		return err
	}
	return stmt.Close()
}

// Execute runs a single SQL statement and returns a display-ready result.
// Statements that can return rows (SELECT, PRAGMA, WITH, VALUES, EXPLAIN)
// go through Query; everything else goes through Exec and reports
// RowsAffected. The dispatch is decided before running anything so a
// statement is never executed twice.
func (e *Engine) Execute(query string) (*QueryResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return &QueryResult{}, nil
	}

	if returnsRows(trimmed) {
		return e.execQuery(trimmed)
	}
	return e.execModification(trimmed)
}

func (e *Engine) execQuery(query string) (*QueryResult, error) {
	rows, err := e.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return &QueryResult{}, nil
	}

	result := &QueryResult{Columns: columns}
	raw := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]string, len(columns))
		for i, v := range raw {
			row[i] = valueToString(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (e *Engine) execModification(query string) (*QueryResult, error) {
	res, err := e.db.Exec(query)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// Some statements (CREATE TABLE, PRAGMA that changes state, ...)
		// don't support RowsAffected; treat as zero rather than failing.
		affected = 0
	}
	return &QueryResult{RowsAffected: &affected}, nil
}

// returnsRows reports whether the leading keyword of a statement is one
// that can produce a result set.
func returnsRows(stmt string) bool {
	word := strings.ToUpper(firstWord(stmt))
	switch word {
	case "SELECT", "PRAGMA", "WITH", "VALUES", "EXPLAIN":
		return true
	}
	return false
}

func firstWord(s string) string {
	s = strings.TrimLeft(s, "( \t\r\n")
	i := 0
	for i < len(s) && (isIdentByte(s[i])) {
		i++
	}
	return s[:i]
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// valueToString renders a driver value the way the shell displays it.
// Typed SQL NULL is stringified to the literal "NULL" here, at the
// execution boundary; the formatter re-interprets that literal using the
// user's configured null-display string.
func valueToString(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return fmt.Sprintf("%d", t)
	case float64:
		return fmt.Sprintf("%g", t)
	case string:
		return t
	case []byte:
		if t == nil {
			return "NULL"
		}
		return "<BLOB>"
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// TableNames returns every user table, excluding the engine's own
// sqlite_% catalogue tables.
func (e *Engine) TableNames() ([]string, error) {
	rows, err := e.db.Query(
		`select tbl_name from sqlite_master where type = 'table' and tbl_name not like 'sqlite_%' order by tbl_name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// ColumnInfo mirrors one row of PRAGMA table_info.
type ColumnInfo struct {
	CID          int
	Name         string
	Type         string
	NotNull      bool
	DefaultValue *string
	PK           bool
}

// IndexInfo mirrors one row of PRAGMA index_list.
type IndexInfo struct {
	Seq     int
	Name    string
	Unique  bool
	Origin  string
	Partial bool
}

// ForeignKeyInfo mirrors one row of PRAGMA foreign_key_list.
type ForeignKeyInfo struct {
	ID       int
	Seq      int
	Table    string
	From     string
	To       string
	OnUpdate string
	OnDelete string
	Match    string
}

// TableColumns runs PRAGMA table_info(table).
func (e *Engine) TableColumns(table string) ([]ColumnInfo, error) {
	rows, err := e.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var (
			c       ColumnInfo
			notnull int
			pk      int
		)
		if err := rows.Scan(&c.CID, &c.Name, &c.Type, &notnull, &c.DefaultValue, &pk); err != nil {
			return nil, err
		}
		c.NotNull = notnull != 0
		c.PK = pk != 0
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// TableIndexes runs PRAGMA index_list(table).
func (e *Engine) TableIndexes(table string) ([]IndexInfo, error) {
	rows, err := e.db.Query(fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []IndexInfo
	for rows.Next() {
		var (
			idx     IndexInfo
			unique  int
			partial int
		)
		if err := rows.Scan(&idx.Seq, &idx.Name, &unique, &idx.Origin, &partial); err != nil {
			return nil, err
		}
		idx.Unique = unique != 0
		idx.Partial = partial != 0
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

// TableForeignKeys runs PRAGMA foreign_key_list(table).
func (e *Engine) TableForeignKeys(table string) ([]ForeignKeyInfo, error) {
	rows, err := e.db.Query(fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKeyInfo
	for rows.Next() {
		var fk ForeignKeyInfo
		if err := rows.Scan(&fk.ID, &fk.Seq, &fk.Table, &fk.From, &fk.To, &fk.OnUpdate, &fk.OnDelete, &fk.Match); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// CreateStatement returns the sqlite_master.sql text for a table, or ""
// when the catalogue has no entry (e.g. an implicitly-created rowid table
// with no recorded DDL — should not normally happen for user tables).
func (e *Engine) CreateStatement(table string) (string, error) {
	const q = `select sql from sqlite_master where type='table' and name=?`
	var create sql.NullString
	err := e.db.QueryRow(q, table).Scan(&create)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return create.String, nil
}

// DatabaseList runs PRAGMA database_list, used by .databases.
type DatabaseEntry struct {
	Seq  int
	Name string
	File string
}

func (e *Engine) DatabaseList() ([]DatabaseEntry, error) {
	rows, err := e.db.Query("PRAGMA database_list")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DatabaseEntry
	for rows.Next() {
		var d DatabaseEntry
		if err := rows.Scan(&d.Seq, &d.Name, &d.File); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
