// Package importexport implements ".dump" SQL generation and ".import"
// CSV loading, both driven directly against the engine's *sql.DB so each
// statement in an import runs inside one transaction.
package importexport

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dbshell/rsqlite3/internal/engine"
)

// Dump renders a full SQL dump. When tables is non-empty, only those
// tables (and their data) are included; an empty slice dumps everything.
func Dump(eng *engine.Engine, tables []string) (string, error) {
	db := eng.DB()

	var b strings.Builder
	b.WriteString("PRAGMA foreign_keys=OFF;\n")
	b.WriteString("BEGIN TRANSACTION;\n")

	tableList := tables
	if len(tableList) == 0 {
		all, err := eng.TableNames()
		if err != nil {
			return "", err
		}
		tableList = all
	}

	for _, table := range tableList {
		create, err := eng.CreateStatement(table)
		if err != nil {
			return "", err
		}
		if create == "" {
			continue
		}
		fmt.Fprintf(&b, "%s;\n", create)

		if err := dumpRows(db, table, &b); err != nil {
			return "", err
		}
	}

	if err := dumpIndexes(db, tables, &b); err != nil {
		return "", err
	}

	b.WriteString("COMMIT;\n")
	return b.String(), nil
}

func dumpRows(db *sql.DB, table string, b *strings.Builder) error {
	quoted := quoteIdent(table)
	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %s", quoted))
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		values := make([]string, len(cols))
		for i, v := range raw {
			values[i] = dumpLiteral(v)
		}
		fmt.Fprintf(b, "INSERT INTO %s VALUES (%s);\n", quoted, strings.Join(values, ", "))
	}
	return rows.Err()
}

func dumpIndexes(db *sql.DB, tables []string, b *strings.Builder) error {
	rows, err := db.Query(`SELECT tbl_name, sql FROM sqlite_master WHERE type='index' AND sql IS NOT NULL ORDER BY name`)
	if err != nil {
		return err
	}
	defer rows.Close()

	wanted := make(map[string]bool, len(tables))
	for _, t := range tables {
		wanted[strings.ToLower(t)] = true
	}

	for rows.Next() {
		var tblName, indexSQL string
		if err := rows.Scan(&tblName, &indexSQL); err != nil {
			return err
		}
		if len(wanted) > 0 && !wanted[strings.ToLower(tblName)] {
			continue
		}
		fmt.Fprintf(b, "%s;\n", indexSQL)
	}
	return rows.Err()
}

// dumpLiteral renders a driver value as a SQL literal suitable for an
// INSERT statement in a .dump script.
func dumpLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return fmt.Sprintf("%d", t)
	case float64:
		return fmt.Sprintf("%v", t)
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case []byte:
		if t == nil {
			return "NULL"
		}
		return "X''"
	default:
		return fmt.Sprintf("'%v'", t)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ImportCSV reads a CSV file (header row required) and inserts every
// record into table inside a single transaction.
func ImportCSV(eng *engine.Engine, path, table string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header from %s: %w", path, err)
	}

	db := eng.DB()
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}

	placeholders := make([]string, len(header))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(header, ", "), strings.Join(placeholders, ", "),
	)
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			tx.Rollback()
			return count, fmt.Errorf("read record from %s: %w", path, err)
		}
		args := make([]any, len(record))
		for i, v := range record {
			args[i] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return count, err
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return count, err
	}
	return count, nil
}
