package engine

import (
	"strings"
	"testing"
)

func TestExecuteSelectReturnsRows(t *testing.T) {
	eng, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer eng.Close()

	if _, err := eng.Execute(`CREATE TABLE t (id INTEGER, name TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := eng.Execute(`INSERT INTO t VALUES (1, 'a'), (2, NULL)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	result, err := eng.Execute(`SELECT id, name FROM t ORDER BY id`)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(result.Columns) != 2 || result.Columns[0] != "id" || result.Columns[1] != "name" {
		t.Fatalf("got columns %v", result.Columns)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(result.Rows))
	}
	if result.Rows[1][1] != "NULL" {
		t.Errorf("expected NULL to stringify to literal NULL, got %q", result.Rows[1][1])
	}
}

func TestExecuteModificationReportsRowsAffected(t *testing.T) {
	eng, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer eng.Close()

	if _, err := eng.Execute(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	result, err := eng.Execute(`INSERT INTO t VALUES (1), (2), (3)`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if result.RowsAffected == nil || *result.RowsAffected != 3 {
		t.Fatalf("got rows affected %v, want 3", result.RowsAffected)
	}
}

func TestExecuteEmptyStatementIsNoop(t *testing.T) {
	eng, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer eng.Close()

	result, err := eng.Execute("   ")
	if err != nil {
		t.Fatalf("execute blank: %v", err)
	}
	if len(result.Columns) != 0 || len(result.Rows) != 0 {
		t.Errorf("expected empty result for blank statement, got %+v", result)
	}
}

func TestOpenModeReadOnlyRejectsWrites(t *testing.T) {
	path := t.TempDir() + "/ro.db"

	setup, err := Open(path)
	if err != nil {
		t.Fatalf("open for setup: %v", err)
	}
	if _, err := setup.Execute(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	setup.Close()

	eng, err := OpenMode(path, true)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer eng.Close()

	if _, err := eng.Execute(`INSERT INTO t VALUES (1)`); err == nil {
		t.Error("expected write to fail against a read-only-opened database file")
	}
}

func TestTableColumnsReflectsDefinition(t *testing.T) {
	eng, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer eng.Close()

	if _, err := eng.Execute(`CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	cols, err := eng.TableColumns("t")
	if err != nil {
		t.Fatalf("table columns: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("got %d columns, want 2", len(cols))
	}
	if !cols[0].PK {
		t.Error("expected id to be marked PK")
	}
	if cols[1].NotNull != true {
		t.Error("expected name to be marked NOT NULL")
	}
}

func TestCreateStatementReturnsVerbatimSQL(t *testing.T) {
	eng, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer eng.Close()

	if _, err := eng.Execute(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	create, err := eng.CreateStatement("t")
	if err != nil {
		t.Fatalf("create statement: %v", err)
	}
	if !strings.Contains(create, "CREATE TABLE t") {
		t.Errorf("got %q", create)
	}
}

func TestTableNamesExcludesSqliteCatalogue(t *testing.T) {
	eng, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer eng.Close()

	if _, err := eng.Execute(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	names, err := eng.TableNames()
	if err != nil {
		t.Fatalf("table names: %v", err)
	}
	for _, n := range names {
		if strings.HasPrefix(n, "sqlite_") {
			t.Errorf("did not expect catalogue table %q in TableNames", n)
		}
	}
	if len(names) != 1 || names[0] != "t" {
		t.Fatalf("got %v, want [t]", names)
	}
}
