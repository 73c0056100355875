package alias

import "testing"

func TestResolveFromImplicitAlias(t *testing.T) {
	m := Resolve("SELECT u.id FROM users u WHERE u.id = 1")
	table, ok := m.Resolve("u")
	if !ok || table != "users" {
		t.Fatalf("Resolve(u) = %q, %v; want users, true", table, ok)
	}
}

func TestResolveFromExplicitAsAlias(t *testing.T) {
	m := Resolve("SELECT * FROM users AS usr")
	table, ok := m.Resolve("usr")
	if !ok || table != "users" {
		t.Fatalf("Resolve(usr) = %q, %v; want users, true", table, ok)
	}
	// bare table name is always resolvable to itself
	if table, ok := m.Resolve("users"); !ok || table != "users" {
		t.Fatalf("Resolve(users) = %q, %v; want users, true", table, ok)
	}
}

func TestResolveJoinAlias(t *testing.T) {
	m := Resolve("SELECT * FROM orders o JOIN customers c ON o.customer_id = c.id")
	if table, ok := m.Resolve("c"); !ok || table != "customers" {
		t.Fatalf("Resolve(c) = %q, %v; want customers, true", table, ok)
	}
	if table, ok := m.Resolve("o"); !ok || table != "orders" {
		t.Fatalf("Resolve(o) = %q, %v; want orders, true", table, ok)
	}
}

func TestResolveDenylistedClauseWordNotAlias(t *testing.T) {
	m := Resolve("SELECT * FROM users WHERE id = 1")
	if _, ok := m.Resolve("WHERE"); ok {
		t.Error("WHERE should never be treated as an implicit alias")
	}
}

func TestResolveInsertInto(t *testing.T) {
	m := Resolve("INSERT INTO users (id, name) VALUES (1, 'a')")
	if table, ok := m.Resolve("users"); !ok || table != "users" {
		t.Fatalf("Resolve(users) = %q, %v; want users, true", table, ok)
	}
}

func TestResolveCreateIndexOn(t *testing.T) {
	m := Resolve("CREATE INDEX idx_users_name ON users (name)")
	if table, ok := m.Resolve("users"); !ok || table != "users" {
		t.Fatalf("Resolve(users) = %q, %v; want users, true", table, ok)
	}
}

func TestResolveCaseInsensitiveLookup(t *testing.T) {
	m := Resolve("SELECT * FROM Users u")
	if _, ok := m.Resolve("U"); !ok {
		t.Error("Resolve should be case-insensitive")
	}
}

func TestTablesDeduplicates(t *testing.T) {
	m := Resolve("SELECT * FROM users u1, users u2")
	tables := m.Tables()
	if len(tables) != 1 {
		t.Fatalf("got %d distinct tables, want 1: %v", len(tables), tables)
	}
}
