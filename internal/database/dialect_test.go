package database

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
)

func TestDialects(t *testing.T) {
	tests := []struct {
		name           string
		dialect        Dialect
		driver         string
		lastInsertID   bool
		migrationsDir  string
		placeholder    sq.PlaceholderFormat
		upsertFragment string
	}{
		{name: "sqlite", dialect: NewSQLiteDialect(), driver: "sqlite3", lastInsertID: true, migrationsDir: "sqlite", placeholder: sq.Question, upsertFragment: "ON CONFLICT(store_key)"},
		{name: "postgres", dialect: NewPostgresDialect(), driver: "postgres", lastInsertID: false, migrationsDir: "postgres", placeholder: sq.Dollar, upsertFragment: "EXCLUDED.store_value"},
		{name: "mysql", dialect: NewMySQLDialect(), driver: "mysql", lastInsertID: true, migrationsDir: "mysql", placeholder: sq.Question, upsertFragment: "ON DUPLICATE KEY UPDATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.driver, tt.dialect.DriverName())
			assert.Equal(t, tt.lastInsertID, tt.dialect.SupportsLastInsertId())
			assert.Equal(t, tt.migrationsDir, tt.dialect.MigrationsSubdir())
			assert.Equal(t, tt.placeholder, tt.dialect.PlaceholderFormat())
			assert.Contains(t, tt.dialect.UpsertKVQuery(), tt.upsertFragment)
			assert.Contains(t, tt.dialect.CreateMigrationsTableQuery(), "migrations")
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := DialectConfig{Path: "/tmp/reader.db", URL: "postgres://u:p@localhost/reader"}

	assert.Equal(t, "/tmp/reader.db?_busy_timeout=5000", NewSQLiteDialect().DSN(cfg))
	assert.Equal(t, cfg.URL, NewPostgresDialect().DSN(cfg))
	assert.Equal(t, cfg.URL, NewMySQLDialect().DSN(cfg))
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT store_value FROM kv_store WHERE store_key = ?",
			expected: "SELECT store_value FROM kv_store WHERE store_key = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT store_value FROM kv_store WHERE store_key = ?",
			expected: "SELECT store_value FROM kv_store WHERE store_key = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO quiz_results (passage_id, score, total) VALUES (?, ?, ?)",
			expected: "INSERT INTO quiz_results (passage_id, score, total) VALUES ($1, $2, $3)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE passages SET title = ? WHERE id = ?",
			expected: "UPDATE passages SET title = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dialect.RewriteQuery(tt.query))
		})
	}
}

func TestDialectFor(t *testing.T) {
	for _, name := range []string{"", "sqlite", "sqlite3", "postgres", "postgresql", "mysql"} {
		_, ok := dialectFor(name)
		assert.True(t, ok, name)
	}
	_, ok := dialectFor("oracle")
	assert.False(t, ok)
}

func TestSplitStatements(t *testing.T) {
	content := `-- comment
CREATE TABLE a (
    id INTEGER
);

CREATE INDEX i ON a(id);
-- trailing comment
`
	stmts := splitStatements(content)
	assert.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE a")
	assert.NotContains(t, stmts[0], ";")
	assert.Equal(t, "CREATE INDEX i ON a(id)", stmts[1])
}
