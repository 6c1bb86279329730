package db

import (
	"context"
	"database/sql"
)

// Execer is the query surface shared by *sql.DB and *sql.Tx, so repositories
// can run the same statements inside or outside a ledger transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is the transaction handle the ledger works with. *sql.Tx satisfies it;
// tests inject lighter stand-ins.
type Tx interface {
	Execer
	Commit() error
	Rollback() error
}

// NullIfEmpty helps store optional strings without wiping existing data.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func HasTable(q Execer, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(context.Background(), `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}
