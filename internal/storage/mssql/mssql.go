// Package mssql implements a SQL Server storage.Repository using the
// go-mssqldb driver through database/sql. Rows are inserted with @pN
// placeholder statements inside a transaction; volumes here are modest, so
// the bulk-copy protocol is not worth its setup complexity.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // sqlserver driver registration

	"invoiceetl/internal/storage"
)

// Repository is a SQL Server-backed implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	schema string
}

// Open connects using a sqlserver:// DSN. schema defaults to "dbo" when empty.
func Open(ctx context.Context, dsn, schema string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("mssql: DSN must not be empty")
	}
	if schema == "" {
		schema = "dbo"
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return &Repository{db: db, schema: schema}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() { r.db.Close() }

// Replace drops and recreates the destination table.
func (r *Repository) Replace(ctx context.Context, table string, cols []storage.Column) error {
	fq := r.qualified(table)
	drop := fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s", fq, fq)
	if _, err := r.db.ExecContext(ctx, drop); err != nil {
		return fmt.Errorf("mssql: drop %s: %w", fq, err)
	}
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quote(c.Name) + " " + sqlType(c.Kind)
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", fq, strings.Join(defs, ", "))
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("mssql: create %s: %w", fq, err)
	}
	return nil
}

// InsertBatch inserts rows inside one transaction via a prepared statement.
func (r *Repository) InsertBatch(ctx context.Context, table string, cols []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for i, c := range cols {
		placeholders[i] = fmt.Sprintf("@p%d", i+1)
		quoted[i] = quote(c)
	}
	stmtSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.qualified(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("mssql: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(cols) {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("mssql: row length %d != columns length %d", len(row), len(cols))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("mssql: insert: %w", err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("mssql: commit: %w", err)
	}
	return inserted, nil
}

func (r *Repository) qualified(table string) string {
	return quote(r.schema) + "." + quote(table)
}

func sqlType(k storage.Kind) string {
	if k == storage.KindNumber {
		return "FLOAT"
	}
	return "NVARCHAR(400)"
}

func quote(ident string) string { return "[" + strings.ReplaceAll(ident, "]", "]]") + "]" }
