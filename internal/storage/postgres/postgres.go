// Package postgres implements a Postgres storage.Repository using pgx v5.
// Batches are loaded with the COPY protocol, which is the fastest path for
// append-only artifact tables.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"invoiceetl/internal/storage"
)

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool   *pgxpool.Pool
	schema string
}

// Open creates a connection pool for the given DSN. schema optionally
// qualifies table names; empty means the connection's default search path.
func Open(ctx context.Context, dsn, schema string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, schema: schema}, nil
}

// Close releases the pool.
func (r *Repository) Close() { r.pool.Close() }

// Replace drops and recreates the destination table.
func (r *Repository) Replace(ctx context.Context, table string, cols []storage.Column) error {
	fq := r.qualified(table)
	if _, err := r.pool.Exec(ctx, "DROP TABLE IF EXISTS "+fq); err != nil {
		return fmt.Errorf("postgres: drop %s: %w", fq, err)
	}
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = pgIdent(c.Name) + " " + sqlType(c.Kind)
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", fq, strings.Join(defs, ", "))
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: create %s: %w", fq, err)
	}
	return nil
}

// InsertBatch loads rows via COPY.
func (r *Repository) InsertBatch(ctx context.Context, table string, cols []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	ident := pgx.Identifier{}
	if r.schema != "" {
		ident = append(ident, r.schema)
	}
	ident = append(ident, table)

	n, err := r.pool.CopyFrom(ctx, ident, cols, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", table, err)
	}
	return n, nil
}

// qualified returns the schema-qualified, quoted table name.
func (r *Repository) qualified(table string) string {
	if r.schema != "" {
		return pgIdent(r.schema) + "." + pgIdent(table)
	}
	return pgIdent(table)
}

func sqlType(k storage.Kind) string {
	if k == storage.KindNumber {
		return "DOUBLE PRECISION"
	}
	return "TEXT"
}

func pgIdent(ident string) string { return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"` }
