package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const tableCollections = "collections"

// PostgresBackend stores each collection as a JSONB row.
type PostgresBackend struct {
	db *sql.DB
}

// builder returns a squirrel statement builder using $n placeholders.
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// NewPostgres opens dsn through the pgx driver without touching the network;
// Ping and Init are run by Open.
func NewPostgres(dsn string) (*PostgresBackend, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

// Ping checks connectivity.
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Init creates the collections table.
func (b *PostgresBackend) Init(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := b.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure collections table: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Read(ctx context.Context, name string) ([]byte, error) {
	query, args, err := builder().Select("payload").
		From(tableCollections).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var payload []byte
	if err := b.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read collection: %w", err)
	}
	return payload, nil
}

func (b *PostgresBackend) Write(ctx context.Context, name string, payload []byte) error {
	query, args, err := builder().Insert(tableCollections).
		Columns("name", "payload", "updated_at").
		Values(name, string(payload), time.Now().UTC()).
		Suffix(`on conflict (name) do update set payload = excluded.payload, updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert collection: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Close() error { return b.db.Close() }
