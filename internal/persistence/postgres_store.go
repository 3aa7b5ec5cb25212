package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresBackend is a Backend backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresBackend struct {
	db *sql.DB
}

// Ensure PostgresBackend implements Backend.
var _ Backend = (*PostgresBackend)(nil)

// NewPostgresBackend initializes the required schema in the given
// database and returns a new PostgresBackend.
func NewPostgresBackend(db *sql.DB) (*PostgresBackend, error) {
	b := &PostgresBackend{db: db}
	if err := b.initSchema(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *PostgresBackend) initSchema() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS session_records (
			key TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	row := b.db.QueryRowContext(ctx, `SELECT data FROM session_records WHERE key = $1`, key)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return data, nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO session_records (key, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`,
		key,
		data,
		time.Now().UTC(),
	)
	return err
}

func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM session_records WHERE key = $1`, key)
	return err
}
