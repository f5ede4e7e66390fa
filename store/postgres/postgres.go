package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/scriptflow/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresScriptStore implements store.ScriptStore using PostgreSQL
type PostgresScriptStore struct {
	pool      DBPool
	tableName string
}

var _ store.ScriptStore = (*PostgresScriptStore)(nil)

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "scripts"
}

// NewPostgresScriptStore creates a new Postgres script store and ensures its table exists
func NewPostgresScriptStore(ctx context.Context, opts PostgresOptions) (*PostgresScriptStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	s := NewPostgresScriptStoreWithPool(pool, opts.TableName)
	if err := s.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresScriptStoreWithPool creates a new Postgres script store with an existing pool
// Useful for testing with mocks
func NewPostgresScriptStoreWithPool(pool DBPool, tableName string) *PostgresScriptStore {
	if tableName == "" {
		tableName = "scripts"
	}
	return &PostgresScriptStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresScriptStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			voice_name TEXT,
			record JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_topic ON %s (topic);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresScriptStore) Close() error {
	s.pool.Close()
	return nil
}

// Save stores a record
func (s *PostgresScriptStore) Save(ctx context.Context, record *store.Record) error {
	data, err := store.Encode(record)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, topic, voice_name, record, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			topic = EXCLUDED.topic,
			voice_name = EXCLUDED.voice_name,
			record = EXCLUDED.record,
			created_at = EXCLUDED.created_at
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		record.ID,
		record.Topic,
		record.VoiceName,
		data,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	return nil
}

// Load retrieves a record by ID
func (s *PostgresScriptStore) Load(ctx context.Context, id string) (*store.Record, error) {
	query := fmt.Sprintf(`SELECT record FROM %s WHERE id = $1`, s.tableName)

	var data []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	return store.Decode(data)
}

// List returns records for topic, newest first
func (s *PostgresScriptStore) List(ctx context.Context, topic string) ([]*store.Record, error) {
	query := fmt.Sprintf(`SELECT record FROM %s WHERE ($1 = '' OR topic = $1) ORDER BY created_at DESC, id ASC`, s.tableName)

	rows, err := s.pool.Query(ctx, query, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []*store.Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		r, err := store.Decode(data)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return records, nil
}

// Delete removes a record
func (s *PostgresScriptStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	_, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
