package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/scriptflow/store"
)

// SqliteScriptStore implements store.ScriptStore using SQLite
type SqliteScriptStore struct {
	db        *sql.DB
	tableName string
}

var _ store.ScriptStore = (*SqliteScriptStore)(nil)

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "scripts"
}

// NewSqliteScriptStore creates a new SQLite script store
func NewSqliteScriptStore(opts SqliteOptions) (*SqliteScriptStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "scripts"
	}

	s := &SqliteScriptStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteScriptStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			voice_name TEXT,
			record TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_topic ON %s (topic);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteScriptStore) Close() error {
	return s.db.Close()
}

// Save stores a record
func (s *SqliteScriptStore) Save(ctx context.Context, record *store.Record) error {
	data, err := store.Encode(record)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, topic, voice_name, record, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			topic = excluded.topic,
			voice_name = excluded.voice_name,
			record = excluded.record,
			created_at = excluded.created_at
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		record.Topic,
		record.VoiceName,
		string(data),
		record.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	return nil
}

// Load retrieves a record by ID
func (s *SqliteScriptStore) Load(ctx context.Context, id string) (*store.Record, error) {
	query := fmt.Sprintf(`SELECT record FROM %s WHERE id = ?`, s.tableName)

	var data string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	return store.Decode([]byte(data))
}

// List returns records for topic, newest first
func (s *SqliteScriptStore) List(ctx context.Context, topic string) ([]*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT record
		FROM %s
		WHERE (? = '' OR topic = ?)
		ORDER BY created_at DESC, id ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, topic, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []*store.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		r, err := store.Decode([]byte(data))
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
func (s *SqliteScriptStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
