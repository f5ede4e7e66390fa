package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/scriptflow/script"
	"github.com/smallnest/scriptflow/store"
)

func testRecord() *store.Record {
	return &store.Record{
		ID:        "rec-1",
		Topic:     "5 morning habits",
		Script:    "Wake up. Drink water.",
		Analysis:  script.Analysis{WordCount: 4, EstimatedDuration: 2},
		VoiceName: "Coach",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestPostgresScriptStore_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresScriptStoreWithPool(mock, "")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS scripts")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresScriptStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresScriptStoreWithPool(mock, "scripts")
	rec := testRecord()
	data, err := store.Encode(rec)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scripts")).
		WithArgs(rec.ID, rec.Topic, rec.VoiceName, data, rec.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, s.Save(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresScriptStore_Save_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresScriptStoreWithPool(mock, "scripts")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scripts")).
		WillReturnError(errors.New("connection refused"))

	err = s.Save(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save record")
}

func TestPostgresScriptStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresScriptStoreWithPool(mock, "scripts")
	rec := testRecord()
	data, err := store.Encode(rec)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT record FROM scripts WHERE id = $1")).
		WithArgs(rec.ID).
		WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(data))

	loaded, err := s.Load(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Script, loaded.Script)
	assert.Equal(t, rec.Analysis, loaded.Analysis)
	assert.True(t, rec.CreatedAt.Equal(loaded.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresScriptStore_Load_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresScriptStoreWithPool(mock, "scripts")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT record FROM scripts WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = s.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresScriptStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresScriptStoreWithPool(mock, "scripts")
	first := testRecord()
	second := testRecord()
	second.ID = "rec-0"
	second.CreatedAt = first.CreatedAt.Add(-time.Hour)

	d1, _ := store.Encode(first)
	d2, _ := store.Encode(second)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT record FROM scripts WHERE ($1 = '' OR topic = $1) ORDER BY created_at DESC, id ASC")).
		WithArgs(first.Topic).
		WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(d1).AddRow(d2))

	list, err := s.List(context.Background(), first.Topic)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "rec-1", list[0].ID)
	assert.Equal(t, "rec-0", list[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresScriptStore_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresScriptStoreWithPool(mock, "scripts")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scripts WHERE id = $1")).
		WithArgs("rec-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, s.Delete(context.Background(), "rec-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
