package feedback

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Unit tests against a mocked database/sql driver. The live-database tests in
// postgres_test.go cover real upsert semantics; these cover query shape and
// scanning without requiring a server.

func setupMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	return store, mock
}

func TestNewPostgresStore_NilDB(t *testing.T) {
	store, err := NewPostgresStore(nil)

	require.Error(t, err)
	assert.Nil(t, store)
}

func TestPostgresStoreMock_Save(t *testing.T) {
	store, mock := setupMockStore(t)
	defer store.Close()

	createdAt := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO feedback").
		WithArgs("Hypertension", "9f3c51a07be24d88", "male, 52, never smoker",
			"A", false, "Already under treatment", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), createdAt))

	fb := &Feedback{
		Topic:            "Hypertension",
		ProfileHash:      "9f3c51a07be24d88",
		ProfileSummary:   "male, 52, never smoker",
		RecommendedGrade: "A",
		Agreed:           false,
		Comment:          "Already under treatment",
	}

	err := store.Save(context.Background(), fb)

	require.NoError(t, err)
	assert.Equal(t, int64(7), fb.ID)
	assert.Equal(t, createdAt, fb.CreatedAt)
	assert.False(t, fb.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreMock_Get(t *testing.T) {
	store, mock := setupMockStore(t)
	defer store.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "topic", "profile_hash", "profile_summary",
		"recommended_grade", "agreed", "comment", "created_at", "updated_at",
	}).AddRow(int64(3), "Lung Cancer", "ab12cd34", "female, 58, former smoker",
		"B", true, "", now, now)

	mock.ExpectQuery("SELECT (.+) FROM feedback").
		WithArgs("Lung Cancer", "ab12cd34").
		WillReturnRows(rows)

	fb, err := store.Get(context.Background(), "Lung Cancer", "ab12cd34")

	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, int64(3), fb.ID)
	assert.Equal(t, "Lung Cancer", fb.Topic)
	assert.Equal(t, "B", fb.RecommendedGrade)
	assert.True(t, fb.Agreed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreMock_Get_NoRows(t *testing.T) {
	store, mock := setupMockStore(t)
	defer store.Close()

	mock.ExpectQuery("SELECT (.+) FROM feedback").
		WithArgs("Syphilis", "missing").
		WillReturnError(sql.ErrNoRows)

	fb, err := store.Get(context.Background(), "Syphilis", "missing")

	require.NoError(t, err, "no rows is not an error")
	assert.Nil(t, fb)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreMock_List(t *testing.T) {
	store, mock := setupMockStore(t)
	defer store.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "topic", "profile_hash", "profile_summary",
		"recommended_grade", "agreed", "comment", "created_at", "updated_at",
	}).
		AddRow(int64(2), "Colorectal Cancer", "hash2", "", "A", true, "", now, now).
		AddRow(int64(1), "Osteoporosis", "hash1", "", "B", false, "Screening declined", now, now)

	mock.ExpectQuery("SELECT (.+) FROM feedback ORDER BY created_at DESC").
		WithArgs(10, 0).
		WillReturnRows(rows)

	entries, err := store.List(context.Background(), 10, 0)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Colorectal Cancer", entries[0].Topic)
	assert.Equal(t, "Osteoporosis", entries[1].Topic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreMock_Count(t *testing.T) {
	store, mock := setupMockStore(t)
	defer store.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := store.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreMock_Delete(t *testing.T) {
	store, mock := setupMockStore(t)
	defer store.Close()

	mock.ExpectExec("DELETE FROM feedback").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Delete(context.Background(), 7)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
