package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), path, WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t, filepath.Join(t.TempDir(), "kv.db"))

	v, err := s.Get(ctx, "user")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set(ctx, "user", []byte("old")))
	require.NoError(t, s.Set(ctx, "user", []byte("new")))

	v, err = s.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)

	require.NoError(t, s.Delete(ctx, "user", "absent"))
	v, err = s.Get(ctx, "user")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSQLite_ValuesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	first, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "draft:resume_text", []byte("ten years of Go")))
	require.NoError(t, first.Close())

	second := openTestSQLite(t, path)
	v, err := second.Get(ctx, "draft:resume_text")
	require.NoError(t, err)
	assert.Equal(t, "ten years of Go", string(v))
}

func TestSQLite_RemovalObservedByAnotherProcessHandle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")
	tabA := openTestSQLite(t, path)
	tabB := openTestSQLite(t, path)

	chA, cancelA := tabA.Subscribe()
	defer cancelA()
	chB, cancelB := tabB.Subscribe()
	defer cancelB()

	require.NoError(t, tabA.Set(ctx, "user", []byte("{}")))
	c := receive(t, chB)
	assert.Equal(t, "user", c.Key)
	assert.False(t, c.Removed)

	require.NoError(t, tabA.Delete(ctx, "user"))
	c = receive(t, chB)
	assert.Equal(t, Change{Key: "user", Removed: true, Origin: tabA.Origin()}, c)

	assertQuiet(t, chA)
}

func TestSQLite_DeleteOfMissingKeyIsNotAChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	tabA := openTestSQLite(t, path)
	tabB := openTestSQLite(t, path)

	ch, cancel := tabB.Subscribe()
	defer cancel()

	require.NoError(t, tabA.Delete(context.Background(), "user"))
	assertQuiet(t, ch)
}

func TestSQLite_ClosedStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Get(context.Background(), "k")
	require.ErrorIs(t, err, ErrClosed)
}

func TestSQLite_ErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &SQLiteStore{db: db, origin: "me", feed: newFeed()}
	ctx := context.Background()

	mock.ExpectQuery(`SELECT value FROM kv`).WithArgs("user").WillReturnError(errors.New("io"))
	_, err = s.Get(ctx, "user")
	require.ErrorContains(t, err, "get user")

	mock.ExpectQuery(`SELECT value FROM kv`).WithArgs("user").WillReturnError(sql.ErrNoRows)
	v, err := s.Get(ctx, "user")
	require.NoError(t, err)
	assert.Nil(t, v)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv`).WillReturnError(errors.New("readonly"))
	mock.ExpectRollback()
	require.ErrorContains(t, s.Set(ctx, "user", []byte("v")), "set user")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM kv WHERE key`).WithArgs("user").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO kv_changes`).WillReturnError(errors.New("full"))
	mock.ExpectRollback()
	require.ErrorContains(t, s.Delete(ctx, "user"), "log change user")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_PollSkipsOwnOrigin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &SQLiteStore{db: db, origin: "me", feed: newFeed(), lastSeq: 3}
	ch, cancel := s.Subscribe()
	defer cancel()

	mock.ExpectQuery(`SELECT seq, key, removed, origin FROM kv_changes`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"seq", "key", "removed", "origin"}).
			AddRow(4, "user", true, "me").
			AddRow(5, "user", true, "other"))

	require.NoError(t, s.pollOnce(context.Background()))
	assert.Equal(t, Change{Key: "user", Removed: true, Origin: "other"}, receive(t, ch))
	assertQuiet(t, ch)
	assert.Equal(t, int64(5), s.lastSeq)
}

func TestSealed_EncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	raw := hub.Open()
	key := make([]byte, 32)
	sealed := Sealed(hub.Open(), key)

	require.NoError(t, sealed.Set(ctx, "user", []byte("credential")))

	stored, err := raw.Get(ctx, "user")
	require.NoError(t, err)
	assert.NotEqual(t, []byte("credential"), stored)

	plain, err := sealed.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, []byte("credential"), plain)

	missing, err := sealed.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, raw.Set(ctx, "user", []byte("tampered-value-not-sealed")))
	_, err = sealed.Get(ctx, "user")
	require.ErrorContains(t, err, "open user")
}
