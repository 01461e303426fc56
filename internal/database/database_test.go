package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcshell/internal/workspace"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenMigrated(filepath.Join(t.TempDir(), "nested", "arc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM requests`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestRequestRepo_ReadUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewRequestRepo(openTestDB(t))
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	req := workspace.Request{ID: "r1", Type: KindSaved, Name: "Users", Method: "GET", URL: "https://api.example.com/users", Updated: updated}
	require.NoError(t, repo.Upsert(ctx, req))

	got, err := repo.Read(ctx, KindSaved, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Users", got.Name)
	assert.Equal(t, "https://api.example.com/users", got.URL)
	assert.True(t, got.Updated.Equal(updated))

	req.Name = "All users"
	require.NoError(t, repo.Upsert(ctx, req))
	got, err = repo.Read(ctx, KindSaved, "r1")
	require.NoError(t, err)
	assert.Equal(t, "All users", got.Name)

	_, err = repo.Read(ctx, KindHistory, "r1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestRepo_UnknownKind(t *testing.T) {
	ctx := context.Background()
	repo := NewRequestRepo(openTestDB(t))

	_, err := repo.Read(ctx, "latest", "x")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.ErrorIs(t, repo.Upsert(ctx, workspace.Request{ID: "x"}), ErrUnknownKind)
	_, err = repo.List(ctx, "", 0)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRequestRepo_ListDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRequestRepo(openTestDB(t))
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Upsert(ctx, workspace.Request{ID: id, Type: KindHistory, Method: "GET", Updated: base.Add(time.Duration(i) * time.Hour)}))
	}

	all, err := repo.List(ctx, KindHistory, 0)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)

	top, err := repo.List(ctx, KindHistory, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "c", top[0].ID)

	require.NoError(t, repo.Delete(ctx, KindHistory, "b"))
	assert.ErrorIs(t, repo.Delete(ctx, KindHistory, "b"), ErrNotFound)
}

func TestRequestRepo_IsRequestReader(t *testing.T) {
	var _ workspace.RequestReader = NewRequestRepo(nil)
}

func TestMetaRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMetaRepo(openTestDB(t))

	_, err := repo.Get(ctx, "cid")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set(ctx, "cid", "one"))
	require.NoError(t, repo.Set(ctx, "cid", "two"))
	v, err := repo.Get(ctx, "cid")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

func TestWithTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	boom := errors.New("boom")

	err := WithTx(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO analytics_meta(key, value) VALUES ('k', 'v')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewMetaRepo(db).Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
