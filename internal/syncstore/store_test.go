package syncstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sync", "sync.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestStore_GetSet(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()

	_, err := s.Get("ga.cid")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("ga.cid", "abc"))
	v, err := s.Get("ga.cid")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Set("a", "1"))
	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ga.cid"}, keys)

	require.NoError(t, s.Delete("ga.cid"))
	require.NoError(t, s.Delete("ga.cid"))
	_, err = s.Get("ga.cid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Persists(t *testing.T) {
	s, path := openTestStore(t)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
