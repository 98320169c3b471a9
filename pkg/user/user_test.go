package user

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "users.json")

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, path, s.Path())

	require.NoError(t, s.Add("bob", "hunter2"))
	require.NoError(t, s.Add("alice", "s3cret"))
	assert.Error(t, s.Add("bob", "again"))
	assert.Error(t, s.Add("", "x"))
	require.NoError(t, s.Save())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())

	s2, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, s2.List())
	assert.True(t, s2.Authenticate("bob", "hunter2"))
	assert.False(t, s2.Authenticate("bob", "wrong"))
	assert.False(t, s2.Authenticate("carol", "hunter2"))

	assert.True(t, s2.Remove("bob"))
	assert.False(t, s2.Remove("bob"))
	assert.Equal(t, 1, s2.Len())
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	_, err := Open(path)
	assert.Error(t, err)
}
