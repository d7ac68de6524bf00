package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())
}

func TestLoadMissingFileIsFirstRun(t *testing.T) {
	prev := tempStore(t).Load()
	assert.True(t, prev.FirstRun)
	assert.Empty(t, prev.Identifiers)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	now := time.Date(2024, 9, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save([]string{"prod:A", "prod:B"}, now))

	prev := s.Load()
	assert.False(t, prev.FirstRun)
	assert.Equal(t, []string{"prod:A", "prod:B"}, prev.Identifiers)
	assert.Equal(t, now, prev.UpdatedAt)
	assert.True(t, prev.Contains("prod:A"))
	assert.False(t, prev.Contains("prod:C"))
}

func TestLoadCorruptFileFailsSoft(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("not json{"), 0o600))

	prev := s.Load()
	assert.True(t, prev.FirstRun)
	assert.Empty(t, prev.Identifiers)
}

func TestSaveIsAtomicReplace(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save([]string{"old"}, time.Now()))
	require.NoError(t, s.Save([]string{"new"}, time.Now()))

	prev := s.Load()
	assert.Equal(t, []string{"new"}, prev.Identifiers)

	// No temp file left behind.
	_, err := os.Stat(s.path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveEmptySet(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save(nil, time.Now()))

	prev := s.Load()
	assert.False(t, prev.FirstRun)
	assert.Empty(t, prev.Identifiers)
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", "deep", "state.json"), zerolog.Nop())
	require.NoError(t, s.Save([]string{"x"}, time.Now()))
	assert.Equal(t, []string{"x"}, s.Load().Identifiers)
}

func TestDefaultPathEnvOverride(t *testing.T) {
	t.Setenv("ROBUSTABAR_STATE_PATH", "/tmp/alt-state.json")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/alt-state.json", p)
}
