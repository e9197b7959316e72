package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirPrefersFirstCandidate(t *testing.T) {
	root := t.TempDir()
	want := filepath.Join(root, "configured")

	got, err := Dir(0700, Value(""), Value(want), Temp("never"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(want)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDirEnv(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "from-env")
	t.Setenv("YEET_TEST_DIR", dir)

	got, err := Dir(0700, Env("YEET_TEST_UNSET_DIR"), Env("YEET_TEST_DIR"))
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestDirNoCandidates(t *testing.T) {
	_, err := Dir(0700, Value(""))
	assert.ErrorIs(t, err, ErrNoDirectory)
}
