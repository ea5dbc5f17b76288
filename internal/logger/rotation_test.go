package logger

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentic.log")

	w, err := NewRotatingWriter(path, 10, 0, false)
	require.NoError(t, err)

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = NewRotatingWriter(path, 10, 0, false)
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestRotatingWriterRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentic.log")

	w, err := NewRotatingWriter(path, 1, 0, false)
	require.NoError(t, err)
	defer w.Close()

	// Push past the 1 MB limit.
	chunk := make([]byte, 512*1024)
	for i := range chunk {
		chunk[i] = 'x'
	}
	for i := 0; i < 3; i++ {
		_, err = w.Write(chunk)
		require.NoError(t, err)
	}

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	assert.NotEmpty(t, matches, "a rotated file must exist after exceeding the size limit")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(1024*1024), "the live file restarts after rotation")
}

func TestRotatingWriterPrunesOldFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentic.log")

	stale := path + ".20200101-000000"
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0600))
	old := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := path + ".recent"
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0600))

	w, err := NewRotatingWriter(path, 10, 7, false)
	require.NoError(t, err)
	defer w.Close()

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "files older than maxAge are removed")
	_, err = os.Stat(fresh)
	assert.NoError(t, err, "recent rotated files survive")
}

func TestRotatingWriterPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	dir := filepath.Join(t.TempDir(), "logs")
	path := filepath.Join(dir, "agentic.log")

	w, err := NewRotatingWriter(path, 10, 0, false)
	require.NoError(t, err)
	defer w.Close()

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	fileInfo, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fileInfo.Mode().Perm())
}
