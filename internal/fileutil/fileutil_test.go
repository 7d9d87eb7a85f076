package fileutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	assert.Equal(t, "s3://bucket/out.pdf", URL("s3://bucket/out.pdf"))

	got := URL("relative/out.pdf")
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}

func TestWriteReadExists(t *testing.T) {
	ctx := context.Background()
	files := New()
	path := filepath.Join(t.TempDir(), "params.txt")

	ok, err := files.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, files.WriteFile(ctx, path, []byte("A\x01B")))

	ok, err = files.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := files.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "A\x01B", string(data))
}

func TestEnsureDirCreatesParent(t *testing.T) {
	ctx := context.Background()
	files := New()
	target := filepath.Join(t.TempDir(), "nested", "deeper", "report.csv")

	_, err := files.EnsureDir(ctx, target)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Second call is a no-op.
	_, err = files.EnsureDir(ctx, target)
	require.NoError(t, err)
}
