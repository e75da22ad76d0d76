package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billyribeiro-ux/build-ops/internal/shared/storage/object"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	obj, err := store.Save(ctx, "batch-1", "guide.md", strings.NewReader("# Intro\nhello"))
	require.NoError(t, err)
	assert.Equal(t, "guide.md", obj.FileName)
	assert.EqualValues(t, len("# Intro\nhello"), obj.Size)
	assert.True(t, strings.HasSuffix(obj.Key, "_guide.md"))

	body, err := store.Open(ctx, obj.Key)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "# Intro\nhello", string(data))
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Open(context.Background(), "../secrets.txt")
	assert.Error(t, err)
}

func TestMaterializeKeepsExtension(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	obj, err := store.Save(ctx, "batch-2", "Notes.TXT", strings.NewReader("plain text"))
	require.NoError(t, err)

	path, cleanup, err := object.Materialize(ctx, store, obj.Key, obj.FileName)
	require.NoError(t, err)
	assert.Equal(t, ".txt", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "plain text", string(data))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
