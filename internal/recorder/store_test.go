package recorder

import (
	"io"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	stores := map[string]ArtifactStore{
		"memory": NewMemoryStore("/recordings/"),
		"file":   fileStore,
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			art, err := store.Put(t.Context(), MIMEType, []byte("audio"))
			require.NoError(t, err)
			assert.NotEmpty(t, art.ID)
			assert.Equal(t, int64(5), art.Size)
			assert.False(t, art.CreatedAt.IsZero())

			rc, got, err := store.Open(art.ID)
			require.NoError(t, err)
			data, _ := io.ReadAll(rc)
			rc.Close()
			assert.Equal(t, "audio", string(data))
			assert.Equal(t, art, got)

			require.NoError(t, store.Revoke(art.ID))
			_, _, err = store.Open(art.ID)
			assert.ErrorIs(t, err, ErrArtifactNotFound)

			// Idempotent.
			assert.NoError(t, store.Revoke(art.ID))
			assert.NoError(t, store.Revoke("never-existed"))
		})
	}
}

func TestFileStore_RevokeDeletesFile(t *testing.T) {
	store, err := NewFileStore("")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(store.Dir()) })

	art, err := store.Put(t.Context(), MIMEType, []byte("audio"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(art.URL, "file://"))

	u, err := url.Parse(art.URL)
	require.NoError(t, err)
	_, err = os.Stat(u.Path)
	require.NoError(t, err)

	require.NoError(t, store.Revoke(art.ID))
	_, err = os.Stat(u.Path)
	assert.True(t, os.IsNotExist(err))
}
