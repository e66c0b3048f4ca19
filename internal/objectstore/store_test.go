package objectstore

import (
	"os"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	dir, err := os.MkdirTemp("", "objectstore-test")
	require.NoError(t, err)

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)

	objDir, err := os.MkdirTemp("", "objectstore-objs")
	require.NoError(t, err)

	store, err := New(objDir, db, 64, 1<<20)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.RemoveAll(dir)
		os.RemoveAll(objDir)
	}
	return store, cleanup
}

func TestPutGetBlobRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	content := []byte("the quick brown fox jumps over the lazy dog")
	hash, err := store.PutBlob(content, nil)
	require.NoError(t, err)
	assert.True(t, store.HasBlob(hash))

	got, err := store.GetBlob(hash, nil)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestPutBlobIsIdempotent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	content := []byte("repeat me")
	h1, err := store.PutBlob(content, nil)
	require.NoError(t, err)
	h2, err := store.PutBlob(content, nil)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestPutBlobDistinctChunksKeepSeparateRefCounts(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	a := []byte("shared-payload")
	b := append(append([]byte{}, a...), []byte("-suffix")...)

	_, err := store.PutBlob(a, nil)
	require.NoError(t, err)
	_, err = store.PutBlob(b, nil)
	require.NoError(t, err)

	var meta ChunkMeta
	require.NoError(t, store.chunkMeta.Get(hashHex(a), &meta))
	assert.EqualValues(t, 1, meta.RefCount, "identical chunk content is only stored once, not reference-counted across distinct blobs sharing a prefix")
}

func TestEncryptedBlobRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	crypt := DeriveKey("repo-1", "correct horse", 2, 4)
	content := []byte("secret contents")

	hash, err := store.PutBlob(content, &crypt)
	require.NoError(t, err)

	got, err := store.GetBlob(hash, &crypt)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	wrong := DeriveKey("repo-1", "wrong password", 2, 4)
	_, err = store.GetBlob(hash, &wrong)
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestGetBlobNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetBlob("0000000000000000000000000000000000000a", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCanonicalObjectsAreContentAddressed(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	body := []byte(`{"a":1}`)
	h1, err := store.PutCanonical(KindTree, body)
	require.NoError(t, err)
	h2, err := store.PutCanonical(KindTree, body)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	got, err := store.GetCanonical(KindTree, h1)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}
