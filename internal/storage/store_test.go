package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"declara/pkg/platform/sentinel"
)

func TestArtifactKeys(t *testing.T) {
	at := time.UnixMilli(1747058400000)

	assert.Equal(t, "djc_ACME-001_1747058400000.pdf", DocumentKey("ACME-001", at))
	assert.Equal(t, "signature_ACME-001_1747058400000.png", SignatureKey("ACME-001", at))
}

func TestKeyFromURL(t *testing.T) {
	assert.Equal(t, "djc_A_1.pdf", KeyFromURL("https://storage.googleapis.com/declara/djc_A_1.pdf"))
	assert.Equal(t, "sig.png", KeyFromURL("mem://artifacts/sig.png"))
	assert.Equal(t, "bare-key", KeyFromURL("bare-key"))
}

func TestInMemoryStorePutGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	url, err := store.Put(ctx, "djc_A_1.pdf", []byte("%PDF-1.3"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "mem://artifacts/djc_A_1.pdf", url)
	assert.Equal(t, "application/pdf", store.ContentType("djc_A_1.pdf"))

	data, err := store.Get(ctx, "djc_A_1.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3"), data)
}

func TestInMemoryStoreGetMissing(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStorePutCopiesData(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	data := []byte("original")

	_, err := store.Put(ctx, "k", data, "text/plain")
	require.NoError(t, err)
	data[0] = 'X'

	stored, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), stored)
}
