package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc/internal/document/models"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func testObject() Object {
	return Object{
		ProcessID:   "proc-1",
		Type:        models.DocumentCardFront,
		ContentType: "image/jpeg",
		Payload:     []byte("front-bytes"),
		Hash:        "abc123",
	}
}

func TestInMemoryUpload(t *testing.T) {
	store := NewInMemory("kyc")

	first, err := store.Upload(context.Background(), testObject())
	require.NoError(t, err)
	second, err := store.Upload(context.Background(), testObject())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.Path, "kyc/proc-1/CARD_FRONT/"))
	assert.NotEqual(t, first.Path, second.Path, "uploads never overwrite")
	assert.Equal(t, "abc123", first.Hash)
	assert.Equal(t, int64(len("front-bytes")), first.SizeBytes)
	assert.Equal(t, 2, store.Len())

	got, err := store.Get(context.Background(), first.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("front-bytes"), got)
}

func TestInMemoryUploadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewInMemory("").Upload(ctx, testObject())
	require.ErrorIs(t, err, context.Canceled)
}

func TestSealedRoundTrip(t *testing.T) {
	inner := NewInMemory("kyc")
	sealed, err := NewSealed(inner, testKey, "k1")
	require.NoError(t, err)

	obj := testObject()
	stored, err := sealed.Upload(context.Background(), obj)
	require.NoError(t, err)
	assert.Equal(t, obj.Hash, stored.Hash)
	assert.Equal(t, AlgorithmXChaCha20Poly1305, stored.Encryption.Algorithm)
	assert.Equal(t, "k1", stored.Encryption.KeyID)
	assert.Len(t, stored.Encryption.Nonce, 24)

	ciphertext, err := inner.Get(context.Background(), stored.Path)
	require.NoError(t, err)
	assert.NotEqual(t, obj.Payload, ciphertext)

	plain, err := sealed.Open(ciphertext, stored.Encryption, obj)
	require.NoError(t, err)
	assert.Equal(t, obj.Payload, plain)

	other := obj
	other.Type = models.DocumentCardBack
	_, err = sealed.Open(ciphertext, stored.Encryption, other)
	assert.Error(t, err, "additional data binds the document type")
}

func TestNewSealedRejectsBadKey(t *testing.T) {
	_, err := NewSealed(NewInMemory(""), "zz", "k")
	assert.Error(t, err)
	_, err = NewSealed(NewInMemory(""), "0011", "k")
	assert.Error(t, err)
}
