package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"kyc/internal/document/models"
)

// AlgorithmXChaCha20Poly1305 is recorded on documents sealed by Sealed.
const AlgorithmXChaCha20Poly1305 = "XCHACHA20-POLY1305"

// Uploader is any storage backend.
type Uploader interface {
	Upload(ctx context.Context, obj Object) (Stored, error)
}

// Sealed encrypts payloads before handing them to the wrapped backend. The
// process id and document type are bound as additional data.
type Sealed struct {
	next  Uploader
	keyID string
	aead  cipher.AEAD
}

// NewSealed takes a hex-encoded 32 byte key.
func NewSealed(next Uploader, hexKey, keyID string) (*Sealed, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Sealed{next: next, keyID: keyID, aead: aead}, nil
}

func (s *Sealed) Upload(ctx context.Context, obj Object) (Stored, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Stored{}, fmt.Errorf("generate nonce: %w", err)
	}
	sealed := obj
	sealed.Payload = s.aead.Seal(nil, nonce, obj.Payload, additionalData(obj))
	sealed.Hash = ""
	sealed.ContentType = "application/octet-stream"

	stored, err := s.next.Upload(ctx, sealed)
	if err != nil {
		return Stored{}, err
	}
	stored.Hash = obj.Hash
	stored.Encryption = models.Encryption{
		Algorithm: AlgorithmXChaCha20Poly1305,
		KeyID:     s.keyID,
		Nonce:     nonce,
	}
	return stored, nil
}

// Open decrypts a payload previously sealed for processID and docType.
func (s *Sealed) Open(ciphertext []byte, enc models.Encryption, obj Object) ([]byte, error) {
	if enc.Algorithm != AlgorithmXChaCha20Poly1305 {
		return nil, fmt.Errorf("unsupported algorithm %q", enc.Algorithm)
	}
	plain, err := s.aead.Open(nil, enc.Nonce, ciphertext, additionalData(obj))
	if err != nil {
		return nil, fmt.Errorf("open sealed document: %w", err)
	}
	return plain, nil
}

func additionalData(obj Object) []byte {
	return []byte(obj.ProcessID.String() + "|" + obj.Type.String())
}
