// Package secret generates project secret keys and rotates them.
//
// Rotation writes only the secret column of one project. Sessions derived
// from the previous key are not revoked here; the runtime decides what to do
// with them.
package secret

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/roach88/structure/internal/backend"
)

// random is the entropy source. Tests swap it to simulate a failing source.
var random io.Reader = rand.Reader

// KeyBytes is the entropy of a secret key. Keys are hex encoded, so they are
// twice as long in characters.
const KeyBytes = 16

// KeyLength is the length of an encoded key.
const KeyLength = KeyBytes * 2

// KeyWriter persists a new secret key for one project. It must not modify
// any other column.
type KeyWriter interface {
	WriteSecretKey(ctx context.Context, projectID, key string) error
}

// NewKey returns a fresh 128-bit key as 32 lowercase hex characters.
func NewKey() (string, error) {
	var b [KeyBytes]byte
	if _, err := io.ReadFull(random, b[:]); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// Rotate generates a new key, writes it for projectID and returns it.
// A key generation failure is a StoreError. Errors from the writer are
// returned unchanged so the backend's error classification survives.
func Rotate(ctx context.Context, w KeyWriter, projectID string) (string, error) {
	key, err := NewKey()
	if err != nil {
		return "", backend.Store(backend.OpRegenerateSecret, "", err)
	}
	if err := w.WriteSecretKey(ctx, projectID, key); err != nil {
		return "", err
	}
	return key, nil
}
