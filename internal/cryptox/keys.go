// Package cryptox implements the cryptographic core: the process-wide
// encryption key, authenticated payload encryption, password credential
// derivation, and the identifier digest used for account lookup.
package cryptox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/flowday-app/flowday/internal/common"
)

// KeySize is the length of the symmetric key in bytes (AES-256).
const KeySize = 32

// keySettingName is the durable settings key the encoded key lives under.
const keySettingName = "auth_key"

// KeyStore is the durable key/value storage the key manager persists into.
// The settings repository satisfies it.
type KeyStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// KeyManager owns the single process-wide symmetric key. The key is
// generated once, stored base64-encoded in durable settings, and cached
// for the lifetime of the manager. Every account payload is encrypted
// with this one key: losing it makes existing records undecryptable.
type KeyManager struct {
	store KeyStore

	mu  sync.Mutex
	key []byte
}

func NewKeyManager(store KeyStore) *KeyManager {
	return &KeyManager{store: store}
}

// GetOrCreateKey returns the symmetric key, loading it from durable
// settings or generating and persisting a fresh 256-bit value on first
// use. It fails with common.ErrUnsupportedEnvironment if the host lacks
// a usable random source or AES-GCM primitive.
func (m *KeyManager) GetOrCreateKey(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key != nil {
		return m.key, nil
	}

	stored, err := m.store.Get(ctx, keySettingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}

	var key []byte
	if stored != nil {
		key, err = base64.StdEncoding.DecodeString(string(stored))
		if err != nil || len(key) != KeySize {
			return nil, fmt.Errorf("%w: stored encryption key is invalid", common.ErrCorruptData)
		}
	} else {
		key = make([]byte, KeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("%w: no secure random source: %v", common.ErrUnsupportedEnvironment, err)
		}
		encoded := base64.StdEncoding.EncodeToString(key)
		if err := m.store.Set(ctx, keySettingName, []byte(encoded)); err != nil {
			return nil, fmt.Errorf("failed to persist encryption key: %w", err)
		}
	}

	// Import check: the key must be usable with the AEAD before anything
	// is encrypted with it.
	if _, err := newAEAD(key); err != nil {
		return nil, err
	}

	m.key = key
	return m.key, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedEnvironment, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedEnvironment, err)
	}
	return aead, nil
}
