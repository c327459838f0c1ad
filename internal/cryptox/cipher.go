package cryptox

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowday-app/flowday/internal/common"
)

// nonceSize is the AES-GCM nonce length in bytes.
const nonceSize = 12

// cipherTextSeparator joins the encoded nonce and ciphertext parts.
const cipherTextSeparator = "."

// Cipher encrypts and decrypts JSON-serializable payloads with the key
// manager's key. Each Encrypt call uses a fresh random nonce; the result
// is base64(nonce) "." base64(ciphertext+tag).
type Cipher struct {
	keys *KeyManager
}

func NewCipher(keys *KeyManager) *Cipher {
	return &Cipher{keys: keys}
}

// Encrypt serializes payload to JSON and seals it with AES-GCM.
func (c *Cipher) Encrypt(ctx context.Context, payload any) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}

	key, err := c.keys.GetOrCreateKey(ctx)
	if err != nil {
		return "", err
	}
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: no secure random source: %v", common.ErrUnsupportedEnvironment, err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(nonce) +
		cipherTextSeparator +
		base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt splits the encoded cipher text, opens it, and unmarshals the
// plaintext into v. A missing separator or undecodable part fails with
// common.ErrMalformedCipherText; a failed authentication tag check or
// unparsable plaintext fails with common.ErrCorruptData. The distinction
// separates "structurally invalid" from "tampered or wrong key".
func (c *Cipher) Decrypt(ctx context.Context, cipherText string, v any) error {
	noncePart, dataPart, found := strings.Cut(cipherText, cipherTextSeparator)
	if !found || noncePart == "" || dataPart == "" {
		return common.ErrMalformedCipherText
	}

	nonce, err := base64.StdEncoding.DecodeString(noncePart)
	if err != nil || len(nonce) != nonceSize {
		return common.ErrMalformedCipherText
	}
	sealed, err := base64.StdEncoding.DecodeString(dataPart)
	if err != nil {
		return common.ErrMalformedCipherText
	}

	key, err := c.keys.GetOrCreateKey(ctx)
	if err != nil {
		return err
	}
	aead, err := newAEAD(key)
	if err != nil {
		return err
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return fmt.Errorf("%w: decryption failed", common.ErrCorruptData)
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: payload is not valid JSON", common.ErrCorruptData)
	}
	return nil
}
