package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/flowday-app/flowday/internal/common"
	"github.com/flowday-app/flowday/internal/models"
)

// PasswordIterations is the PBKDF2 iteration count for new credentials.
// The count is stored per account, so raising it later does not break
// existing records (they keep verifying with their stored count).
const PasswordIterations = 120000

const (
	saltSize = 16
	hashSize = 32
)

// CreateCredential derives a fresh credential for the given password:
// a random 128-bit salt and a 256-bit PBKDF2-SHA256 hash.
func CreateCredential(password string) (models.Credential, error) {
	salt := common.GenerateRandByteArray(saltSize)
	saltB64 := base64.StdEncoding.EncodeToString(salt)

	hash, err := DeriveHash(password, saltB64, PasswordIterations)
	if err != nil {
		return models.Credential{}, err
	}

	return models.Credential{
		Salt:       saltB64,
		Hash:       hash,
		Iterations: PasswordIterations,
	}, nil
}

// DeriveHash repeats the derivation for an existing salt and iteration
// count, for verification. The password itself is never stored or logged.
func DeriveHash(password, saltB64 string, iterations int) (string, error) {
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return "", fmt.Errorf("%w: credential salt is invalid", common.ErrCorruptData)
	}

	hash := pbkdf2.Key([]byte(password), salt, iterations, hashSize, sha256.New)
	return base64.StdEncoding.EncodeToString(hash), nil
}
