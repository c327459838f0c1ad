// Package services contains the application services of the auth core.
// AccountService orchestrates the credential hasher, the payload cipher,
// the account store and the session manager to implement the account
// lifecycle: register, login, profile update, password change, deletion.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowday-app/flowday/internal/common"
	"github.com/flowday-app/flowday/internal/cryptox"
	"github.com/flowday-app/flowday/internal/dbx"
	"github.com/flowday-app/flowday/internal/logging"
	"github.com/flowday-app/flowday/internal/models"
	"github.com/flowday-app/flowday/internal/repositories/accounts"
	"github.com/flowday-app/flowday/internal/session"
)

// AccountService implements the account lifecycle over the local store.
// All operations run to completion; there is no cancellation once a write
// transaction has started.
type AccountService struct {
	db       *sql.DB
	sessions *session.Manager
	cipher   *cryptox.Cipher
	log      logging.Logger
}

func NewAccountService(db *sql.DB, sessions *session.Manager, cipher *cryptox.Cipher, log logging.Logger) *AccountService {
	return &AccountService{db: db, sessions: sessions, cipher: cipher, log: log}
}

func (s *AccountService) getAccountsRepo(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLiteRepository(db)
}

// Register creates a new account for the given e-mail and password,
// persists the encrypted profile record, and activates a user session.
// Fails with common.ErrAlreadyRegistered if the normalized e-mail is
// already taken.
func (s *AccountService) Register(ctx context.Context, email, password string, profile models.Profile) (*models.Session, error) {
	normalized := cryptox.NormalizeEmail(email)
	identifierHash := cryptox.HashEmail(normalized)

	repo := s.getAccountsRepo(s.db)

	if _, err := repo.FindByIdentifierHash(ctx, identifierHash); err == nil {
		return nil, common.ErrAlreadyRegistered
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("registration lookup failed: %w", err)
	}

	credential, err := cryptox.CreateCredential(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	profile.Name = strings.TrimSpace(profile.Name)

	payload := models.Payload{
		Email:      normalized,
		Credential: credential,
		Profile:    profile,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	encrypted, err := s.cipher.Encrypt(ctx, payload)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:             uuid.NewString(),
		IdentifierHash: identifierHash,
		Payload:        encrypted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := repo.Put(ctx, account); err != nil {
		// a concurrent registration can win the race between the lookup
		// and the put; the unique index is the source of truth
		if errors.Is(err, common.ErrDuplicateIdentifier) {
			return nil, common.ErrAlreadyRegistered
		}
		return nil, err
	}

	sess := sessionFromPayload(account.ID, &payload)
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID)
	return sess, nil
}

// Login verifies the password for the given e-mail and activates a user
// session. An unknown address and a wrong password both fail with
// common.ErrInvalidCredentials so the two cases are indistinguishable.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	normalized := cryptox.NormalizeEmail(email)
	identifierHash := cryptox.HashEmail(normalized)

	repo := s.getAccountsRepo(s.db)

	account, err := repo.FindByIdentifierHash(ctx, identifierHash)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login lookup failed: %w", err)
	}

	payload, err := s.decryptPayload(ctx, account)
	if err != nil {
		return nil, err
	}

	if !s.verifyPassword(password, &payload.Credential) {
		return nil, common.ErrInvalidCredentials
	}

	if payload.Email == "" {
		payload.Email = normalized
	}

	sess := sessionFromPayload(account.ID, payload)
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "login succeeded", "account_id", account.ID)
	return sess, nil
}

// GetUserData returns the decrypted view of an account.
func (s *AccountService) GetUserData(ctx context.Context, id string) (*models.UserData, error) {
	account, err := s.getAccountsRepo(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := s.decryptPayload(ctx, account)
	if err != nil {
		return nil, err
	}

	return &models.UserData{
		ID:        account.ID,
		Email:     payload.Email,
		Profile:   payload.Profile,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}, nil
}

// UpdateProfile merges the patch into the stored profile, re-encrypts the
// payload, and mirrors the new fields into the live session if it belongs
// to this account. Identifier hash and creation time are preserved.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) error {
	var updated *models.Payload

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.getAccountsRepo(tx)

		account, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}

		payload, err := s.decryptPayload(ctx, account)
		if err != nil {
			return err
		}

		patch.Apply(&payload.Profile)

		now := time.Now().UnixMilli()
		payload.UpdatedAt = now

		encrypted, err := s.cipher.Encrypt(ctx, payload)
		if err != nil {
			return err
		}

		account.Payload = encrypted
		account.UpdatedAt = now

		if err := repo.Put(ctx, account); err != nil {
			return err
		}

		updated = payload
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.mirrorSession(ctx, id, updated); err != nil {
		return err
	}

	s.log.Info(ctx, "profile updated", "account_id", id)
	return nil
}

// ChangePassword verifies the current password and replaces the stored
// credential with a freshly salted one. The old salt is never reused.
func (s *AccountService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.getAccountsRepo(tx)

		account, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}

		payload, err := s.decryptPayload(ctx, account)
		if err != nil {
			return err
		}

		if !s.verifyPassword(currentPassword, &payload.Credential) {
			return common.ErrInvalidCredentials
		}

		credential, err := cryptox.CreateCredential(newPassword)
		if err != nil {
			return err
		}

		now := time.Now().UnixMilli()
		payload.Credential = credential
		payload.UpdatedAt = now

		encrypted, err := s.cipher.Encrypt(ctx, payload)
		if err != nil {
			return err
		}

		account.Payload = encrypted
		account.UpdatedAt = now

		return repo.Put(ctx, account)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "password changed", "account_id", id)
	return nil
}

// DeleteAccount removes the account record and clears the active session.
// Irreversible: no soft delete, no recovery path.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.getAccountsRepo(s.db).Delete(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Clear(ctx); err != nil {
		return err
	}

	s.log.Info(ctx, "account deleted", "account_id", id)
	return nil
}

// decryptPayload decrypts an account's payload and checks it is
// well-formed. Any decryption or parse failure is a corruption fault,
// never a silent default.
func (s *AccountService) decryptPayload(ctx context.Context, account *models.Account) (*models.Payload, error) {
	var payload models.Payload
	if err := s.cipher.Decrypt(ctx, account.Payload, &payload); err != nil {
		if errors.Is(err, common.ErrMalformedCipherText) || errors.Is(err, common.ErrCorruptData) {
			return nil, fmt.Errorf("%w: %v", common.ErrCorruptAccount, err)
		}
		return nil, err
	}
	if payload.Credential.Salt == "" || payload.Credential.Hash == "" {
		return nil, fmt.Errorf("%w: credential fields missing", common.ErrCorruptAccount)
	}
	return &payload, nil
}

func (s *AccountService) verifyPassword(password string, credential *models.Credential) bool {
	iterations := credential.Iterations
	if iterations <= 0 {
		iterations = cryptox.PasswordIterations
	}
	candidate, err := cryptox.DeriveHash(password, credential.Salt, iterations)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(credential.Hash)) == 1
}

// mirrorSession updates the live session's display fields when it belongs
// to the mutated account.
func (s *AccountService) mirrorSession(ctx context.Context, id string, payload *models.Payload) error {
	current, err := s.sessions.Get(ctx)
	if err != nil {
		return err
	}
	if current == nil || current.ID != id || current.Mode != models.ModeUser {
		return nil
	}
	return s.sessions.Set(ctx, sessionFromPayload(id, payload))
}

func sessionFromPayload(id string, payload *models.Payload) *models.Session {
	return &models.Session{
		ID:       id,
		Email:    payload.Email,
		Name:     payload.Profile.Name,
		Gender:   payload.Profile.Gender,
		Age:      payload.Profile.Age,
		Birthday: payload.Profile.Birthday,
		Mode:     models.ModeUser,
	}
}
