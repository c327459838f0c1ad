package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowday-app/flowday/internal/common"
	"github.com/flowday-app/flowday/internal/cryptox"
	"github.com/flowday-app/flowday/internal/logging"
	"github.com/flowday-app/flowday/internal/models"
	"github.com/flowday-app/flowday/internal/repositories/accounts"
	"github.com/flowday-app/flowday/internal/repositories/sessions"
	"github.com/flowday-app/flowday/internal/repositories/settings"
	"github.com/flowday-app/flowday/internal/session"

	_ "modernc.org/sqlite"
)

type testEnv struct {
	db       *sql.DB
	svc      *AccountService
	sessions *session.Manager
	cipher   *cryptox.Cipher
}

func setupService(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE accounts (
  id              TEXT PRIMARY KEY,
  identifier_hash TEXT NOT NULL,
  payload         TEXT NOT NULL,
  created_at      INTEGER NOT NULL,
  updated_at      INTEGER NOT NULL
);
CREATE UNIQUE INDEX idx_accounts_identifier_hash ON accounts (identifier_hash);
CREATE TABLE settings (key TEXT PRIMARY KEY, value BLOB NOT NULL);
CREATE TABLE session_state (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)

	settingsRepo := settings.NewSQLiteRepository(db)
	sessionMgr := session.NewManager(sessions.NewSQLiteRepository(db), settingsRepo)
	cipher := cryptox.NewCipher(cryptox.NewKeyManager(settingsRepo))
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &testEnv{
		db:       db,
		svc:      NewAccountService(db, sessionMgr, cipher, log),
		sessions: sessionMgr,
		cipher:   cipher,
	}
}

func (e *testEnv) payloadOf(t *testing.T, id string) *models.Payload {
	t.Helper()
	account, err := accounts.NewSQLiteRepository(e.db).Get(context.Background(), id)
	require.NoError(t, err)

	var payload models.Payload
	require.NoError(t, e.cipher.Decrypt(context.Background(), account.Payload, &payload))
	return &payload
}

func TestRegister_CreatesUserSession(t *testing.T) {
	e := setupService(t)
	ctx := context.Background()

	sess, err := e.svc.Register(ctx, "a@x.com", "secret1", models.Profile{Name: "Ann"})
	require.NoError(t, err)

	assert.Equal(t, models.ModeUser, sess.Mode)
	assert.Equal(t, "a@x.com", sess.Email)
	assert.Equal(t, "Ann", sess.Name)
	assert.NotEmpty(t, sess.ID)

	stored, err := e.sessions.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess, stored)
}

func TestRegister_DuplicateEmailFails(t *testing.T) {
	e := setupService(t)
	ctx := context.Background()

	_, err := e.svc.Register(ctx, "a@x.com", "secret1", models.Profile{})
	require.NoError(t, err)

	// same address with different casing and whitespace
	_, err = e.svc.Register(ctx, "  A@X.com ", "other", models.Profile{})
	require.ErrorIs(t, err, common.ErrAlreadyRegistered)
}

func TestLogin_NormalizesEmail(t *testing.T) {
	e := setupService(t)
	ctx := context.Background()

	registered, err := e.svc.Register(ctx, "a@x.com", "secret1", models.Profile{Name: "Ann"})
	require.NoError(t, err)

	require.NoError(t, e.sessions.Clear(ctx))

	sess, err := e.svc.Login(ctx, " A@X.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, sess.ID)
	assert.Equal(t, models.ModeUser, sess.Mode)
	assert.Equal(t, "Ann", sess.Name)
}

func TestLogin_WrongPasswordAndUnknownEmailAreIndistinguishable(t *testing.T) {
	e := setupService(t)
	ctx := context.Background()

	_, err := e.svc.Register(ctx, "a@x.com", "secret1", models.Profile{})
	require.NoError(t, err)

	_, errWrongPassword := e.svc.Login(ctx, "a@x.com", "wrong")
	_, errUnknownEmail := e.svc.Login(ctx, "nobody@x.com", "secret1")

	require.ErrorIs(t, errWrongPassword, common.ErrInvalidCredentials)
	require.ErrorIs(t, errUnknownEmail, common.ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
}

func TestLogin_CorruptPayloadIsCorruptAccount(t *testing.T) {
	e := setupService(t)
	ctx := context.Background()

	sess, err := e.svc.Register(ctx, "a@x.com", "secret1", models.Profile{})
	require.NoError(t, err)

	repo := accounts.NewSQLiteRepository(e.db)
	account, err := repo.Get(ctx, sess.ID)
	require.NoError(t, err)
	account.Payload = "garbage-without-separator"
	require.NoError(t, repo.Put(ctx, account))

	_, err = e.svc.Login(ctx, "a@x.com", "secret1")
	require.ErrorIs(t, err, common.ErrCorruptAccount)
}

func TestGetUserData(t *testing.T) {
	e := setupService(t)
	ctx := context.Background()

	sess, err := e.svc.Register(ctx, "b@x.com", "secret2", models.Profile{Name: "Bo", Age: "30"})
	require.NoError(t, err)

	data, err := e.svc.GetUserData(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, data.ID)
	assert.Equal(t, "b@x.com", data.Email)
	assert.Equal(t, "Bo", data.Profile.Name)
	assert.Equal(t, "30", data.Profile.Age)
	assert.Equal(t, data.CreatedAt, data.UpdatedAt)
}

func TestGetUserData_UnknownId(t *testing.T) {
	e := setupService(t)

	_, err := e.svc.GetUserData(context.Background(), "absent")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateProfile_MergesAndBumpsTimestamps(t *testing.T) {
	e := setupService(t)
	ctx := context.Background()

	sess, err := e.svc.Register(ctx, "b@x.com", "secret2", models.Profile{Gender: "f"})
	require.NoError(t, err)

	before, err := e.svc.GetUserData(ctx, sess.ID)
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	name := "Bo"
	require.NoError(t, e.svc.UpdateProfile(ctx, sess.ID, models.ProfilePatch{Name: &name}))

	after, err := e.svc.GetUserData(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bo", after.Profile.Name)
	assert.Equal(t, "f", after.Profile.Gender) // untouched field survives the merge
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Greater(t, after.UpdatedAt, before.UpdatedAt)

	// payload-internal timestamps stay in sync with the record
	payload := e.payloadOf(t, sess.ID)
	assert.Equal(t, after.UpdatedAt, payload.UpdatedAt)
	assert.Equal(t, after.CreatedAt, payload.CreatedAt)
}

func TestUpdateProfile_MirrorsLiveSession(t *testing.T) {
	e := setupService(t)
	ctx := context.Background()

	sess, err := e.svc.Register(ctx, "b@x.com", "secret2", models.Profile{})
	require.NoError(t, err)

	name := "Bo"
	require.NoError(t, e.svc.UpdateProfile(ctx, sess.ID, models.ProfilePatch{Name: &name}))

	live, err := e.sessions.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bo", live.Name)
}

func TestChangePassword(t *testing.T) {
	e := setupService(t)
	ctx := context.Background()

	sess, err := e.svc.Register(ctx, "a@x.com", "secret1", models.Profile{})
	require.NoError(t, err)

	oldSalt := e.payloadOf(t, sess.ID).Credential.Salt

	require.NoError(t, e.svc.ChangePassword(ctx, sess.ID, "secret1", "secret2"))

	newSalt := e.payloadOf(t, sess.ID).Credential.Salt
	assert.NotEqual(t, oldSalt, newSalt)

	_, err = e.svc.Login(ctx, "a@x.com", "secret1")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = e.svc.Login(ctx, "a@x.com", "secret2")
	require.NoError(t, err)
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	e := setupService(t)
	ctx := context.Background()

	sess, err := e.svc.Register(ctx, "a@x.com", "secret1", models.Profile{})
	require.NoError(t, err)

	err = e.svc.ChangePassword(ctx, sess.ID, "wrong", "secret2")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)

	// the stored credential is untouched
	_, err = e.svc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	e := setupService(t)
	ctx := context.Background()

	sess, err := e.svc.Register(ctx, "a@x.com", "secret1", models.Profile{})
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteAccount(ctx, sess.ID))

	active, err := e.sessions.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = e.svc.Login(ctx, "a@x.com", "secret1")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}
