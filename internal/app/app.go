// Package app wires the auth core together and exposes the surface the
// embedding UI consumes: session lifecycle plus account operations.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/pressly/goose/v3"

	"github.com/flowday-app/flowday/internal/common"
	"github.com/flowday-app/flowday/internal/config"
	"github.com/flowday-app/flowday/internal/cryptox"
	"github.com/flowday-app/flowday/internal/logging"
	"github.com/flowday-app/flowday/internal/migrations"
	"github.com/flowday-app/flowday/internal/models"
	"github.com/flowday-app/flowday/internal/repositories/sessions"
	"github.com/flowday-app/flowday/internal/repositories/settings"
	"github.com/flowday-app/flowday/internal/services"
	"github.com/flowday-app/flowday/internal/session"

	_ "modernc.org/sqlite"
)

// App owns the open store and the constructed services. No ambient
// globals: every dependency is built in InitAuth and injected, so tests
// run against fresh stores.
type App struct {
	cfg *config.Config
	log logging.Logger

	db       *sql.DB
	sessions *session.Manager
	keys     *cryptox.KeyManager
	accounts *services.AccountService
}

func NewApp(cfg *config.Config) *App {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.LogLevel),
	})
	return &App{cfg: cfg, log: logging.NewSlogLogger(slog.New(h))}
}

// Logger exposes the app-level logger for the embedding caller.
func (a *App) Logger() logging.Logger { return a.log }

// InitAuth is the idempotent setup call: it opens the local store, runs
// migrations, and makes sure the encryption key exists before any other
// operation. Safe to call more than once.
func (a *App) InitAuth(ctx context.Context) error {
	if a.db != nil {
		return nil
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)",
		a.cfg.DatabasePath, a.cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	settingsRepo := settings.NewSQLiteRepository(db)
	keys := cryptox.NewKeyManager(settingsRepo)

	// surface ErrUnsupportedEnvironment now, not on the first register
	if _, err := keys.GetOrCreateKey(ctx); err != nil {
		_ = db.Close()
		return err
	}

	sessionMgr := session.NewManager(sessions.NewSQLiteRepository(db), settingsRepo)
	cipher := cryptox.NewCipher(keys)

	a.db = db
	a.keys = keys
	a.sessions = sessionMgr
	a.accounts = services.NewAccountService(db, sessionMgr, cipher, a.log)

	a.log.Debug(ctx, "auth store ready", "path", a.cfg.DatabasePath)
	return nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Close releases the underlying store.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// --- session lifecycle ---

func (a *App) GetSession(ctx context.Context) (*models.Session, error) {
	return a.sessions.Get(ctx)
}

func (a *App) SetSession(ctx context.Context, s *models.Session) error {
	return a.sessions.Set(ctx, s)
}

func (a *App) ClearSession(ctx context.Context) error {
	return a.sessions.Clear(ctx)
}

func (a *App) EnsureGuestSession(ctx context.Context) (*models.Session, error) {
	return a.sessions.EnsureGuest(ctx)
}

// --- account operations ---

// RegisterUserParams carries the registration input.
type RegisterUserParams struct {
	Email    string
	Password string
	Profile  models.Profile
}

func (a *App) RegisterUser(ctx context.Context, p RegisterUserParams) (*models.Session, error) {
	return a.accounts.Register(ctx, p.Email, p.Password, p.Profile)
}

// LoginUserParams carries the login input.
type LoginUserParams struct {
	Email    string
	Password string
}

func (a *App) LoginUser(ctx context.Context, p LoginUserParams) (*models.Session, error) {
	return a.accounts.Login(ctx, p.Email, p.Password)
}

func (a *App) GetUserData(ctx context.Context, id string) (*models.UserData, error) {
	return a.accounts.GetUserData(ctx, id)
}

func (a *App) UpdateUserProfile(ctx context.Context, id string, patch models.ProfilePatch) error {
	if err := a.requireUserMode(ctx); err != nil {
		return err
	}
	return a.accounts.UpdateProfile(ctx, id, patch)
}

func (a *App) UpdateUserPassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if err := a.requireUserMode(ctx); err != nil {
		return err
	}
	return a.accounts.ChangePassword(ctx, id, currentPassword, newPassword)
}

func (a *App) DeleteUserAccount(ctx context.Context, id string) error {
	if err := a.requireUserMode(ctx); err != nil {
		return err
	}
	return a.accounts.DeleteAccount(ctx, id)
}

// requireUserMode rejects mutating calls while a guest session is active.
// Guest sessions are read/local-only.
func (a *App) requireUserMode(ctx context.Context) error {
	current, err := a.sessions.Get(ctx)
	if err != nil {
		return err
	}
	if current.IsGuest() {
		return common.ErrGuestNotAllowed
	}
	return nil
}
