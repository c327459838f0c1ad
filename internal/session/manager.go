// Package session tracks the currently active identity: a registered user
// or an anonymous guest.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/flowday-app/flowday/internal/models"
	"github.com/flowday-app/flowday/internal/repositories/sessions"
	"github.com/flowday-app/flowday/internal/repositories/settings"
)

// guestIDSettingName is the durable settings key for the stable per-device
// guest identifier. It lives apart from the session itself so it survives
// logout/login cycles.
const guestIDSettingName = "guest_id"

// Manager persists exactly one active session at a time.
type Manager struct {
	sessions sessions.Repository
	settings settings.Repository
}

func NewManager(sessionRepo sessions.Repository, settingsRepo settings.Repository) *Manager {
	return &Manager{sessions: sessionRepo, settings: settingsRepo}
}

// Get returns the active session, or nil if none is stored. A stored blob
// that no longer parses is treated as anonymous rather than an error; the
// session holds nothing that can't be rebuilt by logging in again.
func (m *Manager) Get(ctx context.Context) (*models.Session, error) {
	raw, err := m.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, nil
	}
	return &s, nil
}

// Set persists the given session as the active one.
func (m *Manager) Set(ctx context.Context, s *models.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	return m.sessions.Save(ctx, raw)
}

// Clear removes the active session, returning to the anonymous state.
// The guest identifier in durable settings is left intact.
func (m *Manager) Clear(ctx context.Context) error {
	return m.sessions.Clear(ctx)
}

// EnsureGuest returns the existing session unchanged if one is active
// (it never clobbers a user session with a guest one). Otherwise it
// resolves or generates the stable guest identifier, persists a guest
// session, and returns it.
func (m *Manager) EnsureGuest(ctx context.Context) (*models.Session, error) {
	existing, err := m.Get(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	guestID, err := m.guestID(ctx)
	if err != nil {
		return nil, err
	}

	guest := &models.Session{ID: guestID, Mode: models.ModeGuest}
	if err := m.Set(ctx, guest); err != nil {
		return nil, err
	}
	return guest, nil
}

func (m *Manager) guestID(ctx context.Context) (string, error) {
	stored, err := m.settings.Get(ctx, guestIDSettingName)
	if err != nil {
		return "", err
	}
	if stored != nil {
		return string(stored), nil
	}

	id := "guest-" + uuid.NewString()
	if err := m.settings.Set(ctx, guestIDSettingName, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}
