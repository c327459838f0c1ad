package models

// SessionMode gates what the active identity may do: guest sessions are
// read/local-only, user sessions may mutate their account.
type SessionMode string

const (
	ModeGuest SessionMode = "guest"
	ModeUser  SessionMode = "user"
)

// Session is the ephemeral record of the currently active identity.
// It holds no secrets, only identifiers and display fields already known
// to the device owner, so it is stored unencrypted.
type Session struct {
	ID       string      `json:"id"`
	Email    string      `json:"email,omitempty"`
	Name     string      `json:"name,omitempty"`
	Gender   string      `json:"gender,omitempty"`
	Age      string      `json:"age,omitempty"`
	Birthday string      `json:"birthday,omitempty"`
	Mode     SessionMode `json:"mode"`
}

// IsGuest reports whether the session belongs to an unauthenticated guest.
func (s *Session) IsGuest() bool {
	return s != nil && s.Mode == ModeGuest
}
