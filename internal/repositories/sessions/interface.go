package sessions

import "context"

// Repository holds the single active-session blob. It lives in its own
// table so clearing the session never touches durable settings.
type Repository interface {
	// Load returns the stored session JSON, or (nil, nil) if none is active.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, value []byte) error
	Clear(ctx context.Context) error
}
