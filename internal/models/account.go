// Package models defines the account, payload and session types shared by
// repositories and services.
package models

// Account is the durable record kept per registered user. Only the
// identifier hash and the encrypted payload ever touch disk; everything
// personal lives inside Payload ciphertext.
type Account struct {
	ID             string
	IdentifierHash string
	// Payload is the encrypted profile blob: base64(nonce) "." base64(ciphertext).
	Payload   string
	CreatedAt int64
	UpdatedAt int64
}

// Credential is the salted, iterated hash of a password, never the
// password itself. Salt and Hash are base64-encoded. Iterations is stored
// per account so a future increase does not break old records.
type Credential struct {
	Salt       string `json:"salt"`
	Hash       string `json:"hash"`
	Iterations int    `json:"iterations"`
}

// Profile holds the user-editable fields. Age stays a string to round-trip
// whatever the embedding UI collects.
type Profile struct {
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	Age      string `json:"age"`
	Birthday string `json:"birthday"`
}

// ProfilePatch is a partial profile update; nil fields are left unchanged.
type ProfilePatch struct {
	Name     *string `json:"name,omitempty"`
	Gender   *string `json:"gender,omitempty"`
	Age      *string `json:"age,omitempty"`
	Birthday *string `json:"birthday,omitempty"`
}

// Apply merges the patch into p.
func (pp ProfilePatch) Apply(p *Profile) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Gender != nil {
		p.Gender = *pp.Gender
	}
	if pp.Age != nil {
		p.Age = *pp.Age
	}
	if pp.Birthday != nil {
		p.Birthday = *pp.Birthday
	}
}

// Payload is the plaintext structure that exists only in memory after
// decryption. Timestamps are milliseconds since epoch and are kept in sync
// with the record-level ones on every mutation.
type Payload struct {
	Email      string     `json:"email"`
	Credential Credential `json:"pw"`
	Profile    Profile    `json:"profile"`
	CreatedAt  int64      `json:"createdAt"`
	UpdatedAt  int64      `json:"updatedAt"`
}

// UserData is the decrypted, caller-facing view of an account.
type UserData struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Profile   Profile `json:"profile"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
}
