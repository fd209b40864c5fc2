package security

import (
	"time"

	"github.com/google/uuid"
)

// Maker mints and verifies editor tokens. The scope string carries the
// editor's permission grants, space-delimited.
type Maker interface {
	// CreateToken returns a signed token plus the payload embedded in it.
	CreateToken(editorID uuid.UUID, duration time.Duration, version int64, scope string) (string, *Payload, error)

	// VerifyToken decodes and validates a token, returning its payload.
	VerifyToken(token string) (*Payload, error)
}
