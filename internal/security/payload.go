package security

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors reported by VerifyToken.
var (
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Payload is the set of claims carried inside a token.
type Payload struct {
	ID        uuid.UUID
	EditorID  uuid.UUID
	IssuedAt  time.Time
	ExpiredAt time.Time
	Version   int64
	Scope     string
}

// NewPayload builds the claims for an editor token valid for duration.
func NewPayload(editorID uuid.UUID, duration time.Duration, version int64, scope string) (*Payload, error) {
	tokenID, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Payload{
		ID:        tokenID,
		EditorID:  editorID,
		IssuedAt:  now,
		ExpiredAt: now.Add(duration),
		Version:   version,
		Scope:     scope,
	}, nil
}

// Valid reports whether the token is still within its lifetime.
func (p *Payload) Valid() error {
	if time.Now().After(p.ExpiredAt) {
		return ErrExpiredToken
	}
	return nil
}

// Permissions splits the space-delimited scope into individual grants.
func (p *Payload) Permissions() []string {
	return strings.Fields(p.Scope)
}
