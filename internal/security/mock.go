package security

import (
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockMaker is a testify mock of Maker for handler and middleware tests.
type MockMaker struct {
	mock.Mock
}

var _ Maker = (*MockMaker)(nil)

func (m *MockMaker) CreateToken(editorID uuid.UUID, duration time.Duration, version int64, scope string) (string, *Payload, error) {
	args := m.Called(editorID, duration, version, scope)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*Payload), args.Error(2)
}

func (m *MockMaker) VerifyToken(token string) (*Payload, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payload), args.Error(1)
}
