package model

import (
	"github.com/google/uuid"
)

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single utterance in an interview transcript
type Turn struct {
	Role Role
	Text string
}

// Era is a coarse temporal classification of the content discussed in a
// conversation, used downstream to theme presentation of the memories.
type Era string

const (
	EraModern  Era = "modern"
	EraVintage Era = "vintage"
	EraSepia   Era = "sepia"
)

// Validate checks if the era is one of the known classifications
func (e Era) Validate() error {
	switch e {
	case EraModern, EraVintage, EraSepia:
		return nil
	default:
		return ErrInvalidEra
	}
}
