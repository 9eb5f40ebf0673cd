package core

import "github.com/google/uuid"

// GenerateNewID returns a random (v4) identifier.
func GenerateNewID() uuid.UUID {
	return uuid.New()
}
