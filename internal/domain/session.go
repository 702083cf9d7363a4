package domain

import "time"

// SandboxSession records a secure-session grant for a protected environment.
// The session password is stored encrypted at rest.
type SandboxSession struct {
	ID                string
	UserID            *string
	ProjectID         *string
	EnvironmentID     string
	EncryptedPassword []byte
	CreatedAt         time.Time
}
