package domain

import "time"

// AIRequest is the persisted record of one metered gateway call.
// Rows are insert-only; the gateway never mutates or deletes them.
type AIRequest struct {
	ID              string
	UserID          string
	ProjectID       *string
	Prompt          string
	Response        string
	TokensUsed      int
	CreditsConsumed int
	Status          string
	CreatedAt       time.Time
}

// AIRequestCompleted marks a request that finished end to end.
const AIRequestCompleted = "completed"
