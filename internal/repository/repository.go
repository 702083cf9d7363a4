package repository

import (
	"context"

	"github.com/DevFlex-AI/idea-ai-engine/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// ProfileRepository manages per-user credit balances.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *domain.CreditProfile) error
	GetProfileByUserID(ctx context.Context, userID string) (*domain.CreditProfile, error)
	// DebitCredits atomically decrements the balance when at least amount
	// credits remain and returns the new balance. It returns
	// ErrInsufficientCredits without mutating the row otherwise.
	DebitCredits(ctx context.Context, userID string, amount int) (int, error)
}

// AIRequestRepository stores the metered request log.
type AIRequestRepository interface {
	InsertAIRequest(ctx context.Context, request *domain.AIRequest) error
	ListAIRequestsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.AIRequest, error)
}

// SessionRepository stores secure sandbox session grants.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.SandboxSession) error
	ListSessionsByEnvironment(ctx context.Context, environmentID string, limit int) ([]domain.SandboxSession, error)
}

// UsageRepository accumulates per-user resource usage counters.
type UsageRepository interface {
	IncrementUsage(ctx context.Context, userID, resourceType string, amount int) error
}
