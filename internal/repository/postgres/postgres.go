package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DevFlex-AI/idea-ai-engine/internal/domain"
	"github.com/DevFlex-AI/idea-ai-engine/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository      = (*Repository)(nil)
	_ repository.ProfileRepository   = (*Repository)(nil)
	_ repository.AIRequestRepository = (*Repository)(nil)
	_ repository.SessionRepository   = (*Repository)(nil)
	_ repository.UsageRepository     = (*Repository)(nil)
)

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	return err
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	row := r.pool.QueryRow(ctx, query, email)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateProfile inserts a credit profile for a user.
func (r *Repository) CreateProfile(ctx context.Context, profile *domain.CreditProfile) error {
	const query = `INSERT INTO profiles (user_id, credits, subscription_tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, profile.UserID, profile.Credits, profile.SubscriptionTier, profile.CreatedAt, profile.UpdatedAt)
	return err
}

// GetProfileByUserID loads the credit profile for a user.
func (r *Repository) GetProfileByUserID(ctx context.Context, userID string) (*domain.CreditProfile, error) {
	const query = `SELECT user_id, credits, subscription_tier, created_at, updated_at
		FROM profiles WHERE user_id = $1`
	row := r.pool.QueryRow(ctx, query, userID)
	var p domain.CreditProfile
	if err := row.Scan(&p.UserID, &p.Credits, &p.SubscriptionTier, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// DebitCredits performs a single conditional decrement so concurrent
// requests cannot spend the same balance twice.
func (r *Repository) DebitCredits(ctx context.Context, userID string, amount int) (int, error) {
	const query = `UPDATE profiles
		SET credits = credits - $2, updated_at = NOW()
		WHERE user_id = $1 AND credits >= $2
		RETURNING credits`
	row := r.pool.QueryRow(ctx, query, userID, amount)
	var remaining int
	if err := row.Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the profile is missing or the balance fell short; the
			// caller already verified the profile exists.
			return 0, repository.ErrInsufficientCredits
		}
		return 0, err
	}
	return remaining, nil
}
