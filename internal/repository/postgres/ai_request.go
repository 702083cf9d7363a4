package postgres

import (
	"context"

	"github.com/DevFlex-AI/idea-ai-engine/internal/domain"
)

// InsertAIRequest appends a metered request record.
func (r *Repository) InsertAIRequest(ctx context.Context, request *domain.AIRequest) error {
	const query = `INSERT INTO ai_requests (id, user_id, project_id, prompt, response, tokens_used, credits_consumed, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		request.ID, request.UserID, request.ProjectID, request.Prompt, request.Response,
		request.TokensUsed, request.CreditsConsumed, request.Status, request.CreatedAt)
	return err
}

// ListAIRequestsByUser returns the most recent request records for a user.
func (r *Repository) ListAIRequestsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.AIRequest, error) {
	const query = `SELECT id, user_id, project_id, prompt, response, tokens_used, credits_consumed, status, created_at
		FROM ai_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]domain.AIRequest, 0)
	for rows.Next() {
		var req domain.AIRequest
		if err := rows.Scan(&req.ID, &req.UserID, &req.ProjectID, &req.Prompt, &req.Response,
			&req.TokensUsed, &req.CreditsConsumed, &req.Status, &req.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// CreateSession records a secure sandbox session grant.
func (r *Repository) CreateSession(ctx context.Context, session *domain.SandboxSession) error {
	const query = `INSERT INTO sandbox_sessions (id, user_id, project_id, environment_id, encrypted_password, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		session.ID, session.UserID, session.ProjectID, session.EnvironmentID,
		session.EncryptedPassword, session.CreatedAt)
	return err
}

// ListSessionsByEnvironment returns recent session grants for an environment.
func (r *Repository) ListSessionsByEnvironment(ctx context.Context, environmentID string, limit int) ([]domain.SandboxSession, error) {
	const query = `SELECT id, user_id, project_id, environment_id, encrypted_password, created_at
		FROM sandbox_sessions
		WHERE environment_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, query, environmentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.SandboxSession, 0)
	for rows.Next() {
		var s domain.SandboxSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.ProjectID, &s.EnvironmentID, &s.EncryptedPassword, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// IncrementUsage bumps a per-user usage counter, creating the row on first use.
func (r *Repository) IncrementUsage(ctx context.Context, userID, resourceType string, amount int) error {
	const query = `INSERT INTO usage_tracking (user_id, resource_type, amount, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, resource_type)
		DO UPDATE SET amount = usage_tracking.amount + EXCLUDED.amount, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, query, userID, resourceType, amount)
	return err
}
