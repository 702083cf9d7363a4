package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/DevFlex-AI/idea-ai-engine/internal/domain"
	"github.com/DevFlex-AI/idea-ai-engine/internal/genai"
	"github.com/DevFlex-AI/idea-ai-engine/internal/repository"
)

// Gateway error taxonomy.
var (
	ErrPromptRequired      = errors.New("prompt is required")
	ErrProfileNotFound     = errors.New("user profile not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// Service turns a user prompt into a billed, logged AI completion.
// Each call is stateless; all durable state lives in the repositories.
type Service struct {
	profiles repository.ProfileRepository
	requests repository.AIRequestRepository
	usage    repository.UsageRepository
	client   genai.Client
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a gateway service.
func New(profiles repository.ProfileRepository, requests repository.AIRequestRepository, usage repository.UsageRepository, client genai.Client, logger *slog.Logger) *Service {
	return &Service{
		profiles: profiles,
		requests: requests,
		usage:    usage,
		client:   client,
		logger:   logger.With("component", "gateway"),
		now:      time.Now,
	}
}

// GenerateInput carries one gateway request.
type GenerateInput struct {
	Prompt    string
	AgentType string
	ProjectID *string
}

// GenerateResult is returned on success.
type GenerateResult struct {
	Response         string `json:"response"`
	TokensUsed       int    `json:"tokensUsed"`
	CreditsConsumed  int    `json:"creditsConsumed"`
	RemainingCredits int    `json:"remainingCredits"`
}

// Generate authenticates by balance, relays the composed prompt upstream,
// debits credits, and persists a request record.
func (s *Service) Generate(ctx context.Context, userID string, input GenerateInput) (*GenerateResult, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, ErrPromptRequired
	}

	profile, err := s.profiles.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if profile.Credits <= 0 {
		return nil, ErrInsufficientCredits
	}

	agentType := input.AgentType
	if agentType == "" {
		agentType = AgentVortex
	}
	systemPrompt := systemPromptFor(agentType)

	response, err := s.client.GenerateContent(ctx, systemPrompt, input.Prompt)
	if err != nil {
		var upstream *genai.UpstreamError
		if errors.As(err, &upstream) {
			s.logger.Error("generation api returned error", "status", upstream.StatusCode, "user_id", userID)
			return nil, fmt.Errorf("gemini api error: %d: %w", upstream.StatusCode, err)
		}
		return nil, err
	}

	tokensUsed := estimateTokens(input.Prompt, response)
	creditsConsumed := creditCost(profile.SubscriptionTier)

	remaining, err := s.profiles.DebitCredits(ctx, userID, creditsConsumed)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			// A concurrent request spent the balance first.
			return nil, ErrInsufficientCredits
		}
		return nil, err
	}

	record := &domain.AIRequest{
		ID:              uuid.NewString(),
		UserID:          userID,
		ProjectID:       input.ProjectID,
		Prompt:          input.Prompt,
		Response:        response,
		TokensUsed:      tokensUsed,
		CreditsConsumed: creditsConsumed,
		Status:          domain.AIRequestCompleted,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.requests.InsertAIRequest(ctx, record); err != nil {
		// Best-effort logging; the completion already succeeded and was billed.
		s.logger.Warn("failed to log ai request", "user_id", userID, "error", err)
	}
	if s.usage != nil {
		if err := s.usage.IncrementUsage(ctx, userID, domain.UsageAIRequests, 1); err != nil {
			s.logger.Warn("failed to track usage", "user_id", userID, "error", err)
		}
	}

	s.logger.Info("ai request completed",
		"user_id", userID,
		"agent_type", agentType,
		"tokens_used", tokensUsed,
		"credits_consumed", creditsConsumed,
		"remaining_credits", remaining)

	return &GenerateResult{
		Response:         response,
		TokensUsed:       tokensUsed,
		CreditsConsumed:  creditsConsumed,
		RemainingCredits: remaining,
	}, nil
}

// History returns recent request records for a user.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]domain.AIRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.requests.ListAIRequestsByUser(ctx, userID, limit, offset)
}

// estimateTokens approximates usage as one token per four characters of
// combined prompt and response text.
func estimateTokens(prompt, response string) int {
	total := len(prompt) + len(response)
	return (total + 3) / 4
}

// creditCost maps subscription tier to per-request cost. All tiers
// currently collapse to the same constant.
func creditCost(tier string) int {
	switch tier {
	case domain.TierPro:
		return 1
	case domain.TierUltra:
		return 1
	default:
		return 1
	}
}
