package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/DevFlex-AI/idea-ai-engine/internal/domain"
	"github.com/DevFlex-AI/idea-ai-engine/internal/repository"
	"github.com/DevFlex-AI/idea-ai-engine/pkg/config"
	"github.com/DevFlex-AI/idea-ai-engine/pkg/crypto"
	jwtpkg "github.com/DevFlex-AI/idea-ai-engine/pkg/jwt"
)

// Service handles authentication workflows.
type Service struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	logger   *slog.Logger
	cfg      config.ServiceConfig
}

// New constructs a Service.
func New(users repository.UserRepository, profiles repository.ProfileRepository, logger *slog.Logger, cfg config.ServiceConfig) Service {
	return Service{users: users, profiles: profiles, logger: logger, cfg: cfg}
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Signup registers a new user and seeds their credit profile.
func (s Service) Signup(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, TokenPair{}, errors.New("email required")
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, TokenPair{}, err
	}
	profile := &domain.CreditProfile{
		UserID:           user.ID,
		Credits:          s.cfg.SignupCredits,
		SubscriptionTier: domain.TierFree,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return nil, TokenPair{}, err
	}
	tokens, err := s.issueTokens(user.ID, profile.SubscriptionTier)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "credits", profile.Credits)
	return user, tokens, nil
}

// Login authenticates a user and returns tokens.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, err
	}
	tier := domain.TierFree
	if profile, err := s.profiles.GetProfileByUserID(ctx, user.ID); err == nil {
		tier = profile.SubscriptionTier
	}
	tokens, err := s.issueTokens(user.ID, tier)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, tokens, nil
}

// Authorize validates a bearer token and returns the associated user and claims.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, *jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil, errors.New("token required")
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

func (s Service) issueTokens(userID, tier string) (TokenPair, error) {
	access, err := jwtpkg.GenerateToken(userID, tier, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := jwtpkg.GenerateToken(userID, tier, s.cfg.JWTSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}
