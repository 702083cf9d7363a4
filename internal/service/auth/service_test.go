package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DevFlex-AI/idea-ai-engine/internal/domain"
	"github.com/DevFlex-AI/idea-ai-engine/internal/repository"
	"github.com/DevFlex-AI/idea-ai-engine/pkg/config"
)

type fakeUserRepo struct {
	users   map[string]*domain.User
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User), byEmail: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *domain.User) error {
	clone := *user
	f.users[user.ID] = &clone
	f.byEmail[user.Email] = &clone
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

type fakeProfileRepo struct {
	profiles map[string]*domain.CreditProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*domain.CreditProfile)}
}

func (f *fakeProfileRepo) CreateProfile(ctx context.Context, profile *domain.CreditProfile) error {
	clone := *profile
	f.profiles[profile.UserID] = &clone
	return nil
}

func (f *fakeProfileRepo) GetProfileByUserID(ctx context.Context, userID string) (*domain.CreditProfile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return profile, nil
}

func (f *fakeProfileRepo) DebitCredits(ctx context.Context, userID string, amount int) (int, error) {
	profile, ok := f.profiles[userID]
	if !ok || profile.Credits < amount {
		return 0, repository.ErrInsufficientCredits
	}
	profile.Credits -= amount
	return profile.Credits, nil
}

func newTestService() (Service, *fakeUserRepo, *fakeProfileRepo) {
	users := newFakeUserRepo()
	profiles := newFakeProfileRepo()
	cfg := config.ServiceConfig{
		JWTSecret:       "auth-test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		SignupCredits:   25,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(users, profiles, log, cfg), users, profiles
}

func TestSignupSeedsCreditProfile(t *testing.T) {
	svc, _, profiles := newTestService()

	user, tokens, err := svc.Signup(context.Background(), " Dev@Vortex.dev ", "correct horse battery")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.Email != "dev@vortex.dev" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected issued token pair")
	}

	profile, err := profiles.GetProfileByUserID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("profile lookup failed: %v", err)
	}
	if profile.Credits != 25 || profile.SubscriptionTier != domain.TierFree {
		t.Fatalf("unexpected seeded profile %+v", profile)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _, _ := newTestService()

	if _, _, err := svc.Signup(context.Background(), "dev@vortex.dev", "correct horse battery"); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "dev@vortex.dev", "wrong"); err == nil {
		t.Fatal("expected login failure with wrong password")
	}
}

func TestAuthorizeRoundTrip(t *testing.T) {
	svc, _, _ := newTestService()

	user, tokens, err := svc.Signup(context.Background(), "dev@vortex.dev", "correct horse battery")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	authorized, claims, err := svc.Authorize(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if authorized.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, authorized.ID)
	}
	if claims.Tier != domain.TierFree {
		t.Fatalf("expected free tier claim, got %q", claims.Tier)
	}
}

func TestAuthorizeRejectsGarbageToken(t *testing.T) {
	svc, _, _ := newTestService()
	if _, _, err := svc.Authorize(context.Background(), "not-a-token"); err == nil {
		t.Fatal("expected parse failure")
	}
}
