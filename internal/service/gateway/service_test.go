package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DevFlex-AI/idea-ai-engine/internal/domain"
	"github.com/DevFlex-AI/idea-ai-engine/internal/genai"
	"github.com/DevFlex-AI/idea-ai-engine/internal/repository"
)

type fakeProfileRepo struct {
	profile    *domain.CreditProfile
	getErr     error
	debitErr   error
	debitCalls int
	debited    int
}

func (f *fakeProfileRepo) CreateProfile(ctx context.Context, profile *domain.CreditProfile) error {
	return nil
}

func (f *fakeProfileRepo) GetProfileByUserID(ctx context.Context, userID string) (*domain.CreditProfile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.profile, nil
}

func (f *fakeProfileRepo) DebitCredits(ctx context.Context, userID string, amount int) (int, error) {
	f.debitCalls++
	if f.debitErr != nil {
		return 0, f.debitErr
	}
	f.debited += amount
	return f.profile.Credits - f.debited, nil
}

type fakeRequestRepo struct {
	records   []domain.AIRequest
	insertErr error
	listLimit int
}

func (f *fakeRequestRepo) InsertAIRequest(ctx context.Context, request *domain.AIRequest) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.records = append(f.records, *request)
	return nil
}

func (f *fakeRequestRepo) ListAIRequestsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.AIRequest, error) {
	f.listLimit = limit
	return f.records, nil
}

type fakeUsageRepo struct {
	counts map[string]int
}

func (f *fakeUsageRepo) IncrementUsage(ctx context.Context, userID, resourceType string, amount int) error {
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[resourceType] += amount
	return nil
}

type fakeGenClient struct {
	response     string
	err          error
	calls        int
	systemPrompt string
	prompt       string
}

func (f *fakeGenClient) GenerateContent(ctx context.Context, systemPrompt, prompt string) (string, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestService(profiles *fakeProfileRepo, requests *fakeRequestRepo, usage *fakeUsageRepo, client *fakeGenClient) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(profiles, requests, usage, client, log)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func profileWith(credits int) *domain.CreditProfile {
	return &domain.CreditProfile{
		UserID:           "user-1",
		Credits:          credits,
		SubscriptionTier: domain.TierFree,
	}
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	client := &fakeGenClient{}
	svc := newTestService(&fakeProfileRepo{profile: profileWith(10)}, &fakeRequestRepo{}, &fakeUsageRepo{}, client)

	_, err := svc.Generate(context.Background(), "user-1", GenerateInput{Prompt: "   "})
	if !errors.Is(err, ErrPromptRequired) {
		t.Fatalf("expected ErrPromptRequired, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("expected no upstream calls, got %d", client.calls)
	}
}

func TestGenerateRejectsMissingProfile(t *testing.T) {
	profiles := &fakeProfileRepo{getErr: repository.ErrNotFound}
	svc := newTestService(profiles, &fakeRequestRepo{}, &fakeUsageRepo{}, &fakeGenClient{})

	_, err := svc.Generate(context.Background(), "user-1", GenerateInput{Prompt: "build an app"})
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestGenerateRejectsExhaustedBalance(t *testing.T) {
	client := &fakeGenClient{}
	profiles := &fakeProfileRepo{profile: profileWith(0)}
	svc := newTestService(profiles, &fakeRequestRepo{}, &fakeUsageRepo{}, client)

	_, err := svc.Generate(context.Background(), "user-1", GenerateInput{Prompt: "build an app"})
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("expected no upstream calls for empty balance, got %d", client.calls)
	}
	if profiles.debitCalls != 0 {
		t.Fatalf("expected no debit attempts, got %d", profiles.debitCalls)
	}
}

func TestGenerateDebitsAndRecords(t *testing.T) {
	profiles := &fakeProfileRepo{profile: profileWith(10)}
	requests := &fakeRequestRepo{}
	usage := &fakeUsageRepo{}
	client := &fakeGenClient{response: "here is your app"}
	svc := newTestService(profiles, requests, usage, client)

	projectID := "project-9"
	result, err := svc.Generate(context.Background(), "user-1", GenerateInput{
		Prompt:    "build an app",
		AgentType: AgentUI,
		ProjectID: &projectID,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if result.Response != "here is your app" {
		t.Fatalf("unexpected response %q", result.Response)
	}
	if result.CreditsConsumed != 1 {
		t.Fatalf("expected 1 credit consumed, got %d", result.CreditsConsumed)
	}
	if result.RemainingCredits != 9 {
		t.Fatalf("expected 9 remaining credits, got %d", result.RemainingCredits)
	}
	wantTokens := (len("build an app") + len("here is your app") + 3) / 4
	if result.TokensUsed != wantTokens {
		t.Fatalf("expected %d tokens, got %d", wantTokens, result.TokensUsed)
	}

	if len(requests.records) != 1 {
		t.Fatalf("expected one stored record, got %d", len(requests.records))
	}
	record := requests.records[0]
	if record.UserID != "user-1" || record.Status != domain.AIRequestCompleted {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.ProjectID == nil || *record.ProjectID != projectID {
		t.Fatalf("expected project id %q on record, got %v", projectID, record.ProjectID)
	}
	if usage.counts[domain.UsageAIRequests] != 1 {
		t.Fatalf("expected usage increment, got %d", usage.counts[domain.UsageAIRequests])
	}
}

func TestGenerateComposesSystemPromptByAgentType(t *testing.T) {
	cases := []struct {
		name      string
		agentType string
		want      string
	}{
		{name: "default", agentType: "", want: systemPromptFor(AgentVortex)},
		{name: "ui", agentType: AgentUI, want: systemPromptFor(AgentUI)},
		{name: "backend", agentType: AgentBackend, want: systemPromptFor(AgentBackend)},
		{name: "security", agentType: AgentSecurity, want: systemPromptFor(AgentSecurity)},
		{name: "unknown", agentType: "wizard", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeGenClient{response: "ok"}
			svc := newTestService(&fakeProfileRepo{profile: profileWith(10)}, &fakeRequestRepo{}, &fakeUsageRepo{}, client)

			if _, err := svc.Generate(context.Background(), "user-1", GenerateInput{Prompt: "hi", AgentType: tc.agentType}); err != nil {
				t.Fatalf("Generate returned error: %v", err)
			}
			if client.systemPrompt != tc.want {
				t.Fatalf("agent %q: unexpected system prompt %q", tc.agentType, client.systemPrompt)
			}
			if client.prompt != "hi" {
				t.Fatalf("expected raw prompt relayed, got %q", client.prompt)
			}
		})
	}
}

func TestGenerateSkipsDebitOnUpstreamFailure(t *testing.T) {
	profiles := &fakeProfileRepo{profile: profileWith(10)}
	client := &fakeGenClient{err: &genai.UpstreamError{StatusCode: 503, Body: "overloaded"}}
	svc := newTestService(profiles, &fakeRequestRepo{}, &fakeUsageRepo{}, client)

	_, err := svc.Generate(context.Background(), "user-1", GenerateInput{Prompt: "build an app"})
	if err == nil {
		t.Fatal("expected error from upstream failure")
	}
	var upstream *genai.UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != 503 {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
	if profiles.debitCalls != 0 {
		t.Fatalf("expected no debit after upstream failure, got %d", profiles.debitCalls)
	}
}

func TestGenerateMapsConcurrentDebitRace(t *testing.T) {
	profiles := &fakeProfileRepo{profile: profileWith(1), debitErr: repository.ErrInsufficientCredits}
	svc := newTestService(profiles, &fakeRequestRepo{}, &fakeUsageRepo{}, &fakeGenClient{response: "ok"})

	_, err := svc.Generate(context.Background(), "user-1", GenerateInput{Prompt: "build an app"})
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits on debit race, got %v", err)
	}
}

func TestGenerateSucceedsWhenRecordInsertFails(t *testing.T) {
	requests := &fakeRequestRepo{insertErr: errors.New("db down")}
	svc := newTestService(&fakeProfileRepo{profile: profileWith(10)}, requests, &fakeUsageRepo{}, &fakeGenClient{response: "ok"})

	result, err := svc.Generate(context.Background(), "user-1", GenerateInput{Prompt: "build an app"})
	if err != nil {
		t.Fatalf("expected success despite logging failure, got %v", err)
	}
	if result.Response != "ok" {
		t.Fatalf("unexpected response %q", result.Response)
	}
}

func TestHistoryAppliesDefaultLimit(t *testing.T) {
	requests := &fakeRequestRepo{}
	svc := newTestService(&fakeProfileRepo{profile: profileWith(10)}, requests, &fakeUsageRepo{}, &fakeGenClient{})

	if _, err := svc.History(context.Background(), "user-1", 0, -5); err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if requests.listLimit != 50 {
		t.Fatalf("expected default limit 50, got %d", requests.listLimit)
	}
}
