package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/DevFlex-AI/idea-ai-engine/internal/domain"
	"github.com/DevFlex-AI/idea-ai-engine/internal/repository"
	"github.com/DevFlex-AI/idea-ai-engine/internal/ws"
	"github.com/DevFlex-AI/idea-ai-engine/pkg/crypto"
)

// Controller errors.
var (
	ErrEnvironmentNotFound = errors.New("sandbox: environment not found")
	ErrFileNotFound        = errors.New("sandbox: file not found")
	ErrInvalidTransition   = errors.New("sandbox: environment is already building or running")
)

const (
	logStarting   = "🚀 Starting Vortex Sandbox..."
	logInstalling = "📦 Installing dependencies..."
	sessionFailed = "❌ Secure session could not be created"
)

// buildSteps is the fixed staged log sequence appended during a simulated build.
var buildSteps = []string{
	"🔍 Analyzing project structure...",
	"📦 Installing dependencies...",
	"🔨 Compiling TypeScript...",
	"🎨 Processing assets...",
	"⚡ Starting development server...",
	"🔒 Configuring security...",
	"✅ Sandbox ready!",
}

// Config tunes the simulated build schedule.
type Config struct {
	// Domain is the suffix of synthesized sandbox URLs.
	Domain string
	// StepDelay is the interval between staged build-log lines.
	StepDelay time.Duration
	// ReadyDelay is the total time from Run until the environment is running.
	ReadyDelay time.Duration
	// SessionKey encrypts persisted session passwords.
	SessionKey string
}

func (c Config) withDefaults() Config {
	if c.Domain == "" {
		c.Domain = "vortex.dev"
	}
	if c.StepDelay <= 0 {
		c.StepDelay = 800 * time.Millisecond
	}
	if c.ReadyDelay <= 0 {
		c.ReadyDelay = 6 * time.Second
	}
	return c
}

// Actor identifies who triggered a lifecycle operation.
type Actor struct {
	UserID    string
	ProjectID *string
}

type envState struct {
	env        *domain.Environment
	transcript []string
}

// Controller owns the environment set and drives each one through a
// simulated build/run cycle. Every active build is an owned cancellable
// task; Stop and Reset revoke it so stale callbacks never fire.
type Controller struct {
	mu     sync.Mutex
	envs   map[string]*envState
	order  []string
	seeds  map[string]domain.Environment
	builds map[string]context.CancelFunc

	hub      *ws.Hub
	sessions repository.SessionRepository
	usage    repository.UsageRepository
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewController constructs a controller seeded with the given environments.
func NewController(seed []domain.Environment, hub *ws.Hub, sessions repository.SessionRepository, usage repository.UsageRepository, logger *slog.Logger, cfg Config) *Controller {
	c := &Controller{
		envs:     make(map[string]*envState, len(seed)),
		order:    make([]string, 0, len(seed)),
		seeds:    make(map[string]domain.Environment, len(seed)),
		builds:   make(map[string]context.CancelFunc),
		hub:      hub,
		sessions: sessions,
		usage:    usage,
		logger:   logger.With("component", "sandbox"),
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
	for _, env := range seed {
		stored := cloneEnvironment(env)
		stored.Status = domain.StatusIdle
		c.envs[env.ID] = &envState{
			env:        &stored,
			transcript: append([]string(nil), terminalWelcome...),
		}
		c.order = append(c.order, env.ID)
		c.seeds[env.ID] = cloneEnvironment(env)
	}
	return c
}

// Close cancels all in-flight builds and waits for them to drain.
func (c *Controller) Close() {
	c.mu.Lock()
	for id, cancel := range c.builds {
		cancel()
		delete(c.builds, id)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Environments returns snapshots in seed order.
func (c *Controller) Environments() []domain.Environment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Environment, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cloneEnvironment(*c.envs[id].env))
	}
	return out
}

// Environment returns a snapshot of one environment.
func (c *Controller) Environment(envID string) (domain.Environment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.envs[envID]
	if !ok {
		return domain.Environment{}, ErrEnvironmentNotFound
	}
	return cloneEnvironment(*st.env), nil
}

// Run starts a simulated build. Environments already building or running
// are rejected so two builds can never interleave log writes.
func (c *Controller) Run(ctx context.Context, envID string, actor Actor) error {
	c.mu.Lock()
	st, ok := c.envs[envID]
	if !ok {
		c.mu.Unlock()
		return ErrEnvironmentNotFound
	}
	env := st.env
	if env.Status == domain.StatusBuilding || env.Status == domain.StatusRunning {
		c.mu.Unlock()
		return ErrInvalidTransition
	}

	env.Status = domain.StatusBuilding
	var password string
	if env.Secure {
		var err error
		password, err = NewSessionPassword()
		if err != nil {
			env.Status = domain.StatusError
			c.mu.Unlock()
			return fmt.Errorf("generate session password: %w", err)
		}
		env.Password = password
	}
	env.BuildLogs = []string{logStarting, logInstalling}
	buildCtx, cancel := context.WithCancel(context.Background())
	c.builds[envID] = cancel
	c.mu.Unlock()

	c.broadcastLog(envID, logStarting)
	c.broadcastLog(envID, logInstalling)

	if env.Secure && c.sessions != nil {
		if err := c.persistSession(ctx, envID, password, actor); err != nil {
			c.failBuild(envID, cancel)
			return fmt.Errorf("create sandbox session: %w", err)
		}
	}

	c.logger.Info("sandbox build started", "environment_id", envID, "user_id", actor.UserID, "secure", env.Secure)
	c.wg.Add(1)
	go c.runBuild(buildCtx, envID, actor)
	return nil
}

// runBuild appends staged log lines on the fixed schedule and completes
// the build unless the owning context is cancelled first.
func (c *Controller) runBuild(ctx context.Context, envID string, actor Actor) {
	defer c.wg.Done()
	elapsed := time.Duration(0)
	for _, step := range buildSteps {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.StepDelay):
		}
		elapsed += c.cfg.StepDelay
		c.appendLog(ctx, envID, step)
	}
	if remaining := c.cfg.ReadyDelay - elapsed; remaining > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(remaining):
		}
	}
	c.completeBuild(ctx, envID, actor)
}

func (c *Controller) appendLog(ctx context.Context, envID, line string) {
	c.mu.Lock()
	st, ok := c.envs[envID]
	if !ok || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	st.env.BuildLogs = append(st.env.BuildLogs, line)
	c.mu.Unlock()
	c.broadcastLog(envID, line)
}

func (c *Controller) completeBuild(ctx context.Context, envID string, actor Actor) {
	c.mu.Lock()
	st, ok := c.envs[envID]
	if !ok || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	now := c.now()
	env := st.env
	env.Status = domain.StatusRunning
	env.URL = fmt.Sprintf("https://sandbox-%s-%d.%s", envID, now.UnixMilli(), c.cfg.Domain)
	env.LastModified = now
	delete(c.builds, envID)
	url := env.URL
	c.mu.Unlock()

	c.broadcastStatus(envID, domain.StatusRunning, url)
	c.logger.Info("sandbox ready", "environment_id", envID, "url", url)

	if c.usage != nil && actor.UserID != "" {
		opCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.usage.IncrementUsage(opCtx, actor.UserID, domain.UsageSandboxTime, 1); err != nil {
			c.logger.Warn("failed to track sandbox usage", "environment_id", envID, "error", err)
		}
	}
}

// failBuild moves an environment to the error state after a session
// persistence failure. This is the only producer of StatusError.
func (c *Controller) failBuild(envID string, cancel context.CancelFunc) {
	cancel()
	c.mu.Lock()
	st, ok := c.envs[envID]
	if !ok {
		c.mu.Unlock()
		return
	}
	env := st.env
	env.Status = domain.StatusError
	env.Password = ""
	env.URL = ""
	env.BuildLogs = append(env.BuildLogs, sessionFailed)
	delete(c.builds, envID)
	c.mu.Unlock()

	c.broadcastLog(envID, sessionFailed)
	c.broadcastStatus(envID, domain.StatusError, "")
}

// Stop terminates a running or building environment, revoking any
// in-flight build before transitioning state.
func (c *Controller) Stop(envID string) error {
	c.mu.Lock()
	st, ok := c.envs[envID]
	if !ok {
		c.mu.Unlock()
		return ErrEnvironmentNotFound
	}
	env := st.env
	if cancel, active := c.builds[envID]; active {
		cancel()
		delete(c.builds, envID)
	}
	if env.Status != domain.StatusRunning && env.Status != domain.StatusBuilding {
		c.mu.Unlock()
		return nil
	}
	env.Status = domain.StatusStopped
	env.URL = ""
	env.Password = ""
	c.mu.Unlock()

	c.broadcastStatus(envID, domain.StatusStopped, "")
	c.logger.Info("sandbox stopped", "environment_id", envID)
	return nil
}

// Reset returns an environment to its seeded state from any status.
func (c *Controller) Reset(envID string) error {
	c.mu.Lock()
	st, ok := c.envs[envID]
	if !ok {
		c.mu.Unlock()
		return ErrEnvironmentNotFound
	}
	if cancel, active := c.builds[envID]; active {
		cancel()
		delete(c.builds, envID)
	}
	seed := cloneEnvironment(c.seeds[envID])
	seed.Status = domain.StatusIdle
	seed.LastModified = c.now()
	st.env = &seed
	c.mu.Unlock()

	c.broadcastStatus(envID, domain.StatusIdle, "")
	c.logger.Info("sandbox reset", "environment_id", envID)
	return nil
}

// EditFile replaces a file's content and marks it modified.
func (c *Controller) EditFile(envID, fileID, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.envs[envID]
	if !ok {
		return ErrEnvironmentNotFound
	}
	for i := range st.env.Files {
		if st.env.Files[i].ID == fileID {
			st.env.Files[i].Content = content
			st.env.Files[i].Modified = true
			st.env.LastModified = c.now()
			return nil
		}
	}
	return ErrFileNotFound
}

// BuildLogs returns the current build-log snapshot.
func (c *Controller) BuildLogs(envID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.envs[envID]
	if !ok {
		return nil, ErrEnvironmentNotFound
	}
	return append([]string(nil), st.env.BuildLogs...), nil
}

func (c *Controller) persistSession(ctx context.Context, envID, password string, actor Actor) error {
	sealed, err := crypto.SealSecret(c.cfg.SessionKey, password)
	if err != nil {
		return err
	}
	session := &domain.SandboxSession{
		ID:                uuid.NewString(),
		EnvironmentID:     envID,
		EncryptedPassword: sealed,
		CreatedAt:         c.now().UTC(),
	}
	if actor.UserID != "" {
		userID := actor.UserID
		session.UserID = &userID
	}
	session.ProjectID = actor.ProjectID
	return c.sessions.CreateSession(ctx, session)
}

func (c *Controller) broadcastLog(envID, line string) {
	if c.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"environment_id": envID,
		"type":           "log",
		"message":        line,
		"timestamp":      c.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		c.logger.Warn("failed to marshal log payload", "error", err)
		return
	}
	c.hub.Broadcast(envID, payload)
}

func (c *Controller) broadcastStatus(envID string, status domain.EnvironmentStatus, url string) {
	if c.hub == nil {
		return
	}
	event := map[string]any{
		"environment_id": envID,
		"type":           "status",
		"status":         string(status),
		"timestamp":      c.now().UTC().Format(time.RFC3339Nano),
	}
	if url != "" {
		event["url"] = url
	}
	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.Warn("failed to marshal status payload", "error", err)
		return
	}
	c.hub.Broadcast(envID, payload)
}

func cloneEnvironment(env domain.Environment) domain.Environment {
	out := env
	out.Files = append([]domain.SandboxFile(nil), env.Files...)
	out.Dependencies = append([]string(nil), env.Dependencies...)
	out.BuildLogs = append([]string(nil), env.BuildLogs...)
	out.Collaborators = append([]string(nil), env.Collaborators...)
	return out
}
