package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DevFlex-AI/idea-ai-engine/internal/genai"
	"github.com/DevFlex-AI/idea-ai-engine/internal/service/auth"
	"github.com/DevFlex-AI/idea-ai-engine/internal/service/gateway"
	"github.com/DevFlex-AI/idea-ai-engine/internal/service/sandbox"
	"github.com/DevFlex-AI/idea-ai-engine/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	auth     auth.Service
	gateway  *gateway.Service
	sandbox  *sandbox.Controller
	hub      *ws.Hub
	upgrader websocket.Upgrader
	limiter  RateLimiter
	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitSignup    = 5
	rateLimitLogin     = 12
	rateLimitGenerate  = 30
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	rateLimitWebsocket = 30
	healthCheckTimeout = 2 * time.Second
	sseHeartbeat       = 25 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, gatewaySvc *gateway.Service, sandboxCtl *sandbox.Controller, hub *ws.Hub, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:     http.NewServeMux(),
		logger:  logger,
		auth:    authSvc,
		gateway: gatewaySvc,
		sandbox: sandboxCtl,
		hub:     hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/auth/signup", r.audit("auth_signup", r.withCORS(r.withRateLimit("auth_signup", rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleSignup))))
	r.mux.HandleFunc("/auth/login", r.audit("auth_login", r.withCORS(r.withRateLimit("auth_login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin))))
	r.mux.HandleFunc("/ai/generate", r.audit("ai_generate", r.withCORS(r.handlerAuthRate("ai_generate", rateLimitGenerate, rateWindowDefault, r.handleGenerate))))
	r.mux.HandleFunc("/ai/requests", r.audit("ai_requests", r.withCORS(r.handlerAuthRate("ai_requests", rateLimitUserRead, rateWindowDefault, r.handleRequestHistory))))
	r.mux.HandleFunc("/sandbox/environments", r.audit("sandbox_list", r.withCORS(r.handlerAuthRate("sandbox_list", rateLimitUserRead, rateWindowDefault, r.handleEnvironments))))
	r.mux.HandleFunc("/sandbox/environments/", r.audit("sandbox_env", r.withCORS(r.handlerAuthRate("sandbox_env", rateLimitUserWrite, rateWindowDefault, r.handleEnvironmentSubroutes))))
	r.mux.HandleFunc("/ws/sandbox", r.audit("sandbox_ws", r.handlerAuthRate("sandbox_ws", rateLimitWebsocket, rateWindowRealtime, r.handleSandboxWS)))
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, tokens, err := r.auth.Signup(req.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
		},
		"tokens": tokens,
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, tokens, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
		},
		"tokens": tokens,
	})
}

func (r *Router) handleGenerate(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for generate", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	var payload struct {
		Prompt    string  `json:"prompt"`
		AgentType string  `json:"agentType"`
		ProjectID *string `json:"projectId"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	result, err := r.gateway.Generate(req.Context(), info.UserID, gateway.GenerateInput{
		Prompt:    payload.Prompt,
		AgentType: payload.AgentType,
		ProjectID: payload.ProjectID,
	})
	if err != nil {
		r.writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeGatewayError maps gateway failures onto the HTTP error contract.
func (r *Router) writeGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gateway.ErrPromptRequired):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, gateway.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, gateway.ErrInsufficientCredits):
		writeError(w, http.StatusPaymentRequired, err.Error())
	default:
		var upstream *genai.UpstreamError
		if errors.As(err, &upstream) {
			writeError(w, http.StatusBadGateway, "generation service unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (r *Router) handleRequestHistory(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
	records, err := r.gateway.History(req.Context(), info.UserID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": records})
}

func (r *Router) handleEnvironments(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"environments": r.sandbox.Environments()})
}

func (r *Router) handleEnvironmentSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/sandbox/environments/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 1 || parts[0] == "" {
		r.notFound(w)
		return
	}
	envID := parts[0]
	if len(parts) == 1 {
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		env, err := r.sandbox.Environment(envID)
		if err != nil {
			r.writeSandboxError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, env)
		return
	}
	switch {
	case len(parts) == 2 && parts[1] == "run":
		r.handleRun(w, req, envID)
	case len(parts) == 2 && parts[1] == "stop":
		r.handleStop(w, req, envID)
	case len(parts) == 2 && parts[1] == "reset":
		r.handleReset(w, req, envID)
	case len(parts) == 3 && parts[1] == "files":
		r.handleEditFile(w, req, envID, parts[2])
	case len(parts) == 2 && parts[1] == "terminal":
		r.handleTerminal(w, req, envID)
	case len(parts) == 2 && parts[1] == "export":
		r.handleExport(w, req, envID)
	case len(parts) == 2 && parts[1] == "logs":
		r.handleBuildLogs(w, req, envID)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleRun(w http.ResponseWriter, req *http.Request, envID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, _ := authInfoFromContext(req.Context())
	var payload struct {
		ProjectID *string `json:"projectId"`
	}
	if req.Body != nil {
		_ = json.NewDecoder(req.Body).Decode(&payload)
	}
	actor := sandbox.Actor{UserID: info.UserID, ProjectID: payload.ProjectID}
	if err := r.sandbox.Run(req.Context(), envID, actor); err != nil {
		r.writeSandboxError(w, err)
		return
	}
	env, err := r.sandbox.Environment(envID)
	if err != nil {
		r.writeSandboxError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, env)
}

func (r *Router) handleStop(w http.ResponseWriter, req *http.Request, envID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	if err := r.sandbox.Stop(envID); err != nil {
		r.writeSandboxError(w, err)
		return
	}
	env, err := r.sandbox.Environment(envID)
	if err != nil {
		r.writeSandboxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (r *Router) handleReset(w http.ResponseWriter, req *http.Request, envID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	if err := r.sandbox.Reset(envID); err != nil {
		r.writeSandboxError(w, err)
		return
	}
	env, err := r.sandbox.Environment(envID)
	if err != nil {
		r.writeSandboxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (r *Router) handleEditFile(w http.ResponseWriter, req *http.Request, envID, fileID string) {
	if req.Method != http.MethodPut {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := r.sandbox.EditFile(envID, fileID, payload.Content); err != nil {
		r.writeSandboxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (r *Router) handleTerminal(w http.ResponseWriter, req *http.Request, envID string) {
	switch req.Method {
	case http.MethodPost:
		var payload struct {
			Command string `json:"command"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		payload.Command = strings.TrimSpace(payload.Command)
		if payload.Command == "" {
			writeError(w, http.StatusUnprocessableEntity, "command is required")
			return
		}
		lines, err := r.sandbox.Exec(envID, payload.Command)
		if err != nil {
			r.writeSandboxError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"output": lines})
	case http.MethodGet:
		lines, err := r.sandbox.Transcript(envID)
		if err != nil {
			r.writeSandboxError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transcript": lines})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleExport(w http.ResponseWriter, req *http.Request, envID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	export, err := r.sandbox.Export(envID)
	if err != nil {
		r.writeSandboxError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename()+`"`)
	writeJSON(w, http.StatusOK, export)
}

// handleBuildLogs serves the current build-log snapshot, or a live SSE
// stream of sandbox events when stream=true.
func (r *Router) handleBuildLogs(w http.ResponseWriter, req *http.Request, envID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	if req.URL.Query().Get("stream") == "true" {
		r.streamBuildLogs(w, req, envID)
		return
	}
	logs, err := r.sandbox.BuildLogs(envID)
	if err != nil {
		r.writeSandboxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"build_logs": logs})
}

func (r *Router) streamBuildLogs(w http.ResponseWriter, req *http.Request, envID string) {
	if _, err := r.sandbox.Environment(envID); err != nil {
		r.writeSandboxError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := ws.NewSSEClient(w, flusher, r.logger)
	r.hub.Register(envID, client)
	defer func() {
		r.hub.Unregister(envID, client)
		client.Close()
	}()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (r *Router) handleSandboxWS(w http.ResponseWriter, req *http.Request) {
	envID := req.URL.Query().Get("environment_id")
	if envID == "" {
		writeError(w, http.StatusBadRequest, "environment_id query parameter required")
		return
	}
	if _, err := r.sandbox.Environment(envID); err != nil {
		r.writeSandboxError(w, err)
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(envID, client)
	go func() {
		defer func() {
			r.hub.Unregister(envID, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) writeSandboxError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sandbox.ErrEnvironmentNotFound), errors.Is(err, sandbox.ErrFileNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, sandbox.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)

		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		actor := "anonymous"
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
