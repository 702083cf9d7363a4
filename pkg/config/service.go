package config

import "time"

// ServiceConfig holds runtime configuration for the vortex service.
type ServiceConfig struct {
	Environment        string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	JWTSecret          string
	SessionKey         string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	SignupCredits      int
	GeminiAPIKey       string
	GeminiBaseURL      string
	GeminiModel        string
	GeminiTimeout      time.Duration
	SandboxDomain      string
	SandboxStepDelay   time.Duration
	SandboxReadyDelay  time.Duration
	LogBuffer          int
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadServiceConfig constructs a ServiceConfig from environment variables.
func LoadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("VORTEX_ADDR", ":4000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://vortex:vortex@db:5432/vortex?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "./db/migrations"),
		JWTSecret:          GetString("JWT_SECRET", "supersecuresecret"),
		SessionKey:         GetString("SESSION_ENCRYPTION_KEY", "supersecuresecret"),
		AccessTokenTTL:     time.Duration(GetInt("ACCESS_TOKEN_TTL_MIN", 15)) * time.Minute,
		RefreshTokenTTL:    time.Duration(GetInt("REFRESH_TOKEN_TTL_HOURS", 24)) * time.Hour,
		SignupCredits:      GetInt("SIGNUP_CREDITS", 25),
		GeminiAPIKey:       GetString("GEMINI_API_KEY", ""),
		GeminiBaseURL:      GetString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:        GetString("GEMINI_MODEL", "gemini-pro"),
		GeminiTimeout:      time.Duration(GetInt("GEMINI_TIMEOUT_SECONDS", 60)) * time.Second,
		SandboxDomain:      GetString("SANDBOX_DOMAIN", "vortex.dev"),
		SandboxStepDelay:   time.Duration(GetInt("SANDBOX_STEP_DELAY_MS", 800)) * time.Millisecond,
		SandboxReadyDelay:  time.Duration(GetInt("SANDBOX_READY_DELAY_MS", 6000)) * time.Millisecond,
		LogBuffer:          GetInt("WS_LOG_BUFFER", 100),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
