package domain

// Resource types tracked in usage accounting.
const (
	UsageSandboxTime = "sandbox_time"
	UsageAIRequests  = "ai_requests"
)
