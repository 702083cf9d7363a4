package domain

import "time"

// EnvironmentStatus enumerates sandbox lifecycle states.
type EnvironmentStatus string

const (
	StatusIdle     EnvironmentStatus = "idle"
	StatusBuilding EnvironmentStatus = "building"
	StatusRunning  EnvironmentStatus = "running"
	StatusStopped  EnvironmentStatus = "stopped"
	StatusError    EnvironmentStatus = "error"
)

// ResourceLimits is display metadata describing the sandbox quota tier.
// Limits are advisory; the simulated runtime does not enforce them.
type ResourceLimits struct {
	CPU     string `json:"cpu"`
	Memory  string `json:"memory"`
	Timeout string `json:"timeout"`
}

// SandboxFile is a named text buffer owned by exactly one environment.
type SandboxFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language"`
	Modified bool   `json:"is_modified"`
}

// Environment represents one simulated development target.
// URL is set only while running; Password only while a secure
// environment is building or running.
type Environment struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Language      string            `json:"language"`
	Framework     string            `json:"framework"`
	Status        EnvironmentStatus `json:"status"`
	URL           string            `json:"url,omitempty"`
	Password      string            `json:"password,omitempty"`
	Secure        bool              `json:"is_secure"`
	Files         []SandboxFile     `json:"files"`
	Dependencies  []string          `json:"dependencies"`
	BuildLogs     []string          `json:"build_logs"`
	Limits        ResourceLimits    `json:"resource_limits"`
	Collaborators []string          `json:"collaborators"`
	LastModified  time.Time         `json:"last_modified"`
}
