package sandbox

import (
	"strings"
	"time"

	"github.com/DevFlex-AI/idea-ai-engine/internal/domain"
)

// ProjectExport is the downloadable project document. There is no import
// path for this format.
type ProjectExport struct {
	Name         string               `json:"name"`
	Framework    string               `json:"framework"`
	Language     string               `json:"language"`
	Files        []domain.SandboxFile `json:"files"`
	Dependencies []string             `json:"dependencies"`
	Timestamp    time.Time            `json:"timestamp"`
}

// Filename returns the slugified download name for the export.
func (e ProjectExport) Filename() string {
	slug := strings.Join(strings.Fields(strings.ToLower(e.Name)), "-")
	return slug + "-export.json"
}

// Export snapshots an environment into its downloadable document.
func (c *Controller) Export(envID string) (ProjectExport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.envs[envID]
	if !ok {
		return ProjectExport{}, ErrEnvironmentNotFound
	}
	env := st.env
	return ProjectExport{
		Name:         env.Name,
		Framework:    env.Framework,
		Language:     env.Language,
		Files:        append([]domain.SandboxFile(nil), env.Files...),
		Dependencies: append([]string(nil), env.Dependencies...),
		Timestamp:    c.now().UTC(),
	}, nil
}
