package sandbox

import "strings"

// terminalWelcome seeds every environment's transcript.
var terminalWelcome = []string{
	"Welcome to Vortex Sandbox Terminal",
	"$ vortex --version",
	"Vortex AI Builder v2.0.0",
	"$ npm --version",
	"10.2.4",
	"$ node --version",
	"v20.11.0",
}

// Exec appends a command and its canned response lines to the
// environment's transcript and returns the appended lines. The command
// table is a closed lookup; unmatched input echoes a generic line.
func (c *Controller) Exec(envID, command string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.envs[envID]
	if !ok {
		return nil, ErrEnvironmentNotFound
	}

	if command == "clear" {
		st.transcript = []string{"Welcome to Vortex Sandbox Terminal"}
		return append([]string(nil), st.transcript...), nil
	}

	appended := append([]string{"$ " + command}, respondTo(command)...)
	st.transcript = append(st.transcript, appended...)
	return appended, nil
}

// Transcript returns the environment's terminal history.
func (c *Controller) Transcript(envID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.envs[envID]
	if !ok {
		return nil, ErrEnvironmentNotFound
	}
	return append([]string(nil), st.transcript...), nil
}

func respondTo(command string) []string {
	switch {
	case strings.Contains(command, "npm install"):
		return []string{"📦 Installing dependencies...", "✅ Dependencies installed successfully"}
	case strings.Contains(command, "npm run dev"):
		return []string{"🚀 Starting development server...", "✅ Server running on http://localhost:3000"}
	case strings.Contains(command, "npm run build"):
		return []string{"🔨 Building for production...", "✅ Build completed successfully"}
	case strings.Contains(command, "git"):
		return []string{"🔄 Git command executed successfully"}
	case strings.Contains(command, "vortex"):
		return []string{"🧠 Vortex AI command executed", "✨ AI magic happening..."}
	case command == "ls" || command == "dir":
		return []string{"src/", "package.json", "README.md", "tsconfig.json"}
	case command == "pwd":
		return []string{"/workspace/vortex-sandbox"}
	default:
		return []string{"Command executed: " + command}
	}
}
