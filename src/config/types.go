// Package config loads and validates drover's configuration from XDG config
// files, a project-local override, and environment variables.
package config

// Config is the root configuration.
type Config struct {
	API     APIConfig     `json:"api"`
	Agent   AgentConfig   `json:"agent"`
	Session SessionConfig `json:"session"`
}

// APIConfig describes the model endpoint.
type APIConfig struct {
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`
	APIKey  string `json:"api_key,omitempty"`
}

// AgentConfig tunes the agent loop.
type AgentConfig struct {
	Model         string `json:"model" validate:"required"`
	MaxIterations int    `json:"max_iterations" validate:"gte=1,lte=200"`
}

// SessionConfig tunes persistence and transcript policy.
type SessionConfig struct {
	// MaxSessions caps the per-project session index; older sessions and
	// their logs are deleted past the cap.
	MaxSessions int `json:"max_sessions" validate:"gte=1"`
	// HiddenFailureTools lists tools whose failed results are persisted but
	// not surfaced in the transcript.
	HiddenFailureTools []string `json:"hidden_failure_tools,omitempty"`
}
