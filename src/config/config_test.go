package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultModel, cfg.Agent.Model)
	assert.Equal(t, 30, cfg.Agent.MaxIterations)
	assert.Equal(t, 50, cfg.Session.MaxSessions)
	assert.Equal(t, []string{"bash"}, cfg.Session.HiddenFailureTools)
	require.NoError(t, Validate(cfg))
}

func TestLoadMissingFilesUsesDefaults(t *testing.T) {
	t.Setenv("DROVER_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("DROVER_MODEL", "")
	t.Setenv("DROVER_BASE_URL", "")

	cfg, err := Load(afero.NewMemMapFs(), "/proj")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Agent.Model)
	assert.Empty(t, cfg.API.APIKey)
}

func TestLoadProjectOverridesUser(t *testing.T) {
	t.Setenv("DROVER_MODEL", "")
	fs := afero.NewMemMapFs()

	userCfg := `{"agent":{"model":"user/model","max_iterations":10}}`
	require.NoError(t, afero.WriteFile(fs, UserConfigPath(), []byte(userCfg), 0o644))

	projectCfg := `{"agent":{"model":"project/model","max_iterations":10}}`
	require.NoError(t, afero.WriteFile(fs, ProjectConfigPath("/proj"), []byte(projectCfg), 0o644))

	cfg, err := Load(fs, "/proj")
	require.NoError(t, err)
	assert.Equal(t, "project/model", cfg.Agent.Model)
	assert.Equal(t, 10, cfg.Agent.MaxIterations)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("DROVER_API_KEY", "sk-env")
	t.Setenv("DROVER_MODEL", "env/model")
	t.Setenv("DROVER_BASE_URL", "https://example.test/v1")

	cfg, err := Load(afero.NewMemMapFs(), "/proj")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.API.APIKey)
	assert.Equal(t, "env/model", cfg.Agent.Model)
	assert.Equal(t, "https://example.test/v1", cfg.API.BaseURL)
}

func TestLoadOpenRouterKeyFallback(t *testing.T) {
	t.Setenv("DROVER_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "sk-or")

	cfg, err := Load(afero.NewMemMapFs(), "/proj")
	require.NoError(t, err)
	assert.Equal(t, "sk-or", cfg.API.APIKey)
}

func TestLoadMalformedFileFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, UserConfigPath(), []byte("{{{"), 0o644))

	_, err := Load(fs, "/proj")
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.MaxIterations = 0
	assert.Error(t, Validate(cfg))

	cfg = DefaultConfig()
	cfg.Agent.Model = ""
	assert.Error(t, Validate(cfg))

	cfg = DefaultConfig()
	cfg.API.BaseURL = "not a url"
	assert.Error(t, Validate(cfg))
}
