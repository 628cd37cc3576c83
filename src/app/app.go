// Package app wires drover's services together for the CLI entrypoints.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/drover-cli/drover/src/agent"
	"github.com/drover-cli/drover/src/aisdk"
	"github.com/drover-cli/drover/src/config"
	"github.com/drover-cli/drover/src/droveragent"
	"github.com/drover-cli/drover/src/orclient"
	"github.com/drover-cli/drover/src/session"
	"github.com/drover-cli/drover/src/store"
)

// App holds the assembled services for one workspace.
type App struct {
	Config   *config.Config
	Store    *store.Store
	Toolbox  *agent.Toolbox
	Sessions *session.Manager
	WorkDir  string
	Logger   *slog.Logger
}

// Options overrides parts of the loaded configuration from CLI flags.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	WorkDir string
	Emit    session.Emitter
	Logger  *slog.Logger
}

// New loads configuration, opens the project store, builds the toolbox, and
// assembles the session manager. A missing API key is not an error here; the
// manager fails sessions with a credential notice instead.
func New(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workDir := opts.WorkDir
	if workDir == "" {
		var err error
		if workDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
	}

	fs := afero.NewOsFs()

	cfg, err := config.Load(fs, workDir)
	if err != nil {
		return nil, err
	}
	if opts.APIKey != "" {
		cfg.API.APIKey = opts.APIKey
	}
	if opts.BaseURL != "" {
		cfg.API.BaseURL = opts.BaseURL
	}
	if opts.Model != "" {
		cfg.Agent.Model = opts.Model
	}

	storeDir := filepath.Join(config.ProjectsDir(), store.ProjectID(workDir))
	st, err := store.New(fs, storeDir, logger)
	if err != nil {
		return nil, err
	}

	toolbox, err := droveragent.NewToolbox(fs, workDir, droveragent.NewTables(), logger)
	if err != nil {
		return nil, err
	}

	// The typed-nil distinction matters: the manager checks the interface
	// against nil to detect a missing credential.
	var model aisdk.ModelClient
	if cfg.API.APIKey != "" {
		model = orclient.NewClient(orclient.Config{
			BaseURL: cfg.API.BaseURL,
			APIKey:  cfg.API.APIKey,
			Model:   cfg.Agent.Model,
			Logger:  logger,
		})
	}

	emit := opts.Emit
	if emit == nil {
		emit = func(*store.Message, bool) {}
	}

	managerCfg := session.Config{
		MaxIterations:      cfg.Agent.MaxIterations,
		MaxSessions:        cfg.Session.MaxSessions,
		HiddenFailureTools: cfg.Session.HiddenFailureTools,
		SkillDirs:          config.SkillDirs(workDir),
	}
	systemPrompt := droveragent.BuildSystemPrompt(toolbox, workDir)

	return &App{
		Config:   cfg,
		Store:    st,
		Toolbox:  toolbox,
		Sessions: session.NewManager(fs, st, model, toolbox, emit, managerCfg, systemPrompt, logger),
		WorkDir:  workDir,
		Logger:   logger,
	}, nil
}
