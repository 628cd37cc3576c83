package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// UserConfigPath returns the XDG user configuration file path.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "drover", "config.json")
}

// ProjectConfigPath returns the project-local configuration file path under
// the given workspace root.
func ProjectConfigPath(workDir string) string {
	return filepath.Join(workDir, ".drover", "config.json")
}

// StateDir returns the XDG state directory holding session logs and indexes.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "drover")
}

// ProjectsDir returns the directory under which per-project session stores
// live.
func ProjectsDir() string {
	return filepath.Join(StateDir(), "projects")
}

// LogFilePath returns the path of the structured log file.
func LogFilePath() string {
	return filepath.Join(StateDir(), "logs", "drover.log")
}

// SkillDirs returns the skill document directories in priority order: the
// project-local directory first, then the user-level one.
func SkillDirs(workDir string) []string {
	return []string{
		filepath.Join(workDir, ".drover", "skills"),
		filepath.Join(xdg.ConfigHome, "drover", "skills"),
	}
}
