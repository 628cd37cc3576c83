package droveragent

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Skill is a named auxiliary instruction document the user can invoke with a
// "/name" first line.
type Skill struct {
	Name string
	Path string
}

// DiscoverSkills lists skill documents (*.md) from the given directories.
// Earlier directories win on name collisions; names are deduplicated
// case-insensitively but listed with their original casing.
func DiscoverSkills(fs afero.Fs, dirs []string) []Skill {
	seen := make(map[string]struct{})
	var skills []Skill
	for _, dir := range dirs {
		entries, err := afero.ReadDir(fs, dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".md")
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			skills = append(skills, Skill{Name: name, Path: filepath.Join(dir, entry.Name())})
		}
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills
}

// FindSkill returns the discovered skill matching name case-insensitively.
func FindSkill(skills []Skill, name string) (Skill, bool) {
	for _, skill := range skills {
		if strings.EqualFold(skill.Name, name) {
			return skill, true
		}
	}
	return Skill{}, false
}

// LoadSkill reads a skill document's content.
func LoadSkill(fs afero.Fs, skill Skill) (string, error) {
	data, err := afero.ReadFile(fs, skill.Path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
