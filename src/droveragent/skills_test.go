package droveragent

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverSkills(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/skills/deploy.md", []byte("project deploy"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/project/skills/review.md", []byte("review"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/user/skills/Deploy.md", []byte("user deploy"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/user/skills/triage.md", []byte("triage"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/user/skills/notes.txt", []byte("not a skill"), 0o644))

	skills := DiscoverSkills(fs, []string{"/project/skills", "/user/skills"})

	var names []string
	for _, s := range skills {
		names = append(names, s.Name)
	}
	// Earlier dirs win the case-insensitive name collision; non-md ignored.
	assert.Equal(t, []string{"deploy", "review", "triage"}, names)
}

func TestDiscoverSkillsMissingDir(t *testing.T) {
	skills := DiscoverSkills(afero.NewMemMapFs(), []string{"/nope"})
	assert.Empty(t, skills)
}

func TestFindSkillCaseInsensitive(t *testing.T) {
	skills := []Skill{{Name: "Deploy", Path: "/x/Deploy.md"}}

	skill, ok := FindSkill(skills, "deploy")
	require.True(t, ok)
	assert.Equal(t, "Deploy", skill.Name)

	_, ok = FindSkill(skills, "missing")
	assert.False(t, ok)
}

func TestLoadSkill(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/skills/deploy.md", []byte("checklist"), 0o644))

	doc, err := LoadSkill(fs, Skill{Name: "deploy", Path: "/skills/deploy.md"})
	require.NoError(t, err)
	assert.Equal(t, "checklist", doc)
}
