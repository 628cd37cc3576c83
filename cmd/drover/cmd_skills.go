package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/drover-cli/drover/src/config"
	"github.com/drover-cli/drover/src/droveragent"
)

// SkillsCmd lists the skill documents invokable with a "/name" prompt line.
type SkillsCmd struct{}

func (c *SkillsCmd) Run(cli *CLI) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}
	skills := droveragent.DiscoverSkills(afero.NewOsFs(), config.SkillDirs(workDir))
	if len(skills) == 0 {
		fmt.Println("No skills found.")
		return nil
	}
	for _, skill := range skills {
		fmt.Printf("/%s  %s\n", skill.Name, skill.Path)
	}
	return nil
}
