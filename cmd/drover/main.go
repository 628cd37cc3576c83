package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI is the top-level command structure.
type CLI struct {
	APIKey   string `env:"DROVER_API_KEY" help:"Model API key"`
	BaseURL  string `help:"Custom API base URL"`
	Model    string `short:"m" help:"Model to use"`
	LogLevel string `default:"warn" help:"Log level (debug, info, warn, error)"`

	Prompt   PromptCmd   `cmd:"" help:"Send a prompt and run the agent loop"`
	Sessions SessionsCmd `cmd:"" help:"List and inspect stored sessions"`
	Skills   SkillsCmd   `cmd:"" help:"List available skill documents"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("drover"),
		kong.Description("Agentic coding assistant with local tool execution"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
