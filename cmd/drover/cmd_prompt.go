package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/drover-cli/drover/src/app"
	"github.com/drover-cli/drover/src/store"
)

// PromptCmd sends one prompt through the full agent loop and prints the
// transcript as it unfolds.
type PromptCmd struct {
	Text  []string `arg:"" optional:"" help:"The prompt text to send"`
	File  string   `short:"f" help:"Load prompt from file"`
	Image []string `short:"i" help:"Attach image files or URLs"`
}

func (p *PromptCmd) Run(cli *CLI) error {
	// Agent internals log to the state-dir file so the transcript on stdout
	// stays clean.
	logger := createFileLogger(cli.LogLevel)

	text := strings.Join(p.Text, " ")
	if p.File != "" {
		data, err := os.ReadFile(p.File)
		if err != nil {
			return fmt.Errorf("failed to read prompt file: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no prompt given")
	}

	instance, err := app.New(app.Options{
		APIKey:  cli.APIKey,
		BaseURL: cli.BaseURL,
		Model:   cli.Model,
		Emit:    printMessage,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	// SIGINT interrupts the active session instead of killing the process;
	// dispatched shell commands still run to completion.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if id := instance.Sessions.ActiveSessionID(); id != "" {
			instance.Sessions.InterruptSession(id)
		}
	}()

	return instance.Sessions.HandleUserPrompt(context.Background(), text, p.Image)
}

// printMessage renders one transcript message to stdout.
func printMessage(msg *store.Message, _ bool) {
	if !msg.Visible {
		return
	}
	switch msg.Role {
	case store.RoleAssistant:
		if text := msg.Text(); text != "" {
			fmt.Println(text)
		}
		if msg.MessageParams != nil {
			for _, call := range msg.MessageParams.ToolCalls {
				fmt.Printf("[tool call] %s %s\n", call.Function.Name, call.Function.Arguments)
			}
		}
	case store.RoleTool:
		name := ""
		if msg.MessageParams != nil {
			name = msg.MessageParams.ToolName
		}
		fmt.Printf("[%s] %s\n", name, msg.Text())
	case store.RoleUser:
		// The user already typed it; only synthetic notices matter.
		if msg.Text() == "Interrupted." {
			fmt.Println(msg.Text())
		}
	}
}
