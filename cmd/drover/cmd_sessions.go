package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/drover-cli/drover/src/config"
	"github.com/drover-cli/drover/src/store"
)

// SessionsCmd inspects the per-project session store.
type SessionsCmd struct {
	List SessionsListCmd `cmd:"" default:"1" help:"List stored sessions"`
	Show SessionsShowCmd `cmd:"" help:"Print a session's transcript"`
}

// SessionsListCmd lists the index entries, newest first.
type SessionsListCmd struct{}

func (c *SessionsListCmd) Run(cli *CLI) error {
	st, err := openStore(cli)
	if err != nil {
		return err
	}
	sessions := st.LoadIndex()
	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return nil
	}
	store.SortByUpdatedAt(sessions)
	for _, s := range sessions {
		fmt.Printf("%s  %-11s  %s  %s\n", s.ID, s.Status, s.UpdatedAt, s.Summary)
	}
	return nil
}

// SessionsShowCmd prints the visible transcript of one session.
type SessionsShowCmd struct {
	ID  string `arg:"" help:"Session ID"`
	All bool   `help:"Include non-visible messages"`
}

func (c *SessionsShowCmd) Run(cli *CLI) error {
	st, err := openStore(cli)
	if err != nil {
		return err
	}
	if st.FindSession(c.ID) == nil {
		return fmt.Errorf("session %s not found", c.ID)
	}
	for _, msg := range st.ListMessages(c.ID) {
		if !msg.Visible && !c.All {
			continue
		}
		fmt.Printf("--- %s (%s)\n%s\n", msg.Role, msg.CreatedAt, msg.Text())
	}
	return nil
}

func openStore(cli *CLI) (*store.Store, error) {
	logger := createCLILogger(cli.LogLevel)
	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(config.ProjectsDir(), store.ProjectID(workDir))
	return store.New(afero.NewOsFs(), dir, logger)
}
