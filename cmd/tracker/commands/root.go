package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tasktracker-app/tasktracker/pkg/client"
	"github.com/tasktracker-app/tasktracker/pkg/localstate"
	"github.com/tasktracker-app/tasktracker/pkg/logger"
	"github.com/tasktracker-app/tasktracker/pkg/tracker"
)

var serverURL string
var statePath string

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tracker",
		Short: "Track work time and todos from the terminal",
		Long: `tracker is a client for the task tracker backend: it runs the
timer session, keeps the calendar's time blocks in sync and manages the
todo list. Session state survives between invocations, so a timer started
in one shell keeps counting until it is stopped.`,
		RunE: runStatus,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the backend")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "Path to the local state database (default ~/.tasktracker/state.db)")

	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewPauseCommand())
	rootCmd.AddCommand(NewStopCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewTodoCommand())
	rootCmd.AddCommand(NewGoalCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type runtime struct {
	Engine *tracker.Engine
	Local  *localstate.Store
	API    *client.Client
}

// buildRuntime is the composition root: local state, remote access layer
// and the engine, which restores any persisted session
func buildRuntime() (*runtime, error) {
	log := logger.Logger{}

	path := statePath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not locate home directory: %w", err)
		}

		dir := filepath.Join(home, ".tasktracker")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create state directory: %w", err)
		}
		path = filepath.Join(dir, "state.db")
	}

	local, err := localstate.Open(path, log)
	if err != nil {
		return nil, err
	}

	api := client.New(serverURL, log)
	engine := tracker.NewEngine(api, local, log)

	return &runtime{Engine: engine, Local: local, API: api}, nil
}

func formatElapsed(seconds int) string {
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}
