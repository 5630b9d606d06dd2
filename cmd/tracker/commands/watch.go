package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the running session until interrupted",
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Engine.Close()

	if state := rt.Engine.State(); !state.IsRunning && !state.IsPaused {
		return fmt.Errorf("no session to watch")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// A process continued after a suspension reconciles immediately instead
	// of waiting for the next tick
	resumed := make(chan os.Signal, 1)
	signal.Notify(resumed, syscall.SIGCONT)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-interrupt:
			fmt.Println()
			return nil
		case <-resumed:
			rt.Engine.Reconcile()
		case <-ticker.C:
			state := rt.Engine.State()
			switch {
			case state.IsRunning:
				fmt.Printf("\r%q  %s ", state.TaskName, formatElapsed(state.ElapsedSeconds))
			case state.IsPaused:
				fmt.Printf("\r%q  %s (paused) ", state.TaskName, formatElapsed(state.ElapsedSeconds))
			default:
				fmt.Println("\rSession stopped")
				return nil
			}
		}
	}
}
