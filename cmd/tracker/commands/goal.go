package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewGoalCommand creates the goal command
func NewGoalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "goal [text]",
		Short: "Show or set today's goal (empty text clears it)",
		RunE:  runGoal,
	}
}

func runGoal(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Engine.Close()

	today := time.Now()

	if len(args) == 0 {
		goal, err := rt.Local.Goal(today)
		if err != nil {
			return err
		}
		if goal == "" {
			fmt.Println("No goal set for today")
			return nil
		}
		fmt.Println(goal)
		return nil
	}

	text := strings.Join(args, " ")
	if err := rt.Local.SetGoal(today, text); err != nil {
		return err
	}

	if strings.TrimSpace(text) == "" {
		fmt.Println("Goal cleared")
		return nil
	}
	fmt.Println("Goal saved")
	return nil
}
