/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tgdash/dashclient/internal/state"
)

// tasksCmd represents the tasks command.
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List reward tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		tasks, err := client.Tasks(cmd.Context())
		if err != nil {
			return err
		}
		for _, task := range tasks {
			mark := " "
			if task.Completed {
				mark = "x"
			}
			fmt.Printf("[%s] %d  %s  +%s\n", mark, task.ID, task.Title, task.Reward.String())
		}
		return nil
	},
}

var tasksCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a task complete and resync",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}
		client, err := newClient()
		if err != nil {
			return err
		}

		controller := state.NewController(client)
		if err := controller.CompleteTask(cmd.Context(), id); err != nil {
			return err
		}
		snap := controller.Snapshot()
		if snap.Self != nil {
			fmt.Printf("task %d completed, balance: %s\n", id, snap.Self.Balance.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksCompleteCmd)
}
