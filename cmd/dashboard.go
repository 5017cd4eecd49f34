/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tgdash/dashclient/internal/live"
	"github.com/tgdash/dashclient/internal/session"
	"github.com/tgdash/dashclient/internal/state"
	"github.com/tgdash/dashclient/types"
)

// dashboardCmd represents the dashboard command
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard and stream live balance updates",
	Long: `Show the dashboard and stream live balance updates. Usage:

	dashclient dashboard
`,
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build client: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		snap, err := session.Bootstrap(ctx, client)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bootstrap failed: %v\n", err)
			os.Exit(1)
		}

		controller := state.NewController(client)
		controller.SetSnapshot(snap)
		printSnapshot(controller.Snapshot())

		if snap.Self == nil || client.InitData() == "" {
			return
		}

		channel := live.New(client.ServerURL(), snap.Self.ID, client.InitData(), func(update types.BalanceUpdate) {
			controller.ApplyBalance(update)
			fmt.Printf("balance: %s\n", update.Balance.String())
		})
		if err := channel.Open(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "live channel unavailable: %v\n", err)
			return
		}
		defer func() {
			_ = channel.Close()
		}()

		fmt.Println("watching for balance updates, Ctrl-C to quit")
		<-ctx.Done()
	},
}

func printSnapshot(snap state.Snapshot) {
	if snap.Self == nil {
		fmt.Println("not signed in")
		return
	}
	name := snap.Self.Username
	if name == "" {
		name = "anonymous"
	}
	fmt.Printf("user: @%s (%s)\n", name, snap.Self.Role)
	fmt.Printf("balance: %s\n", snap.Self.Balance.String())
	fmt.Printf("referrals: %d\n", len(snap.Referrals))
	fmt.Printf("tasks:\n")
	for _, task := range snap.Tasks {
		mark := " "
		if task.Completed {
			mark = "x"
		}
		fmt.Printf("  [%s] %d  %s  +%s\n", mark, task.ID, task.Title, task.Reward.String())
	}
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
