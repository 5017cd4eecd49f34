/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tgdash/dashclient/config"
	"github.com/tgdash/dashclient/internal/transport"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dashclient",
	Short: "Terminal client for the Telegram mini-app dashboard",
	Long: `Terminal client for the Telegram mini-app dashboard.

Authenticates with the backend using Telegram launch data (TG_INIT_DATA),
shows balance, tasks and referrals, and streams live balance updates.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newClient builds the transport from the environment configuration.
func newClient() (*transport.Client, error) {
	cfg := config.LoadConfig()
	return transport.New(cfg.ServerURL, cfg.APIBase, cfg.InitData)
}
