// Package cmd implements the boardroom command line interface.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/boardroomhq/boardroom"
	"github.com/boardroomhq/boardroom/config"
	"github.com/boardroomhq/boardroom/logging"
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "boardroom",
		Short:         "Run a team of role-playing executive agents",
		Long:          "boardroom orchestrates LLM-backed executive agents that hold discussions, run working sessions, persist decisions and publish updates through the configured integrations.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newStatusCmd(),
		newMeetingCmd(),
		newSessionCmd(),
		newCampaignCmd(),
		newReportCmd(),
	)

	return rootCmd
}

// wireApp resolves configuration from the environment and assembles the
// application.
func wireApp(ctx context.Context) (*boardroom.App, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Format:    "text",
		Output:    os.Stderr,
		Component: "boardroom",
	})

	return boardroom.New(ctx, cfg, func(o *boardroom.Options) {
		o.Logger = logger
	})
}

func printJSON(cmd *cobra.Command, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	cmd.Println(string(encoded))
	return nil
}
