package cmd

import (
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the assembled system status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()
			return printJSON(cmd, app.Orchestrator.Status())
		},
	}
}

func newMeetingCmd() *cobra.Command {
	var agenda string

	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Run a one-shot team meeting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			meeting, err := app.Orchestrator.RunMeeting(cmd.Context(), agenda)
			if err != nil {
				return err
			}
			return printJSON(cmd, meeting)
		},
	}

	cmd.Flags().StringVar(&agenda, "agenda", "", "meeting agenda")
	_ = cmd.MarkFlagRequired("agenda")
	return cmd
}

func newSessionCmd() *cobra.Command {
	var duration int

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start a working session and run it to completion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if duration > 0 {
				app.Config.SessionDurationMinutes = duration
			}
			if _, err := app.StartWorkSession(cmd.Context()); err != nil {
				return err
			}
			session, err := app.Orchestrator.RunSession(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, session)
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 0, "session duration in minutes (defaults to SESSION_DURATION_MINUTES)")
	return cmd
}

func newCampaignCmd() *cobra.Command {
	var details string

	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Run a CMO-driven marketing campaign",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			campaign, err := app.Orchestrator.RunCampaign(cmd.Context(), details)
			if err != nil {
				return err
			}
			return printJSON(cmd, campaign)
		},
	}

	cmd.Flags().StringVar(&details, "details", "", "campaign goals and context")
	_ = cmd.MarkFlagRequired("details")
	return cmd
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Generate a CFO financial report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.Orchestrator.RunFinancialReport(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}
