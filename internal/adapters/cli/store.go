package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/attendee-presence/internal/bootstrap"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/roster"
)

func newRosterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the event roster",
	}

	var rosterPath string
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Create Not Arrived records for roster attendees without one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := roster.LoadFile(rosterPath)
			if err != nil {
				return err
			}
			statusUC, closeFn, err := bootstrap.OpenPresenceStore(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			inserted, err := statusUC.Seed(cmd.Context(), opts.eventID, entries)
			if err != nil {
				return err
			}
			opts.logger.Info("roster_seeded", "event_id", opts.eventID, "roster", len(entries), "inserted", inserted)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d attendees for %s\n", inserted, len(entries), opts.eventID)
			return nil
		},
	}
	seed.Flags().StringVar(&rosterPath, "roster", opts.cfg.RosterPath, "Roster file (JSON or YAML)")

	cmd.AddCommand(seed)
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Operate on the authoritative presence store",
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Send every attendee of the event back to Not Arrived",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statusUC, closeFn, err := bootstrap.OpenPresenceStore(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := statusUC.Reset(cmd.Context(), opts.eventID)
			if err != nil {
				return err
			}
			opts.logger.Info("presence_reset", "event_id", result.EventID, "total", result.Total, "changed", result.Changed)
			fmt.Fprintf(cmd.OutOrStdout(), "reset %d attendees (%d changed) for %s\n", result.Total, result.Changed, result.EventID)
			return nil
		},
	}

	cmd.AddCommand(reset)
	return cmd
}
