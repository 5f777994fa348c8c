package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/attendee-presence/internal/bootstrap"
	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

func newPresenceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presence",
		Short: "Follow and change presence through the status API",
	}
	cmd.AddCommand(newPresenceWatchCmd(opts), newPresenceSetCmd(opts))
	return cmd
}

func newPresenceWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the event's presence and follow changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			viewer, err := bootstrap.NewViewerSync(opts.cfg, opts.eventID, opts.logger)
			if err != nil {
				return err
			}
			defer viewer.Close()

			out := cmd.OutOrStdout()
			if err := viewer.Sync.Refresh(cmd.Context()); err != nil {
				return err
			}
			for _, rec := range viewer.Sync.All() {
				printRecord(out, rec)
			}

			unsubscribe := viewer.Sync.Subscribe(func(rec domain.PresenceRecord) {
				printRecord(out, rec)
			})
			defer unsubscribe()

			if err := viewer.Sync.Listen(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			return nil
		},
	}
}

func newPresenceSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set [attendee-id] [status]",
		Short: "Change one attendee's status (present, checked-out, not-arrived)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParsePresenceStatus(args[1])
			if err != nil {
				return err
			}
			viewer, err := bootstrap.NewViewerSync(opts.cfg, opts.eventID, opts.logger)
			if err != nil {
				return err
			}
			defer viewer.Close()

			rec, err := viewer.Sync.UpdateStatus(cmd.Context(), args[0], status, "")
			if err != nil {
				return err
			}
			printRecord(cmd.OutOrStdout(), rec)
			return nil
		},
	}
}

func printRecord(w io.Writer, rec domain.PresenceRecord) {
	checkedIn := "-"
	if rec.CheckedInAt != nil {
		checkedIn = rec.CheckedInAt.Local().Format(time.Kitchen)
	}
	name := rec.DisplayName
	if name == "" {
		name = rec.AttendeeID
	}
	fmt.Fprintf(w, "%-30s %-12s checked in %-8s updated %s\n",
		name, rec.Status, checkedIn, rec.LastUpdated.Local().Format(time.RFC3339))
}
