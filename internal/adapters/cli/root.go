// Package cli is the operator command line: token and QR tooling, roster
// seeding, bulk reset and a live presence view.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirillkom/attendee-presence/internal/config"
	"github.com/kirillkom/attendee-presence/internal/core/token"
)

// rootOptions carries settings shared by every subcommand.
type rootOptions struct {
	cfg     config.Config
	logger  *slog.Logger
	eventID string
	baseURL string
}

func (o *rootOptions) codec() *token.Codec {
	return token.NewCodec(o.baseURL)
}

func NewRootCmd(cfg config.Config, logger *slog.Logger) *cobra.Command {
	if logger == nil {
		logger = slog.Default()
	}
	opts := &rootOptions{cfg: cfg, logger: logger}

	root := &cobra.Command{
		Use:           "eventctl",
		Short:         "Operate attendee identity and presence for an event",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.eventID, "event", cfg.DefaultEventID, "Event id")
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", cfg.PublicBaseURL, "Public base URL tokens point at")

	root.AddCommand(
		newTokenCmd(opts),
		newQRCmd(opts),
		newRosterCmd(opts),
		newStatusCmd(opts),
		newPresenceCmd(opts),
	)
	return root
}
