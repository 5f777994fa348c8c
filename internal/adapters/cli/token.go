package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
	"github.com/kirillkom/attendee-presence/internal/core/token"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Encode and decode identity tokens",
	}
	cmd.AddCommand(newTokenEncodeCmd(opts), newTokenDecodeCmd(opts))
	return cmd
}

func newTokenEncodeCmd(opts *rootOptions) *cobra.Command {
	var kind, name string
	cmd := &cobra.Command{
		Use:   "encode [attendee-id]",
		Short: "Print the token for an attendee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := token.ParseKind(kind)
			if err != nil {
				return err
			}
			fields := domain.TokenFields{AttendeeID: args[0], EventID: opts.eventID}
			if k == token.KindCheckIn {
				fields.DisplayName = name
			}
			raw, err := opts.codec().Encode(k, fields)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(token.KindCheckIn), "Token kind: checkin, matches or profile")
	cmd.Flags().StringVar(&name, "name", "", "Display name carried by check-in tokens")
	return cmd
}

type decodeOutput struct {
	Kind    token.Kind         `json:"kind"`
	Matched bool               `json:"matched"`
	Fields  domain.TokenFields `json:"fields"`
}

func newTokenDecodeCmd(opts *rootOptions) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "decode [token]",
		Short: "Decode a scanned token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := token.ParseKind(kind)
			if err != nil {
				return err
			}
			fields, matched, err := opts.codec().Decode(k, args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(decodeOutput{Kind: k, Matched: matched, Fields: fields}, "", "  ")
			if err != nil {
				return fmt.Errorf("encode output: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(token.KindCheckIn), "Token kind: checkin, matches or profile")
	return cmd
}
