package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/attendee-presence/internal/bootstrap"
	"github.com/kirillkom/attendee-presence/internal/core/domain"
	"github.com/kirillkom/attendee-presence/internal/core/token"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/qrrender"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/roster"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/storage/localfs"
)

const manifestFile = "qr_codes.json"

func newQRCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Render QR codes for identity tokens",
	}
	cmd.AddCommand(newQRRenderCmd(opts), newQRBatchCmd(opts))
	return cmd
}

func newQRRenderCmd(opts *rootOptions) *cobra.Command {
	var kind, name, out string
	var size int
	var dataURL bool
	cmd := &cobra.Command{
		Use:   "render [attendee-id]",
		Short: "Render one attendee's QR code",
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
			payload, err := opts.codec().Encode(k, fields)
			if err != nil {
				return err
			}
			renderer, err := opts.renderer(size)
			if err != nil {
				return err
			}

			if dataURL {
				encoded, err := renderer.DataURL(payload)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), encoded)
				return nil
			}

			png, err := renderer.PNG(payload)
			if err != nil {
				return err
			}
			if out == "" {
				out = string(k) + "-" + args[0] + ".png"
			}
			dir := localfs.New(filepath.Dir(out))
			if err := dir.Save(cmd.Context(), filepath.Base(out), bytes.NewReader(png)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", payload, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(token.KindCheckIn), "Token kind: checkin, matches or profile")
	cmd.Flags().StringVar(&name, "name", "", "Display name carried by check-in tokens")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output PNG path (default <kind>-<attendee>.png)")
	cmd.Flags().IntVar(&size, "size", 0, "Image size in pixels (default QR_SIZE)")
	cmd.Flags().BoolVar(&dataURL, "data-url", false, "Print a data URL instead of writing a file")
	return cmd
}

func newQRBatchCmd(opts *rootOptions) *cobra.Command {
	var rosterPath, outDir string
	var size int
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render check-in QR codes for a whole roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := roster.LoadFile(rosterPath)
			if err != nil {
				return err
			}
			renderer, err := opts.renderer(size)
			if err != nil {
				return err
			}
			manifest, err := writeQRBatch(cmd.Context(), opts.codec(), renderer, localfs.New(outDir), opts.eventID, entries, opts.logger)
			if manifest == nil {
				return err
			}
			opts.logger.Info("qr_batch_written", "dir", outDir, "count", len(manifest), "event_id", opts.eventID)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d QR codes and %s to %s\n", len(manifest), manifestFile, outDir)
			return err
		},
	}
	cmd.Flags().StringVar(&rosterPath, "roster", opts.cfg.RosterPath, "Roster file (JSON or YAML)")
	cmd.Flags().StringVarP(&outDir, "out", "o", filepath.Join("public", "qr-codes"), "Output directory")
	cmd.Flags().IntVar(&size, "size", 0, "Image size in pixels (default QR_SIZE)")
	return cmd
}

func (o *rootOptions) renderer(size int) (*qrrender.Renderer, error) {
	cfg := o.cfg
	if size > 0 {
		cfg.QRSize = size
	}
	return bootstrap.NewQRRenderer(cfg)
}

type manifestEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
	File    string `json:"file"`
	Token   string `json:"token"`
}

// writeQRBatch renders checkin-<id>.png for every entry and a manifest
// listing the ones that rendered, in roster order. A failed entry is logged
// and skipped; the returned error joins every such failure and comes back
// alongside the written manifest. A nil manifest means nothing was written.
func writeQRBatch(
	ctx context.Context,
	codec *token.Codec,
	renderer *qrrender.Renderer,
	out *localfs.Source,
	eventID string,
	entries []domain.RosterEntry,
	logger *slog.Logger,
) ([]manifestEntry, error) {
	manifest := make([]manifestEntry, 0, len(entries))
	var failed []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry.EnsureID()
		item, err := writeQREntry(ctx, codec, renderer, out, eventID, entry)
		if err != nil {
			logger.Warn("qr_batch_entry_failed", "attendee_id", entry.ID, "error", err)
			failed = append(failed, err)
			continue
		}
		manifest = append(manifest, item)
	}

	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := out.Save(ctx, manifestFile, bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("save manifest: %w", err)
	}
	if len(failed) > 0 {
		return manifest, fmt.Errorf("%d of %d QR codes failed: %w", len(failed), len(entries), errors.Join(failed...))
	}
	return manifest, nil
}

func writeQREntry(
	ctx context.Context,
	codec *token.Codec,
	renderer *qrrender.Renderer,
	out *localfs.Source,
	eventID string,
	entry domain.RosterEntry,
) (manifestEntry, error) {
	raw, err := codec.EncodeCheckIn(entry.ID, eventID, entry.Name)
	if err != nil {
		return manifestEntry{}, fmt.Errorf("token for %s: %w", entry.ID, err)
	}
	png, err := renderer.PNG(raw)
	if err != nil {
		return manifestEntry{}, fmt.Errorf("qr for %s: %w", entry.ID, err)
	}
	file := "checkin-" + entry.ID + ".png"
	if err := out.Save(ctx, file, bytes.NewReader(png)); err != nil {
		return manifestEntry{}, fmt.Errorf("save %s: %w", file, err)
	}
	return manifestEntry{
		ID:      entry.ID,
		Name:    entry.Name,
		Title:   entry.Title,
		Company: entry.Company,
		File:    file,
		Token:   raw,
	}, nil
}
