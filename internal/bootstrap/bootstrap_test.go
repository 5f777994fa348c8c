package bootstrap

import (
	"bytes"
	"testing"

	"github.com/skip2/go-qrcode"

	"github.com/kirillkom/attendee-presence/internal/config"
	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

func qrConfig() config.Config {
	return config.Config{
		QRSize:       240,
		QRMargin:     2,
		QRForeground: "#112233",
		QRBackground: "#FFFFFF",
	}
}

func TestNewQRRendererUsesConfiguredColors(t *testing.T) {
	renderer, err := NewQRRenderer(qrConfig())
	if err != nil {
		t.Fatalf("NewQRRenderer() error = %v", err)
	}

	opts := renderer.Options()
	if opts.Size != 240 || opts.Margin != 2 || opts.Foreground != "#112233" || opts.Background != "#FFFFFF" {
		t.Fatalf("unexpected renderer options: %+v", opts)
	}
	if opts.Level != qrcode.Medium {
		t.Fatalf("expected medium recovery level, got %v", opts.Level)
	}

	raw, err := renderer.PNG("https://checkin.example.com/checkin?attendee=jane-doe&event=demo-night")
	if err != nil {
		t.Fatalf("PNG() error = %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("\x89PNG")) {
		t.Fatalf("expected png output")
	}
}

func TestNewQRRendererRejectsBadColor(t *testing.T) {
	cfg := qrConfig()
	cfg.QRBackground = "white"

	if _, err := NewQRRenderer(cfg); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
