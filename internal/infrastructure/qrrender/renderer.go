// Package qrrender draws identity tokens as PNG QR codes.
package qrrender

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

type Options struct {
	// Size is the edge length of the square image in pixels.
	Size int
	// Margin is the quiet zone in modules.
	Margin     int
	Foreground string
	Background string
	Level      qrcode.RecoveryLevel
}

func DefaultOptions() Options {
	return Options{
		Size:       300,
		Margin:     2,
		Foreground: "#000000",
		Background: "#FFFFFF",
		Level:      qrcode.Medium,
	}
}

type Renderer struct {
	opts Options
	fg   color.RGBA
	bg   color.RGBA
}

func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Size <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "qr options", fmt.Errorf("size must be positive, got %d", opts.Size))
	}
	if opts.Margin < 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "qr options", fmt.Errorf("margin must not be negative, got %d", opts.Margin))
	}
	fg, err := ParseHexColor(opts.Foreground)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "qr foreground", err)
	}
	bg, err := ParseHexColor(opts.Background)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "qr background", err)
	}
	return &Renderer{opts: opts, fg: fg, bg: bg}, nil
}

func (r *Renderer) Options() Options {
	return r.opts
}

// Image lays the symbol out on a Size x Size canvas with a whole number of
// pixels per module. A payload whose symbol plus margin does not fit is
// rejected rather than scaled below one pixel per module.
func (r *Renderer) Image(payload string) (image.Image, error) {
	if payload == "" {
		return nil, domain.WrapError(domain.ErrRenderFailed, "render qr", errors.New("empty payload"))
	}
	code, err := qrcode.New(payload, r.opts.Level)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRenderFailed, "encode qr", err)
	}
	code.DisableBorder = true
	bitmap := code.Bitmap()

	modules := len(bitmap)
	total := modules + 2*r.opts.Margin
	scale := r.opts.Size / total
	if scale < 1 {
		return nil, domain.WrapError(
			domain.ErrRenderFailed,
			"render qr",
			fmt.Errorf("%d modules with margin %d do not fit in %dpx", modules, r.opts.Margin, r.opts.Size),
		)
	}
	offset := (r.opts.Size-scale*total)/2 + scale*r.opts.Margin

	img := image.NewRGBA(image.Rect(0, 0, r.opts.Size, r.opts.Size))
	for y := 0; y < r.opts.Size; y++ {
		for x := 0; x < r.opts.Size; x++ {
			img.SetRGBA(x, y, r.bg)
		}
	}
	for row, line := range bitmap {
		for col, dark := range line {
			if !dark {
				continue
			}
			x0 := offset + col*scale
			y0 := offset + row*scale
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetRGBA(x0+dx, y0+dy, r.fg)
				}
			}
		}
	}
	return img, nil
}

func (r *Renderer) PNG(payload string) ([]byte, error) {
	img, err := r.Image(payload)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, domain.WrapError(domain.ErrRenderFailed, "encode png", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) DataURL(payload string) (string, error) {
	raw, err := r.PNG(payload)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// ParseHexColor reads #RGB, #RRGGBB or #RRGGBBAA.
func ParseHexColor(raw string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("bad color %q", raw)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q: %w", raw, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
