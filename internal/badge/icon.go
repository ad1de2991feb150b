package badge

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"
	"unreadwatch/internal/domain"
	"unreadwatch/internal/policy"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// IconSizes are the square icon resolutions written for every badge.
var IconSizes = []int{16, 32, 48, 128}

const (
	textScale    = 0.6
	maxTextWidth = 0.9
	roundRadius  = 0.25
)

var boldFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(gobold.TTF)
})

func parseColor(hex string, fallback string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(fallback)
	}

	return c
}

// DrawIcon draws the badge glyph with the count centered on it.
func DrawIcon(b policy.RenderBadge, size int) (*gg.Context, error) {
	s := float64(size)
	dc := gg.NewContext(size, size)

	defaults := domain.DefaultPreferences()
	dc.SetColor(parseColor(b.Color, defaults.BadgeColor))

	switch b.Shape {
	case domain.ShapeCircle:
		dc.DrawCircle(s/2, s/2, s/2)
	case domain.ShapeSquare:
		dc.DrawRectangle(0, 0, s, s)
	case domain.ShapeHexagon:
		dc.DrawRegularPolygon(6, s/2, s/2, s/2, math.Pi/6)
	default:
		dc.DrawRoundedRectangle(0, 0, s, s, s*roundRadius)
	}
	dc.Fill()

	if b.Text == "" {
		return dc, nil
	}

	face, err := fontFace(s * textScale)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)

	if width, _ := dc.MeasureString(b.Text); width > s*maxTextWidth {
		face, err = fontFace(s * textScale * s * maxTextWidth / width)
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(face)
	}

	dc.SetColor(parseColor(b.TextColor, defaults.TextColor))
	dc.DrawStringAnchored(b.Text, s/2, s/2, 0.5, 0.35)

	return dc, nil
}

func fontFace(points float64) (font.Face, error) {
	f, err := boldFont()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    points,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}

	return face, nil
}

// IconPath is where the icon of the given size is written.
func IconPath(dir string, size int) string {
	return filepath.Join(dir, fmt.Sprintf("badge-%d.png", size))
}

func writeIcons(dir string, b policy.RenderBadge) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create icon directory %s: %w", dir, err)
	}

	for _, size := range IconSizes {
		dc, err := DrawIcon(b, size)
		if err != nil {
			return fmt.Errorf("draw icon (size = %d): %w", size, err)
		}

		var buf bytes.Buffer
		if err = dc.EncodePNG(&buf); err != nil {
			return fmt.Errorf("encode icon (size = %d): %w", size, err)
		}

		path := IconPath(dir, size)
		tmp := path + ".tmp"

		if err = os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write icon %s: %w", tmp, err)
		}

		if err = os.Rename(tmp, path); err != nil {
			return fmt.Errorf("replace icon %s: %w", path, err)
		}
	}

	return nil
}
