// Package badge renders the aggregate unread count as a terminal status
// line and, optionally, as a set of PNG icons.
package badge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unreadwatch/internal/domain"
	"unreadwatch/internal/policy"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	pulseFrames     = 4
	pulseFrameDelay = 150 * time.Millisecond
	pulseDim        = 0.5
)

var shapeGlyphs = map[string]string{
	domain.ShapeRound:   "●",
	domain.ShapeCircle:  "○",
	domain.ShapeSquare:  "■",
	domain.ShapeHexagon: "⬢",
}

type Presenter struct {
	out        io.Writer
	renderer   *lipgloss.Renderer
	iconDir    string
	frameDelay time.Duration
	log        *slog.Logger

	mu      sync.Mutex
	last    policy.RenderBadge
	hasLast bool
}

// NewPresenter writes status lines to out. Icons are written to iconDir
// when it is set and the badge asks for a custom icon.
func NewPresenter(out io.Writer, iconDir string, log *slog.Logger) *Presenter {
	return &Presenter{
		out:        out,
		renderer:   lipgloss.NewRenderer(out),
		iconDir:    strings.TrimSpace(iconDir),
		frameDelay: pulseFrameDelay,
		log:        log,
	}
}

// Render draws b. Drawing the same badge twice gives the same output.
func (p *Presenter) Render(b policy.RenderBadge) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.draw(b); err != nil {
		return err
	}

	p.last = b
	p.hasLast = true

	return nil
}

// Last returns the most recently rendered badge.
func (p *Presenter) Last() (policy.RenderBadge, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.last, p.hasLast
}

// Animate plays kind on b and restores the last rendered badge when done.
func (p *Presenter) Animate(ctx context.Context, kind string, b policy.RenderBadge) error {
	if kind != domain.AnimationPulse {
		return nil
	}

	dimmed := b
	dimmed.Color = dim(b.Color, b.TextColor)

	for frame := range pulseFrames {
		current := dimmed
		if frame%2 == 1 {
			current = b
		}

		p.mu.Lock()
		err := p.draw(current)
		p.mu.Unlock()

		if err != nil {
			return fmt.Errorf("draw pulse frame %d: %w", frame, err)
		}

		select {
		case <-ctx.Done():
			return p.restore()
		case <-time.After(p.frameDelay):
		}
	}

	return p.restore()
}

func (p *Presenter) restore() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasLast {
		return nil
	}

	return p.draw(p.last)
}

// StatusLine is the terminal form of b.
func (p *Presenter) StatusLine(b policy.RenderBadge) string {
	glyph, ok := shapeGlyphs[b.Shape]
	if !ok {
		glyph = shapeGlyphs[domain.ShapeRound]
	}

	if b.Text == "" {
		return p.renderer.NewStyle().Faint(true).Render(glyph + " no unread mail")
	}

	style := p.renderer.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(b.TextColor)).
		Background(lipgloss.Color(b.Color)).
		Padding(0, 1)

	return style.Render(glyph + " " + b.Text)
}

func (p *Presenter) draw(b policy.RenderBadge) error {
	if _, err := fmt.Fprintln(p.out, p.StatusLine(b)); err != nil {
		return fmt.Errorf("write status line: %w", err)
	}

	if !b.CustomIcon || p.iconDir == "" {
		return nil
	}

	if err := writeIcons(p.iconDir, b); err != nil {
		p.log.Error("Failed to write badge icons",
			"error", err,
			"iconDir", p.iconDir)

		return err
	}

	return nil
}

func dim(hex string, towards string) string {
	base, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}

	target, err := colorful.Hex(towards)
	if err != nil {
		target = colorful.Color{R: 1, G: 1, B: 1}
	}

	return base.BlendLab(target, pulseDim).Clamped().Hex()
}
