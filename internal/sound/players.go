package sound

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"unreadwatch/internal/domain"

	"github.com/gen2brain/beeep"
)

const paVolumeNorm = 65536

// Beep sounds the system bell.
type Beep struct{}

func (Beep) Play(context.Context, string, float64) error {
	if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
		return fmt.Errorf("beep: %w", err)
	}

	return nil
}

// Command plays a sound file with an external program such as paplay.
type Command struct {
	Program string
}

func (c Command) Args(source string, volume float64) []string {
	var args []string
	if filepath.Base(c.Program) == "paplay" {
		args = append(args, "--volume="+strconv.Itoa(int(volume*paVolumeNorm)))
	}

	return append(args, source)
}

func (c Command) Play(ctx context.Context, source string, volume float64) error {
	program := strings.TrimSpace(c.Program)
	if program == "" {
		return errors.New("sound command is not configured")
	}

	out, err := exec.CommandContext(ctx, program, c.Args(source, volume)...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("run %s: %w (output = %s)", program, err, strings.TrimSpace(string(out)))
	}

	return nil
}

// Router sends "beep" to Bell and every other source to File.
type Router struct {
	Bell Player
	File Player
}

func (r Router) Play(ctx context.Context, source string, volume float64) error {
	switch source {
	case "", domain.SoundNone:
		return nil
	case domain.SoundBeep:
		return r.Bell.Play(ctx, source, volume)
	default:
		return r.File.Play(ctx, source, volume)
	}
}
