// Package director drives the frame loop: update the scene, render it,
// present, repeat.
package director

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/scene"
	"github.com/Faultbox/trellis/internal/logger"
)

// ErrUpdate marks a tick whose scene update failed. The frame is still
// rendered with whatever state the update left.
var ErrUpdate = errors.New("scene update failed")

// DefaultMaxDelta caps the step after a stall such as a window drag.
const DefaultMaxDelta = 250 * time.Millisecond

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Director owns the frame loop of one scene.
type Director struct {
	Scene    *scene.Scene
	Clock    Clock
	MaxDelta time.Duration

	log *zap.Logger

	last     time.Time
	started  bool
	frames   int
	fpsCount int
	fpsSince time.Time
	fps      int
	reported bool
}

// New creates a director over s using the wall clock.
func New(s *scene.Scene) *Director {
	return &Director{
		Scene:    s,
		Clock:    wallClock{},
		MaxDelta: DefaultMaxDelta,
		log:      logger.Named("director"),
	}
}

// Frames returns the number of completed ticks.
func (d *Director) Frames() int { return d.frames }

// FPS returns the frame count of the last full second.
func (d *Director) FPS() int { return d.fps }

// Tick advances one frame: Update with the elapsed time, then Render. The
// first tick uses dt = 0. Update failures and material configuration errors
// are returned after the frame is drawn; device errors are returned at once.
func (d *Director) Tick() error {
	now := d.Clock.Now()
	var dt time.Duration
	if d.started {
		dt = now.Sub(d.last)
	} else {
		d.started = true
		d.fpsSince = now
	}
	d.last = now
	if dt < 0 {
		dt = 0
	}
	if d.MaxDelta > 0 && dt > d.MaxDelta {
		d.log.Debug("frame delta clamped", zap.Duration("dt", dt), zap.Duration("max", d.MaxDelta))
		dt = d.MaxDelta
	}

	var updateErr error
	if err := d.Scene.Update(float32(dt.Seconds())); err != nil {
		updateErr = fmt.Errorf("%w: %w", ErrUpdate, err)
	}
	renderErr := d.Scene.Render()
	if renderErr != nil {
		renderErr = fmt.Errorf("render: %w", renderErr)
		if !isConfigError(renderErr) {
			return renderErr
		}
	}

	d.frames++
	d.fpsCount++
	if now.Sub(d.fpsSince) >= time.Second {
		d.fps = d.fpsCount
		d.log.Debug("fps", zap.Int("count", d.fps), zap.Float64("dt_ms", float64(dt)/float64(time.Millisecond)))
		d.fpsCount = 0
		d.fpsSince = now
	}
	return errors.Join(updateErr, renderErr)
}

// isConfigError reports whether err carries material configuration errors.
// Those are reported after a completed frame.
func isConfigError(err error) bool {
	var cfgErr *material.ConfigError
	return errors.As(err, &cfgErr)
}

// recoverable reports whether a Tick error left a completed frame behind.
func recoverable(err error) bool {
	return errors.Is(err, ErrUpdate) || isConfigError(err)
}

// Run ticks until ctx is done or present returns false. Update failures and
// material configuration errors are logged once and the loop continues; any
// other error stops it.
func (d *Director) Run(ctx context.Context, present func() bool) error {
	d.log.Info("starting frame loop")
	for {
		select {
		case <-ctx.Done():
			d.log.Info("frame loop stopped", zap.Int("frames", d.frames))
			return nil
		default:
		}

		if err := d.Tick(); err != nil {
			if !recoverable(err) {
				return err
			}
			if !d.reported {
				d.log.Warn("frame completed with errors", zap.Error(err))
				d.reported = true
			}
		}

		if present != nil && !present() {
			d.log.Info("frame loop stopped", zap.Int("frames", d.frames))
			return nil
		}
	}
}
