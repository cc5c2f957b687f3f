package director

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/internal/engine/node"
	"github.com/Faultbox/trellis/internal/engine/renderer"
	"github.com/Faultbox/trellis/internal/engine/scene"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingUpdater struct {
	dts []float32
	err error
}

func (u *recordingUpdater) Update(dt float32) error {
	u.dts = append(u.dts, dt)
	return u.err
}

func newDirector(t *testing.T) (*Director, *fakeClock, *renderer.Recorder) {
	t.Helper()
	rec := renderer.NewRecorder()
	s := scene.New(renderer.New(rec), nil, scene.DefaultOptions())
	n := node.New("box")
	n.SetRenderable(&node.Renderable{
		Mesh:     mesh.Cube("box", 1),
		Material: material.NewColor("red", [4]float32{1, 0, 0, 1}),
	})
	require.NoError(t, s.Add(n))

	clock := &fakeClock{now: time.Unix(1000, 0)}
	d := New(s)
	d.Clock = clock
	return d, clock, rec
}

func TestTickUpdatesThenRenders(t *testing.T) {
	d, clock, rec := newDirector(t)
	u := &recordingUpdater{}
	d.Scene.AddUpdater(u)

	require.NoError(t, d.Tick())
	clock.Advance(20 * time.Millisecond)
	require.NoError(t, d.Tick())

	require.Len(t, u.dts, 2)
	assert.Equal(t, float32(0), u.dts[0])
	assert.InDelta(t, 0.02, u.dts[1], 1e-6)
	assert.Equal(t, 2, d.Frames())
	assert.Len(t, rec.Draws(), 2)
}

func TestTickClampsDelta(t *testing.T) {
	d, clock, _ := newDirector(t)
	u := &recordingUpdater{}
	d.Scene.AddUpdater(u)

	require.NoError(t, d.Tick())
	clock.Advance(5 * time.Second)
	require.NoError(t, d.Tick())

	assert.InDelta(t, DefaultMaxDelta.Seconds(), u.dts[1], 1e-6)
}

func TestTickCountsFPS(t *testing.T) {
	d, clock, _ := newDirector(t)
	for i := 0; i < 60; i++ {
		require.NoError(t, d.Tick())
		clock.Advance(time.Second / 50)
	}
	// Ticks at 0, 20ms ... 1000ms are in the first window.
	assert.Equal(t, 51, d.FPS())
}

func TestTickRendersPastUpdateError(t *testing.T) {
	d, _, rec := newDirector(t)
	boom := errors.New("frame out of range")
	d.Scene.AddUpdater(&recordingUpdater{err: boom})

	err := d.Tick()
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrUpdate)
	assert.Len(t, rec.Draws(), 1)
	assert.Equal(t, 1, d.Frames())
}

func TestRunContinuesPastUpdateErrors(t *testing.T) {
	d, _, _ := newDirector(t)
	d.Scene.AddUpdater(&recordingUpdater{err: errors.New("frame out of range")})

	err := d.Run(context.Background(), func() bool { return d.Frames() < 3 })
	require.NoError(t, err)
	assert.Equal(t, 3, d.Frames())
}

func TestTickDeviceErrorWinsOverUpdateError(t *testing.T) {
	d, _, rec := newDirector(t)
	d.Scene.AddUpdater(&recordingUpdater{err: errors.New("frame out of range")})
	boom := errors.New("context lost")
	rec.Fail = map[renderer.Op]error{renderer.OpBeginPass: boom}

	err := d.Tick()
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrUpdate))
	assert.Equal(t, 0, d.Frames())
}

func TestRunStopsWhenPresentFails(t *testing.T) {
	d, clock, _ := newDirector(t)
	presents := 0
	err := d.Run(context.Background(), func() bool {
		presents++
		clock.Advance(time.Second / 60)
		return presents < 3
	})
	require.NoError(t, err)
	assert.Equal(t, 3, d.Frames())
}

func TestRunStopsOnCancel(t *testing.T) {
	d, _, _ := newDirector(t)
	ctx, cancel := context.WithCancel(context.Background())
	err := d.Run(ctx, func() bool {
		if d.Frames() == 2 {
			cancel()
		}
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Frames())
}

func TestRunContinuesPastConfigErrors(t *testing.T) {
	d, _, rec := newDirector(t)
	rec.Caps.Programmable = false
	n := node.New("fancy")
	n.SetRenderable(&node.Renderable{
		Mesh:     mesh.Quad("q", 1, 1),
		Material: &material.ShaderMaterial{Label: "lava", Program: "lava", Alpha: 1},
	})
	require.NoError(t, d.Scene.Add(n))

	err := d.Run(context.Background(), func() bool { return d.Frames() < 3 })
	require.NoError(t, err)
	assert.Equal(t, 3, d.Frames())
}

func TestRunReturnsDeviceErrors(t *testing.T) {
	d, _, rec := newDirector(t)
	boom := errors.New("context lost")
	rec.Fail = map[renderer.Op]error{renderer.OpBeginPass: boom}

	err := d.Run(context.Background(), func() bool { return true })
	assert.ErrorIs(t, err, boom)
}
