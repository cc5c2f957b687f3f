// Package scene owns a scene graph and renders it once per frame: traverse,
// classify renderables into opaque and alpha lists, sort the alpha list back
// to front, then submit both through the renderer.
package scene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/trellis/internal/config"
	"github.com/Faultbox/trellis/internal/engine/camera"
	"github.com/Faultbox/trellis/internal/engine/lighting"
	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/internal/engine/node"
	"github.com/Faultbox/trellis/internal/engine/renderer"
	"github.com/Faultbox/trellis/internal/engine/shadow"
	"github.com/Faultbox/trellis/internal/logger"
)

// ErrNotALight is returned when a shadow caster node carries no light.
var ErrNotALight = errors.New("node has no light")

// Options controls rendering features.
type Options struct {
	ClearColor       [4]float32
	Shadows          bool
	ShadowResolution int32
	OcclusionTesting bool
	MaxLights        int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		ClearColor:       [4]float32{0.1, 0.1, 0.15, 1},
		Shadows:          true,
		ShadowResolution: shadow.DefaultResolution,
		MaxLights:        lighting.MaxLights,
	}
}

// OptionsFromConfig maps the render section of the config.
func OptionsFromConfig(cfg config.RenderConfig) Options {
	return Options{
		ClearColor:       cfg.ClearColor,
		Shadows:          cfg.Shadows,
		ShadowResolution: cfg.ShadowResolution,
		OcclusionTesting: cfg.OcclusionTesting,
		MaxLights:        cfg.MaxLights,
	}
}

// Updater is advanced once per Update, before rendering.
type Updater interface {
	Update(dt float32) error
}

// FrameStats summarises the last rendered frame.
type FrameStats struct {
	Visited  int
	Opaque   int
	Alpha    int
	Skipped  int
	Lights   int
	Shadowed bool
	Renderer renderer.Stats
}

// Scene owns the root node and everything needed to draw it.
type Scene struct {
	root     *node.Node
	camera   *camera.Camera
	renderer *renderer.Renderer
	res      *Resources
	opts     Options
	log      *zap.Logger

	phase   Phase
	onPhase func(Phase)

	updaters []Updater

	// Per-frame transient state, reset at TraverseBegin.
	visited []*node.Node
	opaque  []entry
	alpha   []entry
	lights  []lighting.Placed
	bounds  mesh.Bounds
	hasBnds bool
	order   []string
	cfgErrs []error
	stats   FrameStats

	shadowCaster *node.Node
	warned       map[warnKey]bool
}

// New creates a scene with an empty root. A nil camera gets a default one.
func New(r *renderer.Renderer, cam *camera.Camera, opts Options) *Scene {
	if cam == nil {
		cam = camera.New(nil)
	}
	s := &Scene{
		root:     node.New("root"),
		camera:   cam,
		renderer: r,
		opts:     opts,
		log:      logger.Named("scene"),
		warned:   make(map[warnKey]bool),
	}
	s.res = NewResources(r)
	return s
}

func (s *Scene) Root() *node.Node             { return s.root }
func (s *Scene) Camera() *camera.Camera       { return s.camera }
func (s *Scene) Renderer() *renderer.Renderer { return s.renderer }
func (s *Scene) Resources() *Resources        { return s.res }
func (s *Scene) Options() Options             { return s.opts }

// SetCamera replaces the active camera.
func (s *Scene) SetCamera(c *camera.Camera) {
	if c != nil {
		s.camera = c
	}
}

// SetOptions replaces the rendering options.
func (s *Scene) SetOptions(o Options) { s.opts = o }

// Add attaches n under the root.
func (s *Scene) Add(n *node.Node) error {
	return s.root.AddChild(n)
}

// AddUpdater registers u to run on every Update.
func (s *Scene) AddUpdater(u Updater) {
	s.updaters = append(s.updaters, u)
}

// Update runs the camera controller and every updater. Updater errors are
// logged and returned together; all updaters still run.
func (s *Scene) Update(dt float32) error {
	s.camera.Update(dt)
	var errs []error
	for _, u := range s.updaters {
		if err := u.Update(dt); err != nil {
			s.log.Warn("updater failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetShadowCaster makes n's light the scene's only shadow caster. The
// previous caster stops casting. A nil node clears the caster.
func (s *Scene) SetShadowCaster(n *node.Node) error {
	if n != nil && n.Light() == nil {
		return fmt.Errorf("%w: %q cannot cast shadows", ErrNotALight, n.Name())
	}
	if prev := s.shadowCaster; prev != nil && prev != n && prev.Light() != nil {
		prev.Light().CastsShadows = false
	}
	s.shadowCaster = n
	if n != nil {
		n.Light().CastsShadows = true
		s.log.Debug("shadow caster set", zap.String("node", n.Path()))
	}
	return nil
}

// ShadowCaster returns the registered shadow caster, or nil.
func (s *Scene) ShadowCaster() *node.Node { return s.shadowCaster }

// Stats returns the statistics of the last frame.
func (s *Scene) Stats() FrameStats { return s.stats }

// DrawOrder returns the node names submitted in the last main pass, in order.
func (s *Scene) DrawOrder() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Bounds returns the world bounds of the renderables seen in the last frame.
func (s *Scene) Bounds() (mesh.Bounds, bool) { return s.bounds, s.hasBnds }

// Close releases every cached resource.
func (s *Scene) Close() {
	s.res.Close()
}
