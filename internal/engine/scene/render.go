package scene

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/trellis/internal/engine/lighting"
	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/node"
	"github.com/Faultbox/trellis/internal/engine/renderer"
	"github.com/Faultbox/trellis/internal/engine/shadow"
	"github.com/Faultbox/trellis/pkg/math"
)

// ErrRendering is returned when Render is called while a frame is in flight,
// e.g. from an OnPhase hook.
var ErrRendering = errors.New("render already in progress")

// DefaultOcclusionAlpha is used for occludable renderables with no alpha set.
const DefaultOcclusionAlpha = 0.35

// validator is implemented by skins that must fit the device's bone limits.
type validator interface {
	Validate(caps material.Capabilities) error
}

type entry struct {
	item        renderer.Item
	depth       float32
	castsShadow bool
}

type warnKey struct {
	n      *node.Node
	reason string
}

// Render draws one frame. Renderables that cannot be drawn are skipped and
// logged; material configuration errors are also returned, joined, after the
// frame completes. Device errors abort the frame and are returned at once.
func (s *Scene) Render() error {
	if s.phase != PhaseIdle {
		return ErrRendering
	}
	defer func() { s.setPhase(PhaseIdle) }()

	s.beginTraversal()
	s.visit()
	if err := s.classify(); err != nil {
		return err
	}
	s.sortAlpha()

	lightViewProj, shadowed, err := s.shadowPass()
	if err != nil {
		return err
	}
	if err := s.mainPass(lightViewProj, shadowed); err != nil {
		return err
	}

	s.setPhase(PhaseTraverseEnd)
	s.pruneWarnings()
	s.renderer.EndFrame()
	s.stats.Renderer = s.renderer.Stats()
	return errors.Join(s.cfgErrs...)
}

func (s *Scene) beginTraversal() {
	s.setPhase(PhaseTraverseBegin)
	s.visited = s.visited[:0]
	s.opaque = s.opaque[:0]
	s.alpha = s.alpha[:0]
	s.lights = s.lights[:0]
	s.order = s.order[:0]
	s.cfgErrs = nil
	s.hasBnds = false
	s.stats = FrameStats{}
	s.renderer.BeginFrame()
}

// visit collects visible nodes in pre-order along with their lights.
func (s *Scene) visit() {
	s.setPhase(PhaseVisit)
	_ = s.root.Walk(func(n *node.Node) error {
		if !n.Visible() {
			return node.SkipChildren
		}
		s.visited = append(s.visited, n)
		if l := n.Light(); l != nil && l.Enabled {
			world := n.WorldTransform()
			s.lights = append(s.lights, lighting.Placed{
				Light:     l,
				Position:  n.WorldPosition(),
				Direction: world.TransformDirection(l.Direction).Normalize(),
			})
			if l.CastsShadows && n != s.shadowCaster {
				s.warnOnce(n, "shadow", "light flagged as shadow caster is not the scene's caster")
			}
		}
		return nil
	})
	s.stats.Visited = len(s.visited)
}

func (s *Scene) classify() error {
	s.setPhase(PhaseClassify)
	caps := s.renderer.Capabilities()
	for _, n := range s.visited {
		r := n.Renderable()
		if r == nil {
			continue
		}
		if r.Mesh == nil || r.Material == nil {
			s.stats.Skipped++
			s.warnOnce(n, "incomplete", "renderable has no mesh or material")
			continue
		}
		if tu, ok := r.Material.(material.TextureUser); ok {
			for _, t := range tu.UsedTextures() {
				if err := s.renderer.UploadTexture(t); err != nil {
					return err
				}
			}
		}
		st, err := r.Material.Prepare(caps)
		if err != nil {
			s.skipConfig(n, err)
			continue
		}

		world := n.WorldTransform()
		it := renderer.Item{Name: n.Name(), Mesh: r.Mesh, Model: world}
		if skin := n.Skin(); skin != nil {
			if v, ok := skin.(validator); ok {
				if err := v.Validate(caps); err != nil {
					s.skipConfig(n, &material.ConfigError{Material: r.Material.Name(), Err: err})
					continue
				}
			}
			it.Skin = skin.SkinBatches(world)
			if isBuiltin(st.Program) {
				st.Program = material.ProgramSkinned
			}
		}

		wb := r.Mesh.Bounds().Transform(world)
		if s.hasBnds {
			s.bounds = s.bounds.Union(wb)
		} else {
			s.bounds, s.hasBnds = wb, true
		}

		opacity := n.Opacity() * r.Material.Opacity()
		if r.Occludable && s.opts.OcclusionTesting && s.occludes(wb) {
			a := r.OcclusionAlpha
			if a <= 0 {
				a = DefaultOcclusionAlpha
			}
			opacity *= a
		}
		st.Surface.Diffuse[3] = opacity
		if r.DoubleSided {
			st.Raster.Cull = material.CullNone
		}

		e := entry{castsShadow: r.CastsShadow}
		if opacity < 1 || st.Raster.Blend || r.DoubleSided || r.Occludable {
			st.Raster.Blend = true
			st.Raster.DepthWrite = opacity >= 1
			e.depth = s.camera.ViewDepth(n.WorldPosition())
			e.item = it
			e.item.State = st
			s.alpha = append(s.alpha, e)
			continue
		}
		e.item = it
		e.item.State = st
		s.opaque = append(s.opaque, e)
	}
	s.stats.Opaque = len(s.opaque)
	s.stats.Alpha = len(s.alpha)
	return nil
}

// skipConfig logs a preparation failure. Configuration errors are kept for
// the frame result; a missing texture only skips the draw.
func (s *Scene) skipConfig(n *node.Node, err error) {
	s.stats.Skipped++
	s.warnOnce(n, "config", "material cannot be prepared", zap.Error(err))
	if errors.Is(err, material.ErrMissingTexture) {
		return
	}
	s.cfgErrs = append(s.cfgErrs, fmt.Errorf("node %s: %w", n.Path(), err))
}

// sortAlpha orders transparent entries back to front. Ties keep traversal order.
func (s *Scene) sortAlpha() {
	s.setPhase(PhaseSortAlpha)
	sort.SliceStable(s.alpha, func(i, j int) bool {
		return s.alpha[i].depth > s.alpha[j].depth
	})
}

// shadowPass renders shadow casters from the registered caster's light.
func (s *Scene) shadowPass() (math.Mat4, bool, error) {
	caster, ok := s.casterLight()
	if !ok || !s.opts.Shadows || !s.renderer.Capabilities().ShadowMaps || !s.hasBnds {
		return math.Identity(), false, nil
	}
	s.setPhase(PhaseShadow)
	lvp := shadow.ForLight(caster, s.bounds)
	err := s.renderer.BeginPass(renderer.Pass{
		Kind:          renderer.PassShadow,
		View:          math.Identity(),
		Projection:    lvp,
		LightViewProj: lvp,
	})
	if err != nil {
		return lvp, false, err
	}
	for _, list := range [][]entry{s.opaque, s.alpha} {
		for _, e := range list {
			if !e.castsShadow {
				continue
			}
			if err := s.renderer.SubmitDepth(e.item); err != nil {
				return lvp, false, err
			}
		}
	}
	if err := s.renderer.EndPass(); err != nil {
		return lvp, false, err
	}
	s.stats.Shadowed = true
	return lvp, true, nil
}

// casterLight finds the caster among this frame's visible, enabled lights.
func (s *Scene) casterLight() (lighting.Placed, bool) {
	if s.shadowCaster == nil {
		return lighting.Placed{}, false
	}
	l := s.shadowCaster.Light()
	for _, p := range s.lights {
		if p.Light == l {
			return p, true
		}
	}
	return lighting.Placed{}, false
}

func (s *Scene) mainPass(lightViewProj math.Mat4, shadowed bool) error {
	s.setPhase(PhaseSubmitOpaque)
	err := s.renderer.BeginPass(renderer.Pass{
		Kind:          renderer.PassMain,
		ClearColor:    s.opts.ClearColor,
		View:          s.camera.ViewMatrix(),
		Projection:    s.camera.ProjectionMatrix(),
		LightViewProj: lightViewProj,
		Shadowed:      shadowed,
	})
	if err != nil {
		return err
	}

	state, dropped := lighting.Pack(s.lights, s.opts.MaxLights)
	if dropped > 0 {
		s.warnOnce(s.root, "lights", "too many lights, extra lights ignored",
			zap.Int("dropped", dropped), zap.Int("limit", s.opts.MaxLights))
	}
	s.stats.Lights = state.Count
	if err := s.renderer.SetLights(state); err != nil {
		return err
	}

	if err := s.submit(s.opaque); err != nil {
		return err
	}
	s.setPhase(PhaseSubmitAlpha)
	if err := s.submit(s.alpha); err != nil {
		return err
	}
	return s.renderer.EndPass()
}

func (s *Scene) submit(list []entry) error {
	for _, e := range list {
		if err := s.renderer.Submit(e.item); err != nil {
			return err
		}
		s.order = append(s.order, e.item.Name)
	}
	return nil
}

// warnOnce logs a problem with n the first time it is seen.
func (s *Scene) warnOnce(n *node.Node, reason, msg string, fields ...zap.Field) {
	k := warnKey{n: n, reason: reason}
	if s.warned[k] {
		return
	}
	s.warned[k] = true
	s.log.Warn(msg, append(fields, zap.String("node", n.Path()))...)
}

// pruneWarnings forgets nodes that have left the scene, so a detached node
// is not kept alive and warns again if it comes back.
func (s *Scene) pruneWarnings() {
	for k := range s.warned {
		if k.n.Root() != s.root {
			delete(s.warned, k)
		}
	}
}

func isBuiltin(program string) bool {
	switch program {
	case material.ProgramUnlit, material.ProgramLit, material.ProgramTextured:
		return true
	}
	return false
}
