package renderer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/trellis/internal/engine/lighting"
	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/internal/engine/node"
	"github.com/Faultbox/trellis/internal/logger"
	"github.com/Faultbox/trellis/pkg/math"
)

var (
	// ErrNoPass is returned when drawing outside BeginPass/EndPass.
	ErrNoPass = errors.New("draw outside of a pass")
	// ErrNotUploaded is returned when binding geometry with no device handle.
	ErrNotUploaded = errors.New("resource not uploaded")
)

// Item is one draw submitted by the scene.
type Item struct {
	Name  string
	Mesh  *mesh.Mesh
	State material.State
	Model math.Mat4
	Skin  []node.SkinBatch
}

// bound mirrors the device state. The has* flags are false after Invalidate.
type bound struct {
	program    string
	texture    material.TextureHandle
	mesh       mesh.Handle
	raster     material.Raster
	surface    material.Surface
	hasProgram bool
	hasTexture bool
	hasMesh    bool
	hasRaster  bool
	hasSurface bool
}

// Renderer forwards binds and draws to a Device, skipping redundant binds.
// Bound state survives across frames.
type Renderer struct {
	dev  Device
	caps material.Capabilities
	log  *zap.Logger

	bound bound
	pass  *Pass

	stats  Stats
	totals Stats
	frames int
}

// New creates a renderer over dev.
func New(dev Device) *Renderer {
	return &Renderer{
		dev:  dev,
		caps: dev.Capabilities(),
		log:  logger.Named("renderer"),
	}
}

// Device returns the backend.
func (r *Renderer) Device() Device { return r.dev }

// Capabilities returns the backend capabilities.
func (r *Renderer) Capabilities() material.Capabilities { return r.caps }

// BeginFrame resets the per-frame counters.
func (r *Renderer) BeginFrame() {
	r.stats = Stats{}
}

// EndFrame folds the frame's counters into the totals.
func (r *Renderer) EndFrame() {
	r.totals = r.totals.Add(r.stats)
	r.frames++
}

// Stats returns the counters of the current or last frame.
func (r *Renderer) Stats() Stats { return r.stats }

// Totals returns counters accumulated over all finished frames.
func (r *Renderer) Totals() Stats { return r.totals }

// Frames returns the number of finished frames.
func (r *Renderer) Frames() int { return r.frames }

// Invalidate forgets the bound state so the next binds are all forwarded.
// Call it when something else has touched the device.
func (r *Renderer) Invalidate() {
	r.bound = bound{}
}

// BeginPass starts a pass. Pass targets change framebuffer state, so the
// raster state is re-sent on the first draw.
func (r *Renderer) BeginPass(p Pass) error {
	if err := r.dev.BeginPass(p); err != nil {
		return fmt.Errorf("begin %s pass: %w", p.Kind, err)
	}
	r.pass = &p
	r.bound.hasRaster = false
	r.stats.Passes++
	return nil
}

// EndPass finishes the current pass.
func (r *Renderer) EndPass() error {
	if r.pass == nil {
		return ErrNoPass
	}
	kind := r.pass.Kind
	r.pass = nil
	if err := r.dev.EndPass(); err != nil {
		return fmt.Errorf("end %s pass: %w", kind, err)
	}
	return nil
}

// SetLights uploads the frame's light block.
func (r *Renderer) SetLights(s lighting.State) error {
	if err := r.dev.SetLights(s); err != nil {
		return fmt.Errorf("set lights: %w", err)
	}
	return nil
}

// BindMaterial makes s current, forwarding only the parts that changed.
func (r *Renderer) BindMaterial(s material.State) error {
	b := &r.bound
	if !b.hasProgram || b.program != s.Program {
		if err := r.dev.BindProgram(s.Program); err != nil {
			return fmt.Errorf("bind program %q: %w", s.Program, err)
		}
		b.program, b.hasProgram = s.Program, true
		r.stats.ProgramChanges++
	}
	if !b.hasTexture || b.texture != s.Texture {
		if err := r.dev.BindTexture(s.Texture); err != nil {
			return fmt.Errorf("bind texture %d: %w", s.Texture, err)
		}
		b.texture, b.hasTexture = s.Texture, true
		r.stats.TextureChanges++
	}
	if !b.hasRaster || b.raster != s.Raster {
		if err := r.dev.SetRaster(s.Raster); err != nil {
			return fmt.Errorf("set raster: %w", err)
		}
		b.raster, b.hasRaster = s.Raster, true
		r.stats.RasterChanges++
	}
	if !b.hasSurface || b.surface != s.Surface {
		if err := r.dev.SetMaterial(s.Surface); err != nil {
			return fmt.Errorf("set material: %w", err)
		}
		b.surface, b.hasSurface = s.Surface, true
		r.stats.MaterialChanges++
	}
	return nil
}

// UploadMesh sends m to the device if it has no handle yet.
func (r *Renderer) UploadMesh(m *mesh.Mesh) error {
	if m.Uploaded() {
		return nil
	}
	h, err := r.dev.UploadMesh(m.Data())
	if err != nil {
		return fmt.Errorf("upload mesh %q: %w", m.Name(), err)
	}
	m.SetHandle(h)
	r.log.Debug("mesh uploaded", zap.String("mesh", m.Name()), zap.Uint32("handle", uint32(h)))
	return nil
}

// ReleaseMesh deletes m's device geometry.
func (r *Renderer) ReleaseMesh(m *mesh.Mesh) error {
	if !m.Uploaded() {
		return nil
	}
	h := m.Handle()
	if r.bound.hasMesh && r.bound.mesh == h {
		r.bound.hasMesh = false
	}
	m.SetHandle(0)
	if err := r.dev.DeleteMesh(h); err != nil {
		return fmt.Errorf("delete mesh %q: %w", m.Name(), err)
	}
	return nil
}

// UploadTexture sends t to the device if it has no handle yet.
func (r *Renderer) UploadTexture(t *material.Texture) error {
	if t == nil || t.Handle() != 0 {
		return nil
	}
	h, err := r.dev.UploadTexture(t)
	if err != nil {
		return fmt.Errorf("upload texture %q: %w", t.Name(), err)
	}
	t.SetHandle(h)
	return nil
}

// ReleaseTexture deletes t's device image.
func (r *Renderer) ReleaseTexture(t *material.Texture) error {
	if t == nil || t.Handle() == 0 {
		return nil
	}
	h := t.Handle()
	if r.bound.hasTexture && r.bound.texture == h {
		r.bound.hasTexture = false
	}
	t.SetHandle(0)
	if err := r.dev.DeleteTexture(h); err != nil {
		return fmt.Errorf("delete texture %q: %w", t.Name(), err)
	}
	return nil
}

// BindMesh makes m the current geometry, uploading it first if needed.
func (r *Renderer) BindMesh(m *mesh.Mesh) error {
	if err := r.UploadMesh(m); err != nil {
		return err
	}
	h := m.Handle()
	if h == 0 {
		return fmt.Errorf("%w: mesh %q", ErrNotUploaded, m.Name())
	}
	if r.bound.hasMesh && r.bound.mesh == h {
		return nil
	}
	if err := r.dev.BindMesh(h); err != nil {
		return fmt.Errorf("bind mesh %q: %w", m.Name(), err)
	}
	r.bound.mesh, r.bound.hasMesh = h, true
	r.stats.MeshChanges++
	return nil
}

// Draw issues a draw of count elements starting at offset.
func (r *Renderer) Draw(count, offset int) error {
	if r.pass == nil {
		return ErrNoPass
	}
	if err := r.dev.Draw(count, offset); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	r.stats.DrawCalls++
	r.stats.Elements += count
	return nil
}

// Submit binds the item's material and mesh and draws it. Skinned items draw
// once per bone batch with that batch's palette.
func (r *Renderer) Submit(it Item) error {
	if r.pass == nil {
		return ErrNoPass
	}
	if err := r.BindMaterial(it.State); err != nil {
		return err
	}
	return r.drawGeometry(it)
}

// SubmitDepth draws the item into the shadow pass with the depth program.
func (r *Renderer) SubmitDepth(it Item) error {
	if r.pass == nil {
		return ErrNoPass
	}
	depth := material.State{
		Program: material.ProgramDepth,
		Raster:  material.Raster{Cull: material.CullBack, DepthWrite: true},
	}
	if err := r.BindMaterial(depth); err != nil {
		return err
	}
	return r.drawGeometry(it)
}

func (r *Renderer) drawGeometry(it Item) error {
	if err := r.BindMesh(it.Mesh); err != nil {
		return err
	}
	t := Transforms{
		Model:         it.Model,
		View:          r.pass.View,
		Projection:    r.pass.Projection,
		LightViewProj: r.pass.LightViewProj,
	}
	if err := r.dev.SetTransforms(t); err != nil {
		return fmt.Errorf("set transforms for %q: %w", it.Name, err)
	}
	if len(it.Skin) == 0 {
		return r.Draw(it.Mesh.DrawCount(), 0)
	}
	for _, batch := range it.Skin {
		if err := r.dev.SetBones(batch.Palette); err != nil {
			return fmt.Errorf("set bones for %q: %w", it.Name, err)
		}
		r.stats.BoneUploads++
		if err := r.Draw(batch.IndexCount, batch.IndexOffset); err != nil {
			return err
		}
	}
	return nil
}
