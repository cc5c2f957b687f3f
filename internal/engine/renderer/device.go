// Package renderer is the facade between the scene and a rendering device.
// It tracks what is bound on the device and forwards a bind only when it
// differs from the current state.
package renderer

import (
	"github.com/Faultbox/trellis/internal/engine/lighting"
	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/pkg/math"
)

// PassKind selects the render target of a pass.
type PassKind int

const (
	PassMain PassKind = iota
	PassShadow
)

func (k PassKind) String() string {
	if k == PassShadow {
		return "shadow"
	}
	return "main"
}

// Pass describes one pass over the render lists.
type Pass struct {
	Kind       PassKind
	ClearColor [4]float32
	View       math.Mat4
	Projection math.Mat4

	// LightViewProj maps world space into the shadow map. Used when Shadowed is set.
	LightViewProj math.Mat4
	Shadowed      bool
}

// Transforms are the per-draw matrices.
type Transforms struct {
	Model         math.Mat4
	View          math.Mat4
	Projection    math.Mat4
	LightViewProj math.Mat4
}

// Device is a rendering backend. Implementations must surface their errors;
// the renderer never swallows them.
type Device interface {
	Capabilities() material.Capabilities

	BeginPass(p Pass) error
	EndPass() error

	BindProgram(key string) error
	BindTexture(h material.TextureHandle) error
	BindMesh(h mesh.Handle) error
	SetRaster(r material.Raster) error
	SetMaterial(s material.Surface) error
	SetTransforms(t Transforms) error
	SetBones(palette []math.Mat4) error
	SetLights(s lighting.State) error
	Draw(count, offset int) error

	UploadMesh(d *mesh.Data) (mesh.Handle, error)
	DeleteMesh(h mesh.Handle) error
	UploadTexture(t *material.Texture) (material.TextureHandle, error)
	DeleteTexture(h material.TextureHandle) error
}
