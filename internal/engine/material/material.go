// Package material defines how renderables are shaded. A material is prepared
// against the device capabilities once per draw and yields a comparable State
// the renderer diffs against what is currently bound.
package material

import (
	"errors"
	"fmt"
)

var (
	// ErrProgrammableRequired is returned when a custom program is used on a
	// fixed-function device.
	ErrProgrammableRequired = errors.New("material requires a programmable pipeline")
	// ErrTooManyTextures is returned when a material binds more texture units
	// than the device provides.
	ErrTooManyTextures = errors.New("material uses more texture units than available")
	// ErrMissingTexture is returned when a textured material has no texture.
	ErrMissingTexture = errors.New("material texture is missing")
)

// ConfigError reports a material that cannot be prepared on the current device.
type ConfigError struct {
	Material string
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("material %q: %v", e.Material, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Capabilities describes what the rendering device supports.
type Capabilities struct {
	Programmable      bool
	MaxTextureUnits   int
	MaxBones          int
	MaxBonesPerVertex int
	ShadowMaps        bool
}

// Built-in program keys understood by every device.
const (
	ProgramUnlit    = "unlit"
	ProgramLit      = "lit"
	ProgramTextured = "textured"
	ProgramSkinned  = "skinned"
	ProgramDepth    = "depth"
)

// CullMode selects face culling.
type CullMode int

const (
	CullBack CullMode = iota
	CullNone
)

// Raster is the fixed-function raster state of a draw.
type Raster struct {
	Cull       CullMode
	Blend      bool
	DepthWrite bool
}

// Surface holds colour and lighting parameters.
type Surface struct {
	Ambient   [4]float32
	Diffuse   [4]float32
	Specular  [4]float32
	Emissive  [4]float32
	Shininess float32
	Lit       bool
}

// State is a prepared material. Equal states need no device calls.
type State struct {
	Program string
	Texture TextureHandle
	Raster  Raster
	Surface Surface
}

// Material is a shading description shared between renderables.
type Material interface {
	Name() string
	// Opacity is the material's own alpha in [0, 1].
	Opacity() float32
	// Prepare resolves the material against device capabilities.
	Prepare(caps Capabilities) (State, error)
}

// TextureUser is implemented by materials that sample textures. Textures
// must be uploaded before the material is prepared.
type TextureUser interface {
	UsedTextures() []*Texture
}

func configErr(name string, err error) error {
	return &ConfigError{Material: name, Err: err}
}

func raster(opaque bool) Raster {
	if opaque {
		return Raster{Cull: CullBack, DepthWrite: true}
	}
	return Raster{Cull: CullBack, Blend: true}
}
