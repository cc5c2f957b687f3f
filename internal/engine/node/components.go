package node

import (
	"github.com/Faultbox/trellis/internal/engine/lighting"
	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/pkg/math"
)

// Renderable makes a node drawable. Mesh and Material are shared and owned
// by the scene's resource caches.
type Renderable struct {
	Mesh     *mesh.Mesh
	Material material.Material

	DoubleSided bool

	// Occludable nodes are drawn with OcclusionAlpha when they block the
	// camera's view of its target.
	Occludable     bool
	OcclusionAlpha float32

	CastsShadow bool
}

// SkinBatch is a partition of a skinned mesh drawn with one bone palette.
type SkinBatch struct {
	IndexOffset int
	IndexCount  int
	Palette     []math.Mat4
}

// Skinner supplies per-batch bone palettes for a skinned renderable.
type Skinner interface {
	SkinBatches(meshWorld math.Mat4) []SkinBatch
}

// Renderable returns the render component, or nil.
func (n *Node) Renderable() *Renderable { return n.renderable }

// SetRenderable attaches or clears the render component.
func (n *Node) SetRenderable(r *Renderable) { n.renderable = r }

// Light returns the light component, or nil.
func (n *Node) Light() *lighting.Light { return n.light }

// SetLight attaches or clears the light component.
func (n *Node) SetLight(l *lighting.Light) { n.light = l }

// Skin returns the skin component, or nil.
func (n *Node) Skin() Skinner { return n.skin }

// SetSkin attaches or clears the skin component.
func (n *Node) SetSkin(s Skinner) { n.skin = s }
