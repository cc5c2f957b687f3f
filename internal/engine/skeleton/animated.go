package skeleton

import (
	"fmt"

	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/node"
	"github.com/Faultbox/trellis/pkg/math"
)

// BoneBatch is a mesh partition whose vertices reference the same bones.
type BoneBatch struct {
	IndexOffset int
	IndexCount  int
	Bones       []*Bone
}

// Palette returns the skinning matrix of every bone in batch order.
func (bb *BoneBatch) Palette(meshWorldInverse math.Mat4) []math.Mat4 {
	out := make([]math.Mat4, len(bb.Bones))
	for i, b := range bb.Bones {
		out[i] = b.SkinMatrix(meshWorldInverse)
	}
	return out
}

// AnimatedMesh is the skin of a renderable node. Frames are broadcast to the
// bones of every batch.
type AnimatedMesh struct {
	node           *node.Node
	batches        []*BoneBatch
	bonesPerVertex int
	frame          int
}

// NewAnimatedMesh attaches a skin to n.
func NewAnimatedMesh(n *node.Node, bonesPerVertex int) *AnimatedMesh {
	am := &AnimatedMesh{node: n, bonesPerVertex: bonesPerVertex, frame: -1}
	n.SetSkin(am)
	return am
}

// Node returns the skinned node.
func (am *AnimatedMesh) Node() *node.Node { return am.node }

// BonesPerVertex returns the number of bone influences per vertex.
func (am *AnimatedMesh) BonesPerVertex() int { return am.bonesPerVertex }

// AddBatch appends a bone batch.
func (am *AnimatedMesh) AddBatch(bb *BoneBatch) { am.batches = append(am.batches, bb) }

// Batches returns the bone batches.
func (am *AnimatedMesh) Batches() []*BoneBatch { return am.batches }

// Bones returns every distinct bone in first-seen order.
func (am *AnimatedMesh) Bones() []*Bone {
	seen := make(map[*Bone]bool)
	var out []*Bone
	for _, bb := range am.batches {
		for _, b := range bb.Bones {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	return out
}

// FrameCount returns the frames every bone can show, the minimum over bones.
func (am *AnimatedMesh) FrameCount() int {
	bones := am.Bones()
	if len(bones) == 0 {
		return 0
	}
	n := bones[0].FrameCount()
	for _, b := range bones[1:] {
		n = min(n, b.FrameCount())
	}
	return n
}

// Frame returns the last frame set, or -1.
func (am *AnimatedMesh) Frame() int { return am.frame }

// SetFrame selects frame i on every bone. All bones are checked first so an
// out-of-range frame leaves the pose untouched.
func (am *AnimatedMesh) SetFrame(i int) error {
	bones := am.Bones()
	for _, b := range bones {
		if err := b.checkFrame(i); err != nil {
			return err
		}
	}
	for _, b := range bones {
		if err := b.SetFrame(i); err != nil {
			return err
		}
	}
	am.frame = i
	return nil
}

// Validate checks the skin against device bone limits.
func (am *AnimatedMesh) Validate(caps material.Capabilities) error {
	if caps.MaxBonesPerVertex > 0 && am.bonesPerVertex > caps.MaxBonesPerVertex {
		return fmt.Errorf("%w: %d influences per vertex, device allows %d", ErrTooManyBones, am.bonesPerVertex, caps.MaxBonesPerVertex)
	}
	for i, bb := range am.batches {
		if caps.MaxBones > 0 && len(bb.Bones) > caps.MaxBones {
			return fmt.Errorf("%w: batch %d has %d bones, device allows %d", ErrTooManyBones, i, len(bb.Bones), caps.MaxBones)
		}
	}
	return nil
}

// SkinBatches returns the per-batch palettes relative to the mesh's world transform.
func (am *AnimatedMesh) SkinBatches(meshWorld math.Mat4) []node.SkinBatch {
	inv := meshWorld.Inverse()
	out := make([]node.SkinBatch, len(am.batches))
	for i, bb := range am.batches {
		out[i] = node.SkinBatch{
			IndexOffset: bb.IndexOffset,
			IndexCount:  bb.IndexCount,
			Palette:     bb.Palette(inv),
		}
	}
	return out
}
