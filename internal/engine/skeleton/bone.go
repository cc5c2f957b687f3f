// Package skeleton implements frame-based skeletal animation. Bones are scene
// nodes carrying precomputed local matrices per frame; selecting a frame is a
// lookup that dirties the bone's subtree through the node transform cache.
package skeleton

import (
	"errors"
	"fmt"

	"github.com/Faultbox/trellis/internal/engine/node"
	"github.com/Faultbox/trellis/pkg/math"
)

var (
	// ErrFrameOutOfRange is returned when selecting a frame a bone does not have.
	ErrFrameOutOfRange = errors.New("frame out of range")
	// ErrBadFrameData is returned when raw frame data is not whole 4x4 matrices.
	ErrBadFrameData = errors.New("frame data must be 16 floats per frame")
	// ErrTooManyBones is returned when a skin exceeds the device bone limits.
	ErrTooManyBones = errors.New("too many bones")
)

// Bone drives a node's local transform from a list of frame matrices.
type Bone struct {
	node        *node.Node
	frames      []math.Mat4
	frame       int
	inverseBind math.Mat4
}

// NewBone wraps n. The bone has no frames until some are added.
func NewBone(n *node.Node) *Bone {
	return &Bone{node: n, frame: -1, inverseBind: math.Identity()}
}

// Node returns the scene node the bone drives.
func (b *Bone) Node() *node.Node { return b.node }

// Name returns the bone node's name.
func (b *Bone) Name() string { return b.node.Name() }

// AddFrame appends one local matrix.
func (b *Bone) AddFrame(m math.Mat4) {
	b.frames = append(b.frames, m)
}

// AddFrameData appends frames from column-major floats, 16 per frame.
func (b *Bone) AddFrameData(data []float32) error {
	if len(data) == 0 || len(data)%16 != 0 {
		return fmt.Errorf("%w: bone %q got %d floats", ErrBadFrameData, b.Name(), len(data))
	}
	for i := 0; i < len(data); i += 16 {
		m, _ := math.MatrixFromSlice(data[i : i+16])
		b.frames = append(b.frames, m)
	}
	return nil
}

// FrameCount returns the number of frames.
func (b *Bone) FrameCount() int { return len(b.frames) }

// Frame returns the selected frame, or -1 before the first SetFrame.
func (b *Bone) Frame() int { return b.frame }

// FrameMatrix returns the local matrix for frame i.
func (b *Bone) FrameMatrix(i int) (math.Mat4, error) {
	if err := b.checkFrame(i); err != nil {
		return math.Mat4{}, err
	}
	return b.frames[i], nil
}

func (b *Bone) checkFrame(i int) error {
	if i < 0 || i >= len(b.frames) {
		return fmt.Errorf("%w: bone %q frame %d of %d", ErrFrameOutOfRange, b.Name(), i, len(b.frames))
	}
	return nil
}

// SetFrame makes frame i the bone's local transform. Selecting the current
// frame again does nothing.
func (b *Bone) SetFrame(i int) error {
	if err := b.checkFrame(i); err != nil {
		return err
	}
	if i == b.frame {
		return nil
	}
	b.frame = i
	b.node.SetLocalMatrix(b.frames[i])
	return nil
}

// SetInverseBind sets the matrix taking mesh space into the bone's bind space.
func (b *Bone) SetInverseBind(m math.Mat4) { b.inverseBind = m }

// InverseBind returns the inverse bind matrix.
func (b *Bone) InverseBind() math.Mat4 { return b.inverseBind }

// SkinMatrix returns meshWorldInverse * boneWorld * inverseBind.
func (b *Bone) SkinMatrix(meshWorldInverse math.Mat4) math.Mat4 {
	return meshWorldInverse.Mul(b.node.WorldTransform()).Mul(b.inverseBind)
}
