// Package node implements the scene graph node: a transformable element with
// an owned list of children, a cached world transform and optional render,
// light and skin components.
//
// World transforms are computed lazily. Writing any local transform marks the
// node and all of its descendants dirty; reading WorldTransform recomputes
// only what is dirty. A dirty node's descendants are always dirty, so marking
// stops at the first node that is already dirty.
package node

import (
	"github.com/Faultbox/trellis/internal/engine/lighting"
	"github.com/Faultbox/trellis/pkg/math"
)

// Node is an element of the scene graph.
type Node struct {
	name string

	// Local TRS. Ignored while an explicit local matrix is set.
	translation math.Vec3
	rotation    math.Quat
	scale       math.Vec3
	explicit    bool

	local      math.Mat4
	localDirty bool
	world      math.Mat4
	worldDirty bool
	recomputes int

	visible bool
	opacity float32

	// parent is a back-reference only; a node is owned by its parent's children slice.
	parent   *Node
	children []*Node

	renderable *Renderable
	light      *lighting.Light
	skin       Skinner
}

// New creates a visible, fully opaque node with an identity transform.
func New(name string) *Node {
	return &Node{
		name:       name,
		rotation:   math.QuatIdentity(),
		scale:      math.One3,
		local:      math.Identity(),
		world:      math.Identity(),
		worldDirty: true,
		visible:    true,
		opacity:    1,
	}
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// SetName renames the node.
func (n *Node) SetName(name string) { n.name = name }

// Translation returns the local translation.
func (n *Node) Translation() math.Vec3 {
	if n.explicit {
		return n.local.Translation()
	}
	return n.translation
}

// Rotation returns the local rotation set through the TRS setters.
func (n *Node) Rotation() math.Quat { return n.rotation }

// Scale returns the local scale set through the TRS setters.
func (n *Node) Scale() math.Vec3 { return n.scale }

// SetTranslation sets the local translation.
func (n *Node) SetTranslation(t math.Vec3) {
	n.translation = t
	n.trsChanged()
}

// SetRotation sets the local rotation.
func (n *Node) SetRotation(q math.Quat) {
	n.rotation = q.Normalize()
	n.trsChanged()
}

// SetEulerRotation sets the local rotation from X, Y, Z angles in radians.
func (n *Node) SetEulerRotation(x, y, z float32) {
	n.SetRotation(math.QuatFromEuler(x, y, z))
}

// SetScale sets the local scale.
func (n *Node) SetScale(s math.Vec3) {
	n.scale = s
	n.trsChanged()
}

// SetLocalTransform sets translation, rotation and scale in one write.
func (n *Node) SetLocalTransform(t math.Vec3, r math.Quat, s math.Vec3) {
	n.translation = t
	n.rotation = r.Normalize()
	n.scale = s
	n.trsChanged()
}

// Translate moves the node by d in its parent's space. An explicit local
// matrix stays explicit and keeps its rotation and scale.
func (n *Node) Translate(d math.Vec3) {
	if n.explicit {
		n.SetLocalMatrix(math.TranslateVec3(d).Mul(n.local))
		return
	}
	n.translation = n.translation.Add(d)
	n.trsChanged()
}

// Rotate applies an additional rotation about axis in the node's local space.
func (n *Node) Rotate(axis math.Vec3, angle float32) {
	n.rotation = n.rotation.Mul(math.QuatFromAxisAngle(axis.Normalize(), angle)).Normalize()
	n.trsChanged()
}

// SetLocalMatrix replaces the local transform with m. Bones use this to
// apply precomputed frame matrices. A later TRS write switches back to TRS.
func (n *Node) SetLocalMatrix(m math.Mat4) {
	n.local = m
	n.explicit = true
	n.localDirty = false
	n.markDirty()
}

func (n *Node) trsChanged() {
	n.explicit = false
	n.localDirty = true
	n.markDirty()
}

// markDirty flags this node and its descendants for world recomputation.
func (n *Node) markDirty() {
	if n.worldDirty {
		return
	}
	n.worldDirty = true
	for _, c := range n.children {
		c.markDirty()
	}
}

// LocalTransform returns the local matrix, rebuilding it from TRS if needed.
func (n *Node) LocalTransform() math.Mat4 {
	if n.localDirty {
		n.local = math.FromTRS(n.translation, n.rotation, n.scale)
		n.localDirty = false
	}
	return n.local
}

// WorldTransform returns parent.World * Local, recomputing only when dirty.
func (n *Node) WorldTransform() math.Mat4 {
	if !n.worldDirty {
		return n.world
	}
	local := n.LocalTransform()
	if n.parent != nil {
		n.world = n.parent.WorldTransform().Mul(local)
	} else {
		n.world = local
	}
	n.worldDirty = false
	n.recomputes++
	return n.world
}

// WorldPosition returns the translation component of the world transform.
func (n *Node) WorldPosition() math.Vec3 {
	return n.WorldTransform().Translation()
}

// Dirty reports whether the world transform is stale.
func (n *Node) Dirty() bool { return n.worldDirty }

// Recomputes returns how many times the world transform has been computed.
func (n *Node) Recomputes() int { return n.recomputes }

// Visible reports whether the node and its subtree are drawn.
func (n *Node) Visible() bool { return n.visible }

// SetVisible shows or hides the node and its subtree.
func (n *Node) SetVisible(v bool) { n.visible = v }

// Opacity returns the node opacity in [0, 1].
func (n *Node) Opacity() float32 { return n.opacity }

// SetOpacity sets the node opacity, clamped to [0, 1].
func (n *Node) SetOpacity(o float32) {
	switch {
	case o < 0:
		o = 0
	case o > 1:
		o = 1
	}
	n.opacity = o
}
