package node

import (
	"errors"
	gomath "math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/trellis/pkg/math"
)

const eps = 1e-5

func chain(t *testing.T, names ...string) []*Node {
	t.Helper()
	nodes := make([]*Node, len(names))
	for i, name := range names {
		nodes[i] = New(name)
		if i > 0 {
			require.NoError(t, nodes[i-1].AddChild(nodes[i]))
		}
	}
	return nodes
}

func TestWorldTransformComposesHierarchy(t *testing.T) {
	n := chain(t, "root", "a", "b")
	root, a, b := n[0], n[1], n[2]

	a.SetTranslation(math.Vec3{X: 1})
	b.SetTranslation(math.Vec3{Y: 2})

	assert.True(t, b.WorldPosition().ApproxEqual(math.Vec3{X: 1, Y: 2}, eps), "got %v", b.WorldPosition())

	want := root.WorldTransform().Mul(a.LocalTransform()).Mul(b.LocalTransform())
	assert.True(t, b.WorldTransform().ApproxEqual(want, eps))
}

func TestWorldTransformIsCached(t *testing.T) {
	n := chain(t, "root", "a", "b")
	b := n[2]

	first := b.WorldTransform()
	count := b.Recomputes()
	require.Equal(t, 1, count)

	second := b.WorldTransform()
	assert.Equal(t, first, second)
	assert.Equal(t, count, b.Recomputes(), "clean read must not recompute")
}

func TestSetterDirtiesSubtreeOnly(t *testing.T) {
	n := chain(t, "root", "a", "b")
	root, a, b := n[0], n[1], n[2]
	sibling := New("sibling")
	require.NoError(t, root.AddChild(sibling))

	b.WorldTransform()
	sibling.WorldTransform()
	require.False(t, root.Dirty())
	require.False(t, b.Dirty())

	a.SetTranslation(math.Vec3{Z: 3})
	assert.True(t, a.Dirty())
	assert.True(t, b.Dirty())
	assert.False(t, root.Dirty())
	assert.False(t, sibling.Dirty())

	before := b.Recomputes()
	assert.True(t, b.WorldPosition().ApproxEqual(math.Vec3{Z: 3}, eps))
	assert.Equal(t, before+1, b.Recomputes())
}

func TestDirtyDescendantsInvariant(t *testing.T) {
	n := chain(t, "root", "a", "b", "c")
	n[3].WorldTransform()

	// b is dirtied first; the later write on a stops at b.
	n[2].SetScale(math.Vec3{X: 2, Y: 2, Z: 2})
	n[1].SetTranslation(math.Vec3{X: 1})

	n[0].Walk(func(c *Node) error {
		if c.Dirty() {
			for _, d := range c.Children() {
				assert.True(t, d.Dirty(), "%s dirty but child %s clean", c.Name(), d.Name())
			}
		}
		return nil
	})
	assert.True(t, n[3].WorldPosition().ApproxEqual(math.Vec3{X: 1}, eps))
}

func TestRotateAndScale(t *testing.T) {
	n := chain(t, "root", "arm", "hand")
	arm, hand := n[1], n[2]

	arm.SetEulerRotation(0, 0, gomath.Pi/2)
	arm.SetScale(math.Vec3{X: 2, Y: 2, Z: 2})
	hand.SetTranslation(math.Vec3{X: 1})

	// +X rotated 90 degrees about Z becomes +Y, then scaled by 2.
	assert.True(t, hand.WorldPosition().ApproxEqual(math.Vec3{Y: 2}, eps), "got %v", hand.WorldPosition())
}

func TestSetLocalMatrix(t *testing.T) {
	n := chain(t, "root", "bone", "tip")
	bone, tip := n[1], n[2]
	tip.SetTranslation(math.Vec3{Y: 1})
	tip.WorldTransform()

	bone.SetLocalMatrix(math.Translate(5, 0, 0))
	assert.True(t, tip.Dirty())
	assert.True(t, tip.WorldPosition().ApproxEqual(math.Vec3{X: 5, Y: 1}, eps))
	assert.Equal(t, math.Vec3{X: 5}, bone.Translation())

	bone.Translate(math.Vec3{X: 1})
	assert.True(t, tip.WorldPosition().ApproxEqual(math.Vec3{X: 6, Y: 1}, eps))
}

func TestTranslateKeepsExplicitPose(t *testing.T) {
	n := chain(t, "root", "bone", "tip")
	bone, tip := n[1], n[2]
	tip.SetTranslation(math.Vec3{X: 1})

	pose := math.RotateZ(gomath.Pi / 2).Mul(math.Scale(2, 2, 2))
	bone.SetLocalMatrix(pose)
	require.True(t, tip.WorldPosition().ApproxEqual(math.Vec3{Y: 2}, eps))

	bone.Translate(math.Vec3{X: 1})

	want := math.Translate(1, 0, 0).Mul(pose)
	assert.True(t, bone.LocalTransform().ApproxEqual(want, eps),
		"got %v, want %v", bone.LocalTransform(), want)
	assert.True(t, bone.Translation().ApproxEqual(math.Vec3{X: 1}, eps))
	assert.True(t, tip.WorldPosition().ApproxEqual(math.Vec3{X: 1, Y: 2}, eps))

	// A TRS write still switches the bone back to TRS.
	bone.SetTranslation(math.Vec3{})
	assert.True(t, bone.LocalTransform().ApproxEqual(math.Identity(), eps))
}

func TestAddChildErrors(t *testing.T) {
	n := chain(t, "root", "a", "b")
	root, a, b := n[0], n[1], n[2]

	tests := []struct {
		name   string
		parent *Node
		child  *Node
		want   error
	}{
		{"nil child", root, nil, ErrNilNode},
		{"self", a, a, ErrCycle},
		{"ancestor under descendant", b, root, ErrCycle},
		{"parent under child", b, a, ErrCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parent.AddChild(tt.child)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	// Rejected insertions leave the tree unchanged.
	assert.Equal(t, root, a.Parent())
	assert.Equal(t, a, b.Parent())
	assert.Nil(t, root.Parent())
}

func TestReparentDetachesFirst(t *testing.T) {
	root := New("root")
	left, right, leaf := New("left"), New("right"), New("leaf")
	require.NoError(t, root.AddChild(left))
	require.NoError(t, root.AddChild(right))
	require.NoError(t, left.AddChild(leaf))

	left.SetTranslation(math.Vec3{X: -1})
	right.SetTranslation(math.Vec3{X: 1})
	require.True(t, leaf.WorldPosition().ApproxEqual(math.Vec3{X: -1}, eps))

	require.NoError(t, right.AddChild(leaf))
	assert.Equal(t, 0, left.ChildCount())
	assert.Equal(t, 1, right.ChildCount())
	assert.Equal(t, right, leaf.Parent())
	assert.True(t, leaf.WorldPosition().ApproxEqual(math.Vec3{X: 1}, eps))
}

func TestRemoveChild(t *testing.T) {
	n := chain(t, "root", "a", "b")
	root, a, b := n[0], n[1], n[2]
	a.SetTranslation(math.Vec3{X: 4})
	b.SetTranslation(math.Vec3{Y: 1})

	err := root.RemoveChild(b)
	assert.True(t, errors.Is(err, ErrNotChild))

	require.NoError(t, root.RemoveChild(a))
	assert.Nil(t, a.Parent())
	assert.Equal(t, 0, root.ChildCount())
	// The removed subtree is intact and now its own root.
	assert.Equal(t, a, b.Parent())
	assert.True(t, b.WorldPosition().ApproxEqual(math.Vec3{X: 4, Y: 1}, eps))

	a.Detach()
	assert.Nil(t, a.Parent())
}

func TestWalkPreOrderAndSkip(t *testing.T) {
	root := New("root")
	a, b, c, d := New("a"), New("b"), New("c"), New("d")
	require.NoError(t, root.AddChild(a))
	require.NoError(t, a.AddChild(b))
	require.NoError(t, root.AddChild(c))
	require.NoError(t, c.AddChild(d))

	var order []string
	require.NoError(t, root.Walk(func(n *Node) error {
		order = append(order, n.Name())
		return nil
	}))
	assert.Equal(t, []string{"root", "a", "b", "c", "d"}, order)

	order = order[:0]
	require.NoError(t, root.Walk(func(n *Node) error {
		order = append(order, n.Name())
		if n == a {
			return SkipChildren
		}
		return nil
	}))
	assert.Equal(t, []string{"root", "a", "c", "d"}, order)

	stop := errors.New("stop")
	err := root.Walk(func(n *Node) error {
		if n == c {
			return stop
		}
		return nil
	})
	assert.Equal(t, stop, err)
}

func TestLookupHelpers(t *testing.T) {
	n := chain(t, "world", "body", "head")
	assert.Equal(t, n[2], n[0].FindByName("head"))
	assert.Nil(t, n[0].FindByName("tail"))
	assert.Equal(t, "/world/body/head", n[2].Path())
	assert.Equal(t, n[0], n[2].Root())
	assert.True(t, n[0].IsAncestorOf(n[2]))
	assert.False(t, n[2].IsAncestorOf(n[0]))
	assert.Equal(t, "world\n  body\n    head\n", n[0].String())
}

func TestOpacityClamped(t *testing.T) {
	n := New("n")
	assert.Equal(t, float32(1), n.Opacity())
	n.SetOpacity(1.5)
	assert.Equal(t, float32(1), n.Opacity())
	n.SetOpacity(-2)
	assert.Equal(t, float32(0), n.Opacity())
	n.SetOpacity(0.25)
	assert.Equal(t, float32(0.25), n.Opacity())
}

func TestRandomMutationsKeepWorldInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	f := func(lo, hi float32) float32 { return lo + rng.Float32()*(hi-lo) }
	randTRS := func() (math.Vec3, math.Quat, math.Vec3) {
		tr := math.Vec3{X: f(-3, 3), Y: f(-3, 3), Z: f(-3, 3)}
		rot := math.QuatFromEuler(f(-gomath.Pi, gomath.Pi), f(-gomath.Pi, gomath.Pi), f(-gomath.Pi, gomath.Pi))
		sc := math.Vec3{X: f(0.8, 1.25), Y: f(0.8, 1.25), Z: f(0.8, 1.25)}
		return tr, rot, sc
	}

	for shape := 0; shape < 5; shape++ {
		nodes := make([]*Node, 10+rng.Intn(10))
		for i := range nodes {
			nodes[i] = New("n")
			if i > 0 {
				require.NoError(t, nodes[rng.Intn(i)].AddChild(nodes[i]))
			}
		}

		for step := 0; step < 300; step++ {
			n := nodes[rng.Intn(len(nodes))]
			switch rng.Intn(6) {
			case 0:
				n.SetLocalTransform(randTRS())
			case 1:
				n.SetLocalMatrix(math.FromTRS(randTRS()))
			case 2:
				n.Translate(math.Vec3{X: f(-1, 1), Y: f(-1, 1), Z: f(-1, 1)})
			case 3:
				n.Rotate(math.Vec3{X: f(-1, 1), Y: 1, Z: f(-1, 1)}, f(-1, 1))
			case 4:
				p := nodes[rng.Intn(len(nodes))]
				err := p.AddChild(n)
				if p == n || n.IsAncestorOf(p) {
					require.ErrorIs(t, err, ErrCycle)
				} else {
					require.NoError(t, err)
					require.Same(t, p, n.Parent())
				}
			case 5:
				n.Detach()
				require.Nil(t, n.Parent())
			}

			// Leave some mutations unread so dirty state accumulates.
			if rng.Intn(3) == 0 {
				continue
			}
			checkTree(t, nodes)
		}
		checkTree(t, nodes)
	}
}

// checkTree asserts World == parent.World * Local for every node and that
// each node is listed by exactly the parent it reports.
func checkTree(t *testing.T, nodes []*Node) {
	t.Helper()
	listed := make(map[*Node]int)
	for _, n := range nodes {
		for _, c := range n.Children() {
			listed[c]++
			require.Same(t, n, c.Parent(), "child lists a different parent")
		}
	}
	for _, n := range nodes {
		want := n.LocalTransform()
		if p := n.Parent(); p != nil {
			require.Equal(t, 1, listed[n], "node listed by %d parents", listed[n])
			want = p.WorldTransform().Mul(want)
		} else {
			require.Zero(t, listed[n], "detached node still listed as a child")
		}
		got := n.WorldTransform()
		require.True(t, got.ApproxEqual(want, 1e-3), "world %v, want %v", got, want)
		require.False(t, n.Dirty())
	}
}
