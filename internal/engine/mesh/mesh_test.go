package mesh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/trellis/pkg/math"
)

func TestFormatLayout(t *testing.T) {
	f := Position | Normal | UV
	assert.Equal(t, 8, f.Floats())
	assert.Equal(t, 32, f.Stride())
	assert.Equal(t, "PNU", f.String())

	attrs := f.Attributes()
	require.Len(t, attrs, 3)
	assert.Equal(t, Attribute{Kind: Position, Location: 0, Components: 3, Offset: 0}, attrs[0])
	assert.Equal(t, Attribute{Kind: Normal, Location: 1, Components: 3, Offset: 12}, attrs[1])
	assert.Equal(t, Attribute{Kind: UV, Location: 2, Components: 2, Offset: 24}, attrs[2])

	skinned := Position | BoneIndices | BoneWeights
	attrs = skinned.Attributes()
	require.Len(t, attrs, 3)
	assert.Equal(t, uint32(4), attrs[1].Location)
	assert.Equal(t, 28, attrs[2].Offset)
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name string
		data *Data
	}{
		{"nil data", nil},
		{"no positions", &Data{Format: Normal, Vertices: []float32{0, 0, 1}}},
		{"ragged vertices", &Data{Format: Position, Vertices: []float32{0, 0, 0, 1}}},
		{"empty", &Data{Format: Position}},
		{"index out of range", &Data{Format: Position, Vertices: []float32{0, 0, 0}, Indices: []uint32{0, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("bad", tt.data)
			assert.True(t, errors.Is(err, ErrInvalidData), "got %v", err)
		})
	}
}

func TestQuadAndCube(t *testing.T) {
	q := Quad("quad", 2, 4)
	require.NotNil(t, q)
	assert.Equal(t, 4, q.VertexCount())
	assert.Equal(t, 6, q.DrawCount())
	assert.Equal(t, math.Vec3{X: -1, Y: -2}, q.Bounds().Min)
	assert.Equal(t, math.Vec3{X: 1, Y: 2}, q.Bounds().Max)
	assert.False(t, q.Uploaded())

	c := Cube("cube", 2)
	require.NotNil(t, c)
	assert.Equal(t, 24, c.VertexCount())
	assert.Equal(t, 36, c.IndexCount())
	assert.Equal(t, math.Vec3{}, c.Bounds().Center)
	assert.InDelta(t, 1.7320508, c.Bounds().Radius, 1e-5)
}

func TestBoundsTransform(t *testing.T) {
	b := NewBounds(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})
	moved := b.Transform(math.Translate(0, 0, -5).Mul(math.Scale(1, 3, 1)))
	assert.True(t, moved.Center.ApproxEqual(math.Vec3{Z: -5}, 1e-5))
	assert.InDelta(t, b.Radius*3, moved.Radius, 1e-5)

	u := b.Union(NewBounds(math.Vec3{X: 2}, math.Vec3{X: 4, Y: 1}))
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: -1}, u.Min)
	assert.Equal(t, math.Vec3{X: 4, Y: 1, Z: 1}, u.Max)
}

func TestBoxWireframe(t *testing.T) {
	lines := BoxWireframe(NewBounds(math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1}))
	assert.Len(t, lines, 24*3)
}
