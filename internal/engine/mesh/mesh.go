// Package mesh describes geometry shared between scene nodes: vertex layout,
// bounds and the opaque device handle assigned on upload.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/trellis/pkg/math"
)

// ErrInvalidData is returned when vertex or index data does not match the format.
var ErrInvalidData = errors.New("invalid mesh data")

// Handle identifies geometry uploaded to a device. Zero means not uploaded.
type Handle uint32

// Data is CPU-side interleaved geometry handed to a device for upload.
type Data struct {
	Format   Format
	Vertices []float32
	Indices  []uint32
}

// VertexCount returns the number of vertices in the data.
func (d *Data) VertexCount() int {
	if n := d.Format.Floats(); n > 0 {
		return len(d.Vertices) / n
	}
	return 0
}

// Bounds is an axis-aligned box with its enclosing sphere.
type Bounds struct {
	Min, Max math.Vec3
	Center   math.Vec3
	Radius   float32
}

// NewBounds builds bounds from corner points.
func NewBounds(lo, hi math.Vec3) Bounds {
	center := lo.Add(hi).Scale(0.5)
	return Bounds{
		Min:    lo,
		Max:    hi,
		Center: center,
		Radius: hi.Sub(center).Length(),
	}
}

// Transform returns the bounding sphere moved by m. The radius grows by the
// largest axis scale so the sphere stays conservative.
func (b Bounds) Transform(m math.Mat4) Bounds {
	c := m.TransformVec3(b.Center)
	sx := math.Vec3{X: m[0], Y: m[1], Z: m[2]}.Length()
	sy := math.Vec3{X: m[4], Y: m[5], Z: m[6]}.Length()
	sz := math.Vec3{X: m[8], Y: m[9], Z: m[10]}.Length()
	r := b.Radius * max(sx, sy, sz)
	ext := math.Vec3{X: r, Y: r, Z: r}
	return Bounds{Min: c.Sub(ext), Max: c.Add(ext), Center: c, Radius: r}
}

// Union returns bounds enclosing both boxes.
func (b Bounds) Union(o Bounds) Bounds {
	lo := math.Vec3{X: min(b.Min.X, o.Min.X), Y: min(b.Min.Y, o.Min.Y), Z: min(b.Min.Z, o.Min.Z)}
	hi := math.Vec3{X: max(b.Max.X, o.Max.X), Y: max(b.Max.Y, o.Max.Y), Z: max(b.Max.Z, o.Max.Z)}
	return NewBounds(lo, hi)
}

// Mesh is shared geometry. Nodes reference meshes; resource caches own them.
type Mesh struct {
	name        string
	data        *Data
	vertexCount int
	indexCount  int
	bounds      Bounds
	handle      Handle
}

// New validates data and creates a mesh with computed bounds.
func New(name string, data *Data) (*Mesh, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: %s: no data", ErrInvalidData, name)
	}
	if !data.Format.Has(Position) {
		return nil, fmt.Errorf("%w: %s: format %s has no positions", ErrInvalidData, name, data.Format)
	}
	floats := data.Format.Floats()
	if len(data.Vertices) == 0 || len(data.Vertices)%floats != 0 {
		return nil, fmt.Errorf("%w: %s: %d floats is not a multiple of %d", ErrInvalidData, name, len(data.Vertices), floats)
	}
	count := len(data.Vertices) / floats
	for i, idx := range data.Indices {
		if int(idx) >= count {
			return nil, fmt.Errorf("%w: %s: index %d at %d out of range (%d vertices)", ErrInvalidData, name, idx, i, count)
		}
	}

	return &Mesh{
		name:        name,
		data:        data,
		vertexCount: count,
		indexCount:  len(data.Indices),
		bounds:      computeBounds(data.Vertices, floats),
	}, nil
}

func computeBounds(vertices []float32, stride int) Bounds {
	lo := math.Vec3{X: 1e10, Y: 1e10, Z: 1e10}
	hi := math.Vec3{X: -1e10, Y: -1e10, Z: -1e10}
	for i := 0; i+2 < len(vertices); i += stride {
		x, y, z := vertices[i], vertices[i+1], vertices[i+2]
		lo = math.Vec3{X: min(lo.X, x), Y: min(lo.Y, y), Z: min(lo.Z, z)}
		hi = math.Vec3{X: max(hi.X, x), Y: max(hi.Y, y), Z: max(hi.Z, z)}
	}
	return NewBounds(lo, hi)
}

// Name returns the mesh name.
func (m *Mesh) Name() string { return m.name }

// Format returns the vertex layout.
func (m *Mesh) Format() Format { return m.data.Format }

// Data returns the CPU-side geometry.
func (m *Mesh) Data() *Data { return m.data }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return m.vertexCount }

// IndexCount returns the number of indices; zero for non-indexed meshes.
func (m *Mesh) IndexCount() int { return m.indexCount }

// DrawCount returns the element count for a full draw.
func (m *Mesh) DrawCount() int {
	if m.indexCount > 0 {
		return m.indexCount
	}
	return m.vertexCount
}

// Bounds returns the local-space bounds.
func (m *Mesh) Bounds() Bounds { return m.bounds }

// Handle returns the device handle, zero until uploaded.
func (m *Mesh) Handle() Handle { return m.handle }

// SetHandle records the device handle after upload.
func (m *Mesh) SetHandle(h Handle) { m.handle = h }

// Uploaded reports whether the mesh has a device handle.
func (m *Mesh) Uploaded() bool { return m.handle != 0 }
