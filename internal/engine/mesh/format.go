package mesh

// Format is a bit set of vertex attributes, interleaved in declaration order.
type Format uint32

const (
	Position Format = 1 << iota
	Normal
	UV
	Color
	BoneIndices
	BoneWeights
)

// Attribute describes one interleaved vertex attribute.
type Attribute struct {
	Kind       Format
	Location   uint32
	Components int
	Offset     int // bytes from vertex start
}

var attributeOrder = []struct {
	kind       Format
	components int
}{
	{Position, 3},
	{Normal, 3},
	{UV, 2},
	{Color, 4},
	{BoneIndices, 4},
	{BoneWeights, 4},
}

// Has reports whether all attributes in other are present.
func (f Format) Has(other Format) bool { return f&other == other }

// Floats returns the number of float32 values per vertex.
func (f Format) Floats() int {
	n := 0
	for _, a := range attributeOrder {
		if f.Has(a.kind) {
			n += a.components
		}
	}
	return n
}

// Stride returns the vertex size in bytes.
func (f Format) Stride() int { return f.Floats() * 4 }

// Attributes returns the interleaved layout. Locations are fixed per kind so
// shaders can bind them statically.
func (f Format) Attributes() []Attribute {
	var out []Attribute
	offset := 0
	for loc, a := range attributeOrder {
		if !f.Has(a.kind) {
			continue
		}
		out = append(out, Attribute{
			Kind:       a.kind,
			Location:   uint32(loc),
			Components: a.components,
			Offset:     offset,
		})
		offset += a.components * 4
	}
	return out
}

// String returns a compact attribute list such as "PNU".
func (f Format) String() string {
	letters := "PNUCIW"
	var s []byte
	for i, a := range attributeOrder {
		if f.Has(a.kind) {
			s = append(s, letters[i])
		}
	}
	if len(s) == 0 {
		return "-"
	}
	return string(s)
}
