package mesh

// Quad builds a w x h quad in the XY plane facing +Z, centred on the origin.
func Quad(name string, w, h float32) *Mesh {
	hw, hh := w/2, h/2
	data := &Data{
		Format: Position | Normal | UV,
		Vertices: []float32{
			-hw, -hh, 0, 0, 0, 1, 0, 0,
			hw, -hh, 0, 0, 0, 1, 1, 0,
			hw, hh, 0, 0, 0, 1, 1, 1,
			-hw, hh, 0, 0, 0, 1, 0, 1,
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	m, _ := New(name, data)
	return m
}

// Cube builds an axis-aligned cube with per-face normals, centred on the origin.
func Cube(name string, size float32) *Mesh {
	s := size / 2
	faces := []struct {
		normal  [3]float32
		corners [4][3]float32
	}{
		{[3]float32{0, 0, 1}, [4][3]float32{{-s, -s, s}, {s, -s, s}, {s, s, s}, {-s, s, s}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{s, -s, -s}, {-s, -s, -s}, {-s, s, -s}, {s, s, -s}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{s, -s, s}, {s, -s, -s}, {s, s, -s}, {s, s, s}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-s, -s, -s}, {-s, -s, s}, {-s, s, s}, {-s, s, -s}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-s, s, s}, {s, s, s}, {s, s, -s}, {-s, s, -s}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-s, -s, -s}, {s, -s, -s}, {s, -s, s}, {-s, -s, s}}},
	}
	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	data := &Data{Format: Position | Normal | UV}
	for i, f := range faces {
		for j, c := range f.corners {
			data.Vertices = append(data.Vertices,
				c[0], c[1], c[2],
				f.normal[0], f.normal[1], f.normal[2],
				uvs[j][0], uvs[j][1],
			)
		}
		base := uint32(i * 4)
		data.Indices = append(data.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	m, _ := New(name, data)
	return m
}

// BoxWireframe returns 24 line endpoints (12 edges) outlining b, as xyz triples.
func BoxWireframe(b Bounds) []float32 {
	minX, minY, minZ := b.Min.X, b.Min.Y, b.Min.Z
	maxX, maxY, maxZ := b.Max.X, b.Max.Y, b.Max.Z
	return []float32{
		// Bottom face
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	}
}
