package renderer

import "fmt"

// Stats counts device state changes and draws.
type Stats struct {
	ProgramChanges  int
	TextureChanges  int
	MeshChanges     int
	RasterChanges   int
	MaterialChanges int
	BoneUploads     int
	DrawCalls       int
	Elements        int
	Passes          int
}

// StateChanges returns the total number of state binds forwarded.
func (s Stats) StateChanges() int {
	return s.ProgramChanges + s.TextureChanges + s.MeshChanges + s.RasterChanges + s.MaterialChanges
}

// Add returns s + o field by field.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		ProgramChanges:  s.ProgramChanges + o.ProgramChanges,
		TextureChanges:  s.TextureChanges + o.TextureChanges,
		MeshChanges:     s.MeshChanges + o.MeshChanges,
		RasterChanges:   s.RasterChanges + o.RasterChanges,
		MaterialChanges: s.MaterialChanges + o.MaterialChanges,
		BoneUploads:     s.BoneUploads + o.BoneUploads,
		DrawCalls:       s.DrawCalls + o.DrawCalls,
		Elements:        s.Elements + o.Elements,
		Passes:          s.Passes + o.Passes,
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("draws=%d elements=%d programs=%d textures=%d meshes=%d raster=%d materials=%d bones=%d passes=%d",
		s.DrawCalls, s.Elements, s.ProgramChanges, s.TextureChanges, s.MeshChanges,
		s.RasterChanges, s.MaterialChanges, s.BoneUploads, s.Passes)
}
