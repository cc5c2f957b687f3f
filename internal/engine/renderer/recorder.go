package renderer

import (
	"fmt"
	"strings"

	"github.com/Faultbox/trellis/internal/engine/lighting"
	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/pkg/math"
)

// Op names a recorded device call.
type Op string

const (
	OpBeginPass     Op = "begin_pass"
	OpEndPass       Op = "end_pass"
	OpBindProgram   Op = "bind_program"
	OpBindTexture   Op = "bind_texture"
	OpBindMesh      Op = "bind_mesh"
	OpSetRaster     Op = "set_raster"
	OpSetMaterial   Op = "set_material"
	OpSetTransforms Op = "set_transforms"
	OpSetBones      Op = "set_bones"
	OpSetLights     Op = "set_lights"
	OpDraw          Op = "draw"
	OpUploadMesh    Op = "upload_mesh"
	OpDeleteMesh    Op = "delete_mesh"
	OpUploadTexture Op = "upload_texture"
	OpDeleteTexture Op = "delete_texture"
)

// Call is one recorded device call. Draws carry the state bound at the time.
type Call struct {
	Op      Op
	Pass    PassKind
	Program string
	Texture material.TextureHandle
	Mesh    mesh.Handle
	Raster  material.Raster
	Model   math.Mat4
	Count   int
	Offset  int
	Bones   int
	Lights  int
}

func (c Call) String() string {
	switch c.Op {
	case OpDraw:
		return fmt.Sprintf("draw %s mesh=%d program=%s count=%d offset=%d", c.Pass, c.Mesh, c.Program, c.Count, c.Offset)
	case OpBindProgram:
		return fmt.Sprintf("bind_program %s", c.Program)
	case OpBindMesh, OpUploadMesh, OpDeleteMesh:
		return fmt.Sprintf("%s %d", c.Op, c.Mesh)
	case OpBindTexture, OpUploadTexture, OpDeleteTexture:
		return fmt.Sprintf("%s %d", c.Op, c.Texture)
	case OpBeginPass:
		return fmt.Sprintf("begin_pass %s", c.Pass)
	}
	return string(c.Op)
}

// Recorder is an in-memory Device that records every call. It backs tests
// and headless runs.
type Recorder struct {
	Caps  material.Capabilities
	Calls []Call

	// Fail makes the named operation return the error.
	Fail map[Op]error

	nextHandle uint32
	meshes     map[mesh.Handle]*mesh.Data
	textures   map[material.TextureHandle]*material.Texture

	pass    PassKind
	program string
	texture material.TextureHandle
	mesh    mesh.Handle
	raster  material.Raster
	model   math.Mat4
	bones   int
}

// NewRecorder returns a recorder reporting full programmable capabilities.
func NewRecorder() *Recorder {
	return &Recorder{
		Caps: material.Capabilities{
			Programmable:      true,
			MaxTextureUnits:   8,
			MaxBones:          64,
			MaxBonesPerVertex: 4,
			ShadowMaps:        true,
		},
		meshes:   make(map[mesh.Handle]*mesh.Data),
		textures: make(map[material.TextureHandle]*material.Texture),
	}
}

func (r *Recorder) record(c Call) error {
	if err := r.Fail[c.Op]; err != nil {
		return err
	}
	c.Pass = r.pass
	r.Calls = append(r.Calls, c)
	return nil
}

func (r *Recorder) Capabilities() material.Capabilities { return r.Caps }

func (r *Recorder) BeginPass(p Pass) error {
	r.pass = p.Kind
	return r.record(Call{Op: OpBeginPass})
}

func (r *Recorder) EndPass() error { return r.record(Call{Op: OpEndPass}) }

func (r *Recorder) BindProgram(key string) error {
	if err := r.record(Call{Op: OpBindProgram, Program: key}); err != nil {
		return err
	}
	r.program = key
	return nil
}

func (r *Recorder) BindTexture(h material.TextureHandle) error {
	if h != 0 && r.textures[h] == nil {
		return fmt.Errorf("unknown texture %d", h)
	}
	if err := r.record(Call{Op: OpBindTexture, Texture: h}); err != nil {
		return err
	}
	r.texture = h
	return nil
}

func (r *Recorder) BindMesh(h mesh.Handle) error {
	if r.meshes[h] == nil {
		return fmt.Errorf("unknown mesh %d", h)
	}
	if err := r.record(Call{Op: OpBindMesh, Mesh: h}); err != nil {
		return err
	}
	r.mesh = h
	return nil
}

func (r *Recorder) SetRaster(s material.Raster) error {
	if err := r.record(Call{Op: OpSetRaster, Raster: s}); err != nil {
		return err
	}
	r.raster = s
	return nil
}

func (r *Recorder) SetMaterial(material.Surface) error {
	return r.record(Call{Op: OpSetMaterial})
}

func (r *Recorder) SetTransforms(t Transforms) error {
	if err := r.record(Call{Op: OpSetTransforms, Model: t.Model}); err != nil {
		return err
	}
	r.model = t.Model
	return nil
}

func (r *Recorder) SetBones(palette []math.Mat4) error {
	if len(palette) > r.Caps.MaxBones {
		return fmt.Errorf("%d bones exceeds %d", len(palette), r.Caps.MaxBones)
	}
	if err := r.record(Call{Op: OpSetBones, Bones: len(palette)}); err != nil {
		return err
	}
	r.bones = len(palette)
	return nil
}

func (r *Recorder) SetLights(s lighting.State) error {
	return r.record(Call{Op: OpSetLights, Lights: s.Count})
}

func (r *Recorder) Draw(count, offset int) error {
	return r.record(Call{
		Op:      OpDraw,
		Program: r.program,
		Texture: r.texture,
		Mesh:    r.mesh,
		Raster:  r.raster,
		Model:   r.model,
		Count:   count,
		Offset:  offset,
		Bones:   r.bones,
	})
}

func (r *Recorder) UploadMesh(d *mesh.Data) (mesh.Handle, error) {
	r.nextHandle++
	h := mesh.Handle(r.nextHandle)
	if err := r.record(Call{Op: OpUploadMesh, Mesh: h}); err != nil {
		return 0, err
	}
	r.meshes[h] = d
	return h, nil
}

func (r *Recorder) DeleteMesh(h mesh.Handle) error {
	if err := r.record(Call{Op: OpDeleteMesh, Mesh: h}); err != nil {
		return err
	}
	delete(r.meshes, h)
	return nil
}

func (r *Recorder) UploadTexture(t *material.Texture) (material.TextureHandle, error) {
	r.nextHandle++
	h := material.TextureHandle(r.nextHandle)
	if err := r.record(Call{Op: OpUploadTexture, Texture: h}); err != nil {
		return 0, err
	}
	r.textures[h] = t
	return h, nil
}

func (r *Recorder) DeleteTexture(h material.TextureHandle) error {
	if err := r.record(Call{Op: OpDeleteTexture, Texture: h}); err != nil {
		return err
	}
	delete(r.textures, h)
	return nil
}

// Draws returns the recorded draw calls.
func (r *Recorder) Draws() []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == OpDraw {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op Op) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// LiveMeshes returns the number of meshes uploaded and not deleted.
func (r *Recorder) LiveMeshes() int { return len(r.meshes) }

// LiveTextures returns the number of textures uploaded and not deleted.
func (r *Recorder) LiveTextures() int { return len(r.textures) }

// Reset drops recorded calls but keeps uploaded resources.
func (r *Recorder) Reset() { r.Calls = r.Calls[:0] }

// Dump returns the recorded calls, one per line.
func (r *Recorder) Dump() string {
	var b strings.Builder
	for _, c := range r.Calls {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}
