// Package gldevice implements renderer.Device on OpenGL 4.1 core.
// All calls must happen on the thread owning the GL context.
package gldevice

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/trellis/internal/engine/lighting"
	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/internal/engine/renderer"
	"github.com/Faultbox/trellis/internal/engine/renderer/gldevice/shaders"
	"github.com/Faultbox/trellis/internal/engine/shadow"
	"github.com/Faultbox/trellis/internal/logger"
	"github.com/Faultbox/trellis/pkg/math"
)

var (
	// ErrGL wraps errors reported by glGetError.
	ErrGL = errors.New("opengl error")
	// ErrUnknownProgram is returned when binding a program never registered.
	ErrUnknownProgram = errors.New("unknown program")
	// ErrUnknownHandle is returned for mesh or texture handles the device does not own.
	ErrUnknownHandle = errors.New("unknown handle")
)

// MaxBones is the palette size of the skinned program.
const MaxBones = 64

// Options configures the device.
type Options struct {
	Width, Height    int32
	Shadows          bool
	ShadowResolution int32
}

// Device renders through the current OpenGL context.
type Device struct {
	log  *zap.Logger
	caps material.Capabilities

	width, height int32

	programs map[string]*program
	owned    []*program
	current  *program

	meshes   map[mesh.Handle]*glMesh
	textures map[material.TextureHandle]bool
	white    uint32
	shadow   *shadowMap

	// Latest values of every uniform group and their generations.
	gen       [numGroups]uint64
	pass      renderer.Pass
	inPass    bool
	model     math.Mat4
	surface   material.Surface
	textured  bool
	lights    lighting.State
	bones     []float32
	boneCount int32
	mesh      *glMesh
}

// New initialises GL function pointers and compiles the built-in programs.
func New(opts Options) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	d := &Device{
		log:      logger.Named("gl"),
		width:    opts.Width,
		height:   opts.Height,
		programs: make(map[string]*program),
		meshes:   make(map[mesh.Handle]*glMesh),
		textures: make(map[material.TextureHandle]bool),
		bones:    make([]float32, 0, MaxBones*16),
	}
	d.log.Info("opengl ready",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	base, err := newProgram("mesh", shaders.MeshVertexShader, shaders.MeshFragmentShader)
	if err != nil {
		return nil, err
	}
	skinned, err := newProgram(material.ProgramSkinned, shaders.MeshVertexShader, shaders.MeshFragmentShader, "SKINNED")
	if err != nil {
		base.delete()
		return nil, err
	}
	depth, err := newProgram(material.ProgramDepth, shaders.DepthVertexShader, shaders.DepthFragmentShader)
	if err != nil {
		base.delete()
		skinned.delete()
		return nil, err
	}
	for _, p := range []*program{base, skinned, depth} {
		p.builtin = true
	}
	d.owned = []*program{base, skinned, depth}
	d.programs[material.ProgramUnlit] = base
	d.programs[material.ProgramLit] = base
	d.programs[material.ProgramTextured] = base
	d.programs[material.ProgramSkinned] = skinned
	d.programs[material.ProgramDepth] = depth

	d.white = whiteTexture()

	if opts.Shadows {
		res := opts.ShadowResolution
		if res <= 0 {
			res = shadow.DefaultResolution
		}
		d.shadow = newShadowMap(res)
		if d.shadow == nil {
			d.log.Warn("shadow framebuffer incomplete, shadows disabled", zap.Int32("resolution", res))
		}
	}

	var units int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &units)
	d.caps = material.Capabilities{
		Programmable:      true,
		MaxTextureUnits:   int(units) - 1, // unit 1 is reserved for the shadow map
		MaxBones:          MaxBones,
		MaxBonesPerVertex: 4,
		ShadowMaps:        d.shadow != nil,
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	if err := checkError("init"); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// RegisterProgram compiles a custom program for shader materials. It uses
// the same attribute locations and uniform names as the built-in programs.
func (d *Device) RegisterProgram(key, vertexSrc, fragmentSrc string) error {
	p, err := newProgram(key, vertexSrc, fragmentSrc)
	if err != nil {
		return err
	}
	if old, ok := d.programs[key]; ok && !old.builtin {
		if d.current == old {
			gl.UseProgram(p.id)
			d.current = p
		}
		old.delete()
	}
	d.programs[key] = p
	d.owned = append(d.owned, p)
	d.log.Debug("program registered", zap.String("program", key))
	return nil
}

// Resize updates the main pass viewport.
func (d *Device) Resize(width, height int32) {
	d.width, d.height = width, height
}

func (d *Device) Capabilities() material.Capabilities { return d.caps }

func (d *Device) BeginPass(p renderer.Pass) error {
	d.pass = p
	d.inPass = true
	d.touch(groupPass)

	switch p.Kind {
	case renderer.PassShadow:
		if d.shadow == nil {
			return fmt.Errorf("%w: shadow pass without a shadow map", ErrGL)
		}
		d.shadow.bind()
	default:
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, d.width, d.height)
		c := p.ClearColor
		gl.ClearColor(c[0], c[1], c[2], c[3])
		gl.DepthMask(true)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		if p.Shadowed && d.shadow != nil {
			d.shadow.bindTexture(gl.TEXTURE1)
			gl.ActiveTexture(gl.TEXTURE0)
		}
	}
	return nil
}

func (d *Device) EndPass() error {
	if d.inPass && d.pass.Kind == renderer.PassShadow && d.shadow != nil {
		d.shadow.unbind()
	}
	d.inPass = false
	return checkError("end pass")
}

func (d *Device) BindProgram(key string) error {
	p, ok := d.programs[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProgram, key)
	}
	if d.current != p {
		gl.UseProgram(p.id)
		d.current = p
	}
	return nil
}

func (d *Device) BindTexture(h material.TextureHandle) error {
	gl.ActiveTexture(gl.TEXTURE0)
	if h == 0 {
		gl.BindTexture(gl.TEXTURE_2D, d.white)
		d.textured = false
	} else {
		if !d.textures[h] {
			return fmt.Errorf("%w: texture %d", ErrUnknownHandle, h)
		}
		gl.BindTexture(gl.TEXTURE_2D, uint32(h))
		d.textured = true
	}
	d.touch(groupTexture)
	return nil
}

func (d *Device) BindMesh(h mesh.Handle) error {
	m, ok := d.meshes[h]
	if !ok {
		return fmt.Errorf("%w: mesh %d", ErrUnknownHandle, h)
	}
	gl.BindVertexArray(m.vao)
	d.mesh = m
	d.touch(groupMesh)
	return nil
}

func (d *Device) SetRaster(r material.Raster) error {
	switch {
	case r.Cull == material.CullNone:
		gl.Disable(gl.CULL_FACE)
	case d.pass.Kind == renderer.PassShadow:
		// Front faces in the depth map reduce shadow acne.
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	if r.Blend {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		gl.Disable(gl.BLEND)
	}
	gl.DepthMask(r.DepthWrite)
	return nil
}

func (d *Device) SetMaterial(s material.Surface) error {
	d.surface = s
	d.touch(groupSurface)
	return nil
}

func (d *Device) SetTransforms(t renderer.Transforms) error {
	d.model = t.Model
	d.touch(groupModel)
	return nil
}

func (d *Device) SetBones(palette []math.Mat4) error {
	if len(palette) > MaxBones {
		return fmt.Errorf("%d bones exceeds the palette of %d", len(palette), MaxBones)
	}
	d.bones = d.bones[:0]
	for _, m := range palette {
		d.bones = append(d.bones, m[:]...)
	}
	d.boneCount = int32(len(palette))
	d.touch(groupBones)
	return nil
}

func (d *Device) SetLights(s lighting.State) error {
	d.lights = s
	d.touch(groupLights)
	return nil
}

func (d *Device) Draw(count, offset int) error {
	if d.current == nil {
		return fmt.Errorf("%w: draw with no program bound", ErrGL)
	}
	if d.mesh == nil {
		return fmt.Errorf("%w: draw with no mesh bound", ErrGL)
	}
	d.flush(d.current)
	if d.mesh.indexed {
		gl.DrawElementsWithOffset(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, uintptr(offset*4))
	} else {
		gl.DrawArrays(gl.TRIANGLES, int32(offset), int32(count))
	}
	return nil
}

// Close frees every GL object the device created.
func (d *Device) Close() {
	for h, m := range d.meshes {
		m.delete()
		delete(d.meshes, h)
	}
	for h := range d.textures {
		id := uint32(h)
		gl.DeleteTextures(1, &id)
		delete(d.textures, h)
	}
	if d.white != 0 {
		gl.DeleteTextures(1, &d.white)
		d.white = 0
	}
	for _, p := range d.owned {
		p.delete()
	}
	d.owned = nil
	d.programs = map[string]*program{}
	if d.shadow != nil {
		d.shadow.destroy()
		d.shadow = nil
	}
}

func (d *Device) touch(group int) { d.gen[group]++ }

// flush uploads the uniform groups p has not seen yet.
func (d *Device) flush(p *program) {
	for g := 0; g < numGroups; g++ {
		if p.seen[g] == d.gen[g] {
			continue
		}
		p.seen[g] = d.gen[g]
		switch g {
		case groupPass:
			setMat4(p.loc("uView"), d.pass.View)
			setMat4(p.loc("uProjection"), d.pass.Projection)
			setMat4(p.loc("uLightViewProj"), d.pass.LightViewProj)
			setBool(p.loc("uShadowed"), d.pass.Shadowed && d.shadow != nil)
		case groupModel:
			setMat4(p.loc("uModel"), d.model)
		case groupSurface:
			s := d.surface
			gl.Uniform4fv(p.loc("uAmbient"), 1, &s.Ambient[0])
			gl.Uniform4fv(p.loc("uDiffuse"), 1, &s.Diffuse[0])
			gl.Uniform4fv(p.loc("uSpecular"), 1, &s.Specular[0])
			gl.Uniform4fv(p.loc("uEmissive"), 1, &s.Emissive[0])
			gl.Uniform1f(p.loc("uShininess"), s.Shininess)
			setBool(p.loc("uLit"), s.Lit)
		case groupTexture:
			setBool(p.loc("uTextured"), d.textured)
		case groupLights:
			l := &d.lights
			gl.Uniform1i(p.loc("uLightCount"), int32(l.Count))
			gl.Uniform4fv(p.loc("uLightPosition"), lighting.MaxLights, &l.Positions[0][0])
			gl.Uniform3fv(p.loc("uLightDirection"), lighting.MaxLights, &l.Directions[0][0])
			gl.Uniform4fv(p.loc("uLightAmbient"), lighting.MaxLights, &l.Ambient[0][0])
			gl.Uniform4fv(p.loc("uLightDiffuse"), lighting.MaxLights, &l.Diffuse[0][0])
			gl.Uniform4fv(p.loc("uLightSpecular"), lighting.MaxLights, &l.Specular[0][0])
			gl.Uniform3fv(p.loc("uLightAttenuation"), lighting.MaxLights, &l.Attenuation[0][0])
			gl.Uniform2fv(p.loc("uLightSpot"), lighting.MaxLights, &l.Spot[0][0])
		case groupBones:
			if d.boneCount > 0 {
				gl.UniformMatrix4fv(p.loc("uBones"), d.boneCount, false, &d.bones[0])
			}
		case groupMesh:
			setBool(p.loc("uVertexColor"), d.mesh != nil && d.mesh.format.Has(mesh.Color))
		}
	}
}

func setMat4(loc int32, m math.Mat4) {
	if loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, m.Ptr())
	}
}

func setBool(loc int32, v bool) {
	if loc < 0 {
		return
	}
	var i int32
	if v {
		i = 1
	}
	gl.Uniform1i(loc, i)
}

func checkError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%w: %s: 0x%04x", ErrGL, op, code)
	}
	return nil
}

var _ renderer.Device = (*Device)(nil)
