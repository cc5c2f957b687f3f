package gldevice

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/mesh"
)

type glMesh struct {
	vao, vbo, ebo uint32
	indexed       bool
	format        mesh.Format
}

func (m *glMesh) delete() {
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
	}
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteVertexArrays(1, &m.vao)
}

// UploadMesh creates a VAO with one interleaved VBO and an optional EBO.
// The VAO name is the handle.
func (d *Device) UploadMesh(data *mesh.Data) (mesh.Handle, error) {
	if len(data.Vertices) == 0 {
		return 0, fmt.Errorf("%w: empty vertex buffer", mesh.ErrInvalidData)
	}
	m := &glMesh{indexed: len(data.Indices) > 0, format: data.Format}

	// Restore the renderer's VAO afterwards; it does not expect uploads to rebind.
	var prev int32
	gl.GetIntegerv(gl.VERTEX_ARRAY_BINDING, &prev)
	defer gl.BindVertexArray(uint32(prev))

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data.Vertices)*4, unsafe.Pointer(&data.Vertices[0]), gl.STATIC_DRAW)

	stride := int32(data.Format.Stride())
	for _, a := range data.Format.Attributes() {
		gl.VertexAttribPointerWithOffset(a.Location, int32(a.Components), gl.FLOAT, false, stride, uintptr(a.Offset))
		gl.EnableVertexAttribArray(a.Location)
	}

	if m.indexed {
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, unsafe.Pointer(&data.Indices[0]), gl.STATIC_DRAW)
	}

	if err := checkError("upload mesh"); err != nil {
		m.delete()
		return 0, err
	}
	h := mesh.Handle(m.vao)
	d.meshes[h] = m
	d.log.Debug("mesh uploaded",
		zap.Uint32("vao", m.vao),
		zap.Stringer("format", data.Format),
		zap.Int("vertices", data.VertexCount()),
		zap.Int("indices", len(data.Indices)),
	)
	return h, nil
}

func (d *Device) DeleteMesh(h mesh.Handle) error {
	m, ok := d.meshes[h]
	if !ok {
		return fmt.Errorf("%w: mesh %d", ErrUnknownHandle, h)
	}
	if d.mesh == m {
		d.mesh = nil
	}
	m.delete()
	delete(d.meshes, h)
	return checkError("delete mesh")
}

// UploadTexture creates a mipmapped RGBA texture. The GL name is the handle.
func (d *Device) UploadTexture(t *material.Texture) (material.TextureHandle, error) {
	w, h := t.Size()
	pixels := t.Pixels()
	if w <= 0 || h <= 0 || len(pixels) < w*h*4 {
		return 0, fmt.Errorf("texture %q: %dx%d with %d bytes", t.Name(), w, h, len(pixels))
	}

	var id uint32
	var prev int32
	gl.ActiveTexture(gl.TEXTURE0)
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &prev)
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, uint32(prev))

	if err := checkError("upload texture"); err != nil {
		gl.DeleteTextures(1, &id)
		return 0, err
	}
	handle := material.TextureHandle(id)
	d.textures[handle] = true
	d.log.Debug("texture uploaded", zap.String("texture", t.Name()), zap.Uint32("id", id), zap.Int("width", w), zap.Int("height", h))
	return handle, nil
}

func (d *Device) DeleteTexture(h material.TextureHandle) error {
	if !d.textures[h] {
		return fmt.Errorf("%w: texture %d", ErrUnknownHandle, h)
	}
	id := uint32(h)
	gl.DeleteTextures(1, &id)
	delete(d.textures, h)
	return checkError("delete texture")
}

func whiteTexture() uint32 {
	var id uint32
	pixel := []byte{255, 255, 255, 255}
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixel[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}
