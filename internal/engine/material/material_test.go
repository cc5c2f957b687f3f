package material

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	glCaps    = Capabilities{Programmable: true, MaxTextureUnits: 4, MaxBones: 64, MaxBonesPerVertex: 4, ShadowMaps: true}
	fixedCaps = Capabilities{MaxTextureUnits: 1}
)

func TestColorMaterial(t *testing.T) {
	m := NewColor("red", [4]float32{1, 0, 0, 1})
	s, err := m.Prepare(fixedCaps)
	require.NoError(t, err)
	assert.Equal(t, ProgramLit, s.Program)
	assert.False(t, s.Raster.Blend)
	assert.True(t, s.Raster.DepthWrite)
	assert.Equal(t, float32(1), m.Opacity())

	m.Surface.Diffuse[3] = 0.5
	m.Surface.Lit = false
	s, err = m.Prepare(fixedCaps)
	require.NoError(t, err)
	assert.Equal(t, ProgramUnlit, s.Program)
	assert.True(t, s.Raster.Blend)
	assert.False(t, s.Raster.DepthWrite)
	assert.Equal(t, float32(0.5), m.Opacity())
}

func TestTextureMaterial(t *testing.T) {
	opaque := SolidTexture("white", 255, 255, 255, 255)
	opaque.SetHandle(7)
	m := NewTextured("crate", opaque)

	s, err := m.Prepare(fixedCaps)
	require.NoError(t, err)
	assert.Equal(t, TextureHandle(7), s.Texture)
	assert.False(t, s.Raster.Blend)

	m.Texture = NewTexture("glass", 2, 1, []byte{255, 255, 255, 255, 255, 255, 255, 128})
	assert.True(t, m.Texture.HasAlpha())
	s, err = m.Prepare(fixedCaps)
	require.NoError(t, err)
	assert.True(t, s.Raster.Blend, "texture alpha must blend")

	m.Texture = nil
	_, err = m.Prepare(fixedCaps)
	assert.True(t, errors.Is(err, ErrMissingTexture))
}

func TestShaderMaterialCapabilities(t *testing.T) {
	tex := func() []*Texture {
		var out []*Texture
		for i := 0; i < 5; i++ {
			out = append(out, SolidTexture("t", 0, 0, 0, 255))
		}
		return out
	}

	tests := []struct {
		name string
		mat  *ShaderMaterial
		caps Capabilities
		want error
	}{
		{"fixed function", &ShaderMaterial{Label: "water", Program: "water", Alpha: 1}, fixedCaps, ErrProgrammableRequired},
		{"too many textures", &ShaderMaterial{Label: "terrain", Program: "terrain", Textures: tex(), Alpha: 1}, glCaps, ErrTooManyTextures},
		{"fits", &ShaderMaterial{Label: "terrain", Program: "terrain", Textures: tex()[:4], Alpha: 1}, glCaps, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.mat.Prepare(tt.caps)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.mat.Label, cfgErr.Material)
		})
	}
}

func TestShaderMaterialTwoSided(t *testing.T) {
	m := &ShaderMaterial{Label: "leaf", Program: "foliage", Alpha: 1, TwoSided: true}
	s, err := m.Prepare(glCaps)
	require.NoError(t, err)
	assert.Equal(t, CullNone, s.Raster.Cull)
	assert.Equal(t, "foliage", s.Program)
}

func TestStatesComparable(t *testing.T) {
	a, _ := NewColor("a", [4]float32{1, 1, 1, 1}).Prepare(glCaps)
	b, _ := NewColor("b", [4]float32{1, 1, 1, 1}).Prepare(glCaps)
	assert.Equal(t, a, b)
	assert.True(t, a == b)
}
