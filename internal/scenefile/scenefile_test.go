package scenefile

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/trellis/internal/engine/camera"
	"github.com/Faultbox/trellis/internal/engine/lighting"
	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/internal/engine/renderer"
	"github.com/Faultbox/trellis/internal/engine/scene"
	"github.com/Faultbox/trellis/pkg/math"
)

func newScene() (*scene.Scene, *renderer.Recorder) {
	rec := renderer.NewRecorder()
	return scene.New(renderer.New(rec), nil, scene.DefaultOptions()), rec
}

func loadDemo(t *testing.T) (*scene.Scene, *renderer.Recorder, *Result) {
	t.Helper()
	f, err := Load(filepath.Join("testdata", "demo.yaml"))
	require.NoError(t, err)
	s, rec := newScene()
	res, err := f.Build(s)
	require.NoError(t, err)
	return s, rec, res
}

func TestBuildDemo(t *testing.T) {
	s, _, res := loadDemo(t)

	assert.Equal(t, "demo", res.Root.Name())
	assert.Same(t, s.Root(), res.Root.Parent())
	assert.Len(t, res.Nodes, 10)
	assert.Len(t, res.Bones, 2)
	require.Len(t, res.Skins, 1)
	require.Len(t, res.Players, 1)

	crate := res.Nodes["crate-a"]
	assert.Equal(t, "/root/demo/crates/crate-a", crate.Path())
	assert.True(t, crate.WorldPosition().ApproxEqual(math.Vec3{X: -2, Y: 0.5}, 1e-5))

	// Meshes and materials named once are shared.
	assert.Same(t, crate.Renderable().Mesh, res.Nodes["crate-b"].Renderable().Mesh)
	assert.Same(t, crate.Renderable().Material, res.Nodes["crate-b"].Renderable().Material)
	assert.Equal(t, 3, s.Resources().Meshes.RefCount("crate"))

	assert.Same(t, res.Nodes["sun"], s.ShadowCaster())
	assert.True(t, res.Nodes["sun"].Light().CastsShadows)
	assert.Equal(t, lighting.Point, res.Nodes["lamp"].Light().Kind)
	assert.InDelta(t, 0.1, res.Nodes["lamp"].Light().Linear, 1e-6)

	_, ok := s.Camera().Lens().(camera.FocusZoomLens)
	assert.True(t, ok)
	assert.Equal(t, math.Vec3{Y: 4, Z: 10}, s.Camera().Eye())

	// Skins start on frame 0.
	assert.Equal(t, 0, res.Skins[0].Frame())
	assert.Equal(t, 2, res.Skins[0].FrameCount())
}

func TestRenderDemo(t *testing.T) {
	s, rec, _ := loadDemo(t)

	require.NoError(t, s.Update(0))
	require.NoError(t, s.Render())

	stats := s.Stats()
	assert.Equal(t, 2, stats.Lights)
	assert.True(t, stats.Shadowed)
	assert.Equal(t, 1, stats.Alpha)
	// window is the only transparent node and is drawn last.
	order := s.DrawOrder()
	require.NotEmpty(t, order)
	assert.Equal(t, "window", order[len(order)-1])
	assert.Contains(t, order, "arm")
	assert.Equal(t, 1, rec.LiveTextures())
}

func TestPlayersAdvanceSkins(t *testing.T) {
	s, _, res := loadDemo(t)
	upper := res.Nodes["upper"]

	// 4 fps: a quarter second moves one frame.
	require.NoError(t, s.Update(0.25))
	assert.Equal(t, 1, res.Skins[0].Frame())
	assert.True(t, upper.LocalTransform().Translation().ApproxEqual(math.Vec3{Y: 0.5}, 1e-5))

	require.NoError(t, s.Update(0.25))
	assert.Equal(t, 0, res.Skins[0].Frame(), "loops back")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"unknown key", "nodes:\n  - name: a\n    colour: red\n", ErrInvalid},
		{"missing name", "nodes:\n  - mesh: m\n", ErrInvalid},
		{"duplicate name", "nodes:\n  - name: a\n  - name: a\n", ErrInvalid},
		{"unknown mesh", "nodes:\n  - name: a\n    mesh: nope\n", ErrUnknownRef},
		{"unknown material", "nodes:\n  - name: a\n    material: nope\n", ErrUnknownRef},
		{"unknown texture", "materials:\n  m:\n    type: texture\n    texture: nope\n", ErrUnknownRef},
		{"bad material type", "materials:\n  m:\n    type: plasma\n", ErrInvalid},
		{"shader without program", "materials:\n  m:\n    type: shader\n", ErrInvalid},
		{"bad mesh type", "meshes:\n  m:\n    type: teapot\n", ErrInvalid},
		{"bad light", "nodes:\n  - name: a\n    light:\n      kind: area\n", ErrInvalid},
		{"texture twice", "textures:\n  t:\n    color: [1, 2, 3, 4]\n    pixels: [1, 2, 3, 4]\n    width: 1\n    height: 1\n", ErrInvalid},
		{"short pixels", "textures:\n  t:\n    pixels: [1, 2, 3]\n    width: 1\n    height: 1\n", ErrInvalid},
		{"unknown caster", "shadow_caster: ghost\n", ErrUnknownRef},
		{"unknown follow", "camera:\n  follow: ghost\n", ErrUnknownRef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	s, _ := newScene()
	res, err := f.Build(s)
	require.NoError(t, err)
	assert.Equal(t, "scene", res.Root.Name())
	assert.Empty(t, res.Nodes)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"bad frame", "nodes:\n  - name: b\n    frames:\n      - [1, 2, 3]\n", nil},
		{"unknown bone", "nodes:\n  - name: a\n    skin:\n      batches:\n        - bones: [ghost]\n", ErrUnknownRef},
		{"caster without light", "nodes:\n  - name: a\nshadow_caster: a\n", scene.ErrNotALight},
		{"bad inline format", "meshes:\n  m:\n    type: inline\n    format: NU\n    vertices: [0, 0, 1, 0, 0]\nnodes:\n  - name: a\n    mesh: m\n", ErrInvalid},
		{"bad inline data", "meshes:\n  m:\n    type: inline\n    format: P\n    vertices: [0, 0]\nnodes:\n  - name: a\n    mesh: m\n", mesh.ErrInvalidData},
		{"fails after acquiring", `
textures:
  t:
    color: [255, 255, 255, 255]
materials:
  m:
    type: texture
    texture: t
meshes:
  box:
    type: cube
nodes:
  - name: a
    mesh: box
    material: m
  - name: b
    mesh: box
    material: m
  - name: c
    skin:
      batches:
        - bones: [ghost]
`, ErrUnknownRef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			s, _ := newScene()
			_, err = f.Build(s)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}

			// A failed build leaves no nodes or cache references behind.
			assert.Zero(t, s.Root().ChildCount())
			assert.Zero(t, s.Resources().Meshes.Len())
			assert.Zero(t, s.Resources().Textures.Len())
		})
	}
}

func TestCameraFollow(t *testing.T) {
	yaml := `
camera:
  eye: [0, 2, 6]
  follow: hero
nodes:
  - name: hero
    translation: [1, 0, 0]
`
	f, err := Parse([]byte(yaml))
	require.NoError(t, err)
	s, _ := newScene()
	res, err := f.Build(s)
	require.NoError(t, err)

	spring, ok := s.Camera().Controller().(*camera.SpringController)
	require.True(t, ok)
	assert.Same(t, res.Nodes["hero"], spring.Target)
	assert.Equal(t, math.Vec3{X: -1, Y: 2, Z: 6}, spring.Offset)
}

func TestMaterials(t *testing.T) {
	yaml := `
textures:
  px:
    width: 1
    height: 1
    pixels: [255, 0, 0, 128]
materials:
  flat:
    color: [1, 1, 1, 1]
    unlit: true
  lava:
    type: shader
    program: lava
    textures: [px]
    alpha: 0.5
    two_sided: true
nodes:
  - name: a
    mesh: q
    material: flat
  - name: b
    mesh: q
    material: lava
meshes:
  q:
    type: quad
`
	f, err := Parse([]byte(yaml))
	require.NoError(t, err)
	s, _ := newScene()
	res, err := f.Build(s)
	require.NoError(t, err)

	flat, ok := res.Nodes["a"].Renderable().Material.(*material.ColorMaterial)
	require.True(t, ok)
	assert.False(t, flat.Surface.Lit)

	lava, ok := res.Nodes["b"].Renderable().Material.(*material.ShaderMaterial)
	require.True(t, ok)
	assert.Equal(t, "lava", lava.Program)
	assert.Equal(t, float32(0.5), lava.Opacity())
	assert.True(t, lava.TwoSided)
	require.Len(t, lava.Textures, 1)
	assert.True(t, lava.Textures[0].HasAlpha())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    mesh.Format
		wantErr bool
	}{
		{"P", mesh.Position, false},
		{"PNU", mesh.Position | mesh.Normal | mesh.UV, false},
		{"PNUIW", mesh.Position | mesh.Normal | mesh.UV | mesh.BoneIndices | mesh.BoneWeights, false},
		{"NU", 0, true},
		{"PX", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalid))
}
