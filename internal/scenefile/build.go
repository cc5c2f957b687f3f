package scenefile

import (
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/trellis/internal/engine/camera"
	"github.com/Faultbox/trellis/internal/engine/lighting"
	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/internal/engine/node"
	"github.com/Faultbox/trellis/internal/engine/scene"
	"github.com/Faultbox/trellis/internal/engine/skeleton"
	"github.com/Faultbox/trellis/internal/logger"
	"github.com/Faultbox/trellis/pkg/math"
)

// Spring constants used when the camera follows a node.
const (
	DefaultStiffness = 10
	DefaultDamping   = 5
)

// Result indexes what Build created.
type Result struct {
	Root    *node.Node
	Nodes   map[string]*node.Node
	Bones   map[string]*skeleton.Bone
	Skins   []*skeleton.AnimatedMesh
	Players []*skeleton.Player
}

type builder struct {
	f         *File
	s         *scene.Scene
	res       *Result
	textures  map[string]*material.Texture
	materials map[string]material.Material
	skins     []pendingSkin
	log       *zap.Logger

	// Cache keys acquired so far, released again if Build fails.
	meshKeys    []string
	textureKeys []string
}

type pendingSkin struct {
	node *node.Node
	desc *SkinDesc
}

// Build adds the described nodes under s's root, registers meshes and
// textures with the scene's caches, and wires camera, shadow caster and
// animation players. On error the scene is left as it was.
func (f *File) Build(s *scene.Scene) (*Result, error) {
	b := &builder{
		f: f,
		s: s,
		res: &Result{
			Nodes: make(map[string]*node.Node),
			Bones: make(map[string]*skeleton.Bone),
		},
		textures:  make(map[string]*material.Texture),
		materials: make(map[string]material.Material),
		log:       logger.Named("scenefile"),
	}

	name := f.Name
	if name == "" {
		name = "scene"
	}
	b.res.Root = node.New(name)

	if err := b.buildTree(); err != nil {
		b.rollback()
		return nil, err
	}
	if f.Camera != nil {
		b.setupCamera(f.Camera)
	}
	if f.Animation != nil {
		for _, skin := range b.res.Skins {
			p := skeleton.NewPlayer(skin, f.Animation.FPS, f.Animation.Loop)
			s.AddUpdater(p)
			b.res.Players = append(b.res.Players, p)
		}
	}

	b.log.Info("scene built",
		zap.String("scene", name),
		zap.Int("nodes", len(b.res.Nodes)),
		zap.Int("bones", len(b.res.Bones)),
		zap.Int("skins", len(b.res.Skins)),
	)
	return b.res, nil
}

func (b *builder) buildTree() error {
	for _, nd := range b.f.Nodes {
		child, err := b.buildNode(nd)
		if err != nil {
			return err
		}
		if err := b.res.Root.AddChild(child); err != nil {
			return err
		}
	}
	if err := b.bindSkins(); err != nil {
		return err
	}
	if cn := b.f.ShadowCaster; cn != "" {
		if n := b.res.Nodes[cn]; n == nil || n.Light() == nil {
			return fmt.Errorf("shadow caster %q: %w", cn, scene.ErrNotALight)
		}
	}
	if err := b.s.Add(b.res.Root); err != nil {
		return err
	}
	if cn := b.f.ShadowCaster; cn != "" {
		if err := b.s.SetShadowCaster(b.res.Nodes[cn]); err != nil {
			b.res.Root.Detach()
			return fmt.Errorf("shadow caster %q: %w", cn, err)
		}
	}
	return nil
}

// rollback drops the cache references taken by a failed Build.
func (b *builder) rollback() {
	for _, k := range b.meshKeys {
		if err := b.s.Resources().Meshes.Release(k); err != nil {
			b.log.Warn("release mesh", zap.String("key", k), zap.Error(err))
		}
	}
	for _, k := range b.textureKeys {
		if err := b.s.Resources().Textures.Release(k); err != nil {
			b.log.Warn("release texture", zap.String("key", k), zap.Error(err))
		}
	}
	b.meshKeys, b.textureKeys = nil, nil
}

func (b *builder) buildNode(nd NodeDesc) (*node.Node, error) {
	n := node.New(nd.Name)
	scale := math.One3
	if nd.Scale != nil {
		scale = vec3(*nd.Scale)
	}
	q := math.QuatFromEuler(radians(nd.Rotation[0]), radians(nd.Rotation[1]), radians(nd.Rotation[2]))
	n.SetLocalTransform(vec3(nd.Translation), q, scale)
	n.SetVisible(!nd.Hidden)
	if nd.Opacity != nil {
		n.SetOpacity(*nd.Opacity)
	}
	b.res.Nodes[nd.Name] = n

	if nd.Mesh != "" || nd.Material != "" {
		r := &node.Renderable{
			DoubleSided:    nd.DoubleSided,
			Occludable:     nd.Occludable,
			OcclusionAlpha: nd.OcclusionAlpha,
			CastsShadow:    nd.CastsShadow,
		}
		if nd.Mesh != "" {
			m, err := b.mesh(nd.Mesh)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", nd.Name, err)
			}
			r.Mesh = m
		}
		if nd.Material != "" {
			m, err := b.material(nd.Material)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", nd.Name, err)
			}
			r.Material = m
		}
		n.SetRenderable(r)
	}

	if nd.Light != nil {
		n.SetLight(buildLight(nd.Light))
	}

	if len(nd.Frames) > 0 || nd.InverseBind != nil {
		bone := skeleton.NewBone(n)
		for i, frame := range nd.Frames {
			if err := bone.AddFrameData(frame); err != nil {
				return nil, fmt.Errorf("bone %q frame %d: %w", nd.Name, i, err)
			}
		}
		if nd.InverseBind != nil {
			if len(nd.InverseBind) != 16 {
				return nil, fmt.Errorf("bone %q inverse bind: %w", nd.Name, skeleton.ErrBadFrameData)
			}
			m, _ := math.MatrixFromSlice(nd.InverseBind)
			bone.SetInverseBind(m)
		}
		b.res.Bones[nd.Name] = bone
	}
	if nd.Skin != nil {
		b.skins = append(b.skins, pendingSkin{node: n, desc: nd.Skin})
	}

	for _, cd := range nd.Children {
		child, err := b.buildNode(cd)
		if err != nil {
			return nil, err
		}
		if err := n.AddChild(child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// bindSkins runs after the whole tree exists so batches may name any bone.
func (b *builder) bindSkins() error {
	for _, ps := range b.skins {
		bpv := ps.desc.BonesPerVertex
		if bpv <= 0 {
			bpv = 4
		}
		skin := skeleton.NewAnimatedMesh(ps.node, bpv)
		for i, bd := range ps.desc.Batches {
			batch := &skeleton.BoneBatch{IndexOffset: bd.Offset, IndexCount: bd.Count}
			for _, name := range bd.Bones {
				bone, ok := b.res.Bones[name]
				if !ok {
					return fmt.Errorf("skin %q batch %d: bone %q: %w", ps.node.Name(), i, name, ErrUnknownRef)
				}
				batch.Bones = append(batch.Bones, bone)
			}
			skin.AddBatch(batch)
		}
		if skin.FrameCount() > 0 {
			if err := skin.SetFrame(0); err != nil {
				return fmt.Errorf("skin %q: %w", ps.node.Name(), err)
			}
		}
		b.res.Skins = append(b.res.Skins, skin)
	}
	return nil
}

func (b *builder) setupCamera(cd *CameraDesc) {
	cam := b.s.Camera()
	if cd.Lens != "" {
		if lens := camera.LensByName(cd.Lens, cd.Focus, cd.Zoom); lens != nil {
			cam.SetLens(lens)
		} else {
			b.log.Warn("unknown lens, keeping current", zap.String("lens", cd.Lens))
		}
	}
	cam.LookAt(vec3(cd.Eye), vec3(cd.Target), math.Vec3{Y: 1})
	if cd.Follow != "" {
		target := b.res.Nodes[cd.Follow]
		offset := vec3(cd.Eye).Sub(target.WorldPosition())
		spring := camera.NewSpring(target, offset, DefaultStiffness, DefaultDamping)
		spring.Snap(cam)
		cam.SetController(spring)
	}
}

// mesh returns the cached mesh for name, building it on first use.
func (b *builder) mesh(name string) (*mesh.Mesh, error) {
	md := b.f.Meshes[name]
	m, err := b.s.Resources().Mesh(name, func() (*mesh.Mesh, error) {
		switch md.Type {
		case "quad":
			return mesh.Quad(name, orOne(md.Width), orOne(md.Height)), nil
		case "cube":
			return mesh.Cube(name, orOne(md.Size)), nil
		default:
			format, err := ParseFormat(md.Format)
			if err != nil {
				return nil, err
			}
			return mesh.New(name, &mesh.Data{Format: format, Vertices: md.Vertices, Indices: md.Indices})
		}
	})
	if err != nil {
		return nil, err
	}
	b.meshKeys = append(b.meshKeys, name)
	return m, nil
}

func (b *builder) texture(name string) (*material.Texture, error) {
	if t, ok := b.textures[name]; ok {
		return t, nil
	}
	td := b.f.Textures[name]
	t, err := b.s.Resources().Texture(name, func() (*material.Texture, error) {
		switch {
		case td.Color != nil:
			c := td.Color
			return material.SolidTexture(name, c[0], c[1], c[2], c[3]), nil
		case td.Checker != nil:
			return checker(name, *td.Checker), nil
		default:
			return material.NewTexture(name, td.Width, td.Height, td.Pixels), nil
		}
	})
	if err != nil {
		return nil, err
	}
	b.textures[name] = t
	b.textureKeys = append(b.textureKeys, name)
	return t, nil
}

func (b *builder) material(name string) (material.Material, error) {
	if m, ok := b.materials[name]; ok {
		return m, nil
	}
	md := b.f.Materials[name]
	surface := material.NewColor(name, md.Color).Surface
	surface.Lit = !md.Unlit
	surface.Shininess = md.Shininess
	if md.Shininess > 0 {
		surface.Specular = [4]float32{1, 1, 1, 1}
	}
	surface.Emissive = md.Emissive

	var m material.Material
	switch md.Type {
	case "texture":
		t, err := b.texture(md.Texture)
		if err != nil {
			return nil, err
		}
		tm := material.NewTextured(name, t)
		tm.Surface = surface
		m = tm
	case "shader":
		sm := &material.ShaderMaterial{
			Label:    name,
			Program:  md.Program,
			Surface:  surface,
			Alpha:    md.Color[3],
			TwoSided: md.TwoSided,
		}
		if md.Alpha != nil {
			sm.Alpha = *md.Alpha
		}
		for _, tn := range md.Textures {
			t, err := b.texture(tn)
			if err != nil {
				return nil, err
			}
			sm.Textures = append(sm.Textures, t)
		}
		m = sm
	default:
		m = &material.ColorMaterial{Label: name, Surface: surface}
	}
	b.materials[name] = m
	return m, nil
}

func buildLight(ld *LightDesc) *lighting.Light {
	var l *lighting.Light
	switch ld.Kind {
	case "directional":
		l = lighting.NewDirectional(vec3(ld.Direction))
	case "spot":
		l = lighting.NewSpot(vec3(ld.Direction), ld.Cutoff)
		l.SpotExponent = ld.Exponent
	default:
		l = lighting.NewPoint()
	}
	if ld.Ambient != nil {
		l.Ambient = *ld.Ambient
	}
	if ld.Diffuse != nil {
		l.Diffuse = *ld.Diffuse
	}
	if ld.Specular != nil {
		l.Specular = *ld.Specular
	}
	if a := ld.Attenuation; a != nil {
		l.Constant, l.Linear, l.Quadratic = a[0], a[1], a[2]
	}
	l.Enabled = !ld.Disabled
	return l
}

func checker(name string, cd CheckerDesc) *material.Texture {
	size, cell := cd.Size, cd.Cell
	if size <= 0 {
		size = 8
	}
	if cell <= 0 {
		cell = 1
	}
	pixels := make([]byte, 0, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := cd.Even
			if (x/cell+y/cell)%2 == 1 {
				c = cd.Odd
			}
			pixels = append(pixels, c[:]...)
		}
	}
	return material.NewTexture(name, size, size, pixels)
}

// ParseFormat reads a vertex format written as attribute letters, e.g. "PNU".
func ParseFormat(s string) (mesh.Format, error) {
	var f mesh.Format
	for _, r := range s {
		switch r {
		case 'P':
			f |= mesh.Position
		case 'N':
			f |= mesh.Normal
		case 'U':
			f |= mesh.UV
		case 'C':
			f |= mesh.Color
		case 'I':
			f |= mesh.BoneIndices
		case 'W':
			f |= mesh.BoneWeights
		default:
			return 0, fmt.Errorf("%w: vertex format %q: unknown attribute %q", ErrInvalid, s, r)
		}
	}
	if !f.Has(mesh.Position) {
		return 0, fmt.Errorf("%w: vertex format %q has no position", ErrInvalid, s)
	}
	return f, nil
}

func vec3(a [3]float32) math.Vec3 { return math.Vec3{X: a[0], Y: a[1], Z: a[2]} }

func radians(deg float32) float32 { return deg * gomath.Pi / 180 }

func orOne(v float32) float32 {
	if v <= 0 {
		return 1
	}
	return v
}
