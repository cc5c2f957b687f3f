// Package scenefile reads YAML scene descriptions and builds them into a
// scene graph.
package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalid is returned for descriptions that fail validation.
	ErrInvalid = errors.New("invalid scene file")
	// ErrUnknownRef is returned when a name refers to nothing.
	ErrUnknownRef = errors.New("unknown reference")
)

// File is a parsed scene description.
type File struct {
	Name         string                  `yaml:"name"`
	Camera       *CameraDesc             `yaml:"camera"`
	Animation    *AnimationDesc          `yaml:"animation"`
	Textures     map[string]TextureDesc  `yaml:"textures"`
	Materials    map[string]MaterialDesc `yaml:"materials"`
	Meshes       map[string]MeshDesc     `yaml:"meshes"`
	Nodes        []NodeDesc              `yaml:"nodes"`
	ShadowCaster string                  `yaml:"shadow_caster"`
}

// CameraDesc places the camera and optionally follows a node.
type CameraDesc struct {
	Eye    [3]float32 `yaml:"eye"`
	Target [3]float32 `yaml:"target"`
	Lens   string     `yaml:"lens"`
	Focus  float32    `yaml:"focus"`
	Zoom   float32    `yaml:"zoom"`
	Follow string     `yaml:"follow"`
}

// AnimationDesc drives every skin with a frame player.
type AnimationDesc struct {
	FPS  float32 `yaml:"fps"`
	Loop bool    `yaml:"loop"`
}

// TextureDesc is one of: a solid colour, a two-colour checker, or raw RGBA pixels.
type TextureDesc struct {
	Color   *[4]uint8    `yaml:"color"`
	Checker *CheckerDesc `yaml:"checker"`
	Width   int          `yaml:"width"`
	Height  int          `yaml:"height"`
	Pixels  []uint8      `yaml:"pixels"`
}

// CheckerDesc is a size x size checkerboard of cells.
type CheckerDesc struct {
	Size int      `yaml:"size"`
	Cell int      `yaml:"cell"`
	Even [4]uint8 `yaml:"even"`
	Odd  [4]uint8 `yaml:"odd"`
}

// MaterialDesc selects a material by Type: color, texture or shader.
type MaterialDesc struct {
	Type      string     `yaml:"type"`
	Color     [4]float32 `yaml:"color"`
	Unlit     bool       `yaml:"unlit"`
	Shininess float32    `yaml:"shininess"`
	Emissive  [4]float32 `yaml:"emissive"`
	Texture   string     `yaml:"texture"`
	Program   string     `yaml:"program"`
	Textures  []string   `yaml:"textures"`
	Alpha     *float32   `yaml:"alpha"`
	TwoSided  bool       `yaml:"two_sided"`
}

// MeshDesc selects a primitive by Type: quad, cube or inline.
type MeshDesc struct {
	Type     string    `yaml:"type"`
	Width    float32   `yaml:"width"`
	Height   float32   `yaml:"height"`
	Size     float32   `yaml:"size"`
	Format   string    `yaml:"format"`
	Vertices []float32 `yaml:"vertices"`
	Indices  []uint32  `yaml:"indices"`
}

// NodeDesc is one node and its subtree. Rotation is Euler degrees.
type NodeDesc struct {
	Name           string      `yaml:"name"`
	Translation    [3]float32  `yaml:"translation"`
	Rotation       [3]float32  `yaml:"rotation"`
	Scale          *[3]float32 `yaml:"scale"`
	Hidden         bool        `yaml:"hidden"`
	Opacity        *float32    `yaml:"opacity"`
	Mesh           string      `yaml:"mesh"`
	Material       string      `yaml:"material"`
	DoubleSided    bool        `yaml:"double_sided"`
	Occludable     bool        `yaml:"occludable"`
	OcclusionAlpha float32     `yaml:"occlusion_alpha"`
	CastsShadow    bool        `yaml:"casts_shadow"`
	Light          *LightDesc  `yaml:"light"`
	Frames         [][]float32 `yaml:"frames"`
	InverseBind    []float32   `yaml:"inverse_bind"`
	Skin           *SkinDesc   `yaml:"skin"`
	Children       []NodeDesc  `yaml:"children"`
}

// LightDesc describes a light attached to a node.
type LightDesc struct {
	Kind        string      `yaml:"kind"`
	Direction   [3]float32  `yaml:"direction"`
	Ambient     *[4]float32 `yaml:"ambient"`
	Diffuse     *[4]float32 `yaml:"diffuse"`
	Specular    *[4]float32 `yaml:"specular"`
	Attenuation *[3]float32 `yaml:"attenuation"`
	Cutoff      float32     `yaml:"cutoff"`
	Exponent    float32     `yaml:"exponent"`
	Disabled    bool        `yaml:"disabled"`
}

// SkinDesc binds bone nodes, by name, to index ranges of the node's mesh.
type SkinDesc struct {
	BonesPerVertex int         `yaml:"bones_per_vertex"`
	Batches        []BatchDesc `yaml:"batches"`
}

// BatchDesc is one bone batch.
type BatchDesc struct {
	Offset int      `yaml:"offset"`
	Count  int      `yaml:"count"`
	Bones  []string `yaml:"bones"`
}

// Parse decodes and validates a description. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Validate checks names and references without building anything.
func (f *File) Validate() error {
	for name, m := range f.Materials {
		switch m.Type {
		case "color", "":
		case "texture":
			if _, ok := f.Textures[m.Texture]; !ok {
				return fmt.Errorf("material %q: texture %q: %w", name, m.Texture, ErrUnknownRef)
			}
		case "shader":
			if m.Program == "" {
				return fmt.Errorf("%w: material %q has no program", ErrInvalid, name)
			}
			for _, t := range m.Textures {
				if _, ok := f.Textures[t]; !ok {
					return fmt.Errorf("material %q: texture %q: %w", name, t, ErrUnknownRef)
				}
			}
		default:
			return fmt.Errorf("%w: material %q has unknown type %q", ErrInvalid, name, m.Type)
		}
	}
	for name, t := range f.Textures {
		n := 0
		if t.Color != nil {
			n++
		}
		if t.Checker != nil {
			n++
		}
		if t.Pixels != nil {
			n++
			if t.Width <= 0 || t.Height <= 0 || len(t.Pixels) != t.Width*t.Height*4 {
				return fmt.Errorf("%w: texture %q needs width*height*4 pixel bytes", ErrInvalid, name)
			}
		}
		if n != 1 {
			return fmt.Errorf("%w: texture %q must set exactly one of color, checker, pixels", ErrInvalid, name)
		}
	}
	for name, m := range f.Meshes {
		switch m.Type {
		case "quad", "cube", "inline":
		default:
			return fmt.Errorf("%w: mesh %q has unknown type %q", ErrInvalid, name, m.Type)
		}
	}

	names := make(map[string]bool)
	var walk func(nodes []NodeDesc) error
	walk = func(nodes []NodeDesc) error {
		for _, n := range nodes {
			if n.Name == "" {
				return fmt.Errorf("%w: node without a name", ErrInvalid)
			}
			if names[n.Name] {
				return fmt.Errorf("%w: duplicate node name %q", ErrInvalid, n.Name)
			}
			names[n.Name] = true
			if n.Mesh != "" {
				if _, ok := f.Meshes[n.Mesh]; !ok {
					return fmt.Errorf("node %q: mesh %q: %w", n.Name, n.Mesh, ErrUnknownRef)
				}
			}
			if n.Material != "" {
				if _, ok := f.Materials[n.Material]; !ok {
					return fmt.Errorf("node %q: material %q: %w", n.Name, n.Material, ErrUnknownRef)
				}
			}
			if n.Light != nil {
				switch n.Light.Kind {
				case "directional", "point", "spot":
				default:
					return fmt.Errorf("%w: node %q has unknown light kind %q", ErrInvalid, n.Name, n.Light.Kind)
				}
			}
			if err := walk(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(f.Nodes); err != nil {
		return err
	}

	if f.ShadowCaster != "" && !names[f.ShadowCaster] {
		return fmt.Errorf("shadow caster %q: %w", f.ShadowCaster, ErrUnknownRef)
	}
	if f.Camera != nil && f.Camera.Follow != "" && !names[f.Camera.Follow] {
		return fmt.Errorf("camera follow %q: %w", f.Camera.Follow, ErrUnknownRef)
	}
	return nil
}
