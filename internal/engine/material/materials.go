package material

// ColorMaterial shades with flat colours, optionally lit.
type ColorMaterial struct {
	Label   string
	Surface Surface
}

// NewColor returns a lit material with the given diffuse colour.
func NewColor(name string, rgba [4]float32) *ColorMaterial {
	return &ColorMaterial{
		Label: name,
		Surface: Surface{
			Ambient:   [4]float32{0.2, 0.2, 0.2, 1},
			Diffuse:   rgba,
			Specular:  [4]float32{0, 0, 0, 1},
			Emissive:  [4]float32{0, 0, 0, 1},
			Shininess: 0,
			Lit:       true,
		},
	}
}

func (m *ColorMaterial) Name() string     { return m.Label }
func (m *ColorMaterial) Opacity() float32 { return clamp01(m.Surface.Diffuse[3]) }

// Prepare never fails; colour materials work on every device.
func (m *ColorMaterial) Prepare(Capabilities) (State, error) {
	program := ProgramUnlit
	if m.Surface.Lit {
		program = ProgramLit
	}
	return State{
		Program: program,
		Raster:  raster(m.Opacity() >= 1),
		Surface: m.Surface,
	}, nil
}

// TextureMaterial modulates a texture with a colour surface. It blends when
// either the colour or the texture carries alpha.
type TextureMaterial struct {
	ColorMaterial
	Texture *Texture
}

// NewTextured returns a lit white material sampling tex.
func NewTextured(name string, tex *Texture) *TextureMaterial {
	return &TextureMaterial{
		ColorMaterial: *NewColor(name, [4]float32{1, 1, 1, 1}),
		Texture:       tex,
	}
}

// UsedTextures returns the texture so it can be uploaded before Prepare.
func (m *TextureMaterial) UsedTextures() []*Texture {
	if m.Texture == nil {
		return nil
	}
	return []*Texture{m.Texture}
}

func (m *TextureMaterial) Prepare(caps Capabilities) (State, error) {
	if m.Texture == nil {
		return State{}, configErr(m.Label, ErrMissingTexture)
	}
	if caps.MaxTextureUnits < 1 {
		return State{}, configErr(m.Label, ErrTooManyTextures)
	}
	opaque := m.Opacity() >= 1 && !m.Texture.HasAlpha()
	return State{
		Program: ProgramTextured,
		Texture: m.Texture.Handle(),
		Raster:  raster(opaque),
		Surface: m.Surface,
	}, nil
}

// ShaderMaterial runs a custom device program. It needs a programmable
// pipeline and one texture unit per texture.
type ShaderMaterial struct {
	Label    string
	Program  string
	Textures []*Texture
	Surface  Surface
	Alpha    float32
	TwoSided bool
}

func (m *ShaderMaterial) Name() string     { return m.Label }
func (m *ShaderMaterial) Opacity() float32 { return clamp01(m.Alpha) }

func (m *ShaderMaterial) UsedTextures() []*Texture { return m.Textures }

func (m *ShaderMaterial) Prepare(caps Capabilities) (State, error) {
	if !caps.Programmable {
		return State{}, configErr(m.Label, ErrProgrammableRequired)
	}
	if len(m.Textures) > caps.MaxTextureUnits {
		return State{}, configErr(m.Label, ErrTooManyTextures)
	}
	s := State{
		Program: m.Program,
		Raster:  raster(m.Opacity() >= 1),
		Surface: m.Surface,
	}
	if len(m.Textures) > 0 {
		if m.Textures[0] == nil {
			return State{}, configErr(m.Label, ErrMissingTexture)
		}
		s.Texture = m.Textures[0].Handle()
	}
	if m.TwoSided {
		s.Raster.Cull = CullNone
	}
	return s, nil
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
