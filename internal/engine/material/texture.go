package material

// TextureHandle identifies a texture uploaded to a device. Zero means none.
type TextureHandle uint32

// Texture is RGBA8 image data shared between materials.
type Texture struct {
	name     string
	width    int
	height   int
	pixels   []byte
	hasAlpha bool
	handle   TextureHandle
}

// NewTexture wraps RGBA8 pixels. hasAlpha is derived from the pixel data.
func NewTexture(name string, width, height int, pixels []byte) *Texture {
	t := &Texture{name: name, width: width, height: height, pixels: pixels}
	for i := 3; i < len(pixels); i += 4 {
		if pixels[i] < 255 {
			t.hasAlpha = true
			break
		}
	}
	return t
}

// SolidTexture returns a 1x1 texture of a single colour.
func SolidTexture(name string, r, g, b, a byte) *Texture {
	return NewTexture(name, 1, 1, []byte{r, g, b, a})
}

func (t *Texture) Name() string          { return t.name }
func (t *Texture) Size() (int, int)      { return t.width, t.height }
func (t *Texture) Pixels() []byte        { return t.pixels }
func (t *Texture) HasAlpha() bool        { return t.hasAlpha }
func (t *Texture) Handle() TextureHandle { return t.handle }

// SetHandle records the device handle after upload.
func (t *Texture) SetHandle(h TextureHandle) { t.handle = h }
