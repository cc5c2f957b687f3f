package gldevice

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Uniform groups. A program re-uploads a group when its generation is behind
// the device's, so switching programs never leaves stale uniforms.
const (
	groupPass = iota
	groupModel
	groupSurface
	groupTexture
	groupLights
	groupBones
	groupMesh
	numGroups
)

type program struct {
	key     string
	id      uint32
	builtin bool
	locs map[string]int32
	seen [numGroups]uint64
}

// loc returns the uniform location for name, -1 if the program lacks it.
func (p *program) loc(name string) int32 {
	if l, ok := p.locs[name]; ok {
		return l
	}
	l := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locs[name] = l
	return l
}

// newProgram compiles and links a program. defines are injected after the
// #version line.
func newProgram(key, vertexSrc, fragmentSrc string, defines ...string) (*program, error) {
	id, err := compileProgram(withDefines(vertexSrc, defines), withDefines(fragmentSrc, defines))
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", key, err)
	}
	p := &program{key: key, id: id, locs: make(map[string]int32)}

	// Samplers are fixed: unit 0 for the surface texture, unit 1 for shadows.
	gl.UseProgram(id)
	if l := p.loc("uTexture"); l >= 0 {
		gl.Uniform1i(l, 0)
	}
	if l := p.loc("uShadowMap"); l >= 0 {
		gl.Uniform1i(l, 1)
	}
	gl.UseProgram(0)
	return p, nil
}

func (p *program) delete() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

func withDefines(src string, defines []string) string {
	if len(defines) == 0 {
		return src
	}
	var b strings.Builder
	for _, d := range defines {
		b.WriteString("#define " + d + "\n")
	}
	if i := strings.Index(src, "\n"); i >= 0 && strings.HasPrefix(src, "#version") {
		return src[:i+1] + b.String() + src[i+1:]
	}
	return b.String() + src
}

// compileProgram compiles vertex and fragment shaders and links them.
func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	id := gl.CreateProgram()
	gl.AttachShader(id, vertShader)
	gl.AttachShader(id, fragShader)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(id, logLen, nil, &log[0])
		gl.DeleteProgram(id)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(string(log), "\x00"))
	}
	return id, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, strings.TrimRight(string(log), "\x00"))
	}
	return shader, nil
}
