// Package shader compiles the GLSL variants of material pipelines.
package shader

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/modelxchange/pkg/gpu"
)

// InjectDefines inserts a #define line for each define directly after the
// #version directive of source. Sources without a #version directive get the
// defines at the top.
func InjectDefines(source string, defines []string) string {
	if len(defines) == 0 {
		return source
	}

	var block strings.Builder
	for _, d := range defines {
		block.WriteString("#define ")
		block.WriteString(d)
		block.WriteByte('\n')
	}

	trimmed := strings.TrimLeft(source, " \t\r\n")
	if !strings.HasPrefix(trimmed, "#version") {
		return block.String() + source
	}
	offset := len(source) - len(trimmed)
	end := strings.IndexByte(trimmed, '\n')
	if end < 0 {
		return source + "\n" + block.String()
	}
	split := offset + end + 1
	return source[:split] + block.String() + source[split:]
}

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Returns the program ID or an error if compilation/linking fails.
// A current OpenGL context is required.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
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

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := infoLog(program, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", log)
	}

	return program, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		log := infoLog(shader, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, log)
	}

	return shader, nil
}

func infoLog(object uint32,
	get func(uint32, uint32, *int32),
	read func(uint32, int32, *int32, *uint8)) string {
	var logLen int32
	get(object, gl.INFO_LOG_LENGTH, &logLen)
	if logLen <= 0 {
		return "no info log"
	}
	log := make([]byte, logLen)
	read(object, logLen, nil, &log[0])
	return strings.TrimRight(string(log), "\x00\n")
}

// Sources returns the vertex and fragment sources of p with their defines
// injected.
func Sources(p *gpu.GraphicsPipeline) (vertex, fragment string, err error) {
	var haveVertex, haveFragment bool
	for _, s := range p.Stages {
		src := InjectDefines(s.Source, s.Defines)
		switch s.Stage {
		case gpu.StageVertex:
			vertex, haveVertex = src, true
		case gpu.StageFragment:
			fragment, haveFragment = src, true
		}
	}
	if !haveVertex || !haveFragment {
		return "", "", fmt.Errorf("pipeline %s: missing vertex or fragment stage", p.Key())
	}
	return vertex, fragment, nil
}

// ValidatePipeline compiles and links the shader variant of p, then deletes
// the program. A current OpenGL context is required.
func ValidatePipeline(p *gpu.GraphicsPipeline) error {
	vertex, fragment, err := Sources(p)
	if err != nil {
		return err
	}
	program, err := CompileProgram(vertex, fragment)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", p.Key(), err)
	}
	gl.DeleteProgram(program)
	return nil
}
