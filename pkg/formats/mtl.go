// Package formats provides parsers for text-based model and mesh file formats.
// Wavefront MTL material library parser.
package formats

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// MTLTexture is a texture map statement. Options other than -clamp are
// skipped.
type MTLTexture struct {
	Path  string
	Clamp bool
}

// MTLMaterial is one newmtl block. Unset properties are nil.
type MTLMaterial struct {
	Name string

	Ambient   *[3]float32 // Ka
	Diffuse   *[3]float32 // Kd
	Specular  *[3]float32 // Ks
	Emissive  *[3]float32 // Ke
	Shininess *float32    // Ns
	Dissolve  *float32    // d, or 1 - Tr
	IOR       *float32    // Ni
	Illum     *int        // illum

	// PBR extension (Pr/Pm).
	Roughness *float32
	Metallic  *float32

	MapAmbient   *MTLTexture // map_Ka
	MapDiffuse   *MTLTexture // map_Kd
	MapSpecular  *MTLTexture // map_Ks
	MapEmissive  *MTLTexture // map_Ke
	MapShininess *MTLTexture // map_Ns
	MapDissolve  *MTLTexture // map_d
	MapBump      *MTLTexture // map_Bump, bump
	MapNormal    *MTLTexture // norm
}

// mtlOptionArgs is the fixed argument count of each texture option.
// Options with a variable count (-o, -s, -t) are handled separately.
var mtlOptionArgs = map[string]int{
	"-blendu":  1,
	"-blendv":  1,
	"-boost":   1,
	"-cc":      1,
	"-clamp":   1,
	"-imfchan": 1,
	"-texres":  1,
	"-bm":      1,
	"-type":    1,
	"-mm":      2,
}

// ParseMTL parses a material library. Materials are returned in file order.
func ParseMTL(r io.Reader) ([]*MTLMaterial, error) {
	var materials []*MTLMaterial
	var current *MTLMaterial

	lineNo := 0
	err := scanStatements(r, &lineNo, func(keyword string, args []string) error {
		if keyword == "newmtl" {
			current = &MTLMaterial{Name: strings.Join(args, " ")}
			materials = append(materials, current)
			return nil
		}
		if current == nil {
			return nil
		}

		var err error
		switch strings.ToLower(keyword) {
		case "ka":
			current.Ambient, err = parseColor(args)
		case "kd":
			current.Diffuse, err = parseColor(args)
		case "ks":
			current.Specular, err = parseColor(args)
		case "ke":
			current.Emissive, err = parseColor(args)
		case "ns":
			current.Shininess, err = parseScalar(args)
		case "ni":
			current.IOR, err = parseScalar(args)
		case "d":
			current.Dissolve, err = parseScalar(args)
		case "tr":
			var tr *float32
			if tr, err = parseScalar(args); err == nil {
				d := 1 - *tr
				current.Dissolve = &d
			}
		case "pr":
			current.Roughness, err = parseScalar(args)
		case "pm":
			current.Metallic, err = parseScalar(args)
		case "illum":
			if len(args) > 0 {
				v, convErr := strconv.Atoi(args[0])
				if convErr != nil {
					return fmt.Errorf("%w: illum %q", ErrInvalidOBJStatement, args[0])
				}
				current.Illum = &v
			}
		case "map_ka":
			current.MapAmbient = parseTextureStatement(args)
		case "map_kd":
			current.MapDiffuse = parseTextureStatement(args)
		case "map_ks":
			current.MapSpecular = parseTextureStatement(args)
		case "map_ke":
			current.MapEmissive = parseTextureStatement(args)
		case "map_ns":
			current.MapShininess = parseTextureStatement(args)
		case "map_d":
			current.MapDissolve = parseTextureStatement(args)
		case "map_bump", "bump":
			current.MapBump = parseTextureStatement(args)
		case "norm", "map_kn":
			current.MapNormal = parseTextureStatement(args)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNo, err)
	}

	return materials, nil
}

// ParseMTLFile parses a material library from disk.
func ParseMTLFile(path string) ([]*MTLMaterial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ParseMTL(f)
}

func parseColor(args []string) (*[3]float32, error) {
	if len(args) > 0 && (args[0] == "spectral" || args[0] == "xyz") {
		return nil, nil
	}
	c, err := parseVec3(args, 1)
	if err != nil {
		return nil, err
	}
	// A single value is a grey level.
	if len(args) == 1 {
		c[1], c[2] = c[0], c[0]
	}
	return &c, nil
}

func parseScalar(args []string) (*float32, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: missing value", ErrInvalidOBJStatement)
	}
	v, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidOBJStatement, args[0])
	}
	f := float32(v)
	return &f, nil
}

// parseTextureStatement strips texture options and returns the remaining
// path. Paths may contain spaces.
func parseTextureStatement(args []string) *MTLTexture {
	tex := &MTLTexture{}
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") {
		opt := strings.ToLower(args[i])
		i++
		switch opt {
		case "-o", "-s", "-t":
			for n := 0; n < 3 && i < len(args); n++ {
				if _, err := strconv.ParseFloat(args[i], 64); err != nil {
					break
				}
				i++
			}
		default:
			n := mtlOptionArgs[opt]
			if opt == "-clamp" && i < len(args) {
				tex.Clamp = strings.EqualFold(args[i], "on")
			}
			i += n
		}
	}
	if i >= len(args) {
		return nil
	}

	tex.Path = strings.ReplaceAll(strings.Join(args[i:], " "), "\\", "/")
	return tex
}
