// Package formats provides parsers for text-based model and mesh file formats.
// Wavefront OBJ geometry parser.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrInvalidOBJStatement = errors.New("invalid OBJ statement")
	ErrOBJIndexOutOfRange  = errors.New("OBJ index out of range")
)

// OBJCorner references the attributes of one face corner.
// Indices are zero-based; -1 means the attribute is absent.
type OBJCorner struct {
	V, VT, VN int
}

// OBJFace is a point (1 corner), line segment (2) or polygon (3+).
type OBJFace struct {
	Corners []OBJCorner
}

// OBJGroup is a run of faces sharing an object/group name and material.
type OBJGroup struct {
	Name     string
	Material string
	Faces    []OBJFace
}

// OBJ is a parsed Wavefront geometry file.
type OBJ struct {
	Positions    [][3]float32
	TexCoords    [][3]float32
	Normals      [][3]float32
	Groups       []*OBJGroup
	MaterialLibs []string
}

// ParseOBJ parses Wavefront OBJ geometry. Free-form curves and surfaces are
// ignored. Groups without faces are dropped.
func ParseOBJ(r io.Reader) (*OBJ, error) {
	obj := &OBJ{}
	current := &OBJGroup{Name: "default"}
	obj.Groups = append(obj.Groups, current)

	// startGroup begins a new group unless the current one is still empty.
	startGroup := func(name, material string) {
		if len(current.Faces) == 0 {
			current.Name, current.Material = name, material
			return
		}
		current = &OBJGroup{Name: name, Material: material}
		obj.Groups = append(obj.Groups, current)
	}

	lineNo := 0
	err := scanStatements(r, &lineNo, func(keyword string, args []string) error {
		switch keyword {
		case "v":
			p, err := parseVec3(args, 3)
			if err != nil {
				return err
			}
			obj.Positions = append(obj.Positions, p)
		case "vt":
			p, err := parseVec3(args, 1)
			if err != nil {
				return err
			}
			obj.TexCoords = append(obj.TexCoords, p)
		case "vn":
			p, err := parseVec3(args, 3)
			if err != nil {
				return err
			}
			obj.Normals = append(obj.Normals, p)
		case "f":
			if len(args) < 3 {
				return fmt.Errorf("%w: face needs at least 3 corners", ErrInvalidOBJStatement)
			}
			face, err := obj.parseCorners(args)
			if err != nil {
				return err
			}
			current.Faces = append(current.Faces, OBJFace{Corners: face})
		case "l":
			corners, err := obj.parseCorners(args)
			if err != nil {
				return err
			}
			for i := 0; i+1 < len(corners); i++ {
				current.Faces = append(current.Faces, OBJFace{Corners: []OBJCorner{corners[i], corners[i+1]}})
			}
		case "p":
			corners, err := obj.parseCorners(args)
			if err != nil {
				return err
			}
			for _, c := range corners {
				current.Faces = append(current.Faces, OBJFace{Corners: []OBJCorner{c}})
			}
		case "o", "g":
			startGroup(strings.Join(args, " "), current.Material)
		case "usemtl":
			name := strings.Join(args, " ")
			if name != current.Material {
				startGroup(current.Name, name)
			}
		case "mtllib":
			obj.MaterialLibs = append(obj.MaterialLibs, args...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNo, err)
	}

	groups := obj.Groups[:0]
	for _, g := range obj.Groups {
		if len(g.Faces) > 0 {
			groups = append(groups, g)
		}
	}
	obj.Groups = groups

	return obj, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ParseOBJ(f)
}

func (obj *OBJ) parseCorners(args []string) ([]OBJCorner, error) {
	corners := make([]OBJCorner, 0, len(args))
	for _, arg := range args {
		parts := strings.Split(arg, "/")
		if len(parts) > 3 {
			return nil, fmt.Errorf("%w: corner %q", ErrInvalidOBJStatement, arg)
		}

		c := OBJCorner{V: -1, VT: -1, VN: -1}
		var err error
		if c.V, err = resolveIndex(parts[0], len(obj.Positions)); err != nil {
			return nil, err
		}
		if c.V < 0 {
			return nil, fmt.Errorf("%w: corner %q has no vertex", ErrInvalidOBJStatement, arg)
		}
		if len(parts) > 1 {
			if c.VT, err = resolveIndex(parts[1], len(obj.TexCoords)); err != nil {
				return nil, err
			}
		}
		if len(parts) > 2 {
			if c.VN, err = resolveIndex(parts[2], len(obj.Normals)); err != nil {
				return nil, err
			}
		}
		corners = append(corners, c)
	}
	return corners, nil
}

// resolveIndex converts a one-based (or negative, relative) OBJ index into a
// zero-based index. An empty string yields -1.
func resolveIndex(s string, count int) (int, error) {
	if s == "" {
		return -1, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrInvalidOBJStatement, s)
	}

	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	}
	return 0, fmt.Errorf("%w: %d (have %d)", ErrOBJIndexOutOfRange, i, count)
}

// parseVec3 reads up to three floats, requiring at least required of them.
func parseVec3(args []string, required int) ([3]float32, error) {
	var v [3]float32
	if len(args) < required {
		return v, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidOBJStatement, required, len(args))
	}
	for i := 0; i < len(args) && i < 3; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return v, fmt.Errorf("%w: %q is not a number", ErrInvalidOBJStatement, args[i])
		}
		v[i] = float32(f)
	}
	return v, nil
}

// scanStatements splits r into keyword statements, joining lines continued
// with a trailing backslash and dropping comments.
func scanStatements(r io.Reader, lineNo *int, fn func(keyword string, args []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var pending string
	for scanner.Scan() {
		*lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, `\`) {
			pending += strings.TrimSuffix(line, `\`) + " "
			continue
		}
		line = pending + line
		pending = ""

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := fn(fields[0], fields[1:]); err != nil {
			return err
		}
	}
	return scanner.Err()
}
