// Package formats provides parsers for text-based model and mesh file formats.
// Nastran bulk data parser for finite-element surface meshes with nodal
// temperatures. Only free-field (comma separated) records are read.
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

// Nastran format errors.
var (
	ErrMalformedNastranRecord = errors.New("malformed Nastran record")
)

// Record prefixes recognised by ParseNastran, in match order. Matching is by
// substring, so "CQUAD4," lines are read as quads.
const (
	nastranGrid = "GRID,"
	nastranTria = "CTRIA3,"
	nastranQuad = "QUAD4,"
	nastranTemp = "TEMP,"
)

// QuadUnfold is the order in which a quad's corners are emitted as two triangles.
var QuadUnfold = [6]int{0, 1, 2, 2, 3, 0}

// Nastran holds the records of a bulk data file in file order.
type Nastran struct {
	GridIDs      []int        // GRID ids, parallel to Grids
	Grids        [][3]float32 // GRID coordinates
	TempIDs      []int        // TEMP grid ids, parallel to Temperatures
	Temperatures []float32    // TEMP values
	FaceIDs      []int        // triangle corners as grid ids, three per triangle

	Triangles int // CTRIA3 records read
	Quads     int // QUAD4 records read
}

// TriangleCount returns the number of triangles in FaceIDs.
func (n *Nastran) TriangleCount() int {
	return len(n.FaceIDs) / 3
}

// ParseNastran parses GRID, CTRIA3, QUAD4 and TEMP records from r.
// Lines starting with '$' are comments; other record types are ignored.
func ParseNastran(r io.Reader) (*Nastran, error) {
	n := &Nastran{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "$") {
			continue
		}

		var err error
		switch {
		case strings.Contains(line, nastranGrid):
			err = n.parseGrid(line)
		case strings.Contains(line, nastranTria):
			err = n.parseTria(line)
		case strings.Contains(line, nastranQuad):
			err = n.parseQuad(line)
		case strings.Contains(line, nastranTemp):
			err = n.parseTemp(line)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading Nastran data: %w", err)
	}

	return n, nil
}

// ParseNastranFile parses a Nastran bulk data file from disk.
func ParseNastranFile(path string) (*Nastran, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ParseNastran(f)
}

// GRID,id,cp,x,y,z,...
func (n *Nastran) parseGrid(line string) error {
	fields := strings.Split(line, ",")
	id, err := intField(fields, 1)
	if err != nil {
		return err
	}

	var pos [3]float32
	for i := 0; i < 3; i++ {
		if pos[i], err = floatField(fields, 3+i); err != nil {
			return err
		}
	}

	n.GridIDs = append(n.GridIDs, id)
	n.Grids = append(n.Grids, pos)
	return nil
}

// CTRIA3,eid,pid,g1,g2,g3,...
func (n *Nastran) parseTria(line string) error {
	fields := strings.Split(line, ",")
	var ids [3]int
	for i := range ids {
		id, err := intField(fields, 3+i)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	n.FaceIDs = append(n.FaceIDs, ids[:]...)
	n.Triangles++
	return nil
}

// CQUAD4,eid,pid,g1,g2,g3,g4,...
func (n *Nastran) parseQuad(line string) error {
	fields := strings.Split(line, ",")
	var ids [4]int
	for i := range ids {
		id, err := intField(fields, 3+i)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	for _, corner := range QuadUnfold {
		n.FaceIDs = append(n.FaceIDs, ids[corner])
	}
	n.Quads++
	return nil
}

// TEMP,sid,g,t,...
func (n *Nastran) parseTemp(line string) error {
	fields := strings.Split(line, ",")
	id, err := intField(fields, 2)
	if err != nil {
		return err
	}
	value, err := floatField(fields, 3)
	if err != nil {
		return err
	}

	n.TempIDs = append(n.TempIDs, id)
	n.Temperatures = append(n.Temperatures, value)
	return nil
}

func field(fields []string, i int) (string, error) {
	if i >= len(fields) {
		return "", fmt.Errorf("%w: %s missing field %d", ErrMalformedNastranRecord, recordName(fields), i)
	}
	return strings.TrimSpace(fields[i]), nil
}

func intField(fields []string, i int) (int, error) {
	s, err := field(fields, i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s field %d: %q is not an integer", ErrMalformedNastranRecord, recordName(fields), i, s)
	}
	return v, nil
}

func floatField(fields []string, i int) (float32, error) {
	s, err := field(fields, i)
	if err != nil {
		return 0, err
	}
	v, ok := parseNastranFloat(s)
	if !ok {
		return 0, fmt.Errorf("%w: %s field %d: %q is not a number", ErrMalformedNastranRecord, recordName(fields), i, s)
	}
	return v, nil
}

// parseNastranFloat accepts ordinary floats and the Nastran short exponent
// form where the 'E' is omitted ("1.5-3" is 1.5e-3).
func parseNastranFloat(s string) (float32, bool) {
	if v, err := strconv.ParseFloat(s, 32); err == nil {
		return float32(v), true
	}

	for i := len(s) - 1; i > 0; i-- {
		if s[i] != '+' && s[i] != '-' {
			continue
		}
		if s[i-1] == 'e' || s[i-1] == 'E' {
			return 0, false
		}
		v, err := strconv.ParseFloat(s[:i]+"e"+s[i:], 32)
		if err != nil {
			return 0, false
		}
		return float32(v), true
	}
	return 0, false
}

func recordName(fields []string) string {
	if len(fields) == 0 {
		return "record"
	}
	return strings.TrimSpace(fields[0])
}
