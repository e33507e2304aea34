// Package fem builds temperature-shaded scene graphs from finite-element
// records.
package fem

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/modelxchange/internal/logger"
	"github.com/Faultbox/modelxchange/pkg/formats"
	"github.com/Faultbox/modelxchange/pkg/gpu"
	"github.com/Faultbox/modelxchange/pkg/scenegraph"
)

// Build errors.
var (
	ErrEmptyMesh     = errors.New("no grid points")
	ErrIDMismatch    = errors.New("grid and temperature ids differ")
	ErrUnknownGridID = errors.New("face references unknown grid id")
)

// UniformTemperature is the normalized value of every vertex when all
// temperatures are equal.
const UniformTemperature = 0.5

// Build converts parsed records into a state group bound to the temperature
// pipeline. Every GRID id must have exactly one TEMP record and vice versa,
// and there must be at least one GRID.
func Build(n *formats.Nastran) (*scenegraph.StateGroup, error) {
	if len(n.GridIDs) == 0 {
		logger.Warn("rejecting finite-element mesh without grid points",
			zap.Int("temperatures", len(n.TempIDs)))
		return nil, ErrEmptyMesh
	}
	if err := CheckIDs(n.GridIDs, n.TempIDs); err != nil {
		logger.Warn("rejecting finite-element mesh",
			zap.Int("grids", len(n.GridIDs)),
			zap.Int("temperatures", len(n.TempIDs)),
			zap.Error(err))
		return nil, err
	}

	index := make(map[int]uint32, len(n.GridIDs))
	for i, id := range n.GridIDs {
		index[id] = uint32(i)
	}

	normalized := Normalize(n.Temperatures)
	temps := make(scenegraph.FloatArray, len(n.GridIDs))
	for i, id := range n.TempIDs {
		temps[index[id]] = normalized[i]
	}

	positions := make(scenegraph.Vec3Array, len(n.Grids))
	copy(positions, n.Grids)

	indices := make([]uint32, len(n.FaceIDs))
	for i, id := range n.FaceIDs {
		v, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownGridID, id)
		}
		indices[i] = v
	}

	pipeline := gpu.NewTemperaturePipeline()
	state := &gpu.BindState{Pipeline: &gpu.BindGraphicsPipeline{Pipeline: pipeline}}
	root := scenegraph.NewStateGroup(state)
	root.AddChild(&scenegraph.VertexIndexDraw{
		Arrays:        []scenegraph.Array{positions, temps},
		Indices:       scenegraph.NewIndexBuffer32(indices),
		IndexCount:    uint32(len(indices)),
		InstanceCount: 1,
	})

	logger.Debug("built finite-element mesh",
		zap.Int("vertices", len(positions)),
		zap.Int("triangles", len(indices)/3))
	return root, nil
}

// CheckIDs reports ErrIDMismatch unless grid and temp hold the same ids.
func CheckIDs(grid, temp []int) error {
	if len(grid) != len(temp) {
		return fmt.Errorf("%w: %d grids, %d temperatures", ErrIDMismatch, len(grid), len(temp))
	}
	a := slices.Clone(grid)
	b := slices.Clone(temp)
	slices.Sort(a)
	slices.Sort(b)
	for i := range a {
		if a[i] != b[i] {
			return fmt.Errorf("%w: grid %d, temperature %d", ErrIDMismatch, a[i], b[i])
		}
	}
	for i := 1; i < len(a); i++ {
		if a[i] == a[i-1] {
			return fmt.Errorf("%w: duplicate id %d", ErrIDMismatch, a[i])
		}
	}
	return nil
}

// Normalize maps values linearly onto [0,1] using their minimum and maximum.
func Normalize(values []float32) []float32 {
	out := make([]float32, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := slices.Min(values), slices.Max(values)
	if lo == hi {
		for i := range out {
			out[i] = UniformTemperature
		}
		return out
	}
	scale := hi - lo
	for i, v := range values {
		out[i] = (v - lo) / scale
	}
	return out
}
