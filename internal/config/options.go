package config

import (
	"fmt"

	"github.com/Faultbox/modelxchange/internal/meshio"
	"github.com/Faultbox/modelxchange/pkg/scenegraph"
	"github.com/Faultbox/modelxchange/pkg/xchange"
)

// ReaderOptions converts the import and path settings into reader options.
func (c *Config) ReaderOptions() (*xchange.Options, error) {
	opts := xchange.DefaultOptions()
	opts.Paths = append([]string(nil), c.Paths.Search...)
	opts.GenerateSmoothNormals = c.Import.GenerateSmoothNormals
	opts.GenerateSharpNormals = c.Import.GenerateSharpNormals
	if c.Import.CreaseAngle > 0 {
		opts.CreaseAngle = c.Import.CreaseAngle
	}
	opts.TwoSided = c.Import.TwoSided
	opts.Workers = c.Import.Workers

	if c.Import.SceneCoordinateConvention != "" {
		conv, err := scenegraph.ParseCoordinateConvention(c.Import.SceneCoordinateConvention)
		if err != nil {
			return nil, fmt.Errorf("scene_coordinate_convention: %w", err)
		}
		opts.SceneCoordinateConvention = conv
	}

	if len(c.Import.FormatCoordinateConventions) > 0 {
		opts.FormatCoordinateConventions = make(map[string]scenegraph.CoordinateConvention, len(c.Import.FormatCoordinateConventions))
		for ext, name := range c.Import.FormatCoordinateConventions {
			conv, err := scenegraph.ParseCoordinateConvention(name)
			if err != nil {
				return nil, fmt.Errorf("format_coordinate_conventions.%s: %w", ext, err)
			}
			opts.FormatCoordinateConventions[meshio.NormalizeExtension(ext)] = conv
		}
	}

	return opts, nil
}
