package xchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/modelxchange/internal/assets"
	"github.com/Faultbox/modelxchange/internal/convert"
	"github.com/Faultbox/modelxchange/internal/logger"
	"github.com/Faultbox/modelxchange/internal/material"
	"github.com/Faultbox/modelxchange/internal/meshio"
	"github.com/Faultbox/modelxchange/pkg/gpu"
	"github.com/Faultbox/modelxchange/pkg/scenegraph"
)

// ModelReader reads glTF, GLB and OBJ models. It is safe for concurrent use.
type ModelReader struct {
	builder *convert.Builder
}

// ModelOption configures a ModelReader.
type ModelOption func(*modelConfig)

type modelConfig struct {
	defaults *gpu.Defaults
}

// WithDefaults sets the state bound at the root of every graph. The
// defaults must not be modified afterwards.
func WithDefaults(d *gpu.Defaults) ModelOption {
	return func(c *modelConfig) {
		c.defaults = d
	}
}

// NewModelReader creates a model reader. Without WithDefaults it builds its
// own default state.
func NewModelReader(opts ...ModelOption) *ModelReader {
	var cfg modelConfig
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.defaults == nil {
		cfg.defaults = gpu.NewDefaults()
	}
	return &ModelReader{builder: convert.NewBuilder(cfg.defaults)}
}

// Features reports every extension the importer supports, readable from a
// file, a stream or memory.
func (r *ModelReader) Features() Features {
	f := Features{
		Extensions: make(map[string]FeatureMask),
		Options: []OptionInfo{
			{Name: "generate_smooth_normals", Type: "bool"},
			{Name: "generate_sharp_normals", Type: "bool"},
			{Name: "crease_angle", Type: "float32"},
			{Name: "two_sided", Type: "bool"},
		},
	}
	for _, ext := range ParseExtensionList(meshio.ExtensionList()) {
		f.Extensions[ext] = ReadFilename | ReadStream | ReadMemory
	}
	return f
}

// Read imports the model at path. The file is looked up in opts.Paths when
// it does not exist as given, and its directory is searched for textures.
func (r *ModelReader) Read(path string, opts *Options) (scenegraph.Node, error) {
	opts = orDefault(opts)

	ext := meshio.NormalizeExtension(filepath.Ext(path))
	if !meshio.IsExtensionSupported(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	locator := assets.NewLocator(opts.Paths...)
	found, err := locator.Find(path)
	if err != nil {
		logger.Warn("model not found", zap.String("path", path), zap.Strings("search", opts.Paths))
		return nil, wrap(ErrNotFound, err)
	}

	scene, err := opts.importer().ReadFile(found, opts.ImportFlags())
	if err != nil {
		return nil, r.importError(found, err)
	}

	locator.AddPath(filepath.Dir(found))
	return r.build(scene, locator, ext, opts)
}

// ReadStream imports a model from r. opts.ExtensionHint names the format.
func (r *ModelReader) ReadStream(rd io.Reader, opts *Options) (scenegraph.Node, error) {
	opts = orDefault(opts)
	if opts.ExtensionHint == "" {
		return nil, fmt.Errorf("%w: stream read needs an extension hint", ErrUnsupportedFormat)
	}

	data, err := readStream(rd)
	if err != nil {
		return nil, wrap(ErrParse, err)
	}
	return r.ReadMemory(data, opts)
}

// ReadMemory imports a model held in data. opts.ExtensionHint names the
// format. Files referenced by the model are looked up in opts.Paths.
func (r *ModelReader) ReadMemory(data []byte, opts *Options) (scenegraph.Node, error) {
	opts = orDefault(opts)

	ext := meshio.NormalizeExtension(opts.ExtensionHint)
	if !meshio.IsExtensionSupported(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.ExtensionHint)
	}

	scene, err := opts.importer().ReadMemory(data, opts.ImportFlags(), ext)
	if err != nil {
		return nil, r.importError("<memory>", err)
	}
	return r.build(scene, assets.NewLocator(opts.Paths...), ext, opts)
}

func (r *ModelReader) build(scene *meshio.Scene, locator *assets.Locator, ext string, opts *Options) (scenegraph.Node, error) {
	resolver := material.NewResolver(locator, opts.Workers)
	states, err := resolver.Resolve(context.Background(), scene, opts.TwoSided)
	if err != nil {
		return nil, wrap(ErrValidation, err)
	}

	root, stats := r.builder.Build(scene, states, convert.Options{
		Extension:         ext,
		FormatConventions: opts.FormatCoordinateConventions,
		SceneConvention:   opts.SceneCoordinateConvention,
	})
	if stats.DroppedFaces > 0 {
		logger.Warn("non-triangle faces dropped",
			zap.String("format", ext),
			zap.Int("faces", stats.DroppedFaces))
	}
	return root, nil
}

// importError maps an importer error onto the read sentinels.
func (r *ModelReader) importError(source string, err error) error {
	logger.Warn("model import failed", zap.String("source", source), zap.Error(err))

	switch {
	case errors.Is(err, meshio.ErrUnsupportedExtension):
		return wrap(ErrUnsupportedFormat, err)
	case errors.Is(err, meshio.ErrInvalidScene):
		return wrap(ErrValidation, err)
	default:
		return wrap(ErrParse, err)
	}
}
