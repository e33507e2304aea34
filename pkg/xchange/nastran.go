package xchange

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/modelxchange/internal/assets"
	"github.com/Faultbox/modelxchange/internal/fem"
	"github.com/Faultbox/modelxchange/internal/logger"
	"github.com/Faultbox/modelxchange/internal/meshio"
	"github.com/Faultbox/modelxchange/pkg/formats"
	"github.com/Faultbox/modelxchange/pkg/scenegraph"
)

// NastranExtension is the extension read by NastranReader.
const NastranExtension = "nas"

// NastranReader reads Nastran bulk data files holding a surface mesh with
// one temperature per grid point.
type NastranReader struct{}

// NewNastranReader creates a Nastran reader.
func NewNastranReader() *NastranReader {
	return &NastranReader{}
}

// Features reports the nas extension, readable from a file or a stream.
func (r *NastranReader) Features() Features {
	return Features{
		Extensions: map[string]FeatureMask{NastranExtension: ReadFilename | ReadStream},
	}
}

// Read parses the Nastran file at path.
func (r *NastranReader) Read(path string, opts *Options) (scenegraph.Node, error) {
	opts = orDefault(opts)

	if ext := meshio.NormalizeExtension(filepath.Ext(path)); ext != NastranExtension {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	found, err := assets.NewLocator(opts.Paths...).Find(path)
	if err != nil {
		logger.Warn("Nastran file not found", zap.String("path", path))
		return nil, wrap(ErrNotFound, err)
	}

	f, err := os.Open(found)
	if err != nil {
		return nil, wrap(ErrNotFound, err)
	}
	defer f.Close()

	return r.read(f, found)
}

// ReadStream parses Nastran records from rd. opts.ExtensionHint must be nas.
func (r *NastranReader) ReadStream(rd io.Reader, opts *Options) (scenegraph.Node, error) {
	opts = orDefault(opts)
	if hint := meshio.NormalizeExtension(opts.ExtensionHint); hint != NastranExtension {
		return nil, fmt.Errorf("%w: stream hint %q", ErrUnsupportedFormat, opts.ExtensionHint)
	}
	return r.read(rd, "<stream>")
}

// ReadMemory is not supported for Nastran data.
func (r *NastranReader) ReadMemory(data []byte, opts *Options) (scenegraph.Node, error) {
	return nil, fmt.Errorf("%w: memory reads of %s data", ErrUnsupportedFormat, NastranExtension)
}

func (r *NastranReader) read(rd io.Reader, source string) (scenegraph.Node, error) {
	records, err := formats.ParseNastran(rd)
	if err != nil {
		logger.Warn("Nastran parse failed", zap.String("source", source), zap.Error(err))
		return nil, wrap(ErrParse, err)
	}

	root, err := fem.Build(records)
	if err != nil {
		if errors.Is(err, fem.ErrIDMismatch) {
			logger.Error("grid ids and temperature ids differ",
				zap.String("source", source),
				zap.Int("grids", len(records.GridIDs)),
				zap.Int("temperatures", len(records.TempIDs)))
		}
		return nil, wrap(ErrValidation, err)
	}

	logger.Debug("read Nastran mesh",
		zap.String("source", source),
		zap.Int("grids", len(records.GridIDs)),
		zap.Int("triangles", records.TriangleCount()))
	return root, nil
}
