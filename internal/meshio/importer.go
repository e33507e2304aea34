package meshio

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/modelxchange/internal/logger"
)

// Import errors.
var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrImport               = errors.New("import failed")
	ErrInvalidScene         = errors.New("invalid scene")
)

// backend reads one family of file formats.
type backend interface {
	readFile(path string) (*Scene, error)
	readMemory(data []byte) (*Scene, error)
}

var backends = map[string]backend{
	"gltf": gltfBackend{},
	"glb":  gltfBackend{},
	"obj":  objBackend{},
}

// NormalizeExtension lower-cases ext and strips a leading "*." or ".".
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimPrefix(ext, "*")
	return strings.TrimPrefix(ext, ".")
}

func resolveBackend(ext string) (backend, error) {
	b, ok := backends[NormalizeExtension(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
	return b, nil
}

// Extensions returns the supported extensions, lower-case without a dot.
func Extensions() []string {
	exts := make([]string, 0, len(backends))
	for ext := range backends {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		return extensionOrder(exts[i]) < extensionOrder(exts[j])
	})
	return exts
}

func extensionOrder(ext string) string {
	switch ext {
	case "gltf":
		return "0"
	case "glb":
		return "1"
	}
	return "2" + ext
}

// ExtensionList returns the supported extensions in the "*.a;*.b" form used
// by file dialogs.
func ExtensionList() string {
	exts := Extensions()
	for i, ext := range exts {
		exts[i] = "*." + ext
	}
	return strings.Join(exts, ";")
}

// IsExtensionSupported reports whether a backend reads ext. The extension
// may carry a leading dot and any case.
func IsExtensionSupported(ext string) bool {
	_, ok := backends[NormalizeExtension(ext)]
	return ok
}

// Importer reads model files into scenes. The zero value is not ready for
// use; call NewImporter.
type Importer struct {
	creaseAngle float32
}

// NewImporter creates an importer with the default crease angle.
func NewImporter() *Importer {
	return &Importer{creaseAngle: DefaultCreaseAngle}
}

// SetCreaseAngle sets the smoothing limit used by GenSmoothNormals, in degrees.
func (im *Importer) SetCreaseAngle(degrees float32) {
	im.creaseAngle = degrees
}

// CreaseAngle returns the smoothing limit in degrees.
func (im *Importer) CreaseAngle() float32 {
	return im.creaseAngle
}

// ReadFile imports the file at path, choosing the backend by extension.
func (im *Importer) ReadFile(path string, flags PostProcess) (*Scene, error) {
	b, err := resolveBackend(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	scene, err := b.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrImport, path, err)
	}
	return im.finish(scene, flags, path)
}

// ReadMemory imports a model held in memory. hint is the file extension of
// the data ("glb", ".obj", ...).
func (im *Importer) ReadMemory(data []byte, flags PostProcess, hint string) (*Scene, error) {
	b, err := resolveBackend(hint)
	if err != nil {
		return nil, err
	}

	scene, err := b.readMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s data: %w", ErrImport, NormalizeExtension(hint), err)
	}
	return im.finish(scene, flags, "<memory>")
}

func (im *Importer) finish(scene *Scene, flags PostProcess, source string) (*Scene, error) {
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	ApplyPostProcess(scene, flags, im.creaseAngle)

	logger.Debug("imported scene",
		zap.String("source", source),
		zap.Stringer("flags", flags),
		zap.Int("meshes", len(scene.Meshes)),
		zap.Int("materials", len(scene.Materials)),
		zap.Int("textures", len(scene.Textures)),
		zap.Int("cameras", len(scene.Cameras)),
		zap.Int("lights", len(scene.Lights)))
	return scene, nil
}
