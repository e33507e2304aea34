package material

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/modelxchange/internal/assets"
	"github.com/Faultbox/modelxchange/internal/logger"
	"github.com/Faultbox/modelxchange/internal/meshio"
	"github.com/Faultbox/modelxchange/internal/texture"
	"github.com/Faultbox/modelxchange/pkg/gpu"
)

// Resolver converts the materials of a scene into bind states, loading
// their textures through a locator.
type Resolver struct {
	locator *assets.Locator
	workers int
}

// NewResolver creates a resolver that finds texture files with locator.
// workers bounds the number of materials resolved at once; 0 means GOMAXPROCS.
func NewResolver(locator *assets.Locator, workers int) *Resolver {
	if locator == nil {
		locator = assets.NewLocator()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Resolver{locator: locator, workers: workers}
}

// resolution is the state shared by the materials of one scene.
type resolution struct {
	scene *meshio.Scene
	cache *texture.Cache
}

// Describe resolves every material of scene. The result is parallel to
// scene.Materials.
func (r *Resolver) Describe(ctx context.Context, scene *meshio.Scene, twoSided bool) ([]*Descriptor, error) {
	res := &resolution{scene: scene, cache: texture.NewCache()}
	descriptors := make([]*Descriptor, len(scene.Materials))
	acquired := make([][]string, len(scene.Materials))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, m := range scene.Materials {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			descriptors[i], acquired[i] = r.resolve(res, m, twoSided)
			return nil
		})
	}
	err := g.Wait()

	// Images stay referenced by the descriptors; the cache only
	// deduplicates loads within this call.
	for _, keys := range acquired {
		for _, key := range keys {
			res.cache.Release(key)
		}
	}
	if err != nil {
		return nil, err
	}
	return descriptors, nil
}

// Resolve resolves every material of scene into a bind state. The result is
// parallel to scene.Materials.
func (r *Resolver) Resolve(ctx context.Context, scene *meshio.Scene, twoSided bool) ([]gpu.BindState, error) {
	descriptors, err := r.Describe(ctx, scene, twoSided)
	if err != nil {
		return nil, err
	}
	states := make([]gpu.BindState, len(descriptors))
	for i, d := range descriptors {
		states[i] = d.BindState()
	}
	return states, nil
}

func (r *Resolver) resolve(res *resolution, m *meshio.Material, twoSided bool) (*Descriptor, []string) {
	d := Describe(m, twoSided)

	var keys []string
	slots := d.Slots[:0]
	for _, s := range d.Slots {
		key, ok := r.fill(res, m, &s)
		if !ok {
			logger.Warn("no texture available, slot disabled",
				zap.String("material", m.Name),
				zap.String("slot", s.Define))
			continue
		}
		keys = append(keys, key)
		slots = append(slots, s)
	}
	d.Slots = slots
	d.finish()

	logger.Debug("resolved material",
		zap.String("material", d.Name),
		zap.Stringer("workflow", d.Workflow),
		zap.Strings("defines", d.Defines()))
	return d, keys
}

// fill loads the first texture of s that resolves, starting from the
// preferred type chosen by Describe and moving down s.Types.
func (r *Resolver) fill(res *resolution, m *meshio.Material, s *Slot) (string, bool) {
	start := slices.Index(s.Types, s.Type)
	if start < 0 {
		start = 0
	}
	for _, t := range s.Types[start:] {
		ref, ok := m.Texture(t)
		if !ok {
			continue
		}
		key, img, err := r.loadImage(res, ref)
		if err != nil {
			logger.Warn("texture unavailable",
				zap.String("material", m.Name),
				zap.String("slot", s.Define),
				zap.String("texture", ref.Path),
				zap.Error(err))
			continue
		}
		s.Ref, s.Type = ref, t
		s.Image = gpu.SamplerImage{Sampler: NewSampler(ref, img), Image: img}
		return key, true
	}
	return "", false
}

// loadImage returns the cache key and image of ref.
func (r *Resolver) loadImage(res *resolution, ref meshio.TextureRef) (string, *gpu.Image, error) {
	if idx, ok := ref.EmbeddedIndex(); ok {
		if idx >= len(res.scene.Textures) {
			return "", nil, fmt.Errorf("embedded texture %d of %d", idx, len(res.scene.Textures))
		}
		tex := res.scene.Textures[idx]
		img, err := res.cache.Acquire(ref.Path, func() (*gpu.Image, error) {
			return decodeEmbedded(tex)
		})
		return ref.Path, img, err
	}

	path, err := r.locator.Find(ref.Path)
	if err != nil {
		return "", nil, err
	}
	img, err := res.cache.Acquire(path, func() (*gpu.Image, error) {
		data, err := r.locator.Load(path)
		if err != nil {
			return nil, err
		}
		rgba, err := texture.Decode(data, filepath.Ext(path))
		if err != nil {
			return nil, err
		}
		return gpu.NewImage(rgba), nil
	})
	return path, img, err
}

func decodeEmbedded(tex *meshio.EmbeddedTexture) (*gpu.Image, error) {
	if tex.Compressed() {
		rgba, err := texture.Decode(tex.Data[:min(tex.Width, len(tex.Data))], tex.FormatHint)
		if err != nil {
			return nil, err
		}
		return gpu.NewImage(rgba), nil
	}
	rgba, err := texture.FromTexels(tex.Width, tex.Height, tex.Texels)
	if err != nil {
		return nil, err
	}
	return gpu.NewImage(rgba), nil
}

// AddressMode maps a texture map mode to a sampler address mode.
func AddressMode(m meshio.MapMode) gpu.AddressMode {
	switch m {
	case meshio.MapClamp:
		return gpu.AddressClampToEdge
	case meshio.MapDecal:
		return gpu.AddressClampToBorder
	case meshio.MapMirror:
		return gpu.AddressMirroredRepeat
	default:
		return gpu.AddressRepeat
	}
}

// NewSampler builds the sampler of a texture slot. Images without a mip
// chain get the level of detail range of a full chain so one can be
// generated on upload.
func NewSampler(ref meshio.TextureRef, img *gpu.Image) *gpu.Sampler {
	s := &gpu.Sampler{
		AddressModeU:     AddressMode(ref.MapModes[0]),
		AddressModeV:     AddressMode(ref.MapModes[1]),
		AddressModeW:     AddressMode(ref.MapModes[2]),
		AnisotropyEnable: true,
		MaxAnisotropy:    gpu.DefaultAnisotropy,
	}
	if img != nil {
		if img.MipLevels <= 1 {
			s.MaxLod = float32(texture.MaxMipLevel(img.Width, img.Height))
		} else {
			s.MaxLod = float32(img.MipLevels - 1)
		}
	}
	return s
}
