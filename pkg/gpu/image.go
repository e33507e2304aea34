package gpu

import "image"

// AddressMode controls sampling outside [0,1].
type AddressMode int

const (
	AddressRepeat AddressMode = iota
	AddressMirroredRepeat
	AddressClampToEdge
	AddressClampToBorder
)

// String returns the address mode name.
func (m AddressMode) String() string {
	switch m {
	case AddressMirroredRepeat:
		return "mirrored-repeat"
	case AddressClampToEdge:
		return "clamp-to-edge"
	case AddressClampToBorder:
		return "clamp-to-border"
	default:
		return "repeat"
	}
}

// DefaultAnisotropy is the anisotropy used for material textures.
const DefaultAnisotropy = 16

// Sampler holds texture sampling state.
type Sampler struct {
	AddressModeU     AddressMode
	AddressModeV     AddressMode
	AddressModeW     AddressMode
	AnisotropyEnable bool
	MaxAnisotropy    float32
	MinLod           float32
	MaxLod           float32
}

// Image is an RGBA8 texture image. Images are shared between every sampler
// that references the same source texture.
type Image struct {
	Width     int
	Height    int
	MipLevels uint32
	Pixels    []byte
}

// NewImage wraps decoded pixels. The image keeps a reference to rgba.Pix.
func NewImage(rgba *image.RGBA) *Image {
	b := rgba.Bounds()
	return &Image{
		Width:     b.Dx(),
		Height:    b.Dy(),
		MipLevels: 1,
		Pixels:    rgba.Pix,
	}
}

// SamplerImage pairs a sampler with an image.
type SamplerImage struct {
	Sampler *Sampler
	Image   *Image
}
