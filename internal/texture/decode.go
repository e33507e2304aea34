// Package texture provides image decoding and texture processing utilities.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrUnsupportedImage is returned when no decoder handles the data.
var ErrUnsupportedImage = errors.New("unsupported image format")

type decodeFunc func(io.Reader) (image.Image, error)

// decoders maps a normalized format hint to its decoder.
var decoders = map[string]decodeFunc{
	"png":  png.Decode,
	"jpg":  jpeg.Decode,
	"jpeg": jpeg.Decode,
	"gif":  gif.Decode,
	"bmp":  bmp.Decode,
	"tif":  tiff.Decode,
	"tiff": tiff.Decode,
	"webp": webp.Decode,
	"tga":  tga.Decode,
}

// NormalizeHint turns a file extension, MIME type or format hint into a
// decoder key: "image/png", ".PNG" and "png" all become "png".
func NormalizeHint(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	hint = strings.TrimPrefix(hint, "image/")
	hint = strings.TrimPrefix(hint, "x-")
	hint = strings.TrimPrefix(hint, ".")
	if hint == "targa" {
		return "tga"
	}
	return hint
}

// Supported reports whether a decoder exists for hint.
func Supported(hint string) bool {
	_, ok := decoders[NormalizeHint(hint)]
	return ok
}

// Decode decodes compressed image data to RGBA.
//
// The format hint is tried first. When it is empty or unknown the format is
// sniffed from the data, and TGA (which has no magic number) is tried last.
func Decode(data []byte, hint string) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrUnsupportedImage)
	}

	key := NormalizeHint(hint)
	if dec, ok := decoders[key]; ok {
		img, err := dec(bytes.NewReader(data))
		if err == nil {
			return ToRGBA(img), nil
		}
		// A wrong hint is common for embedded textures; fall through to sniffing.
		if sniffed := sniff(data); sniffed == "" || sniffed == key {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
	}

	if sniffed := sniff(data); sniffed != "" {
		if dec, ok := decoders[sniffed]; ok {
			img, err := dec(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("decoding %s: %w", sniffed, err)
			}
			return ToRGBA(img), nil
		}
	}

	if img, err := tga.Decode(bytes.NewReader(data)); err == nil {
		return ToRGBA(img), nil
	}

	return nil, fmt.Errorf("%w: hint %q", ErrUnsupportedImage, hint)
}

// DecodeFile decodes the image at path using its extension as the hint.
func DecodeFile(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(data, filepath.Ext(path))
}

// sniff returns the decoder key matching the data's magic number, or "".
func sniff(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return NormalizeHint(kind.Extension)
}

// ToRGBA converts any image.Image to a tightly packed *image.RGBA with
// origin (0,0).
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		b := rgba.Bounds()
		if b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
			return rgba
		}
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// FromTexels builds an image from raw RGBA8 texels.
func FromTexels(width, height int, texels []byte) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid texel dimensions %dx%d", width, height)
	}
	if len(texels) < width*height*4 {
		return nil, fmt.Errorf("texel data truncated: need %d bytes, have %d", width*height*4, len(texels))
	}
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(rgba.Pix, texels[:width*height*4])
	return rgba, nil
}

// MaxMipLevel returns floor(log2(max(width, height))), the index of the
// smallest mip level of a full chain.
func MaxMipLevel(width, height int) uint32 {
	m := width
	if height > m {
		m = height
	}
	if m <= 1 {
		return 0
	}
	return uint32(bits.Len(uint(m)) - 1)
}
