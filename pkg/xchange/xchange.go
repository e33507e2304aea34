// Package xchange reads model and finite-element files into renderable
// scene graphs.
//
// A Reader handles one family of formats. Registry dispatches on the file
// extension, and Default returns a registry holding every built-in reader:
//
//	root, err := xchange.Default().Read("robot.glb", nil)
//	if errors.Is(err, xchange.ErrUnsupportedFormat) {
//		// try another loader
//	}
package xchange

import (
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/modelxchange/pkg/scenegraph"
)

// Read errors. Errors returned by readers wrap one of these together with
// the underlying cause.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrNotFound          = errors.New("file not found")
	ErrParse             = errors.New("parse failed")
	ErrValidation        = errors.New("validation failed")
)

// Reader converts files of one or more formats into scene graphs.
// A nil *Options means DefaultOptions.
type Reader interface {
	Read(path string, opts *Options) (scenegraph.Node, error)
	ReadStream(r io.Reader, opts *Options) (scenegraph.Node, error)
	ReadMemory(data []byte, opts *Options) (scenegraph.Node, error)
	Features() Features
}

// streamChunkSize is the read size used to drain streams.
const streamChunkSize = 64 * 1024

// readStream reads r to EOF in streamChunkSize chunks.
func readStream(r io.Reader) ([]byte, error) {
	var data []byte
	chunk := make([]byte, streamChunkSize)
	for {
		n, err := r.Read(chunk)
		data = append(data, chunk[:n]...)
		if err == io.EOF {
			return data, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading stream: %w", err)
		}
	}
}

func wrap(sentinel, err error) error {
	return fmt.Errorf("%w: %w", sentinel, err)
}
