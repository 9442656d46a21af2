// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package capture

import (
	"github.com/devblok/vbuf/pixel"
	"github.com/devblok/vbuf/vertex"
)

// AddVertices dumps the read-back contents of a vertex buffer into
// the builder under the given name. Returns ErrReadBack when the
// device cannot read buffers back.
func AddVertices[T any](b *Builder, name string, vb *vertex.VertexBuffer[T]) error {
	data, ok := vb.ReadIfSupported()
	if !ok {
		return ErrReadBack
	}
	return b.Add(name, vb.ElementsSize(), vertex.Bytes(data))
}

// AddVertexSlice dumps the read-back contents of a vertex buffer
// slice into the builder under the given name.
func AddVertexSlice[T any](b *Builder, name string, s *vertex.VertexBufferSlice[T], elementsSize int) error {
	data, ok := s.ReadIfSupported()
	if !ok {
		return ErrReadBack
	}
	return b.Add(name, elementsSize, vertex.Bytes(data))
}

// AddPixels dumps the read-back contents of a tagged RGBA pixel
// buffer into the builder under the given name.
func AddPixels(b *Builder, name string, pb *pixel.Buffer[pixel.RGBA]) error {
	img, ok := pixel.ReadRGBA(pb)
	if !ok {
		return ErrReadBack
	}
	return b.Add(name, pixel.FormatRGBA8.PixelSize(), img.Pix)
}
