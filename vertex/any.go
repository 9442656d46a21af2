// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vertex

import (
	"github.com/devblok/vbuf/buffer"
	"github.com/devblok/vbuf/gfx"
)

// VertexBufferAny is a vertex buffer whose element type has been
// discarded. The attribute bindings and element stride are retained,
// so it can still feed draw calls and live in heterogeneous
// collections, but typed read/write/map are unavailable until the
// caller recovers a typed view with Reinterpret.
type VertexBufferAny struct {
	buffer       *buffer.Buffer
	bindings     Format
	elementsSize int
}

// Len returns the number of elements in the buffer.
func (b *VertexBufferAny) Len() int {
	return b.buffer.Len()
}

// ElementsSize returns the number of bytes between two consecutive
// elements in the buffer.
func (b *VertexBufferAny) ElementsSize() int {
	return b.elementsSize
}

// Bindings returns the associated attribute-binding layout.
func (b *VertexBufferAny) Bindings() Format {
	return b.bindings
}

// Handle returns the driver-side identity of the buffer.
func (b *VertexBufferAny) Handle() gfx.BufferHandle {
	return b.buffer.Handle()
}

// Slice accesses a bounded view of the buffer. The second return is
// false when the range is out of bounds. End-of-buffer slices are
// allowed, negative offsets and lengths are not, matching the typed
// Slice rule.
func (b *VertexBufferAny) Slice(offset, length int) (*VertexBufferAnySlice, bool) {
	if offset < 0 || length < 0 || offset > b.Len() || offset+length > b.Len() {
		return nil, false
	}
	return &VertexBufferAnySlice{buffer: b, offset: offset, length: length}, true
}

// AddFence registers interest in the next fence covering this buffer.
func (b *VertexBufferAny) AddFence() chan<- gfx.Fence {
	return b.buffer.AddFence()
}

// Release destroys the underlying driver allocation.
func (b *VertexBufferAny) Release() {
	b.buffer.Release()
}

// VerticesSource implements VerticesSourcer over the whole buffer.
func (b *VertexBufferAny) VerticesSource() VerticesSource {
	return VerticesSource{
		Handle:       b.buffer.Handle(),
		Bindings:     b.bindings,
		ElementsSize: b.elementsSize,
		Offset:       0,
		Length:       b.Len(),
	}
}

// Reinterpret turns a type-erased buffer back into a typed one
// without any validation. The caller certifies that T matches the
// layout the buffer was created with; getting this wrong corrupts
// reads and writes silently. The erased buffer must not be used
// afterwards.
func Reinterpret[T any](b *VertexBufferAny) *VertexBuffer[T] {
	return &VertexBuffer[T]{any: *b}
}

// VertexBufferAnySlice is a bounded, non-owning view over a
// VertexBufferAny.
type VertexBufferAnySlice struct {
	buffer *VertexBufferAny
	offset int
	length int
}

// Len returns the number of elements in the slice.
func (s *VertexBufferAnySlice) Len() int {
	return s.length
}

// AddFence registers interest in the next fence covering the owning
// buffer.
func (s *VertexBufferAnySlice) AddFence() chan<- gfx.Fence {
	return s.buffer.AddFence()
}

// VerticesSource implements VerticesSourcer over the sliced range.
func (s *VertexBufferAnySlice) VerticesSource() VerticesSource {
	src := s.buffer.VerticesSource()
	src.Offset = s.offset
	src.Length = s.length
	return src
}
