// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vertex implements typed vertex buffers on top of package
// buffer. A VertexBuffer[T] carries its element type only at compile
// time; the storage, attribute-binding layout and element stride live
// in VertexBufferAny, so degrading to the type-erased form is free.
package vertex

import (
	"fmt"

	"github.com/devblok/vbuf/buffer"
	"github.com/devblok/vbuf/gfx"
)

// VertexBuffer is a list of vertices loaded in the graphics card's
// memory, typed by its element T. The type parameter selects which
// layout and host representation is used; it occupies no storage.
type VertexBuffer[T any] struct {
	any VertexBufferAny
}

// New builds a vertex buffer from data, deriving the attribute
// bindings from T. The buffer is allocated with the one-shot usage
// hint; use NewDynamic for frequently modified contents.
func New[T Vertex](dev gfx.Device, data []T) (*VertexBuffer[T], error) {
	return newVertexBuffer(dev, data, buffer.Simple())
}

// NewDynamic builds a vertex buffer that has better performance when
// it is modified frequently.
func NewDynamic[T Vertex](dev gfx.Device, data []T) (*VertexBuffer[T], error) {
	return newVertexBuffer(dev, data, buffer.Dynamic())
}

// NewPersistentIfSupported builds a persistently mapped vertex
// buffer. Missing driver support is an absent result (ok=false), not
// an error; err is set only for real allocation failures.
func NewPersistentIfSupported[T Vertex](dev gfx.Device, data []T) (buf *VertexBuffer[T], ok bool, err error) {
	buf, err = newVertexBuffer(dev, data, buffer.Persistent())
	if err == buffer.ErrPersistentMapping {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return buf, true, nil
}

func newVertexBuffer[T Vertex](dev gfx.Device, data []T, flags buffer.Flags) (*VertexBuffer[T], error) {
	var zero T
	return NewUnchecked(dev, data, zero.VertexFormat(), sizeOf[T](), flags)
}

// NewUnchecked builds a vertex buffer from an indeterminate element
// type with explicit bindings and element stride. The caller asserts
// that the bindings describe T's memory layout; only the stride
// invariant is checked.
func NewUnchecked[T any](dev gfx.Device, data []T, bindings Format, elementsSize int, flags buffer.Flags) (*VertexBuffer[T], error) {
	if span := bindings.Span(); span > elementsSize {
		panic(fmt.Sprintf("vertex: bindings span %d bytes but elements are %d", span, elementsSize))
	}
	raw, err := buffer.New(dev, asBytes(data), elementsSize, gfx.ArrayBuffer, flags)
	if err != nil {
		return nil, err
	}
	return &VertexBuffer[T]{
		any: VertexBufferAny{
			buffer:       raw,
			bindings:     bindings,
			elementsSize: elementsSize,
		},
	}, nil
}

// Len returns the number of elements in the buffer.
func (b *VertexBuffer[T]) Len() int {
	return b.any.Len()
}

// ElementsSize returns the number of bytes between two consecutive
// elements in the buffer.
func (b *VertexBuffer[T]) ElementsSize() int {
	return b.any.ElementsSize()
}

// Bindings returns the associated attribute-binding layout.
func (b *VertexBuffer[T]) Bindings() Format {
	return b.any.Bindings()
}

// IsPersistent reports whether the buffer is mapped in a permanent
// way in memory.
func (b *VertexBuffer[T]) IsPersistent() bool {
	return b.any.buffer.IsPersistent()
}

// Handle returns the driver-side identity of the buffer.
func (b *VertexBuffer[T]) Handle() gfx.BufferHandle {
	return b.any.Handle()
}

// Slice accesses a bounded view of the buffer. The second return is
// false when the range is out of bounds; probing past the end is an
// expected query, not an error. End-of-buffer slices are allowed,
// negative offsets and lengths are not.
func (b *VertexBuffer[T]) Slice(offset, length int) (*VertexBufferSlice[T], bool) {
	if offset < 0 || length < 0 || offset > b.Len() || offset+length > b.Len() {
		return nil, false
	}
	return &VertexBufferSlice[T]{buffer: b, offset: offset, length: length}, true
}

// Map maps the entire element range for exclusive read/write access.
// It blocks until the GPU stops using the buffer. This operation is
// much faster if the buffer is persistent.
func (b *VertexBuffer[T]) Map() (*Mapping[T], error) {
	raw, err := b.any.buffer.Map(0, b.Len())
	if err != nil {
		return nil, err
	}
	return &Mapping[T]{raw: raw, count: b.Len()}, nil
}

// Write replaces the content of the buffer. The length of data must
// equal the length of the buffer; a mismatch is a contract violation
// and panics.
func (b *VertexBuffer[T]) Write(data []T) {
	if len(data) != b.Len() {
		panic(fmt.Sprintf("vertex: write of %d elements into buffer of length %d", len(data), b.Len()))
	}
	b.any.buffer.Upload(0, asBytes(data))
}

// Read returns the content of the buffer. It panics when the device
// does not support buffer read-back; use ReadIfSupported when the
// capability has not been asserted. Map is better for multiple small
// reads.
func (b *VertexBuffer[T]) Read() []T {
	data, ok := b.ReadIfSupported()
	if !ok {
		panic("vertex: read-back not supported by device")
	}
	return data
}

// ReadIfSupported returns the content of the buffer, or ok=false when
// the device does not support read-back.
func (b *VertexBuffer[T]) ReadIfSupported() ([]T, bool) {
	raw, ok := b.any.buffer.ReadIfSupported()
	if !ok {
		return nil, false
	}
	out := make([]T, b.Len())
	copy(asBytes(out), raw)
	return out, true
}

// PerInstanceIfSupported creates a marker that instructs the draw
// dispatch to advance this attribute source once per rendered
// instance instead of once per vertex. Returns ok=false when neither
// the driver version nor the instancing capability is present.
func (b *VertexBuffer[T]) PerInstanceIfSupported() (PerInstance, bool) {
	caps := b.any.buffer.Device()
	if !caps.APIVersion().AtLeast(3, 3) && !gfx.HasExtension(caps, gfx.ExtInstancedArrays) {
		return PerInstance{}, false
	}
	return PerInstance{slice: VertexBufferAnySlice{buffer: &b.any, offset: 0, length: b.Len()}}, true
}

// IntoAny discards the type information and turns the buffer into a
// VertexBufferAny. The storage and bindings are retained; there is no
// copy. The typed buffer must not be used afterwards.
func (b *VertexBuffer[T]) IntoAny() *VertexBufferAny {
	return &b.any
}

// AddFence registers interest in the next fence covering this buffer.
func (b *VertexBuffer[T]) AddFence() chan<- gfx.Fence {
	return b.any.AddFence()
}

// Release destroys the underlying driver allocation.
func (b *VertexBuffer[T]) Release() {
	b.any.Release()
}

// VerticesSource implements VerticesSourcer over the whole buffer.
func (b *VertexBuffer[T]) VerticesSource() VerticesSource {
	return b.any.VerticesSource()
}

// VertexBufferSlice is a bounded, non-owning view over a
// VertexBuffer. The owning buffer must outlive the slice.
type VertexBufferSlice[T any] struct {
	buffer *VertexBuffer[T]
	offset int
	length int
}

// Len returns the number of elements in the slice.
func (s *VertexBufferSlice[T]) Len() int {
	return s.length
}

// Read returns the content of the slice. Panics when read-back is
// unsupported.
func (s *VertexBufferSlice[T]) Read() []T {
	data, ok := s.ReadIfSupported()
	if !ok {
		panic("vertex: read-back not supported by device")
	}
	return data
}

// ReadIfSupported returns the content of the slice, or ok=false when
// the device does not support read-back.
func (s *VertexBufferSlice[T]) ReadIfSupported() ([]T, bool) {
	raw, ok := s.buffer.any.buffer.ReadSliceIfSupported(s.offset, s.length)
	if !ok {
		return nil, false
	}
	out := make([]T, s.length)
	copy(asBytes(out), raw)
	return out, true
}

// Write replaces the vertices in the slice. The length of data must
// equal the length of the slice; a mismatch panics.
func (s *VertexBufferSlice[T]) Write(data []T) {
	if len(data) != s.length {
		panic(fmt.Sprintf("vertex: write of %d elements into slice of length %d", len(data), s.length))
	}
	s.buffer.any.buffer.Upload(s.offset, asBytes(data))
}

// AddFence registers interest in the next fence covering the owning
// buffer.
func (s *VertexBufferSlice[T]) AddFence() chan<- gfx.Fence {
	return s.buffer.AddFence()
}

// VerticesSource implements VerticesSourcer over the sliced range.
func (s *VertexBufferSlice[T]) VerticesSource() VerticesSource {
	src := s.buffer.VerticesSource()
	src.Offset = s.offset
	src.Length = s.length
	return src
}

// Mapping is an exclusive typed view over a mapped vertex buffer.
// Release must run on every exit path, typically via defer.
type Mapping[T any] struct {
	raw   *buffer.Mapping
	count int
}

// Slice returns the mapped elements. The slice aliases driver memory
// and must not be retained past Release.
func (m *Mapping[T]) Slice() []T {
	return asElems[T](m.raw.Bytes(), m.count)
}

// Release ends the mapping scope. Safe to call more than once.
func (m *Mapping[T]) Release() {
	m.raw.Release()
}
