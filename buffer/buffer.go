// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package buffer implements the raw GPU buffer object that the typed
// vertex and pixel buffers are built on. A Buffer owns exactly one
// driver allocation and tracks element stride, element count,
// persistence and in-flight fences. The command-submission layer
// reports completed work through fence-submission channels; Map and
// Read wait on fences that overlap the touched region before handing
// memory to the caller.
package buffer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/devblok/vbuf/gfx"
)

// ErrPersistentMapping is returned when persistent mapping is
// requested but the device does not support it. Callers using the
// *IfSupported constructors treat it as an absent result.
var ErrPersistentMapping = errors.New("buffer: persistent mapping not supported by device")

// Flags configure a buffer allocation.
type Flags struct {
	Usage      gfx.UsageHint
	Persistent bool
}

// Simple returns flags for a one-shot upload drawn many times.
func Simple() Flags {
	return Flags{Usage: gfx.StaticDraw}
}

// Dynamic returns flags for frequently modified contents.
func Dynamic() Flags {
	return Flags{Usage: gfx.DynamicDraw}
}

// Persistent returns flags requesting a persistently mapped buffer.
func Persistent() Flags {
	return Flags{Usage: gfx.DynamicDraw, Persistent: true}
}

// Buffer is a GPU memory allocation with element bookkeeping.
// It is exclusively owned by one typed wrapper at a time; slices
// borrow it and must not outlive the owner.
type Buffer struct {
	dev        gfx.Device
	handle     gfx.BufferHandle
	kind       gfx.BufferKind
	elemSize   int
	elemCount  int
	persistent bool

	mu      sync.Mutex
	subs    []chan gfx.Fence
	pending []gfx.Fence

	// Cached full-range mapping for persistent buffers. Set on the
	// first Map call and kept until Release.
	persistentMem []byte
}

// New allocates a buffer and immediately uploads data. The element
// count is implied by len(data)/elemSize; data must be a whole number
// of elements.
func New(dev gfx.Device, data []byte, elemSize int, kind gfx.BufferKind, flags Flags) (*Buffer, error) {
	if elemSize <= 0 || len(data)%elemSize != 0 {
		panic(fmt.Sprintf("buffer: %d bytes is not a whole number of %d byte elements", len(data), elemSize))
	}
	buf, err := Empty(dev, kind, elemSize, len(data)/elemSize, flags)
	if err != nil {
		return nil, err
	}
	if err := dev.Upload(buf.handle, 0, data); err != nil {
		dev.Destroy(buf.handle)
		return nil, fmt.Errorf("buffer: initial upload: %s", err)
	}
	return buf, nil
}

// Empty reserves uninitialized GPU memory for count elements of
// elemSize bytes each. Returns ErrPersistentMapping when persistence
// is requested but the device capability is absent.
func Empty(dev gfx.Device, kind gfx.BufferKind, elemSize, count int, flags Flags) (*Buffer, error) {
	if flags.Persistent && !gfx.HasExtension(dev, gfx.ExtPersistentMapping) {
		return nil, ErrPersistentMapping
	}
	handle, err := dev.Allocate(kind, elemSize*count, flags.Usage, flags.Persistent)
	if err != nil {
		return nil, fmt.Errorf("buffer: allocate %s: %s", kind, err)
	}
	return &Buffer{
		dev:        dev,
		handle:     handle,
		kind:       kind,
		elemSize:   elemSize,
		elemCount:  count,
		persistent: flags.Persistent,
	}, nil
}

// Handle returns the driver-side identity of the allocation.
func (b *Buffer) Handle() gfx.BufferHandle {
	return b.handle
}

// Kind returns the buffer-type tag the allocation was made with.
func (b *Buffer) Kind() gfx.BufferKind {
	return b.kind
}

// Len returns the number of elements in the buffer.
func (b *Buffer) Len() int {
	return b.elemCount
}

// ElementSize returns the number of bytes between two consecutive
// elements.
func (b *Buffer) ElementSize() int {
	return b.elemSize
}

// SizeBytes returns the total allocation size.
func (b *Buffer) SizeBytes() int {
	return b.elemSize * b.elemCount
}

// IsPersistent reports whether the buffer is mapped in a permanent
// way in memory.
func (b *Buffer) IsPersistent() bool {
	return b.persistent
}

// Device returns the capability context the buffer was created with.
func (b *Buffer) Device() gfx.Capabilities {
	return b.dev
}

// Upload replaces len(data)/ElementSize() elements starting at the
// given element offset. Writing past the end of the buffer or writing
// a partial element is a contract violation and panics.
func (b *Buffer) Upload(offset int, data []byte) {
	if len(data)%b.elemSize != 0 {
		panic(fmt.Sprintf("buffer: upload of %d bytes is not a whole number of %d byte elements", len(data), b.elemSize))
	}
	if offset < 0 {
		panic(fmt.Sprintf("buffer: upload at negative offset %d", offset))
	}
	if offset*b.elemSize+len(data) > b.SizeBytes() {
		panic(fmt.Sprintf("buffer: upload of %d elements at offset %d exceeds length %d",
			len(data)/b.elemSize, offset, b.elemCount))
	}
	if err := b.dev.Upload(b.handle, offset*b.elemSize, data); err != nil {
		panic(fmt.Sprintf("buffer: driver rejected in-bounds upload: %s", err))
	}
}

// Read returns the entire buffer contents. It panics when the device
// does not support buffer read-back; callers who cannot assert the
// capability use ReadIfSupported.
func (b *Buffer) Read() []byte {
	return b.ReadSlice(0, b.elemCount)
}

// ReadSlice returns count elements starting at the given element
// offset, waiting on overlapping fences first. Panics when read-back
// is unsupported or the range is out of bounds.
func (b *Buffer) ReadSlice(offset, count int) []byte {
	data, ok := b.ReadSliceIfSupported(offset, count)
	if !ok {
		panic("buffer: read-back not supported by device")
	}
	return data
}

// ReadIfSupported returns the entire buffer contents, or ok=false
// when the device does not support read-back.
func (b *Buffer) ReadIfSupported() ([]byte, bool) {
	return b.ReadSliceIfSupported(0, b.elemCount)
}

// ReadSliceIfSupported returns count elements starting at offset, or
// ok=false when the device does not support read-back. Out-of-bounds
// ranges still panic; bounds are the caller's contract either way.
func (b *Buffer) ReadSliceIfSupported(offset, count int) ([]byte, bool) {
	if !gfx.HasExtension(b.dev, gfx.ExtBufferReadBack) {
		return nil, false
	}
	if offset < 0 || count < 0 || offset+count > b.elemCount {
		panic(fmt.Sprintf("buffer: read of %d elements at offset %d exceeds length %d", count, offset, b.elemCount))
	}
	byteOff, byteLen := offset*b.elemSize, count*b.elemSize
	b.waitFences(byteOff, byteLen)
	dst := make([]byte, byteLen)
	if err := b.dev.Read(b.handle, byteOff, byteLen, dst); err != nil {
		panic(fmt.Sprintf("buffer: driver rejected in-bounds read: %s", err))
	}
	return dst, true
}

// AddFence registers interest in the next fence covering this buffer
// and returns the channel the command-submission layer sends it on.
// The channel is buffered; sending never blocks the submitter.
func (b *Buffer) AddFence() chan<- gfx.Fence {
	ch := make(chan gfx.Fence, 1)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// collectFences drains every submission channel into the pending list
// and prunes fences that have already signalled.
func (b *Buffer) collectFences() {
	subs := b.subs[:0]
	for _, ch := range b.subs {
		select {
		case f := <-ch:
			b.pending = append(b.pending, f)
			// A drained channel has served its one submission.
		default:
			subs = append(subs, ch)
		}
	}
	b.subs = subs

	pending := b.pending[:0]
	for _, f := range b.pending {
		if !f.Signaled() {
			pending = append(pending, f)
		}
	}
	b.pending = pending
}

// waitFences blocks until every pending fence overlapping the byte
// region [offset, offset+size) has signalled. Fences on disjoint
// regions are left pending and do not block.
func (b *Buffer) waitFences(offset, size int) {
	b.mu.Lock()
	b.collectFences()
	var wait []gfx.Fence
	pending := b.pending[:0]
	for _, f := range b.pending {
		if gfx.Overlaps(f, offset, size) {
			wait = append(wait, f)
		} else {
			pending = append(pending, f)
		}
	}
	b.pending = pending
	b.mu.Unlock()

	for _, f := range wait {
		f.Wait()
	}
}

// Release destroys the driver allocation. Any persistent mapping is
// unmapped first. The buffer must not be used afterwards.
func (b *Buffer) Release() {
	b.mu.Lock()
	mapped := b.persistentMem != nil
	b.persistentMem = nil
	b.mu.Unlock()
	if mapped {
		b.dev.Unmap(b.handle)
	}
	b.dev.Destroy(b.handle)
}
