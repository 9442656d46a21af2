// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfxtest provides an in-memory gfx.Device and gfx.Fence so
// the buffer packages can be tested without a GPU or a window system.
package gfxtest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/devblok/vbuf/gfx"
)

// package errors
var (
	ErrUnknownHandle = errors.New("gfxtest: unknown buffer handle")
	ErrDoubleMap     = errors.New("gfxtest: buffer already mapped")
	ErrNotMapped     = errors.New("gfxtest: buffer not mapped")
)

// Option configures a test Device.
type Option func(*Device)

// WithVersion overrides the reported API version.
func WithVersion(v gfx.Version) Option {
	return func(d *Device) { d.version = v }
}

// WithExtensions replaces the advertised capability set.
func WithExtensions(exts ...string) Option {
	return func(d *Device) { d.exts = exts }
}

// WithoutExtension removes one capability from the advertised set.
func WithoutExtension(name string) Option {
	return func(d *Device) {
		kept := d.exts[:0]
		for _, ext := range d.exts {
			if ext != name {
				kept = append(kept, ext)
			}
		}
		d.exts = kept
	}
}

// WithAllocError makes every Allocate call fail with err,
// to exercise allocation-failure paths.
func WithAllocError(err error) Option {
	return func(d *Device) { d.allocErr = err }
}

type memBuffer struct {
	data       []byte
	persistent bool
	mapped     bool
}

// Device is an in-memory gfx.Device. By default it reports version 1.0
// and every canonical capability. Counters record driver traffic so
// tests can assert on mapping behaviour.
type Device struct {
	mu      sync.Mutex
	version gfx.Version
	exts    []string

	allocErr error
	next     gfx.BufferHandle
	buffers  map[gfx.BufferHandle]*memBuffer

	// Call counters, guarded by mu.
	MapCalls    int
	UnmapCalls  int
	UploadCalls int
	ReadCalls   int
}

// NewDevice creates a test device.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		version: gfx.Version{Major: 1, Minor: 0},
		exts: []string{
			gfx.ExtPersistentMapping,
			gfx.ExtInstancedArrays,
			gfx.ExtBufferReadBack,
		},
		buffers: make(map[gfx.BufferHandle]*memBuffer),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// APIVersion implements gfx.Capabilities.
func (d *Device) APIVersion() gfx.Version {
	return d.version
}

// Extensions implements gfx.Capabilities.
func (d *Device) Extensions() []string {
	return d.exts
}

// Allocate implements gfx.Allocator.
func (d *Device) Allocate(kind gfx.BufferKind, size int, usage gfx.UsageHint, persistent bool) (gfx.BufferHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.allocErr != nil {
		return 0, d.allocErr
	}
	d.next++
	d.buffers[d.next] = &memBuffer{
		data:       make([]byte, size),
		persistent: persistent,
	}
	return d.next, nil
}

// Upload implements gfx.Allocator.
func (d *Device) Upload(h gfx.BufferHandle, offset int, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[h]
	if !ok {
		return ErrUnknownHandle
	}
	if offset+len(data) > len(buf.data) {
		return fmt.Errorf("gfxtest: upload of %d bytes at %d exceeds %d byte allocation", len(data), offset, len(buf.data))
	}
	d.UploadCalls++
	copy(buf.data[offset:], data)
	return nil
}

// Map implements gfx.Allocator. The returned slice aliases the
// in-memory backing store, like a real driver mapping would.
func (d *Device) Map(h gfx.BufferHandle, offset, size int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[h]
	if !ok {
		return nil, ErrUnknownHandle
	}
	if buf.mapped {
		return nil, ErrDoubleMap
	}
	if offset+size > len(buf.data) {
		return nil, fmt.Errorf("gfxtest: map of %d bytes at %d exceeds %d byte allocation", size, offset, len(buf.data))
	}
	d.MapCalls++
	buf.mapped = true
	return buf.data[offset : offset+size], nil
}

// Unmap implements gfx.Allocator.
func (d *Device) Unmap(h gfx.BufferHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[h]
	if !ok {
		return ErrUnknownHandle
	}
	if !buf.mapped {
		return ErrNotMapped
	}
	d.UnmapCalls++
	buf.mapped = false
	return nil
}

// Read implements gfx.Allocator.
func (d *Device) Read(h gfx.BufferHandle, offset, size int, dst []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[h]
	if !ok {
		return ErrUnknownHandle
	}
	if offset+size > len(buf.data) {
		return fmt.Errorf("gfxtest: read of %d bytes at %d exceeds %d byte allocation", size, offset, len(buf.data))
	}
	d.ReadCalls++
	copy(dst, buf.data[offset:offset+size])
	return nil
}

// Destroy implements gfx.Allocator.
func (d *Device) Destroy(h gfx.BufferHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, h)
}

// Live returns the number of allocations not yet destroyed.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// Fence is a manually signalled gfx.Fence covering a byte region.
type Fence struct {
	offset, size int
	once         sync.Once
	done         chan struct{}
}

// NewFence creates an unsignalled fence covering the region.
func NewFence(offset, size int) *Fence {
	return &Fence{
		offset: offset,
		size:   size,
		done:   make(chan struct{}),
	}
}

// Range implements gfx.Fence.
func (f *Fence) Range() (offset, size int) {
	return f.offset, f.size
}

// Signal marks the fence as passed. Safe to call more than once.
func (f *Fence) Signal() {
	f.once.Do(func() { close(f.done) })
}

// Wait implements gfx.Fence.
func (f *Fence) Wait() {
	<-f.done
}

// Signaled implements gfx.Fence.
func (f *Fence) Signaled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
