// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the driver-facing contracts that the buffer
// packages consume. A driver backend (see package vkr) provides the
// allocation primitive and capability queries, the command-submission
// layer provides fences. Nothing in here touches the GPU directly.
package gfx

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Version identifies the driver API version.
type Version struct {
	Major, Minor int
}

// AtLeast reports whether the version is equal to or newer
// than the given major/minor pair.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// Canonical capability names. Driver backends translate whatever
// native extension or feature bits they expose into these, so the
// buffer layers never see driver-specific strings.
const (
	// ExtPersistentMapping means a mapped pointer stays valid across
	// uses without repeated map/unmap calls.
	ExtPersistentMapping = "persistent_mapping"

	// ExtInstancedArrays means an attribute source can advance once
	// per instance instead of once per vertex.
	ExtInstancedArrays = "instanced_arrays"

	// ExtBufferReadBack means buffer contents can be read back
	// synchronously to the host.
	ExtBufferReadBack = "buffer_read_back"
)

// Capabilities exposes driver version and supported-capability
// queries. Implementations are read-only and safe for concurrent use.
type Capabilities interface {

	// APIVersion returns the driver API version.
	APIVersion() Version

	// Extensions returns the canonical capability names the
	// driver supports.
	Extensions() []string
}

// HasExtension reports whether the capability context advertises
// the named capability.
func HasExtension(c Capabilities, name string) bool {
	for _, ext := range c.Extensions() {
		if ext == name {
			return true
		}
	}
	return false
}

// BufferKind tags what a buffer allocation will be used as.
type BufferKind int

// Supported buffer kinds.
const (
	ArrayBuffer BufferKind = iota
	IndexBuffer
	PixelPackBuffer
	PixelUnpackBuffer
	UniformBuffer
)

func (k BufferKind) String() string {
	switch k {
	case ArrayBuffer:
		return "array"
	case IndexBuffer:
		return "index"
	case PixelPackBuffer:
		return "pixel-pack"
	case PixelUnpackBuffer:
		return "pixel-unpack"
	case UniformBuffer:
		return "uniform"
	default:
		return "unknown"
	}
}

// UsageHint tells the driver how often buffer contents will change,
// so it can pick a memory placement.
type UsageHint int

// Supported usage hints.
const (
	// StaticDraw is for one-shot uploads that are then drawn many times.
	StaticDraw UsageHint = iota

	// DynamicDraw is for buffers modified frequently.
	DynamicDraw

	// StreamDraw is for buffers rewritten nearly every use.
	StreamDraw
)

// BufferHandle is the opaque driver-side identity of an allocation.
// The zero value is never a valid handle.
type BufferHandle uint64

// Allocator is the driver-side buffer allocation primitive.
// All offsets and sizes are in bytes; element bookkeeping lives in
// the buffer package on top of this.
type Allocator interface {

	// Allocate reserves size bytes of uninitialized GPU memory.
	// The persistent flag requests memory that supports a mapping
	// which stays valid across uses.
	Allocate(kind BufferKind, size int, usage UsageHint, persistent bool) (BufferHandle, error)

	// Upload replaces len(data) bytes starting at offset.
	Upload(h BufferHandle, offset int, data []byte) error

	// Map makes size bytes starting at offset accessible to the host.
	// The returned slice aliases driver memory and is valid until Unmap.
	Map(h BufferHandle, offset, size int) ([]byte, error)

	// Unmap invalidates the slice returned by the last Map.
	Unmap(h BufferHandle) error

	// Read copies size bytes starting at offset into dst.
	Read(h BufferHandle, offset, size int, dst []byte) error

	// Destroy releases the allocation. The handle must not be
	// used afterwards.
	Destroy(h BufferHandle)
}

// Device is what buffer construction needs from a driver backend:
// an allocator plus the capability context it was created with.
type Device interface {
	Allocator
	Capabilities
}

// Fence marks a point in the submitted command stream after which
// all previously recorded GPU work touching a buffer region is
// guaranteed complete. Fences are produced by the command-submission
// layer and handed to buffers through their fence-submission channels.
type Fence interface {

	// Range returns the byte region of the buffer the fence covers.
	Range() (offset, size int)

	// Wait blocks until the GPU has passed the fence. There is no
	// timeout; this mirrors the driver's synchronous wait primitive.
	Wait()

	// Signaled reports completion without blocking.
	Signaled() bool
}

// Overlaps reports whether the fence's range intersects the given
// byte region.
func Overlaps(f Fence, offset, size int) bool {
	foff, fsize := f.Range()
	return offset < foff+fsize && foff < offset+size
}
