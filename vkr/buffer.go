// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vbuf/gfx"
)

// nativeBuffer is one vk.Buffer bound to its own memory region.
type nativeBuffer struct {
	buffer vk.Buffer
	memory Memory
	size   int
}

func (b *nativeBuffer) release(dev vk.Device) {
	vk.DestroyBuffer(dev, b.buffer, nil)
	b.memory.Release()
}

// bytes returns the host view of the mapped memory region.
func (b *nativeBuffer) bytes() []byte {
	return unsafe.Slice((*byte)(b.memory.Map()), b.size)
}

func usageFor(kind gfx.BufferKind) vk.BufferUsageFlagBits {
	// Every buffer is transferable so uploads and read-backs can be
	// staged through it.
	usage := vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit
	switch kind {
	case gfx.ArrayBuffer:
		usage |= vk.BufferUsageVertexBufferBit
	case gfx.IndexBuffer:
		usage |= vk.BufferUsageIndexBufferBit
	case gfx.UniformBuffer:
		usage |= vk.BufferUsageUniformBufferBit
	}
	return usage
}

// Allocate implements gfx.Allocator. All allocations are served from
// host-visible, host-coherent memory so maps and transfers need no
// staging copies.
func (d *Device) Allocate(kind gfx.BufferKind, size int, usage gfx.UsageHint, persistent bool) (gfx.BufferHandle, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usageFor(kind)),
		SharingMode: vk.SharingModeExclusive,
	}
	var vkBuffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(d.logicalDevice, &createInfo, nil, &vkBuffer)); err != nil {
		return 0, fmt.Errorf("vk.CreateBuffer(): %s", err.Error())
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.logicalDevice, vkBuffer, &req)
	req.Deref()

	memory, err := d.allocator.Malloc(req, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		vk.DestroyBuffer(d.logicalDevice, vkBuffer, nil)
		return 0, err
	}
	vk.BindBufferMemory(d.logicalDevice, vkBuffer, memory.Get(), 0)

	d.mu.Lock()
	d.next++
	handle := d.next
	d.buffers[handle] = &nativeBuffer{
		buffer: vkBuffer,
		memory: memory,
		size:   size,
	}
	d.mu.Unlock()

	log.WithFields(log.Fields{
		"handle": handle,
		"kind":   kind.String(),
		"bytes":  size,
	}).Debug("buffer allocated")
	return handle, nil
}

func (d *Device) lookup(h gfx.BufferHandle) (*nativeBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[h]
	if !ok {
		return nil, fmt.Errorf("vkr: unknown buffer handle %d", h)
	}
	return buf, nil
}

// Upload implements gfx.Allocator. Host-coherent memory makes the
// write visible without an explicit flush.
func (d *Device) Upload(h gfx.BufferHandle, offset int, data []byte) error {
	buf, err := d.lookup(h)
	if err != nil {
		return err
	}
	if offset+len(data) > buf.size {
		return fmt.Errorf("vkr: upload of %d bytes at %d exceeds %d byte buffer", len(data), offset, buf.size)
	}
	wasMapped := buf.memory.Mapped()
	copy(buf.bytes()[offset:], data)
	if !wasMapped {
		buf.memory.Unmap()
	}
	return nil
}

// Map implements gfx.Allocator.
func (d *Device) Map(h gfx.BufferHandle, offset, size int) ([]byte, error) {
	buf, err := d.lookup(h)
	if err != nil {
		return nil, err
	}
	if offset+size > buf.size {
		return nil, fmt.Errorf("vkr: map of %d bytes at %d exceeds %d byte buffer", size, offset, buf.size)
	}
	return buf.bytes()[offset : offset+size], nil
}

// Unmap implements gfx.Allocator.
func (d *Device) Unmap(h gfx.BufferHandle) error {
	buf, err := d.lookup(h)
	if err != nil {
		return err
	}
	buf.memory.Unmap()
	return nil
}

// Read implements gfx.Allocator.
func (d *Device) Read(h gfx.BufferHandle, offset, size int, dst []byte) error {
	buf, err := d.lookup(h)
	if err != nil {
		return err
	}
	if offset+size > buf.size {
		return fmt.Errorf("vkr: read of %d bytes at %d exceeds %d byte buffer", size, offset, buf.size)
	}
	wasMapped := buf.memory.Mapped()
	copy(dst, buf.bytes()[offset:offset+size])
	if !wasMapped {
		buf.memory.Unmap()
	}
	return nil
}

// Destroy implements gfx.Allocator.
func (d *Device) Destroy(h gfx.BufferHandle) {
	d.mu.Lock()
	buf, ok := d.buffers[h]
	delete(d.buffers, h)
	d.mu.Unlock()
	if ok {
		buf.release(d.logicalDevice)
		log.WithField("handle", h).Debug("buffer destroyed")
	}
}
