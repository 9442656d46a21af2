// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"math"

	vk "github.com/devblok/vulkan"
)

// Fence is a gfx.Fence over a vk.Fence, tagged with the byte region
// of the buffer the fenced commands touch. The command-submission
// layer passes Handle() in its vk.SubmitInfo and sends the Fence down
// the buffer's fence-submission channel.
type Fence struct {
	device vk.Device
	fence  vk.Fence

	offset, size int
}

// NewFence creates an unsignalled fence covering the given byte
// region.
func NewFence(device vk.Device, offset, size int) (*Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(device, &fci, nil, &fence)); err != nil {
		return nil, errors.New("vk.CreateFence(): " + err.Error())
	}
	return &Fence{
		device: device,
		fence:  fence,
		offset: offset,
		size:   size,
	}, nil
}

// Handle returns the vk.Fence to pass to queue submission.
func (f *Fence) Handle() vk.Fence {
	return f.fence
}

// Range implements gfx.Fence.
func (f *Fence) Range() (offset, size int) {
	return f.offset, f.size
}

// Wait implements gfx.Fence. There is no timeout, matching the
// synchronous wait primitive underneath.
func (f *Fence) Wait() {
	vk.WaitForFences(f.device, 1, []vk.Fence{f.fence}, vk.True, math.MaxUint64)
}

// Signaled implements gfx.Fence.
func (f *Fence) Signaled() bool {
	return vk.GetFenceStatus(f.device, f.fence) == vk.Success
}

// Release destroys the fence.
func (f *Fence) Release() {
	vk.DestroyFence(f.device, f.fence, nil)
}
