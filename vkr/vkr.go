// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the gfx.Device contract on top of the
// Vulkan API. It owns the instance, the selected physical device and
// one logical device, reports capabilities in the canonical gfx
// vocabulary, and serves buffer allocations from host-visible memory.
package vkr

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vbuf/gfx"
)

// DefaultApplicationInfo describes the library to the Vulkan loader.
var DefaultApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   "vbuf\x00",
	PEngineName:        "vbuf\x00",
}

// Config configures instance and device creation.
type Config struct {
	// DebugMode enables the standard validation layer and the debug
	// report extension.
	DebugMode bool

	// Extensions and Layers are extra instance extensions/layers to
	// enable, already NUL-terminated.
	Extensions []string
	Layers     []string

	// DeviceIndex selects the physical device to create the logical
	// device on.
	DeviceIndex int

	// ProcAddr is the vkGetInstanceProcAddr pointer supplied by the
	// window system, or nil to use the system loader.
	ProcAddr unsafe.Pointer
}

// New creates a Vulkan-backed device.
func New(appInfo *vk.ApplicationInfo, cfg Config) (*Device, error) {
	if cfg.DebugMode {
		cfg.Layers = append(cfg.Layers, "VK_LAYER_LUNARG_standard_validation\x00")
		cfg.Extensions = append(cfg.Extensions, "VK_EXT_debug_report\x00")
	}

	if cfg.ProcAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.InstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(cfg.ProcAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: cfg.Extensions,
		EnabledLayerCount:       uint32(len(cfg.Layers)),
		PpEnabledLayerNames:     cfg.Layers,
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.New("vk.CreateInstance(): " + err.Error())
	}
	vk.InitInstance(instance)

	physicalDevices, err := enumerateDevices(instance)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, err
	}
	if cfg.DeviceIndex >= len(physicalDevices) {
		vk.DestroyInstance(instance, nil)
		return nil, fmt.Errorf("vkr: device index %d out of range, %d devices present", cfg.DeviceIndex, len(physicalDevices))
	}

	dev := &Device{
		configuration:    cfg,
		instance:         instance,
		availableDevices: physicalDevices,
		physicalDevice:   physicalDevices[cfg.DeviceIndex],
		buffers:          make(map[gfx.BufferHandle]*nativeBuffer),
	}
	if err := dev.createLogicalDevice(); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, err
	}
	dev.readCapabilities()

	log.WithFields(log.Fields{
		"device":  cfg.DeviceIndex,
		"version": dev.version,
	}).Debug("vulkan device created")
	return dev, nil
}

// Device is a Vulkan implementation of gfx.Device.
type Device struct {
	configuration Config

	instance         vk.Instance
	availableDevices []vk.PhysicalDevice
	physicalDevice   vk.PhysicalDevice
	logicalDevice    vk.Device
	deviceQueue      vk.Queue
	queueIndex       uint32

	allocator *MemoryAllocator

	version    gfx.Version
	extensions []string

	mu      sync.Mutex
	next    gfx.BufferHandle
	buffers map[gfx.BufferHandle]*nativeBuffer
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	return availableDevices, nil
}

func (d *Device) createLogicalDevice() error {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(d.physicalDevice, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(d.physicalDevice, &queueFamilyCount, queueFamilies)

	found := false
	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		if queueFamilies[i].QueueFlags&vk.QueueFlags(vk.QueueTransferBit|vk.QueueGraphicsBit) != 0 {
			d.queueIndex = i
			found = true
			break
		}
	}
	if !found {
		return errors.New("vulkan error: could not find a queue family with transfer capability")
	}

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.queueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1, 0},
	}}

	var vkDevice vk.Device
	dci := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: uint32(len(queueInfos)),
		PQueueCreateInfos:    queueInfos,
	}
	if err := vk.Error(vk.CreateDevice(d.physicalDevice, &dci, nil, &vkDevice)); err != nil {
		return errors.New("vk.CreateDevice(): " + err.Error())
	}
	d.logicalDevice = vkDevice

	var deviceQueue vk.Queue
	vk.GetDeviceQueue(vkDevice, d.queueIndex, 0, &deviceQueue)
	d.deviceQueue = deviceQueue

	allocator, err := NewMemoryAllocator(d.logicalDevice, d.physicalDevice)
	if err != nil {
		return err
	}
	d.allocator = allocator
	return nil
}

// readCapabilities translates device properties into the canonical
// gfx capability vocabulary.
func (d *Device) readCapabilities() {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(d.physicalDevice, &props)
	props.Deref()

	d.version = gfx.Version{
		Major: int(props.ApiVersion >> 22),
		Minor: int((props.ApiVersion >> 12) & 0x3ff),
	}

	// Instanced attributes are core Vulkan. Persistent mapping and
	// read-back hold whenever a host-visible, host-coherent memory
	// type exists for buffers.
	d.extensions = []string{gfx.ExtInstancedArrays}
	if d.allocator.HasHostCoherent() {
		d.extensions = append(d.extensions, gfx.ExtPersistentMapping, gfx.ExtBufferReadBack)
	}
}

// APIVersion implements gfx.Capabilities.
func (d *Device) APIVersion() gfx.Version {
	return d.version
}

// Extensions implements gfx.Capabilities.
func (d *Device) Extensions() []string {
	return d.extensions
}

// Queue returns the device queue for the command-submission layer.
func (d *Device) Queue() vk.Queue {
	return d.deviceQueue
}

// Handle returns the logical device handle for collaborators that
// record commands.
func (d *Device) Handle() vk.Device {
	return d.logicalDevice
}

// Release destroys every live buffer, the logical device and the
// instance, implementing gfx.Releasable.
func (d *Device) Release() {
	if d == nil {
		return
	}
	d.mu.Lock()
	for handle, buf := range d.buffers {
		buf.release(d.logicalDevice)
		delete(d.buffers, handle)
	}
	d.mu.Unlock()

	d.availableDevices = nil
	vk.DestroyDevice(d.logicalDevice, nil)
	vk.DestroyInstance(d.instance, nil)
	log.Debug("vulkan device destroyed")
}
