package render

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Device is a logical device with its own dispatch table and the queues used
// for graphics and presentation.
type Device struct {
	Handle   vk.Device
	Commands DeviceCommands

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	alloc *vk.AllocationCallbacks
}

// QueueCreateInfos requests one queue at priority 1.0 from every distinct
// family in indices.
func QueueCreateInfos(indices QueueFamilyIndices) []vk.DeviceQueueCreateInfo {
	families := indices.Unique()
	infos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		infos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}
	return infos
}

// NewDevice creates the logical device with VK_KHR_swapchain enabled, no layers
// and no optional features. If the device table cannot be loaded the device is
// destroyed through a destroy-only table before the error is returned.
func NewDevice(instance *Instance, pd vk.PhysicalDevice, indices QueueFamilyIndices, alloc *vk.AllocationCallbacks, log *slog.Logger) (_ *Device, err error) {
	defer CheckError(&err)
	cmds := instance.Commands

	extensions, err := MatchNames([]string{SwapchainExtensionName}, ExtensionNames(deviceExtensions(cmds, pd)))
	if err != nil {
		return nil, errors.Wrap(err, "device extensions")
	}

	queueInfos := QueueCreateInfos(indices)
	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		PEnabledFeatures:        nil,
	}

	var handle vk.Device
	if err := NewError("vkCreateDevice", cmds.CreateDevice(pd, &createInfo, alloc, &handle)); err != nil {
		return nil, err
	}

	dcmds, err := cmds.LoadDevice(handle)
	if err != nil {
		loadErr := errors.WithStack(&DispatchError{Handle: "device", Err: err})
		destroyer, derr := cmds.LoadDeviceDestroyer(handle)
		if derr != nil {
			log.Error("device leaked, vkDestroyDevice unavailable", "error", derr)
			return nil, loadErr
		}
		destroyer.DestroyDevice(handle, alloc)
		return nil, loadErr
	}

	dev := &Device{
		Handle:   handle,
		Commands: dcmds,
		alloc:    alloc,
	}
	dcmds.GetDeviceQueue(handle, indices.Graphics(), 0, &dev.GraphicsQueue)
	dcmds.GetDeviceQueue(handle, indices.Present(), 0, &dev.PresentQueue)

	log.Debug("device created", "queues", len(queueInfos), "families", indices.String(), "extensions", extensions)
	return dev, nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	return NewError("vkDeviceWaitIdle", d.Commands.DeviceWaitIdle(d.Handle))
}

func (d *Device) Destroy() {
	if d == nil || d.Handle == nil {
		return
	}
	d.Commands.DestroyDevice(d.Handle, d.alloc)
	d.Handle = nil
}

func (d *Device) String() string {
	return fmt.Sprintf("{ Device: %p }", d.Handle)
}

func deviceExtensions(cmds InstanceCommands, pd vk.PhysicalDevice) []vk.ExtensionProperties {
	var count uint32
	OrPanic(NewError("vkEnumerateDeviceExtensionProperties", cmds.EnumerateDeviceExtensionProperties(pd, "", &count, nil)))
	props := make([]vk.ExtensionProperties, count)
	OrPanic(NewError("vkEnumerateDeviceExtensionProperties", cmds.EnumerateDeviceExtensionProperties(pd, "", &count, props)))
	return props[:count]
}
