package render

import (
	vk "github.com/vulkan-go/vulkan"
)

// The dispatch tiers below mirror the vulkan-go call signatures so that a
// backend can forward to vk.* directly and a test double can stand in for the
// driver. Each tier is obtained once from the tier above it and never changes.

// Loader exposes the global entry points, available before any instance exists.
type Loader interface {
	EnumerateInstanceExtensionProperties(layerName string, count *uint32, props []vk.ExtensionProperties) vk.Result
	EnumerateInstanceLayerProperties(count *uint32, props []vk.LayerProperties) vk.Result
	CreateInstance(info *vk.InstanceCreateInfo, alloc *vk.AllocationCallbacks, instance *vk.Instance) vk.Result

	// LoadInstance resolves the full instance-level table.
	LoadInstance(instance vk.Instance) (InstanceCommands, error)
	// LoadInstanceDestroyer resolves only vkDestroyInstance.
	LoadInstanceDestroyer(instance vk.Instance) (InstanceDestroyer, error)
}

type InstanceDestroyer interface {
	DestroyInstance(instance vk.Instance, alloc *vk.AllocationCallbacks)
}

// InstanceCommands is the instance-level dispatch table.
type InstanceCommands interface {
	InstanceDestroyer

	EnumeratePhysicalDevices(instance vk.Instance, count *uint32, devices []vk.PhysicalDevice) vk.Result
	GetPhysicalDeviceProperties(physicalDevice vk.PhysicalDevice, props *vk.PhysicalDeviceProperties)
	GetPhysicalDeviceQueueFamilyProperties(physicalDevice vk.PhysicalDevice, count *uint32, props []vk.QueueFamilyProperties)
	GetPhysicalDeviceSurfaceSupport(physicalDevice vk.PhysicalDevice, queueFamilyIndex uint32, surface vk.Surface, supported *vk.Bool32) vk.Result
	EnumerateDeviceExtensionProperties(physicalDevice vk.PhysicalDevice, layerName string, count *uint32, props []vk.ExtensionProperties) vk.Result

	GetPhysicalDeviceSurfaceCapabilities(physicalDevice vk.PhysicalDevice, surface vk.Surface, caps *vk.SurfaceCapabilities) vk.Result
	GetPhysicalDeviceSurfaceFormats(physicalDevice vk.PhysicalDevice, surface vk.Surface, count *uint32, formats []vk.SurfaceFormat) vk.Result
	GetPhysicalDeviceSurfacePresentModes(physicalDevice vk.PhysicalDevice, surface vk.Surface, count *uint32, modes []vk.PresentMode) vk.Result
	DestroySurface(instance vk.Instance, surface vk.Surface, alloc *vk.AllocationCallbacks)

	CreateDevice(physicalDevice vk.PhysicalDevice, info *vk.DeviceCreateInfo, alloc *vk.AllocationCallbacks, device *vk.Device) vk.Result
	// LoadDevice resolves the device-level table through the per-device loader.
	LoadDevice(device vk.Device) (DeviceCommands, error)
	// LoadDeviceDestroyer resolves only vkDestroyDevice.
	LoadDeviceDestroyer(device vk.Device) (DeviceDestroyer, error)
}

type DeviceDestroyer interface {
	DestroyDevice(device vk.Device, alloc *vk.AllocationCallbacks)
}

// DeviceCommands is the device-level dispatch table. It is not a subset of
// InstanceCommands.
type DeviceCommands interface {
	DeviceDestroyer

	GetDeviceQueue(device vk.Device, queueFamilyIndex, queueIndex uint32, queue *vk.Queue)
	DeviceWaitIdle(device vk.Device) vk.Result

	CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo, alloc *vk.AllocationCallbacks, swapchain *vk.Swapchain) vk.Result
	DestroySwapchain(device vk.Device, swapchain vk.Swapchain, alloc *vk.AllocationCallbacks)
	GetSwapchainImages(device vk.Device, swapchain vk.Swapchain, count *uint32, images []vk.Image) vk.Result
	CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo, alloc *vk.AllocationCallbacks, view *vk.ImageView) vk.Result
	DestroyImageView(device vk.Device, view vk.ImageView, alloc *vk.AllocationCallbacks)
}

// Platform is the windowing collaborator. Every call is opaque to this package
// and is never retried.
type Platform interface {
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance, alloc *vk.AllocationCallbacks) (vk.Surface, error)
	// FramebufferSize reports the drawable size in pixels.
	FramebufferSize() (width, height int)
	ShouldClose() bool
	PollEvents()
}
