// Package vkapi implements the render dispatch tiers on top of vulkan-go.
//
// vulkan-go keeps one process wide function table: vk.Init fills the global
// entry points and vk.InitInstance everything else, device level commands
// included. The tiers here only sequence those two calls.
package vkapi

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkboot/src/render"
)

// Loader is the global tier.
type Loader struct{}

var _ render.Loader = (*Loader)(nil)

// New points vulkan-go at procAddr, a vkGetInstanceProcAddr obtained from the
// window system, and loads the global commands. A nil procAddr falls back to
// the system Vulkan loader.
func New(procAddr unsafe.Pointer) (*Loader, error) {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "locate vulkan loader")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "load global commands")
	}
	return &Loader{}, nil
}

func (*Loader) EnumerateInstanceExtensionProperties(layerName string, count *uint32, props []vk.ExtensionProperties) vk.Result {
	return vk.EnumerateInstanceExtensionProperties(layerName, count, props)
}

func (*Loader) EnumerateInstanceLayerProperties(count *uint32, props []vk.LayerProperties) vk.Result {
	return vk.EnumerateInstanceLayerProperties(count, props)
}

func (*Loader) CreateInstance(info *vk.InstanceCreateInfo, alloc *vk.AllocationCallbacks, instance *vk.Instance) vk.Result {
	return vk.CreateInstance(info, alloc, instance)
}

func (*Loader) LoadInstance(instance vk.Instance) (render.InstanceCommands, error) {
	if err := vk.InitInstance(instance); err != nil {
		return nil, errors.Wrap(err, "vkInitInstance")
	}
	return &Instance{}, nil
}

// LoadInstanceDestroyer makes sure vkDestroyInstance has been resolved for
// instance. vk.InitInstance only fails when no vkGetInstanceProcAddr is set.
func (*Loader) LoadInstanceDestroyer(instance vk.Instance) (render.InstanceDestroyer, error) {
	if err := vk.InitInstance(instance); err != nil {
		return nil, errors.Wrap(err, "vkInitInstance")
	}
	return instanceDestroyer{}, nil
}

type instanceDestroyer struct{}

func (instanceDestroyer) DestroyInstance(instance vk.Instance, alloc *vk.AllocationCallbacks) {
	vk.DestroyInstance(instance, alloc)
}

// Instance is the instance tier.
type Instance struct {
	instanceDestroyer
}

var _ render.InstanceCommands = (*Instance)(nil)

func (*Instance) EnumeratePhysicalDevices(instance vk.Instance, count *uint32, devices []vk.PhysicalDevice) vk.Result {
	return vk.EnumeratePhysicalDevices(instance, count, devices)
}

func (*Instance) GetPhysicalDeviceProperties(pd vk.PhysicalDevice, props *vk.PhysicalDeviceProperties) {
	vk.GetPhysicalDeviceProperties(pd, props)
}

func (*Instance) GetPhysicalDeviceQueueFamilyProperties(pd vk.PhysicalDevice, count *uint32, props []vk.QueueFamilyProperties) {
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, count, props)
}

func (*Instance) GetPhysicalDeviceSurfaceSupport(pd vk.PhysicalDevice, queueFamilyIndex uint32, surface vk.Surface, supported *vk.Bool32) vk.Result {
	return vk.GetPhysicalDeviceSurfaceSupport(pd, queueFamilyIndex, surface, supported)
}

func (*Instance) EnumerateDeviceExtensionProperties(pd vk.PhysicalDevice, layerName string, count *uint32, props []vk.ExtensionProperties) vk.Result {
	return vk.EnumerateDeviceExtensionProperties(pd, layerName, count, props)
}

func (*Instance) GetPhysicalDeviceSurfaceCapabilities(pd vk.PhysicalDevice, surface vk.Surface, caps *vk.SurfaceCapabilities) vk.Result {
	return vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, caps)
}

func (*Instance) GetPhysicalDeviceSurfaceFormats(pd vk.PhysicalDevice, surface vk.Surface, count *uint32, formats []vk.SurfaceFormat) vk.Result {
	return vk.GetPhysicalDeviceSurfaceFormats(pd, surface, count, formats)
}

func (*Instance) GetPhysicalDeviceSurfacePresentModes(pd vk.PhysicalDevice, surface vk.Surface, count *uint32, modes []vk.PresentMode) vk.Result {
	return vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, count, modes)
}

func (*Instance) DestroySurface(instance vk.Instance, surface vk.Surface, alloc *vk.AllocationCallbacks) {
	vk.DestroySurface(instance, surface, alloc)
}

func (*Instance) CreateDevice(pd vk.PhysicalDevice, info *vk.DeviceCreateInfo, alloc *vk.AllocationCallbacks, device *vk.Device) vk.Result {
	return vk.CreateDevice(pd, info, alloc, device)
}

// LoadDevice hands out the device tier. Its commands were resolved together
// with the instance table.
func (*Instance) LoadDevice(device vk.Device) (render.DeviceCommands, error) {
	return &Device{}, nil
}

func (*Instance) LoadDeviceDestroyer(device vk.Device) (render.DeviceDestroyer, error) {
	return deviceDestroyer{}, nil
}

type deviceDestroyer struct{}

func (deviceDestroyer) DestroyDevice(device vk.Device, alloc *vk.AllocationCallbacks) {
	vk.DestroyDevice(device, alloc)
}

// Device is the device tier.
type Device struct {
	deviceDestroyer
}

var _ render.DeviceCommands = (*Device)(nil)

func (*Device) GetDeviceQueue(device vk.Device, queueFamilyIndex, queueIndex uint32, queue *vk.Queue) {
	vk.GetDeviceQueue(device, queueFamilyIndex, queueIndex, queue)
}

func (*Device) DeviceWaitIdle(device vk.Device) vk.Result {
	return vk.DeviceWaitIdle(device)
}

func (*Device) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo, alloc *vk.AllocationCallbacks, swapchain *vk.Swapchain) vk.Result {
	return vk.CreateSwapchain(device, info, alloc, swapchain)
}

func (*Device) DestroySwapchain(device vk.Device, swapchain vk.Swapchain, alloc *vk.AllocationCallbacks) {
	vk.DestroySwapchain(device, swapchain, alloc)
}

func (*Device) GetSwapchainImages(device vk.Device, swapchain vk.Swapchain, count *uint32, images []vk.Image) vk.Result {
	return vk.GetSwapchainImages(device, swapchain, count, images)
}

func (*Device) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo, alloc *vk.AllocationCallbacks, view *vk.ImageView) vk.Result {
	return vk.CreateImageView(device, info, alloc, view)
}

func (*Device) DestroyImageView(device vk.Device, view vk.ImageView, alloc *vk.AllocationCallbacks) {
	vk.DestroyImageView(device, view, alloc)
}
