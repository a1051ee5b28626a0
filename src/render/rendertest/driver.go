// Package rendertest provides an in-memory Vulkan driver and window for testing
// the render bootstrap without a GPU.
//
// The Driver hands out fake handles, tracks every object it creates, and
// records a violation whenever an object is destroyed twice, destroyed while an
// object depending on it is still alive, or destroyed with a different
// allocator than it was created with.
package rendertest

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"vkboot/src/render"
)

type Kind string

const (
	KindInstance  Kind = "instance"
	KindSurface   Kind = "surface"
	KindDevice    Kind = "device"
	KindSwapchain Kind = "swapchain"
	KindImageView Kind = "image view"
)

// QueueFamily describes one queue family of a fake physical device.
type QueueFamily struct {
	Flags   vk.QueueFlags
	Present bool
}

// GraphicsFamily is a family with the graphics bit set.
func GraphicsFamily(present bool) QueueFamily {
	return QueueFamily{Flags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueTransferBit), Present: present}
}

// ComputeFamily is a family without the graphics bit.
func ComputeFamily(present bool) QueueFamily {
	return QueueFamily{Flags: vk.QueueFlags(vk.QueueComputeBit | vk.QueueTransferBit), Present: present}
}

type PhysicalDevice struct {
	Name          string
	QueueFamilies []QueueFamily
}

// Event is one create or destroy call seen by the driver. Handle is the
// object's handle value; use ID to compare it with a vulkan handle.
type Event struct {
	Op     string
	Kind   Kind
	Handle uintptr
}

type object struct {
	kind  Kind
	alloc *vk.AllocationCallbacks
	deps  []uintptr
}

type failure struct {
	nth    int
	result vk.Result
}

// Driver implements render.Loader, render.InstanceCommands and
// render.DeviceCommands. Fields may be changed before the first call.
type Driver struct {
	InstanceExtensions []string
	InstanceLayers     []string
	DeviceExtensions   []string
	PhysicalDevices    []PhysicalDevice

	Capabilities   vk.SurfaceCapabilities
	SurfaceFormats []vk.SurfaceFormat
	PresentModes   []vk.PresentMode
	// SwapchainImages overrides the number of images a swapchain gets. Zero
	// uses the requested minimum image count.
	SwapchainImages uint32

	FailLoadInstance          error
	FailLoadInstanceDestroyer error
	FailLoadDevice            error
	FailLoadDeviceDestroyer   error

	// Recorded create infos.
	InstanceInfo  *vk.InstanceCreateInfo
	DeviceInfo    *vk.DeviceCreateInfo
	SwapchainInfo *vk.SwapchainCreateInfo
	ViewInfos     []vk.ImageViewCreateInfo

	Events     []Event
	Violations []string
	// MinimalDestroys counts destroys issued through a destroy-only table.
	MinimalDestroys int

	calls     map[string]int
	failures  map[string]failure
	live      map[uintptr]*object
	created   map[Kind]int
	destroyed map[Kind]int
	physical  []vk.PhysicalDevice
	deviceOf  map[uintptr]int
	// images maps an image to its swapchain.
	images     map[uintptr]uintptr
	swapImages map[uintptr][]vk.Image
	// last is the most recently minted handle value.
	last uintptr
}

var (
	_ render.Loader           = (*Driver)(nil)
	_ render.InstanceCommands = (*Driver)(nil)
	_ render.DeviceCommands   = (*Driver)(nil)
)

// NewDriver returns a driver with one physical device exposing one combined
// graphics and present family, the preferred surface format, FIFO and mailbox
// present modes, and a surface that wants two images and reports 800x600.
func NewDriver() *Driver {
	return &Driver{
		InstanceExtensions: []string{"VK_KHR_surface", "VK_KHR_xcb_surface", "VK_EXT_debug_utils"},
		InstanceLayers:     []string{render.ValidationLayerName},
		DeviceExtensions:   []string{render.SwapchainExtensionName},
		PhysicalDevices: []PhysicalDevice{
			{Name: "Fake GPU 0", QueueFamilies: []QueueFamily{GraphicsFamily(true)}},
		},
		Capabilities: vk.SurfaceCapabilities{
			MinImageCount:    2,
			MaxImageCount:    0,
			CurrentExtent:    vk.Extent2D{Width: 800, Height: 600},
			MinImageExtent:   vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent:   vk.Extent2D{Width: 4096, Height: 4096},
			CurrentTransform: vk.SurfaceTransformIdentityBit,
		},
		SurfaceFormats: []vk.SurfaceFormat{render.PreferredSurfaceFormat},
		PresentModes:   []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
	}
}

// FailOn makes the nth (zero based) call of op return result. op is the Vulkan
// entry point name, e.g. "vkCreateImageView".
func (d *Driver) FailOn(op string, nth int, result vk.Result) {
	d.init()
	d.failures[op] = failure{nth: nth, result: result}
}

// Live reports the number of objects created and not yet destroyed.
func (d *Driver) Live() int {
	d.init()
	return len(d.live)
}

func (d *Driver) LiveOf(kind Kind) int {
	d.init()
	n := 0
	for _, o := range d.live {
		if o.kind == kind {
			n++
		}
	}
	return n
}

func (d *Driver) Created(kind Kind) int {
	d.init()
	return d.created[kind]
}

func (d *Driver) Destroyed(kind Kind) int {
	d.init()
	return d.destroyed[kind]
}

// Calls reports how many times op was called.
func (d *Driver) Calls(op string) int {
	d.init()
	return d.calls[op]
}

// DestroyOrder lists the kinds of destroyed objects in call order.
func (d *Driver) DestroyOrder() []Kind {
	var ret []Kind
	for _, e := range d.Events {
		if e.Op == "destroy" {
			ret = append(ret, e.Kind)
		}
	}
	return ret
}

func (d *Driver) init() {
	if d.live != nil {
		return
	}
	d.calls = make(map[string]int)
	if d.failures == nil {
		d.failures = make(map[string]failure)
	}
	d.live = make(map[uintptr]*object)
	d.created = make(map[Kind]int)
	d.destroyed = make(map[Kind]int)
	d.images = make(map[uintptr]uintptr)
	d.swapImages = make(map[uintptr][]vk.Image)
	d.deviceOf = make(map[uintptr]int)
	d.last = handleBase
}

// call counts a call of op and returns the injected result, if any.
func (d *Driver) call(op string) vk.Result {
	d.init()
	n := d.calls[op]
	d.calls[op] = n + 1
	if f, ok := d.failures[op]; ok && f.nth == n {
		return f.result
	}
	return vk.Success
}

// Handles are opaque C pointers to the runtime, so they must never point into
// the Go heap. They are minted from a counter in a range no allocation uses.
const (
	handleBase = uintptr(0x1000)
	handleStep = uintptr(0x10)
)

func (d *Driver) newHandle() uintptr {
	d.init()
	d.last += handleStep
	return d.last
}

func ptr(h uintptr) unsafe.Pointer {
	return unsafe.Pointer(h)
}

// ID returns the value of a handle handed out by a Driver, for comparisons
// with Event.Handle and in assertions: ID(unsafe.Pointer(view)).
func ID(h unsafe.Pointer) uintptr {
	return uintptr(h)
}

func (d *Driver) create(kind Kind, alloc *vk.AllocationCallbacks, deps ...uintptr) uintptr {
	d.init()
	h := d.newHandle()
	d.live[h] = &object{kind: kind, alloc: alloc, deps: deps}
	d.created[kind]++
	d.Events = append(d.Events, Event{Op: "create", Kind: kind, Handle: h})
	return h
}

func (d *Driver) destroy(kind Kind, h uintptr, alloc *vk.AllocationCallbacks) {
	d.init()
	o, ok := d.live[h]
	if !ok {
		d.Violations = append(d.Violations, fmt.Sprintf("destroy of unknown or already destroyed %s %#x", kind, h))
		return
	}
	if o.kind != kind {
		d.Violations = append(d.Violations, fmt.Sprintf("%s %#x destroyed as %s", o.kind, h, kind))
	}
	if o.alloc != alloc {
		d.Violations = append(d.Violations, fmt.Sprintf("%s %#x destroyed with a different allocator", kind, h))
	}
	for other, oo := range d.live {
		for _, dep := range oo.deps {
			if dep == h {
				d.Violations = append(d.Violations, fmt.Sprintf("%s %#x destroyed while %s %#x is alive", kind, h, oo.kind, other))
			}
		}
	}
	delete(d.live, h)
	d.destroyed[kind]++
	d.Events = append(d.Events, Event{Op: "destroy", Kind: kind, Handle: h})
}

func fill[T any](src []T, count *uint32, dst []T) vk.Result {
	if dst == nil {
		*count = uint32(len(src))
		return vk.Success
	}
	n := int(*count)
	if n > len(dst) {
		n = len(dst)
	}
	n = copy(dst[:n], src)
	*count = uint32(n)
	if n < len(src) {
		return vk.Incomplete
	}
	return vk.Success
}

func (d *Driver) EnumerateInstanceExtensionProperties(layerName string, count *uint32, props []vk.ExtensionProperties) vk.Result {
	if ret := d.call("vkEnumerateInstanceExtensionProperties"); ret != vk.Success {
		return ret
	}
	src := make([]vk.ExtensionProperties, len(d.InstanceExtensions))
	for i, name := range d.InstanceExtensions {
		src[i] = vk.ExtensionProperties{ExtensionName: render.NameField(name), SpecVersion: 1}
	}
	return fill(src, count, props)
}

func (d *Driver) EnumerateInstanceLayerProperties(count *uint32, props []vk.LayerProperties) vk.Result {
	if ret := d.call("vkEnumerateInstanceLayerProperties"); ret != vk.Success {
		return ret
	}
	src := make([]vk.LayerProperties, len(d.InstanceLayers))
	for i, name := range d.InstanceLayers {
		src[i] = vk.LayerProperties{LayerName: render.NameField(name), SpecVersion: 1}
	}
	return fill(src, count, props)
}

func (d *Driver) CreateInstance(info *vk.InstanceCreateInfo, alloc *vk.AllocationCallbacks, instance *vk.Instance) vk.Result {
	if ret := d.call("vkCreateInstance"); ret != vk.Success {
		return ret
	}
	d.InstanceInfo = info
	*instance = vk.Instance(ptr(d.create(KindInstance, alloc)))
	return vk.Success
}

func (d *Driver) LoadInstance(instance vk.Instance) (render.InstanceCommands, error) {
	d.call("LoadInstance")
	if d.FailLoadInstance != nil {
		return nil, d.FailLoadInstance
	}
	return d, nil
}

func (d *Driver) LoadInstanceDestroyer(instance vk.Instance) (render.InstanceDestroyer, error) {
	d.call("LoadInstanceDestroyer")
	if d.FailLoadInstanceDestroyer != nil {
		return nil, d.FailLoadInstanceDestroyer
	}
	return instanceDestroyer{d}, nil
}

type instanceDestroyer struct{ d *Driver }

func (m instanceDestroyer) DestroyInstance(instance vk.Instance, alloc *vk.AllocationCallbacks) {
	m.d.MinimalDestroys++
	m.d.DestroyInstance(instance, alloc)
}

func (d *Driver) DestroyInstance(instance vk.Instance, alloc *vk.AllocationCallbacks) {
	d.call("vkDestroyInstance")
	d.destroy(KindInstance, ID(unsafe.Pointer(instance)), alloc)
}

func (d *Driver) EnumeratePhysicalDevices(instance vk.Instance, count *uint32, devices []vk.PhysicalDevice) vk.Result {
	if ret := d.call("vkEnumeratePhysicalDevices"); ret != vk.Success {
		return ret
	}
	if d.physical == nil {
		d.physical = make([]vk.PhysicalDevice, len(d.PhysicalDevices))
		for i := range d.PhysicalDevices {
			h := d.newHandle()
			d.physical[i] = vk.PhysicalDevice(ptr(h))
			d.deviceOf[h] = i
		}
	}
	return fill(d.physical, count, devices)
}

func (d *Driver) physicalDevice(pd vk.PhysicalDevice) *PhysicalDevice {
	d.init()
	i, ok := d.deviceOf[ID(unsafe.Pointer(pd))]
	if !ok {
		d.Violations = append(d.Violations, fmt.Sprintf("unknown physical device %#x", ID(unsafe.Pointer(pd))))
		return &PhysicalDevice{}
	}
	return &d.PhysicalDevices[i]
}

func (d *Driver) GetPhysicalDeviceProperties(pd vk.PhysicalDevice, props *vk.PhysicalDeviceProperties) {
	d.call("vkGetPhysicalDeviceProperties")
	*props = vk.PhysicalDeviceProperties{
		ApiVersion: vk.MakeVersion(1, 0, 0),
		DeviceType: vk.PhysicalDeviceTypeDiscreteGpu,
		DeviceName: render.NameField(d.physicalDevice(pd).Name),
	}
}

func (d *Driver) GetPhysicalDeviceQueueFamilyProperties(pd vk.PhysicalDevice, count *uint32, props []vk.QueueFamilyProperties) {
	d.call("vkGetPhysicalDeviceQueueFamilyProperties")
	families := d.physicalDevice(pd).QueueFamilies
	src := make([]vk.QueueFamilyProperties, len(families))
	for i, f := range families {
		src[i] = vk.QueueFamilyProperties{QueueFlags: f.Flags, QueueCount: 1}
	}
	fill(src, count, props)
}

func (d *Driver) GetPhysicalDeviceSurfaceSupport(pd vk.PhysicalDevice, queueFamilyIndex uint32, surface vk.Surface, supported *vk.Bool32) vk.Result {
	if ret := d.call("vkGetPhysicalDeviceSurfaceSupportKHR"); ret != vk.Success {
		return ret
	}
	families := d.physicalDevice(pd).QueueFamilies
	*supported = vk.False
	if int(queueFamilyIndex) < len(families) && families[queueFamilyIndex].Present {
		*supported = vk.True
	}
	return vk.Success
}

func (d *Driver) EnumerateDeviceExtensionProperties(pd vk.PhysicalDevice, layerName string, count *uint32, props []vk.ExtensionProperties) vk.Result {
	if ret := d.call("vkEnumerateDeviceExtensionProperties"); ret != vk.Success {
		return ret
	}
	src := make([]vk.ExtensionProperties, len(d.DeviceExtensions))
	for i, name := range d.DeviceExtensions {
		src[i] = vk.ExtensionProperties{ExtensionName: render.NameField(name), SpecVersion: 1}
	}
	return fill(src, count, props)
}

func (d *Driver) GetPhysicalDeviceSurfaceCapabilities(pd vk.PhysicalDevice, surface vk.Surface, caps *vk.SurfaceCapabilities) vk.Result {
	if ret := d.call("vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); ret != vk.Success {
		return ret
	}
	*caps = d.Capabilities
	return vk.Success
}

func (d *Driver) GetPhysicalDeviceSurfaceFormats(pd vk.PhysicalDevice, surface vk.Surface, count *uint32, formats []vk.SurfaceFormat) vk.Result {
	if ret := d.call("vkGetPhysicalDeviceSurfaceFormatsKHR"); ret != vk.Success {
		return ret
	}
	return fill(d.SurfaceFormats, count, formats)
}

func (d *Driver) GetPhysicalDeviceSurfacePresentModes(pd vk.PhysicalDevice, surface vk.Surface, count *uint32, modes []vk.PresentMode) vk.Result {
	if ret := d.call("vkGetPhysicalDeviceSurfacePresentModesKHR"); ret != vk.Success {
		return ret
	}
	return fill(d.PresentModes, count, modes)
}

func (d *Driver) DestroySurface(instance vk.Instance, surface vk.Surface, alloc *vk.AllocationCallbacks) {
	d.call("vkDestroySurfaceKHR")
	d.destroy(KindSurface, ID(unsafe.Pointer(surface)), alloc)
}

func (d *Driver) CreateDevice(pd vk.PhysicalDevice, info *vk.DeviceCreateInfo, alloc *vk.AllocationCallbacks, device *vk.Device) vk.Result {
	if ret := d.call("vkCreateDevice"); ret != vk.Success {
		return ret
	}
	d.DeviceInfo = info
	var instance uintptr
	for h, o := range d.live {
		if o.kind == KindInstance {
			instance = h
		}
	}
	*device = vk.Device(ptr(d.create(KindDevice, alloc, instance)))
	return vk.Success
}

func (d *Driver) LoadDevice(device vk.Device) (render.DeviceCommands, error) {
	d.call("LoadDevice")
	if d.FailLoadDevice != nil {
		return nil, d.FailLoadDevice
	}
	return d, nil
}

func (d *Driver) LoadDeviceDestroyer(device vk.Device) (render.DeviceDestroyer, error) {
	d.call("LoadDeviceDestroyer")
	if d.FailLoadDeviceDestroyer != nil {
		return nil, d.FailLoadDeviceDestroyer
	}
	return deviceDestroyer{d}, nil
}

type deviceDestroyer struct{ d *Driver }

func (m deviceDestroyer) DestroyDevice(device vk.Device, alloc *vk.AllocationCallbacks) {
	m.d.MinimalDestroys++
	m.d.DestroyDevice(device, alloc)
}

func (d *Driver) DestroyDevice(device vk.Device, alloc *vk.AllocationCallbacks) {
	d.call("vkDestroyDevice")
	d.destroy(KindDevice, ID(unsafe.Pointer(device)), alloc)
}

func (d *Driver) GetDeviceQueue(device vk.Device, queueFamilyIndex, queueIndex uint32, queue *vk.Queue) {
	d.call("vkGetDeviceQueue")
	*queue = vk.Queue(ptr(d.newHandle()))
}

func (d *Driver) DeviceWaitIdle(device vk.Device) vk.Result {
	return d.call("vkDeviceWaitIdle")
}

func (d *Driver) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo, alloc *vk.AllocationCallbacks, swapchain *vk.Swapchain) vk.Result {
	if ret := d.call("vkCreateSwapchainKHR"); ret != vk.Success {
		return ret
	}
	d.SwapchainInfo = info
	*swapchain = vk.Swapchain(ptr(d.create(KindSwapchain, alloc, ID(unsafe.Pointer(device)), ID(unsafe.Pointer(info.Surface)))))
	return vk.Success
}

func (d *Driver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain, alloc *vk.AllocationCallbacks) {
	d.call("vkDestroySwapchainKHR")
	d.destroy(KindSwapchain, ID(unsafe.Pointer(swapchain)), alloc)
}

func (d *Driver) GetSwapchainImages(device vk.Device, swapchain vk.Swapchain, count *uint32, images []vk.Image) vk.Result {
	if ret := d.call("vkGetSwapchainImagesKHR"); ret != vk.Success {
		return ret
	}
	sc := ID(unsafe.Pointer(swapchain))
	src, ok := d.swapImages[sc]
	if !ok {
		n := d.SwapchainImages
		if n == 0 && d.SwapchainInfo != nil {
			n = d.SwapchainInfo.MinImageCount
		}
		src = make([]vk.Image, n)
		for i := range src {
			h := d.newHandle()
			d.images[h] = sc
			src[i] = vk.Image(ptr(h))
		}
		d.swapImages[sc] = src
	}
	return fill(src, count, images)
}

func (d *Driver) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo, alloc *vk.AllocationCallbacks, view *vk.ImageView) vk.Result {
	if ret := d.call("vkCreateImageView"); ret != vk.Success {
		return ret
	}
	d.ViewInfos = append(d.ViewInfos, *info)
	deps := []uintptr{ID(unsafe.Pointer(device))}
	if sc, ok := d.images[ID(unsafe.Pointer(info.Image))]; ok {
		deps = append(deps, sc)
	}
	*view = vk.ImageView(ptr(d.create(KindImageView, alloc, deps...)))
	return vk.Success
}

func (d *Driver) DestroyImageView(device vk.Device, view vk.ImageView, alloc *vk.AllocationCallbacks) {
	d.call("vkDestroyImageView")
	d.destroy(KindImageView, ID(unsafe.Pointer(view)), alloc)
}
