package rendertest

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"vkboot/src/render"
)

// Window implements render.Platform on top of a Driver. Surfaces it creates are
// tracked by the driver like any other object.
type Window struct {
	Extensions    []string
	Width, Height int
	// CloseAfter makes ShouldClose report true once PollEvents has been called
	// that many times.
	CloseAfter int
	// FailSurface is returned by CreateSurface when set.
	FailSurface error

	Polls int

	driver *Driver
}

var _ render.Platform = (*Window)(nil)

// Window returns a window requiring the surface extensions NewDriver offers.
func (d *Driver) Window() *Window {
	return &Window{
		Extensions: []string{"VK_KHR_surface", "VK_KHR_xcb_surface"},
		Width:      800,
		Height:     600,
		CloseAfter: 1,
		driver:     d,
	}
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.Extensions
}

func (w *Window) CreateSurface(instance vk.Instance, alloc *vk.AllocationCallbacks) (vk.Surface, error) {
	w.driver.call("glfwCreateWindowSurface")
	if w.FailSurface != nil {
		return vk.NullSurface, w.FailSurface
	}
	return vk.Surface(ptr(w.driver.create(KindSurface, alloc, ID(unsafe.Pointer(instance))))), nil
}

func (w *Window) FramebufferSize() (width, height int) {
	return w.Width, w.Height
}

func (w *Window) ShouldClose() bool {
	return w.Polls >= w.CloseAfter
}

func (w *Window) PollEvents() {
	w.Polls++
}
