// Package glfw provides the render.Platform backed by a GLFW window.
//
// GLFW must be used from the main thread; callers lock it in an init func.
package glfw

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkboot/src/render"
)

// Init initializes GLFW and returns its vkGetInstanceProcAddr.
func Init() (unsafe.Pointer, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw init")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw: vulkan loader not found")
	}
	return glfw.GetVulkanGetInstanceProcAddress(), nil
}

func Terminate() {
	glfw.Terminate()
}

type Window struct {
	window *glfw.Window
}

var _ render.Platform = (*Window)(nil)

// New opens a window without a client API so that Vulkan can own the surface.
func New(title string, width, height int) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create window")
	}
	return &Window{window: w}, nil
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

func (w *Window) CreateSurface(instance vk.Instance, alloc *vk.AllocationCallbacks) (vk.Surface, error) {
	ptr, err := w.window.CreateWindowSurface(instance, unsafe.Pointer(alloc))
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "glfwCreateWindowSurface")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

func (w *Window) FramebufferSize() (width, height int) {
	return w.window.GetFramebufferSize()
}

func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) Destroy() {
	if w == nil || w.window == nil {
		return
	}
	w.window.Destroy()
	w.window = nil
}
