package render_test

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"

	"vkboot/src/render"
	"vkboot/src/render/rendertest"
)

// newContext builds a context on d and w and destroys it when the test ends.
func newContext(t *testing.T, d *rendertest.Driver, w *rendertest.Window) *render.Context {
	t.Helper()
	ctx, err := render.NewContext(d, w, render.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(ctx.Destroy)
	return ctx
}

func TestContextLifecycle(t *testing.T) {
	d := rendertest.NewDriver()
	w := d.Window()

	ctx, err := render.NewContext(d, w, render.DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, ctx.Instance.Handle)
	require.NotNil(t, ctx.Device.Handle)
	require.NotNil(t, ctx.Device.GraphicsQueue)
	require.NotNil(t, ctx.Device.PresentQueue)
	require.True(t, ctx.QueueFamilies.Shared())
	require.Equal(t, 3, d.Live())

	sc, err := render.NewSwapchain(ctx, w)
	require.NoError(t, err)
	require.Equal(t, vk.PresentModeMailbox, sc.PresentMode)
	require.Equal(t, uint32(3), sc.ImageCount)
	require.Equal(t, vk.SharingModeExclusive, sc.SharingMode)
	require.Len(t, sc.Images, 3)
	require.Equal(t, 7, d.Live())

	for !w.ShouldClose() {
		w.PollEvents()
	}
	require.Equal(t, 1, w.Polls)

	sc.Destroy()
	ctx.Destroy()
	ctx.Destroy()

	require.Equal(t, []rendertest.Kind{
		rendertest.KindImageView,
		rendertest.KindImageView,
		rendertest.KindImageView,
		rendertest.KindSwapchain,
		rendertest.KindDevice,
		rendertest.KindSurface,
		rendertest.KindInstance,
	}, d.DestroyOrder())
	require.Zero(t, d.Live())
	require.Empty(t, d.Violations)
	require.Zero(t, d.MinimalDestroys)
	require.Equal(t, 1, d.Calls("vkDeviceWaitIdle"))
}

func TestContextDestroyAfterWaitIdleFailure(t *testing.T) {
	d := rendertest.NewDriver()
	w := d.Window()
	ctx, err := render.NewContext(d, w, render.DefaultConfig())
	require.NoError(t, err)

	d.FailOn("vkDeviceWaitIdle", 0, vk.ErrorDeviceLost)
	require.Error(t, ctx.WaitIdle())
	require.NoError(t, ctx.WaitIdle())

	d.FailOn("vkDeviceWaitIdle", 2, vk.ErrorDeviceLost)
	ctx.Destroy()
	require.Zero(t, d.Live())
	require.Empty(t, d.Violations)
}

func TestContextAllocator(t *testing.T) {
	d := rendertest.NewDriver()
	w := d.Window()
	cfg := render.DefaultConfig()
	cfg.Allocator = new(vk.AllocationCallbacks)

	ctx, err := render.NewContext(d, w, cfg)
	require.NoError(t, err)
	sc, err := render.NewSwapchain(ctx, w)
	require.NoError(t, err)
	sc.Destroy()
	ctx.Destroy()

	require.Zero(t, d.Live())
	require.Empty(t, d.Violations)
}

func TestContextAllocatorOnRollback(t *testing.T) {
	d := rendertest.NewDriver()
	d.FailOn("vkCreateImageView", 1, vk.ErrorOutOfHostMemory)
	w := d.Window()
	cfg := render.DefaultConfig()
	cfg.Allocator = new(vk.AllocationCallbacks)

	ctx, err := render.NewContext(d, w, cfg)
	require.NoError(t, err)
	_, err = render.NewSwapchain(ctx, w)
	require.Error(t, err)
	ctx.Destroy()

	require.Zero(t, d.Live())
	require.Empty(t, d.Violations)
}

func TestNewContextFailures(t *testing.T) {
	errWindow := errors.New("window system refused surface")
	errLoad := errors.New("proc address not found")

	for idx, tc := range []struct {
		name  string
		setup func(d *rendertest.Driver, w *rendertest.Window)
		err   error
		// created lists what was built before the failure; all of it must be gone
		created []rendertest.Kind
	}{
		{"create instance", func(d *rendertest.Driver, w *rendertest.Window) {
			d.FailOn("vkCreateInstance", 0, vk.ErrorIncompatibleDriver)
		}, nil, nil},
		{"instance extensions", func(d *rendertest.Driver, w *rendertest.Window) {
			w.Extensions = append(w.Extensions, "VK_KHR_wayland_surface")
		}, render.ErrMissingCapability, nil},
		{"instance table", func(d *rendertest.Driver, w *rendertest.Window) {
			d.FailLoadInstance = errLoad
		}, render.ErrDispatchLoad, []rendertest.Kind{rendertest.KindInstance}},
		{"surface", func(d *rendertest.Driver, w *rendertest.Window) {
			w.FailSurface = errWindow
		}, errWindow, []rendertest.Kind{rendertest.KindInstance}},
		{"no physical device", func(d *rendertest.Driver, w *rendertest.Window) {
			d.PhysicalDevices = nil
		}, render.ErrNoPhysicalDevice, []rendertest.Kind{rendertest.KindInstance, rendertest.KindSurface}},
		{"enumerate physical devices", func(d *rendertest.Driver, w *rendertest.Window) {
			d.FailOn("vkEnumeratePhysicalDevices", 0, vk.ErrorInitializationFailed)
		}, nil, []rendertest.Kind{rendertest.KindInstance, rendertest.KindSurface}},
		{"surface support", func(d *rendertest.Driver, w *rendertest.Window) {
			d.FailOn("vkGetPhysicalDeviceSurfaceSupportKHR", 0, vk.ErrorSurfaceLost)
		}, nil, []rendertest.Kind{rendertest.KindInstance, rendertest.KindSurface}},
		{"present family", func(d *rendertest.Driver, w *rendertest.Window) {
			d.PhysicalDevices[0].QueueFamilies = []rendertest.QueueFamily{rendertest.GraphicsFamily(false)}
		}, render.ErrNoPresentQueue, []rendertest.Kind{rendertest.KindInstance, rendertest.KindSurface}},
		{"device extensions", func(d *rendertest.Driver, w *rendertest.Window) {
			d.DeviceExtensions = nil
		}, render.ErrMissingCapability, []rendertest.Kind{rendertest.KindInstance, rendertest.KindSurface}},
		{"create device", func(d *rendertest.Driver, w *rendertest.Window) {
			d.FailOn("vkCreateDevice", 0, vk.ErrorTooManyObjects)
		}, nil, []rendertest.Kind{rendertest.KindInstance, rendertest.KindSurface}},
		{"device table", func(d *rendertest.Driver, w *rendertest.Window) {
			d.FailLoadDevice = errLoad
		}, render.ErrDispatchLoad, []rendertest.Kind{rendertest.KindInstance, rendertest.KindSurface, rendertest.KindDevice}},
	} {
		t.Run(fmt.Sprintf("%d/%s", idx, tc.name), func(t *testing.T) {
			d := rendertest.NewDriver()
			w := d.Window()
			tc.setup(d, w)

			ctx, err := render.NewContext(d, w, render.DefaultConfig())
			require.Error(t, err)
			require.Nil(t, ctx)
			if tc.err != nil {
				require.True(t, errors.Is(err, tc.err), "got %v", err)
			} else {
				var re *render.ResultError
				require.True(t, errors.As(err, &re), "got %v", err)
			}

			for _, kind := range tc.created {
				require.Equal(t, 1, d.Created(kind), "%s", kind)
				require.Equal(t, 1, d.Destroyed(kind), "%s", kind)
			}
			require.Len(t, d.DestroyOrder(), len(tc.created))
			require.Zero(t, d.Live())
			require.Empty(t, d.Violations)
		})
	}
}

func TestNewContextRollbackOrder(t *testing.T) {
	d := rendertest.NewDriver()
	d.FailLoadDevice = errors.New("no vkGetDeviceQueue")
	w := d.Window()

	_, err := render.NewContext(d, w, render.DefaultConfig())
	require.Error(t, err)
	require.Equal(t, []rendertest.Kind{
		rendertest.KindDevice,
		rendertest.KindSurface,
		rendertest.KindInstance,
	}, d.DestroyOrder())
	require.Equal(t, 1, d.MinimalDestroys)
}

func TestContextMultipleDevicesUsesFirst(t *testing.T) {
	d := rendertest.NewDriver()
	d.PhysicalDevices = append(d.PhysicalDevices, rendertest.PhysicalDevice{
		Name:          "Fake GPU 1",
		QueueFamilies: []rendertest.QueueFamily{rendertest.ComputeFamily(false)},
	})
	w := d.Window()
	ctx := newContext(t, d, w)

	require.Equal(t, "Fake GPU 0", render.PhysicalDeviceName(ctx.Instance.Commands, ctx.PhysicalDevice))
}
