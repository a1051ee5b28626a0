package rendertest

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestDriverViolations(t *testing.T) {
	other := new(vk.AllocationCallbacks)

	for idx, tc := range []struct {
		name string
		run  func(d *Driver)
		want int
	}{
		{"clean", func(d *Driver) {
			var inst vk.Instance
			d.CreateInstance(&vk.InstanceCreateInfo{}, nil, &inst)
			d.DestroyInstance(inst, nil)
		}, 0},
		{"double destroy", func(d *Driver) {
			var inst vk.Instance
			d.CreateInstance(&vk.InstanceCreateInfo{}, nil, &inst)
			d.DestroyInstance(inst, nil)
			d.DestroyInstance(inst, nil)
		}, 1},
		{"allocator mismatch", func(d *Driver) {
			var inst vk.Instance
			d.CreateInstance(&vk.InstanceCreateInfo{}, nil, &inst)
			d.DestroyInstance(inst, other)
		}, 1},
		{"dependent alive", func(d *Driver) {
			var inst vk.Instance
			d.CreateInstance(&vk.InstanceCreateInfo{}, nil, &inst)
			var dev vk.Device
			d.CreateDevice(nil, &vk.DeviceCreateInfo{}, nil, &dev)
			d.DestroyInstance(inst, nil)
		}, 1},
	} {
		t.Run(fmt.Sprintf("%d/%s", idx, tc.name), func(t *testing.T) {
			d := NewDriver()
			tc.run(d)
			require.Len(t, d.Violations, tc.want, "%v", d.Violations)
		})
	}
}

func TestDriverFailOn(t *testing.T) {
	d := NewDriver()
	d.FailOn("vkCreateInstance", 1, vk.ErrorOutOfHostMemory)

	var inst vk.Instance
	require.Equal(t, vk.Success, d.CreateInstance(&vk.InstanceCreateInfo{}, nil, &inst))
	require.Equal(t, vk.ErrorOutOfHostMemory, d.CreateInstance(&vk.InstanceCreateInfo{}, nil, &inst))
	require.Equal(t, vk.Success, d.CreateInstance(&vk.InstanceCreateInfo{}, nil, &inst))
	require.Equal(t, 3, d.Calls("vkCreateInstance"))
	require.Equal(t, 2, d.Created(KindInstance))
}

func TestDriverCountThenFill(t *testing.T) {
	d := NewDriver()

	var count uint32
	require.Equal(t, vk.Success, d.EnumerateInstanceExtensionProperties("", &count, nil))
	require.Equal(t, uint32(3), count)

	short := make([]vk.ExtensionProperties, 2)
	count = 2
	require.Equal(t, vk.Incomplete, d.EnumerateInstanceExtensionProperties("", &count, short))
	require.Equal(t, uint32(2), count)
	require.Equal(t, "VK_KHR_surface", vk.ToString(short[0].ExtensionName[:]))
}

func TestWindowCloseAfter(t *testing.T) {
	w := NewDriver().Window()
	w.CloseAfter = 3
	n := 0
	for !w.ShouldClose() {
		w.PollEvents()
		n++
	}
	require.Equal(t, 3, n)
}

func TestDriverHandles(t *testing.T) {
	d := NewDriver()
	w := d.Window()

	var inst vk.Instance
	require.Equal(t, vk.Success, d.CreateInstance(&vk.InstanceCreateInfo{}, nil, &inst))
	surface, err := w.CreateSurface(inst, nil)
	require.NoError(t, err)

	// handles go through reflection in assertions and must not point into the Go heap
	require.NotPanics(t, func() { require.Equal(t, inst, inst) })
	require.NotPanics(t, func() { require.Equal(t, surface, surface) })
	require.NotPanics(t, func() { require.NotNil(t, inst) })

	require.NotEqual(t, ID(unsafe.Pointer(inst)), ID(unsafe.Pointer(surface)))
	require.Equal(t, []uintptr{ID(unsafe.Pointer(inst)), ID(unsafe.Pointer(surface))},
		[]uintptr{d.Events[0].Handle, d.Events[1].Handle})

	d.DestroySurface(inst, surface, nil)
	d.DestroyInstance(inst, nil)
	require.Empty(t, d.Violations)
}
