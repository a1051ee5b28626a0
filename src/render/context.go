package render

import (
	"log/slog"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Context owns the chain instance → surface → device and is acquired and
// released as a unit. The physical device is borrowed from the instance.
type Context struct {
	Instance       *Instance
	Surface        vk.Surface
	PhysicalDevice vk.PhysicalDevice
	QueueFamilies  QueueFamilyIndices
	Device         *Device

	alloc *vk.AllocationCallbacks
	log   *slog.Logger
}

// NewContext runs the staged bootstrap. On failure every object created so far
// is destroyed in reverse order before the error is returned.
func NewContext(loader Loader, platform Platform, cfg Config) (_ *Context, err error) {
	log := cfg.logger()
	rb := &rollback{}
	defer rb.unwind()

	inst, err := NewInstance(loader, cfg, platform.RequiredInstanceExtensions())
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}
	rb.push(inst.Destroy)

	surface, err := platform.CreateSurface(inst.Handle, cfg.Allocator)
	if err != nil {
		return nil, errors.Wrap(err, "create surface")
	}
	rb.push(func() { inst.Commands.DestroySurface(inst.Handle, surface, cfg.Allocator) })

	pd, err := SelectPhysicalDevice(inst.Commands, inst.Handle, log)
	if err != nil {
		return nil, errors.Wrap(err, "select physical device")
	}

	families, err := SelectQueueFamilies(inst.Commands, pd, surface)
	if err != nil {
		return nil, errors.Wrap(err, "select queue families")
	}
	log.Debug("queue families selected", "graphics", families.Graphics(), "present", families.Present())

	dev, err := NewDevice(inst, pd, families, cfg.Allocator, log)
	if err != nil {
		return nil, errors.Wrap(err, "create device")
	}
	rb.push(dev.Destroy)

	rb.release()
	return &Context{
		Instance:       inst,
		Surface:        surface,
		PhysicalDevice: pd,
		QueueFamilies:  families,
		Device:         dev,
		alloc:          cfg.Allocator,
		log:            log,
	}, nil
}

// WaitIdle blocks until the device is idle.
func (c *Context) WaitIdle() error {
	return c.Device.WaitIdle()
}

// Destroy releases the device, the surface and the instance, in that order.
// Any swapchain built on c must be destroyed first.
func (c *Context) Destroy() {
	if c == nil || c.Instance == nil {
		return
	}
	if err := c.WaitIdle(); err != nil {
		c.log.Warn("device wait idle failed before teardown", "error", err)
	}
	c.Device.Destroy()
	c.Instance.Commands.DestroySurface(c.Instance.Handle, c.Surface, c.alloc)
	c.Instance.Destroy()
	c.Instance = nil
	c.log.Info("context destroyed")
}
