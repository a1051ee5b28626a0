package render

import (
	"log/slog"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SelectPhysicalDevice picks the first physical device in enumeration order.
// No scoring is done: with more than one device a warning is logged and the
// first one still wins.
func SelectPhysicalDevice(cmds InstanceCommands, instance vk.Instance, log *slog.Logger) (_ vk.PhysicalDevice, err error) {
	defer CheckError(&err)

	var count uint32
	if err := NewError("vkEnumeratePhysicalDevices", cmds.EnumeratePhysicalDevices(instance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.WithStack(ErrNoPhysicalDevice)
	}
	devices := make([]vk.PhysicalDevice, count)
	OrPanic(NewError("vkEnumeratePhysicalDevices", cmds.EnumeratePhysicalDevices(instance, &count, devices)))
	devices = devices[:count]

	pd := devices[0]
	name := PhysicalDeviceName(cmds, pd)
	if len(devices) > 1 {
		log.Warn("more than one physical device, using the first", "count", len(devices), "device", name)
	}
	log.Info("physical device selected", "device", name)
	return pd, nil
}

func PhysicalDeviceName(cmds InstanceCommands, pd vk.PhysicalDevice) string {
	var props vk.PhysicalDeviceProperties
	cmds.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()
	return vk.ToString(props.DeviceName[:])
}
