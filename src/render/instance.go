package render

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Instance is a vulkan instance together with its dispatch table. It must
// outlive every object created through it.
type Instance struct {
	Handle   vk.Instance
	Commands InstanceCommands

	// Extensions and Layers are the names enabled at creation, in request order.
	Extensions []string
	Layers     []string

	alloc *vk.AllocationCallbacks
}

// NewInstance creates an instance enabling windowExtensions, the configured
// extensions and, when validation is on, the Khronos validation layer. If the
// dispatch table cannot be loaded the instance is destroyed through a
// destroy-only table before the error is returned.
func NewInstance(loader Loader, cfg Config, windowExtensions []string) (_ *Instance, err error) {
	defer CheckError(&err)
	log := cfg.logger()

	extensions, err := MatchNames(
		uniqueNames(windowExtensions, cfg.InstanceExtensions),
		ExtensionNames(instanceExtensions(loader)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "instance extensions")
	}

	var desiredLayers []string
	if cfg.Validation {
		desiredLayers = []string{ValidationLayerName}
	}
	layers, err := MatchNames(desiredLayers, LayerNames(instanceLayers(loader)))
	if err != nil {
		return nil, errors.Wrap(err, "instance layers")
	}

	appInfo := cfg.applicationInfo()
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	var handle vk.Instance
	if err := NewError("vkCreateInstance", loader.CreateInstance(&createInfo, cfg.Allocator, &handle)); err != nil {
		return nil, err
	}

	cmds, err := loader.LoadInstance(handle)
	if err != nil {
		loadErr := errors.WithStack(&DispatchError{Handle: "instance", Err: err})
		destroyer, derr := loader.LoadInstanceDestroyer(handle)
		if derr != nil {
			log.Error("instance leaked, vkDestroyInstance unavailable", "error", derr)
			return nil, loadErr
		}
		destroyer.DestroyInstance(handle, cfg.Allocator)
		return nil, loadErr
	}

	log.Debug("instance created", "extensions", extensions, "layers", layers)
	return &Instance{
		Handle:     handle,
		Commands:   cmds,
		Extensions: extensions,
		Layers:     layers,
		alloc:      cfg.Allocator,
	}, nil
}

func (i *Instance) Destroy() {
	if i == nil || i.Handle == nil {
		return
	}
	i.Commands.DestroyInstance(i.Handle, i.alloc)
	i.Handle = nil
}

func instanceExtensions(loader Loader) []vk.ExtensionProperties {
	var count uint32
	OrPanic(NewError("vkEnumerateInstanceExtensionProperties", loader.EnumerateInstanceExtensionProperties("", &count, nil)))
	props := make([]vk.ExtensionProperties, count)
	OrPanic(NewError("vkEnumerateInstanceExtensionProperties", loader.EnumerateInstanceExtensionProperties("", &count, props)))
	return props[:count]
}

func instanceLayers(loader Loader) []vk.LayerProperties {
	var count uint32
	OrPanic(NewError("vkEnumerateInstanceLayerProperties", loader.EnumerateInstanceLayerProperties(&count, nil)))
	props := make([]vk.LayerProperties, count)
	OrPanic(NewError("vkEnumerateInstanceLayerProperties", loader.EnumerateInstanceLayerProperties(&count, props)))
	return props[:count]
}
