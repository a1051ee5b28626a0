package render

import (
	"log/slog"

	vk "github.com/vulkan-go/vulkan"
)

// Config carries everything the staged bootstrap needs besides the driver and
// the window. The zero value is usable; DefaultConfig fills in names and versions.
type Config struct {
	AppName    string
	EngineName string
	AppVersion uint32
	// APIVersion is the Vulkan version requested at instance creation.
	APIVersion uint32

	// Validation requests the Khronos validation layer. It defaults to true in
	// builds made with the debug tag.
	Validation bool

	// InstanceExtensions are requested in addition to the ones the window needs.
	InstanceExtensions []string

	// Allocator is passed to every create and destroy call. nil selects the
	// driver's default allocator.
	Allocator *vk.AllocationCallbacks

	// Logger overrides the package logger for this context.
	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		AppName:    "vkboot",
		EngineName: "epsilon",
		AppVersion: vk.MakeVersion(1, 0, 0),
		APIVersion: vk.MakeVersion(1, 0, 0),
		Validation: buildValidation,
	}
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return Logger()
}

func (c *Config) applicationInfo() vk.ApplicationInfo {
	apiVersion := c.APIVersion
	if apiVersion == 0 {
		apiVersion = vk.MakeVersion(1, 0, 0)
	}
	return vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(c.AppName),
		ApplicationVersion: c.AppVersion,
		PEngineName:        safeString(c.EngineName),
		EngineVersion:      c.AppVersion,
		ApiVersion:         apiVersion,
	}
}
