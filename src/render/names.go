package render

import (
	"strings"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const (
	// ValidationLayerName is the single layer requested when validation is on.
	ValidationLayerName = "VK_LAYER_KHRONOS_validation"
	// SwapchainExtensionName is the only device extension this package requires.
	SwapchainExtensionName = "VK_KHR_swapchain"

	// VK_MAX_EXTENSION_NAME_SIZE, shared by extension and layer records.
	nameFieldSize = 256
)

const end = "\x00"

// MatchNames returns the desired names that are present in available, keeping
// the order of desired since callers may treat position as priority. Every
// desired name must be present and must fit a name field together with its
// terminator.
func MatchNames(desired []string, available [][]byte) ([]string, error) {
	have := make(map[string]struct{}, len(available))
	for _, field := range available {
		have[vk.ToString(field)] = struct{}{}
	}

	matched := make([]string, 0, len(desired))
	for _, name := range desired {
		name = strings.TrimRight(name, end)
		if len(name)+1 > nameFieldSize {
			return nil, errors.Wrapf(ErrNameTooLong, "%q is %d bytes, field holds %d", name, len(name), nameFieldSize-1)
		}
		if _, ok := have[name]; !ok {
			return nil, errors.Wrapf(ErrMissingCapability, "%q", name)
		}
		matched = append(matched, name)
	}
	return matched, nil
}

// ExtensionNames projects extension records onto their name fields.
func ExtensionNames(props []vk.ExtensionProperties) [][]byte {
	ret := make([][]byte, len(props))
	for i := range props {
		props[i].Deref()
		ret[i] = props[i].ExtensionName[:]
	}
	return ret
}

// LayerNames projects layer records onto their name fields.
func LayerNames(props []vk.LayerProperties) [][]byte {
	ret := make([][]byte, len(props))
	for i := range props {
		props[i].Deref()
		ret[i] = props[i].LayerName[:]
	}
	return ret
}

// NameField builds a fixed-size, NUL padded name field. It truncates names that
// do not fit.
func NameField(name string) [nameFieldSize]byte {
	var field [nameFieldSize]byte
	copy(field[:nameFieldSize-1], name)
	return field
}

func uniqueNames(lists ...[]string) []string {
	seen := make(map[string]struct{})
	ret := make([]string, 0)
	for _, list := range lists {
		for _, name := range list {
			name = strings.TrimRight(name, end)
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			ret = append(ret, name)
		}
	}
	return ret
}

func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != end[0] {
		return s + end
	}
	return s
}

func safeStrings(list []string) []string {
	ret := make([]string, len(list))
	for i := range list {
		ret[i] = safeString(list[i])
	}
	return ret
}
