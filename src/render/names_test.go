package render_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"

	"vkboot/src/render"
)

func fields(names ...string) [][]byte {
	ret := make([][]byte, len(names))
	for i, name := range names {
		f := render.NameField(name)
		ret[i] = f[:]
	}
	return ret
}

func TestMatchNames(t *testing.T) {
	available := fields("VK_KHR_surface", "VK_KHR_xcb_surface", "VK_EXT_debug_utils")

	for idx, tc := range []struct {
		desired []string
		want    []string
		err     error
	}{
		{nil, []string{}, nil},
		{[]string{"VK_KHR_surface"}, []string{"VK_KHR_surface"}, nil},
		// desired order wins over available order
		{[]string{"VK_EXT_debug_utils", "VK_KHR_surface"}, []string{"VK_EXT_debug_utils", "VK_KHR_surface"}, nil},
		{[]string{"VK_KHR_xcb_surface\x00"}, []string{"VK_KHR_xcb_surface"}, nil},
		{[]string{"VK_KHR_surface", "VK_KHR_wayland_surface"}, nil, render.ErrMissingCapability},
		{[]string{strings.Repeat("x", 256)}, nil, render.ErrNameTooLong},
		{[]string{strings.Repeat("x", 255)}, nil, render.ErrMissingCapability},
	} {
		t.Run(fmt.Sprintf("%d/%v", idx, tc.desired), func(t *testing.T) {
			got, err := render.MatchNames(tc.desired, available)
			if tc.err != nil {
				require.True(t, errors.Is(err, tc.err), "got %v", err)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMatchNamesTooLongBeforeMissing(t *testing.T) {
	// an overlong name is a configuration bug even if nothing else matches
	_, err := render.MatchNames([]string{strings.Repeat("y", 300)}, nil)
	require.True(t, errors.Is(err, render.ErrNameTooLong))
}

func TestExtensionAndLayerNames(t *testing.T) {
	exts := []vk.ExtensionProperties{
		{ExtensionName: render.NameField("VK_KHR_swapchain")},
		{ExtensionName: render.NameField("VK_KHR_maintenance1")},
	}
	got, err := render.MatchNames([]string{"VK_KHR_swapchain"}, render.ExtensionNames(exts))
	require.NoError(t, err)
	require.Equal(t, []string{"VK_KHR_swapchain"}, got)

	layers := []vk.LayerProperties{{LayerName: render.NameField(render.ValidationLayerName)}}
	got, err = render.MatchNames([]string{render.ValidationLayerName}, render.LayerNames(layers))
	require.NoError(t, err)
	require.Equal(t, []string{render.ValidationLayerName}, got)
}
