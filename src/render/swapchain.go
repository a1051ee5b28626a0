package render

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// PreferredSurfaceFormat is chosen whenever the surface offers it.
var PreferredSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Srgb,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// SwapchainImage pairs an image owned by the swapchain with the view we own.
type SwapchainImage struct {
	Image vk.Image
	View  vk.ImageView
}

// SwapchainDimensions describes the size and format of the swapchain.
type SwapchainDimensions struct {
	Width  uint32
	Height uint32
	Format vk.Format
}

// Swapchain is a swapchain negotiated for the context's surface, with one view
// per image.
type Swapchain struct {
	Handle vk.Swapchain

	Capabilities  vk.SurfaceCapabilities
	SurfaceFormat vk.SurfaceFormat
	PresentMode   vk.PresentMode
	Extent        vk.Extent2D
	// ImageCount is the minimum image count requested at creation; len(Images)
	// is what the driver allocated.
	ImageCount  uint32
	SharingMode vk.SharingMode
	Images      []SwapchainImage

	device *Device
	alloc  *vk.AllocationCallbacks
}

// NewSwapchain negotiates and creates a swapchain for ctx's surface, sized from
// platform's framebuffer when the surface leaves the extent to the application.
func NewSwapchain(ctx *Context, platform Platform) (_ *Swapchain, err error) {
	defer CheckError(&err)
	log := ctx.log
	icmds := ctx.Instance.Commands
	dev := ctx.Device
	rb := &rollback{}
	defer rb.unwind()

	caps, err := surfaceCapabilities(icmds, ctx.PhysicalDevice, ctx.Surface)
	if err != nil {
		return nil, err
	}
	formats := surfaceFormats(icmds, ctx.PhysicalDevice, ctx.Surface)
	if len(formats) == 0 {
		return nil, errors.New("surface reports no formats")
	}
	modes := presentModes(icmds, ctx.PhysicalDevice, ctx.Surface)

	width, height := platform.FramebufferSize()
	sc := &Swapchain{
		Capabilities:  caps,
		SurfaceFormat: SelectSurfaceFormat(formats),
		PresentMode:   SelectPresentMode(modes),
		Extent:        SelectExtent(caps, width, height),
		ImageCount:    SelectImageCount(caps),
		device:        dev,
		alloc:         ctx.alloc,
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          ctx.Surface,
		MinImageCount:    sc.ImageCount,
		ImageFormat:      sc.SurfaceFormat.Format,
		ImageColorSpace:  sc.SurfaceFormat.ColorSpace,
		ImageExtent:      sc.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      sc.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if ctx.QueueFamilies.Shared() {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
		createInfo.QueueFamilyIndexCount = 0
		createInfo.PQueueFamilyIndices = nil
	} else {
		families := ctx.QueueFamilies.Unique()
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = uint32(len(families))
		createInfo.PQueueFamilyIndices = families
	}
	sc.SharingMode = createInfo.ImageSharingMode

	if err := NewError("vkCreateSwapchainKHR", dev.Commands.CreateSwapchain(dev.Handle, &createInfo, ctx.alloc, &sc.Handle)); err != nil {
		return nil, err
	}
	handle := sc.Handle
	rb.push(func() { dev.Commands.DestroySwapchain(dev.Handle, handle, ctx.alloc) })

	images := swapchainImages(dev, handle)
	views, err := createImageViews(dev, images, sc.SurfaceFormat.Format, ctx.alloc)
	if err != nil {
		return nil, err
	}
	sc.Images = make([]SwapchainImage, len(images))
	for i := range images {
		sc.Images[i] = SwapchainImage{Image: images[i], View: views[i]}
	}

	rb.release()
	log.Info("swapchain created",
		"width", sc.Extent.Width,
		"height", sc.Extent.Height,
		"format", sc.SurfaceFormat.Format,
		"presentMode", sc.PresentMode,
		"images", len(sc.Images),
	)
	return sc, nil
}

// Destroy destroys the image views in reverse order, then the swapchain.
func (s *Swapchain) Destroy() {
	if s == nil || s.Handle == vk.NullSwapchain {
		return
	}
	cmds := s.device.Commands
	for i := len(s.Images) - 1; i >= 0; i-- {
		cmds.DestroyImageView(s.device.Handle, s.Images[i].View, s.alloc)
	}
	s.Images = nil
	cmds.DestroySwapchain(s.device.Handle, s.Handle, s.alloc)
	s.Handle = vk.NullSwapchain
}

func (s *Swapchain) Dimensions() SwapchainDimensions {
	return SwapchainDimensions{
		Width:  s.Extent.Width,
		Height: s.Extent.Height,
		Format: s.SurfaceFormat.Format,
	}
}

// SelectSurfaceFormat returns PreferredSurfaceFormat if it is offered anywhere
// in formats, otherwise the first format. formats must not be empty.
func SelectSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == PreferredSurfaceFormat.Format && f.ColorSpace == PreferredSurfaceFormat.ColorSpace {
			return f
		}
	}
	return formats[0]
}

// SelectPresentMode prefers mailbox and falls back to FIFO. Drivers must offer
// FIFO, so modes is expected to hold it exactly once; anything else panics.
func SelectPresentMode(modes []vk.PresentMode) vk.PresentMode {
	fifo := 0
	mailbox := false
	for _, m := range modes {
		switch m {
		case vk.PresentModeFifo:
			fifo++
		case vk.PresentModeMailbox:
			mailbox = true
		}
	}
	if fifo != 1 {
		OrPanic(errors.Errorf("expected FIFO present mode exactly once, found %d in %d modes", fifo, len(modes)))
	}
	if mailbox {
		return vk.PresentModeMailbox
	}
	return vk.PresentModeFifo
}

// SelectExtent uses the surface's current extent unless the surface reports
// the undefined sentinel, in which case the framebuffer size is clamped into
// the allowed range one dimension at a time.
func SelectExtent(caps vk.SurfaceCapabilities, width, height int) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(toUint32(width), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(toUint32(height), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// SelectImageCount asks for one image more than the minimum, capped by the
// maximum when the surface has one (zero means unbounded).
func SelectImageCount(caps vk.SurfaceCapabilities) uint32 {
	hi := caps.MaxImageCount
	if hi == 0 {
		hi = vk.MaxUint32
	}
	return clamp(caps.MinImageCount+1, caps.MinImageCount, hi)
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toUint32(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}

// ImageViewCreateInfo describes a 2D colour view of image with identity
// swizzle, one mip level and one array layer.
func ImageViewCreateInfo(image vk.Image, format vk.Format) vk.ImageViewCreateInfo {
	return vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
}

// createImageViews creates one view per image. On failure the views created so
// far are destroyed before returning; the swapchain is left to the caller.
func createImageViews(dev *Device, images []vk.Image, format vk.Format, alloc *vk.AllocationCallbacks) ([]vk.ImageView, error) {
	rb := &rollback{}
	defer rb.unwind()

	views := make([]vk.ImageView, 0, len(images))
	for i, image := range images {
		info := ImageViewCreateInfo(image, format)
		var view vk.ImageView
		if err := NewError("vkCreateImageView", dev.Commands.CreateImageView(dev.Handle, &info, alloc, &view)); err != nil {
			return nil, errors.Wrapf(err, "image view %d of %d", i, len(images))
		}
		rb.push(func() { dev.Commands.DestroyImageView(dev.Handle, view, alloc) })
		views = append(views, view)
	}
	rb.release()
	return views, nil
}

func surfaceCapabilities(cmds InstanceCommands, pd vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := NewError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", cmds.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &caps)); err != nil {
		return caps, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

func surfaceFormats(cmds InstanceCommands, pd vk.PhysicalDevice, surface vk.Surface) []vk.SurfaceFormat {
	var count uint32
	OrPanic(NewError("vkGetPhysicalDeviceSurfaceFormatsKHR", cmds.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, nil)))
	formats := make([]vk.SurfaceFormat, count)
	OrPanic(NewError("vkGetPhysicalDeviceSurfaceFormatsKHR", cmds.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, formats)))
	formats = formats[:count]
	for i := range formats {
		formats[i].Deref()
	}
	return formats
}

func presentModes(cmds InstanceCommands, pd vk.PhysicalDevice, surface vk.Surface) []vk.PresentMode {
	var count uint32
	OrPanic(NewError("vkGetPhysicalDeviceSurfacePresentModesKHR", cmds.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, nil)))
	modes := make([]vk.PresentMode, count)
	OrPanic(NewError("vkGetPhysicalDeviceSurfacePresentModesKHR", cmds.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, modes)))
	return modes[:count]
}

func swapchainImages(dev *Device, swapchain vk.Swapchain) []vk.Image {
	var count uint32
	OrPanic(NewError("vkGetSwapchainImagesKHR", dev.Commands.GetSwapchainImages(dev.Handle, swapchain, &count, nil)))
	images := make([]vk.Image, count)
	OrPanic(NewError("vkGetSwapchainImagesKHR", dev.Commands.GetSwapchainImages(dev.Handle, swapchain, &count, images)))
	return images[:count]
}
