package render

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// QueueRole is a logical use of a queue family.
type QueueRole int

const (
	GraphicsRole QueueRole = iota
	PresentRole

	queueRoleCount
)

func (r QueueRole) String() string {
	switch r {
	case GraphicsRole:
		return "graphics"
	case PresentRole:
		return "present"
	}
	return fmt.Sprintf("QueueRole(%d)", int(r))
}

const unsetFamily = ^uint32(0)

// QueueFamilyIndices maps every QueueRole to a queue family index. Values
// returned by SelectQueueFamilies and ResolveQueueFamilies have all roles set;
// two roles may share an index.
type QueueFamilyIndices struct {
	index [queueRoleCount]uint32
}

func NewQueueFamilyIndices(graphics, present uint32) QueueFamilyIndices {
	return QueueFamilyIndices{index: [queueRoleCount]uint32{graphics, present}}
}

func (q QueueFamilyIndices) Index(role QueueRole) uint32 { return q.index[role] }
func (q QueueFamilyIndices) Graphics() uint32            { return q.index[GraphicsRole] }
func (q QueueFamilyIndices) Present() uint32             { return q.index[PresentRole] }

// Shared reports whether graphics and presentation use the same family.
func (q QueueFamilyIndices) Shared() bool {
	return q.index[GraphicsRole] == q.index[PresentRole]
}

// Unique returns the distinct family indices in role order.
func (q QueueFamilyIndices) Unique() []uint32 {
	ret := make([]uint32, 0, queueRoleCount)
	for _, idx := range q.index {
		dup := false
		for _, seen := range ret {
			if seen == idx {
				dup = true
				break
			}
		}
		if !dup {
			ret = append(ret, idx)
		}
	}
	return ret
}

func (q QueueFamilyIndices) String() string {
	return fmt.Sprintf("{ Graphics: %d Present: %d }", q.Graphics(), q.Present())
}

// QueueFamilySupport is what a queue family can do for the roles we need.
type QueueFamilySupport struct {
	Graphics bool
	Present  bool
}

// ResolveQueueFamilies assigns roles scanning families in order. A family that
// supports both roles takes both, overriding whatever earlier families were
// assigned, so the last combined family wins. Without a combined family the
// first graphics family and the first present family are used.
func ResolveQueueFamilies(families []QueueFamilySupport) (QueueFamilyIndices, error) {
	q := QueueFamilyIndices{index: [queueRoleCount]uint32{unsetFamily, unsetFamily}}
	for i, f := range families {
		idx := uint32(i)
		switch {
		case f.Graphics && f.Present:
			q.index[GraphicsRole] = idx
			q.index[PresentRole] = idx
		case f.Graphics && q.index[GraphicsRole] == unsetFamily:
			q.index[GraphicsRole] = idx
		case f.Present && q.index[PresentRole] == unsetFamily:
			q.index[PresentRole] = idx
		}
	}

	if q.index[GraphicsRole] == unsetFamily {
		return q, errors.WithStack(ErrNoGraphicsQueue)
	}
	if q.index[PresentRole] == unsetFamily {
		return q, errors.WithStack(ErrNoPresentQueue)
	}
	return q, nil
}

// SelectQueueFamilies queries every queue family of pd for graphics support and
// for presentation to surface, then resolves the roles.
func SelectQueueFamilies(cmds InstanceCommands, pd vk.PhysicalDevice, surface vk.Surface) (QueueFamilyIndices, error) {
	var count uint32
	cmds.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	cmds.GetPhysicalDeviceQueueFamilyProperties(pd, &count, props)
	props = props[:count]

	families := make([]QueueFamilySupport, len(props))
	for i := range props {
		props[i].Deref()
		var supported vk.Bool32
		if err := NewError("vkGetPhysicalDeviceSurfaceSupport", cmds.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), surface, &supported)); err != nil {
			return QueueFamilyIndices{}, err
		}
		families[i] = QueueFamilySupport{
			Graphics: props[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Present:  supported == vk.True,
		}
	}
	return ResolveQueueFamilies(families)
}
