package renderer

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrBindingPlan is returned when the bind groups supplied to a draw do not match its BindingPlan.
var ErrBindingPlan = errors.New("bind groups do not match binding plan")

// BindingPlan is the slot contract between a pipeline layout and the draws recorded against it.
//
// When Material is true the material group occupies slot 0 and the auxiliary groups
// (camera, light, ...) follow from slot 1; otherwise the auxiliary groups start at slot 0.
// Slots are always contiguous.
type BindingPlan struct {
	Material  bool
	Auxiliary int
}

// MaterialSlot returns the group index of the material bind group.
//
// Returns:
//   - uint32: always 0
func (p BindingPlan) MaterialSlot() uint32 {
	return 0
}

// offset is the first auxiliary slot.
func (p BindingPlan) offset() uint32 {
	if p.Material {
		return 1
	}
	return 0
}

// AuxiliarySlot returns the group index of the i-th auxiliary bind group.
//
// Parameters:
//   - i: the auxiliary index, starting at 0
//
// Returns:
//   - uint32: the group index
func (p BindingPlan) AuxiliarySlot(i int) uint32 {
	return p.offset() + uint32(i)
}

// Groups returns the number of bind groups the plan binds.
//
// Returns:
//   - int: the group count
func (p BindingPlan) Groups() int {
	return int(p.offset()) + p.Auxiliary
}

// Check verifies that a draw supplies exactly the groups the plan expects.
//
// Parameters:
//   - material: the material bind group, nil when the draw has none
//   - aux: the auxiliary bind groups in slot order
//
// Returns:
//   - error: ErrBindingPlan describing the first mismatch, or nil
func (p BindingPlan) Check(material *wgpu.BindGroup, aux []*wgpu.BindGroup) error {
	if p.Material && material == nil {
		return fmt.Errorf("%w: material expected at slot %d", ErrBindingPlan, p.MaterialSlot())
	}
	if !p.Material && material != nil {
		return fmt.Errorf("%w: plan has no material slot", ErrBindingPlan)
	}
	if len(aux) != p.Auxiliary {
		return fmt.Errorf("%w: %d auxiliary groups supplied, %d expected", ErrBindingPlan, len(aux), p.Auxiliary)
	}
	for i, bg := range aux {
		if bg == nil {
			return fmt.Errorf("%w: auxiliary group %d (slot %d) is nil", ErrBindingPlan, i, p.AuxiliarySlot(i))
		}
	}
	return nil
}

// Layouts orders bind group layouts by slot: the material layout first when the plan has one,
// then the auxiliary layouts.
//
// Parameters:
//   - material: the material layout, ignored when the plan has no material slot
//   - aux: the auxiliary layouts in slot order
//
// Returns:
//   - []*wgpu.BindGroupLayout: the layouts indexed by group
//   - error: ErrBindingPlan if a layout is missing or the auxiliary count is wrong
func (p BindingPlan) Layouts(material *wgpu.BindGroupLayout, aux ...*wgpu.BindGroupLayout) ([]*wgpu.BindGroupLayout, error) {
	if len(aux) != p.Auxiliary {
		return nil, fmt.Errorf("%w: %d auxiliary layouts supplied, %d expected", ErrBindingPlan, len(aux), p.Auxiliary)
	}
	layouts := make([]*wgpu.BindGroupLayout, 0, p.Groups())
	if p.Material {
		if material == nil {
			return nil, fmt.Errorf("%w: material layout is nil", ErrBindingPlan)
		}
		layouts = append(layouts, material)
	}
	for i, l := range aux {
		if l == nil {
			return nil, fmt.Errorf("%w: auxiliary layout %d is nil", ErrBindingPlan, i)
		}
		layouts = append(layouts, l)
	}
	return layouts, nil
}
