package gpu

import "github.com/Carmen-Shannon/oxy-draw/common"

// Releaser is a cleanup stack for GPU objects created during a multi-step construction.
// Objects are tracked as they are created; on failure Release frees them in reverse order,
// on success Disarm hands ownership to the constructed value.
//
//	rel := gpu.NewReleaser(backend)
//	defer rel.Release()
//	...
//	rel.Disarm()
type Releaser struct {
	backend Backend
	stack   []func()
}

// NewReleaser creates an empty cleanup stack bound to backend.
//
// Parameters:
//   - backend: the backend used to release tracked objects
//
// Returns:
//   - *Releaser: the cleanup stack
func NewReleaser(backend Backend) *Releaser {
	return &Releaser{backend: backend}
}

// Track pushes a handle returned by the backend onto the stack. It is freed through
// Backend.Release. Callers must only track successfully created objects.
func (r *Releaser) Track(obj Releasable) {
	r.stack = append(r.stack, func() { r.backend.Release(obj) })
}

// Adopt pushes an object that owns backend handles itself, such as a texture or a
// material. It is freed by calling its own Release method.
func (r *Releaser) Adopt(obj Releasable) {
	r.stack = append(r.stack, obj.Release)
}

// Len returns the number of tracked objects.
func (r *Releaser) Len() int {
	return len(r.stack)
}

// Release frees every tracked object in reverse creation order and empties the stack.
// Calling Release after Disarm is a no-op.
func (r *Releaser) Release() {
	if len(r.stack) == 0 {
		return
	}
	common.Logger().Debug("releasing partially constructed resources", "count", len(r.stack))
	common.Reverse(r.stack, func(release func()) { release() })
	r.stack = nil
}

// Disarm forgets every tracked object without releasing it.
func (r *Releaser) Disarm() {
	r.stack = nil
}
