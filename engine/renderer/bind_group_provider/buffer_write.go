package bind_group_provider

import "errors"

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// WriteAll applies every write in order and joins the errors of the writes that failed.
//
// Parameters:
//   - writes: the writes to apply
//
// Returns:
//   - error: nil, or the joined errors of failed writes
func WriteAll(writes ...BufferWrite) error {
	var errs []error
	for _, w := range writes {
		if err := w.Provider.Write(w.Binding, w.Offset, w.Data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
