package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrClosed is returned when an operation needs a window that has already been closed.
var ErrClosed = errors.New("window is closed")

// Window is a desktop window that hosts a wgpu surface and forwards input to the viewer.
type Window interface {
	// SetUpdateCallback sets the function called once per message loop iteration.
	//
	// Parameters:
	//   - callback: function to call, or nil to disable
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer size changes.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll delta (positive = away from the user)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the pressed Key
	SetKeyDownCallback(callback func(key Key))

	// SurfaceDescriptor returns the platform surface descriptor for this window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: false after Close or once the user requested the window to close
	IsRunning() bool

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: ErrClosed if the window was already closed
	Close() error

	// ProcessMessages polls events and invokes the update callback until the window closes.
	ProcessMessages()

	// Size returns the current framebuffer size in pixels.
	//
	// Returns:
	//   - int: width
	//   - int: height
	Size() (int, int)
}

// hostWindow is the implementation of the Window interface.
type hostWindow struct {
	title string

	minWidth, minHeight int
	maxWidth, maxHeight int
	width, height       int

	// platform is nil once the window has been closed.
	platform *glfwWindow

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(key Key)
}

var _ Window = &hostWindow{}

// NewWindow opens a window with the given options. It must be called from the main goroutine
// and locks it to the current OS thread.
//
// Parameters:
//   - options: variadic list of WindowBuilderOption functions
//
// Returns:
//   - Window: the opened window
//   - error: error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &hostWindow{
		title:     "oxy-draw",
		minWidth:  320,
		minHeight: 200,
		maxWidth:  3840,
		maxHeight: 2160,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := openPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	common.Logger().Info("window opened", "title", w.title, "width", w.width, "height", w.height)
	return w, nil
}

func (w *hostWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *hostWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *hostWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *hostWindow) SetKeyDownCallback(callback func(key Key)) {
	w.onKeyDown = callback
}

func (w *hostWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *hostWindow) IsRunning() bool {
	return w.platform != nil && w.platform.running()
}

func (w *hostWindow) Close() error {
	if w.platform == nil {
		return ErrClosed
	}
	w.platform.destroy()
	w.platform = nil
	return nil
}

func (w *hostWindow) ProcessMessages() {
	for w.IsRunning() {
		w.platform.poll()
		if !w.IsRunning() {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *hostWindow) Size() (int, int) {
	return w.width, w.height
}

// resized records a framebuffer size change and forwards it to the resize callback.
// Minimised windows report a zero size, which is recorded but not forwarded.
func (w *hostWindow) resized(width, height int) {
	w.width, w.height = width, height
	if width == 0 || height == 0 {
		return
	}
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
