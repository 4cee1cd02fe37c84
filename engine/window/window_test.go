package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderOptions(t *testing.T) {
	w := &hostWindow{width: 1280, height: 720}
	for _, opt := range []WindowBuilderOption{
		WithTitle("viewer"),
		WithSize(0, 480),
		WithMinSize(100, 50),
		WithMaxSize(1920, 1080),
	} {
		opt(w)
	}

	assert.Equal(t, "viewer", w.title)
	width, height := w.Size()
	assert.Equal(t, 1280, width)
	assert.Equal(t, 480, height)
	assert.Equal(t, [4]int{100, 50, 1920, 1080}, [4]int{w.minWidth, w.minHeight, w.maxWidth, w.maxHeight})
}

func TestResizedSkipsZeroSize(t *testing.T) {
	w := &hostWindow{}
	var calls [][2]int
	w.SetResizeCallback(func(width, height int) {
		calls = append(calls, [2]int{width, height})
	})

	w.resized(800, 600)
	w.resized(0, 0)
	w.resized(640, 480)

	assert.Equal(t, [][2]int{{800, 600}, {640, 480}}, calls)
	width, height := w.Size()
	assert.Equal(t, 640, width)
	assert.Equal(t, 480, height)
}

func TestClosedWindow(t *testing.T) {
	w := &hostWindow{}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.ErrorIs(t, w.Close(), ErrClosed)
	w.ProcessMessages()
}
