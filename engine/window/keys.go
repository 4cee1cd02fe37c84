package window

import "github.com/go-gl/glfw/v3.3/glfw"

// Key identifies a keyboard key by its US-layout position.
type Key int

// Keys the viewer binds. Other keys are reported with their GLFW key code.
const (
	KeyUnknown Key = Key(glfw.KeyUnknown)
	KeyLeft    Key = Key(glfw.KeyLeft)
	KeyRight   Key = Key(glfw.KeyRight)
	KeyUp      Key = Key(glfw.KeyUp)
	KeyDown    Key = Key(glfw.KeyDown)
	KeyW       Key = Key(glfw.KeyW)
	KeyA       Key = Key(glfw.KeyA)
	KeyS       Key = Key(glfw.KeyS)
	KeyD       Key = Key(glfw.KeyD)
	KeyEqual   Key = Key(glfw.KeyEqual)
	KeyMinus   Key = Key(glfw.KeyMinus)
	KeyEscape  Key = Key(glfw.KeyEscape)
)
