package camera

// CameraController owns the positional state of a camera. The camera reads position and
// target from its controller each Update and derives the view matrix from them.
//
// The controller orbits a target point using spherical coordinates (radius, azimuth,
// elevation): azimuth turns around the Y axis and elevation tilts from the horizontal plane.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - [3]float32: world-space camera position
	Position() [3]float32

	// Target returns the look-at point.
	//
	// Returns:
	//   - [3]float32: world-space target position
	Target() [3]float32

	// SetTarget sets the look-at point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - target: world-space coordinates
	SetTarget(target [3]float32)

	// Orbit rotates the camera around its target by the given number of orbit speed steps.
	// Elevation is clamped to the controller bounds.
	//
	// Parameters:
	//   - azimuthSteps: horizontal steps, positive turns right
	//   - elevationSteps: vertical steps, positive tilts up
	Orbit(azimuthSteps, elevationSteps float32)

	// Zoom adjusts the orbit radius. Positive delta moves closer to the target.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// Radius returns the current distance from the target.
	//
	// Returns:
	//   - float32: the orbit radius
	Radius() float32

	// Azimuth returns the current horizontal angle around the Y axis.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// Elevation returns the current vertical angle from the horizontal plane.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32
}
