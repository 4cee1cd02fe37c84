package material

import "github.com/Carmen-Shannon/oxy-draw/engine/texture"

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithDiffuseColor is an option builder that sets the diffuse RGB factor of the material.
//
// Parameters:
//   - color: the diffuse color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the color option to a material
func WithDiffuseColor(color [3]float32) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseColor = color
	}
}

// WithDiffuse is an option builder that sets the diffuse texture. Required.
//
// Parameters:
//   - tex: the uploaded diffuse texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithDiffuse(tex *texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.diffuse = tex
	}
}
