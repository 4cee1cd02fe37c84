package loader

import "errors"

var (
	// ErrUnsupportedFormat is returned when no backend handles the file extension.
	ErrUnsupportedFormat = errors.New("unsupported asset format")

	// ErrParse is returned for malformed asset or material library files.
	ErrParse = errors.New("asset parse failed")
)

// ParseOptions controls how polygon and index data are produced by a backend.
type ParseOptions struct {
	// Triangulate fan-triangulates polygons with more than three corners.
	// When false, such polygons are a parse error.
	Triangulate bool

	// SingleIndex deduplicates face corners so a single index addresses position,
	// texture coordinate and normal together. When false every corner becomes its own vertex.
	SingleIndex bool
}

// DefaultParseOptions returns the options used by model loading: triangulated and single-indexed.
//
// Returns:
//   - ParseOptions: options with Triangulate and SingleIndex enabled
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Triangulate: true, SingleIndex: true}
}

// Asset is the CPU-side result of parsing a model file.
type Asset struct {
	// Path is the file the asset was parsed from.
	Path string

	// Meshes are the mesh partitions in source order.
	Meshes []MeshPartition

	// Materials are the material descriptors in source order.
	Materials []MaterialDescriptor
}

// MeshPartition is one drawable partition of an asset. Vertex attributes are flat arrays:
// Positions holds 3 floats per vertex, TexCoords 2 and Normals 3.
type MeshPartition struct {
	Name      string
	Positions []float32
	TexCoords []float32
	Normals   []float32
	Indices   []uint32

	// MaterialID indexes Asset.Materials. Nil when the source assigned no material.
	MaterialID *int
}

// VertexCount returns the number of vertices described by Positions.
//
// Returns:
//   - int: len(Positions) / 3
func (m *MeshPartition) VertexCount() int {
	return len(m.Positions) / 3
}

// MaterialDescriptor names a material and its diffuse texture file, relative to the asset directory.
type MaterialDescriptor struct {
	Name           string
	DiffuseTexture string
	DiffuseColor   [3]float32
}
