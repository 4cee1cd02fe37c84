package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/loader"
)

// InterleaveVertices packs flat attribute arrays into ModelVertex records. Vertex i reads
// positions[3i:3i+3], texcoords[2i:2i+2] and normals[3i:3i+3], in order.
//
// Parameters:
//   - positions: 3n floats
//   - texcoords: 2n floats
//   - normals: 3n floats
//
// Returns:
//   - []ModelVertex: exactly n vertices
//   - error: ErrVertexArrays if the array lengths do not describe the same n
func InterleaveVertices(positions, texcoords, normals []float32) ([]ModelVertex, error) {
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("%w: %d position floats is not a multiple of 3", ErrVertexArrays, len(positions))
	}
	n := len(positions) / 3
	if len(texcoords) != 2*n || len(normals) != 3*n {
		return nil, fmt.Errorf("%w: %d vertices need %d texcoords and %d normals, got %d and %d",
			ErrVertexArrays, n, 2*n, 3*n, len(texcoords), len(normals))
	}

	vertices := make([]ModelVertex, n)
	for i := range vertices {
		copy(vertices[i].Position[:], positions[3*i:3*i+3])
		copy(vertices[i].TexCoords[:], texcoords[2*i:2*i+2])
		copy(vertices[i].Normal[:], normals[3*i:3*i+3])
	}
	return vertices, nil
}

// Validate checks a parsed asset before any GPU object is created and resolves the material of
// every mesh under policy.
//
// Parameters:
//   - asset: the parsed asset
//   - policy: what to do with a mesh that has no material id
//
// Returns:
//   - []int: the material index of each mesh, in mesh order
//   - error: ErrVertexArrays, ErrIndexRange, ErrNoMaterials, ErrMaterialIndex or ErrMissingMaterial
func Validate(asset *loader.Asset, policy MissingMaterialPolicy) ([]int, error) {
	if len(asset.Meshes) > 0 && len(asset.Materials) == 0 {
		return nil, ErrNoMaterials
	}

	ids := make([]int, len(asset.Meshes))
	for i := range asset.Meshes {
		mesh := &asset.Meshes[i]

		n := len(mesh.Positions) / 3
		if len(mesh.Positions) != 3*n || len(mesh.TexCoords) != 2*n || len(mesh.Normals) != 3*n {
			return nil, fmt.Errorf("mesh %d %q: %w: positions %d, texcoords %d, normals %d",
				i, mesh.Name, ErrVertexArrays, len(mesh.Positions), len(mesh.TexCoords), len(mesh.Normals))
		}
		if err := checkIndices(mesh.Indices, n); err != nil {
			return nil, fmt.Errorf("mesh %d %q: %w", i, mesh.Name, err)
		}

		switch {
		case mesh.MaterialID != nil:
			id := *mesh.MaterialID
			if id < 0 || id >= len(asset.Materials) {
				return nil, fmt.Errorf("mesh %d %q: %w: %d of %d", i, mesh.Name, ErrMaterialIndex, id, len(asset.Materials))
			}
			ids[i] = id
		case policy == MissingMaterialFail:
			return nil, fmt.Errorf("mesh %d %q: %w", i, mesh.Name, ErrMissingMaterial)
		default:
			common.Logger().Warn("mesh has no material, using material 0", "mesh", mesh.Name, "index", i)
			ids[i] = 0
		}
	}
	return ids, nil
}
