package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-draw/engine/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterleaveVerticesRoundTrip(t *testing.T) {
	positions := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8}
	texcoords := []float32{10, 11, 12, 13, 14, 15}
	normals := []float32{20, 21, 22, 23, 24, 25, 26, 27, 28}

	vertices, err := InterleaveVertices(positions, texcoords, normals)
	require.NoError(t, err)
	require.Len(t, vertices, 3)

	for i, v := range vertices {
		assert.Equal(t, [3]float32{positions[3*i], positions[3*i+1], positions[3*i+2]}, v.Position)
		assert.Equal(t, [2]float32{texcoords[2*i], texcoords[2*i+1]}, v.TexCoords)
		assert.Equal(t, [3]float32{normals[3*i], normals[3*i+1], normals[3*i+2]}, v.Normal)
	}
}

func TestInterleaveVerticesMismatch(t *testing.T) {
	tests := []struct {
		name                          string
		positions, texcoords, normals []float32
	}{
		{"ragged positions", make([]float32, 4), make([]float32, 2), make([]float32, 3)},
		{"short texcoords", make([]float32, 6), make([]float32, 2), make([]float32, 6)},
		{"missing normals", make([]float32, 3), make([]float32, 2), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InterleaveVertices(tt.positions, tt.texcoords, tt.normals)
			assert.ErrorIs(t, err, ErrVertexArrays)
		})
	}

	vertices, err := InterleaveVertices(nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, vertices)
}

func triangle(materialID *int) loader.MeshPartition {
	return loader.MeshPartition{
		Name:       "tri",
		Positions:  []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		TexCoords:  []float32{0, 0, 1, 0, 0, 1},
		Normals:    []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:    []uint32{0, 1, 2},
		MaterialID: materialID,
	}
}

func intPtr(i int) *int { return &i }

func TestValidateMaterialPolicy(t *testing.T) {
	asset := &loader.Asset{
		Meshes:    []loader.MeshPartition{triangle(intPtr(1)), triangle(nil)},
		Materials: []loader.MaterialDescriptor{{Name: "a"}, {Name: "b"}},
	}

	ids, err := Validate(asset, MissingMaterialDefaultToZero)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, ids)

	_, err = Validate(asset, MissingMaterialFail)
	assert.ErrorIs(t, err, ErrMissingMaterial)
}

func TestValidateErrors(t *testing.T) {
	badIndex := triangle(intPtr(0))
	badIndex.Indices = []uint32{0, 1, 3}
	badArrays := triangle(intPtr(0))
	badArrays.Normals = badArrays.Normals[:6]

	tests := []struct {
		name   string
		asset  *loader.Asset
		target error
	}{
		{
			name:   "no materials",
			asset:  &loader.Asset{Meshes: []loader.MeshPartition{triangle(nil)}},
			target: ErrNoMaterials,
		},
		{
			name: "material out of range",
			asset: &loader.Asset{
				Meshes:    []loader.MeshPartition{triangle(intPtr(2))},
				Materials: []loader.MaterialDescriptor{{Name: "a"}},
			},
			target: ErrMaterialIndex,
		},
		{
			name: "negative material",
			asset: &loader.Asset{
				Meshes:    []loader.MeshPartition{triangle(intPtr(-1))},
				Materials: []loader.MaterialDescriptor{{Name: "a"}},
			},
			target: ErrMaterialIndex,
		},
		{
			name: "index out of range",
			asset: &loader.Asset{
				Meshes:    []loader.MeshPartition{badIndex},
				Materials: []loader.MaterialDescriptor{{Name: "a"}},
			},
			target: ErrIndexRange,
		},
		{
			name: "mismatched arrays",
			asset: &loader.Asset{
				Meshes:    []loader.MeshPartition{badArrays},
				Materials: []loader.MaterialDescriptor{{Name: "a"}},
			},
			target: ErrVertexArrays,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.asset, MissingMaterialDefaultToZero)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	ids, err := Validate(&loader.Asset{}, MissingMaterialFail)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestParseMissingMaterialPolicy(t *testing.T) {
	p, err := ParseMissingMaterialPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MissingMaterialDefaultToZero, p)

	p, err = ParseMissingMaterialPolicy("fail")
	require.NoError(t, err)
	assert.Equal(t, MissingMaterialFail, p)
	assert.Equal(t, "fail", p.String())

	_, err = ParseMissingMaterialPolicy("guess")
	assert.Error(t, err)
}
