package loader

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const triangleMTL = `
# one material
newmtl red
Kd 1.0 0.0 0.0
map_Kd -s 2 2 red.png

newmtl blue
map_Kd blue.png
`

const triangleOBJ = `
mtllib scene.mtl
o tri
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
usemtl red
f 1/1/1 2/2/1 3/3/1
`

func TestParseTriangle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scene.mtl", triangleMTL)
	path := writeFile(t, dir, "scene.obj", triangleOBJ)

	asset, err := NewLoader().Parse(path, DefaultParseOptions())
	require.NoError(t, err)

	require.Len(t, asset.Materials, 2)
	assert.Equal(t, "red", asset.Materials[0].Name)
	assert.Equal(t, "red.png", asset.Materials[0].DiffuseTexture)
	assert.Equal(t, [3]float32{1, 0, 0}, asset.Materials[0].DiffuseColor)
	assert.Equal(t, "blue.png", asset.Materials[1].DiffuseTexture)

	require.Len(t, asset.Meshes, 1)
	mesh := asset.Meshes[0]
	assert.Equal(t, "tri", mesh.Name)
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, mesh.Positions)
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1}, mesh.TexCoords)
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}, mesh.Normals)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	require.NotNil(t, mesh.MaterialID)
	assert.Equal(t, 0, *mesh.MaterialID)
	assert.Equal(t, 3, mesh.VertexCount())
}

func TestParseQuadTriangulatesAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quad.obj", `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f -4 -3 -2 -1
`)

	asset, err := NewLoader().Parse(path, DefaultParseOptions())
	require.NoError(t, err)
	require.Len(t, asset.Meshes, 1)

	mesh := asset.Meshes[0]
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices)
	assert.Equal(t, 4, mesh.VertexCount())
	assert.Empty(t, mesh.TexCoords)
	assert.Empty(t, mesh.Normals)
	assert.Nil(t, mesh.MaterialID)

	asset, err = NewLoader().Parse(path, ParseOptions{Triangulate: true})
	require.NoError(t, err)
	assert.Equal(t, 6, asset.Meshes[0].VertexCount())
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, asset.Meshes[0].Indices)

	_, err = NewLoader().Parse(path, ParseOptions{SingleIndex: true})
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseSplitsPartitionsOnMaterialChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scene.mtl", triangleMTL)
	path := writeFile(t, dir, "scene.obj", `
mtllib scene.mtl
v 0 0 0
v 1 0 0
v 0 1 0
g left
usemtl blue
f 1 2 3
usemtl red
f 3 2 1
g right
f 1 3 2
`)

	asset, err := NewLoader().Parse(path, DefaultParseOptions())
	require.NoError(t, err)
	require.Len(t, asset.Meshes, 3)

	assert.Equal(t, "left", asset.Meshes[0].Name)
	assert.Equal(t, 1, *asset.Meshes[0].MaterialID)
	assert.Equal(t, "left", asset.Meshes[1].Name)
	assert.Equal(t, 0, *asset.Meshes[1].MaterialID)
	assert.Equal(t, "right", asset.Meshes[2].Name)
	assert.Equal(t, 0, *asset.Meshes[2].MaterialID)
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		file     string
		contents string
		target   error
		contains string
	}{
		{name: "unsupported extension", file: "model.fbx", contents: "", target: ErrUnsupportedFormat},
		{name: "zero index", file: "zero.obj", contents: "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", target: ErrParse, contains: "line:4"},
		{name: "index out of range", file: "range.obj", contents: "v 0 0 0\nf 1 2 3\n", target: ErrParse, contains: "line:2"},
		{name: "bad number", file: "num.obj", contents: "v 0 x 0\n", target: ErrParse, contains: "line:1"},
		{name: "missing mtllib", file: "mtl.obj", contents: "mtllib nowhere.mtl\n", target: ErrParse},
		{name: "short face", file: "face.obj", contents: "v 0 0 0\nv 1 0 0\nf 1 2\n", target: ErrParse, contains: "line:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.contents)
			_, err := NewLoader().Parse(path, DefaultParseOptions())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}

	_, err := NewLoader().Parse(filepath.Join(dir, "missing.obj"), DefaultParseOptions())
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoaderCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tri.obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")

	l := NewLoader()
	var wg sync.WaitGroup
	results := make([]*Asset, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := l.Parse(path, DefaultParseOptions())
			assert.NoError(t, err)
			results[i] = a
		}(i)
	}
	wg.Wait()

	cached := l.Get(path)
	require.NotNil(t, cached)
	first, err := l.Parse(path, DefaultParseOptions())
	require.NoError(t, err)
	assert.Same(t, cached, first)
	assert.Contains(t, l.Assets(), path)

	uncached := NewLoader(WithoutCache())
	a, err := uncached.Parse(path, DefaultParseOptions())
	require.NoError(t, err)
	assert.Nil(t, uncached.Get(path))
	assert.NotNil(t, a)

	preset := &Asset{Path: "virtual.obj"}
	assert.Same(t, preset, NewLoader(WithAsset(preset)).Get("virtual.obj"))
}
