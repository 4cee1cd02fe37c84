package model

import (
	"fmt"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/Carmen-Shannon/oxy-draw/engine/loader"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer/material"
)

// Load parses the asset at path and uploads it: one shared material layout, one Material per
// material descriptor and one Geometry per mesh partition, all in source order.
//
// The asset is validated before any GPU object is created. If any step fails, every object
// created so far is released in reverse order and no Model is returned.
//
// Parameters:
//   - backend: the backend to create GPU objects on
//   - path: the asset file path; texture names resolve against its directory
//   - options: variadic list of LoadOption functions
//
// Returns:
//   - *Model: the loaded model
//   - error: a *LoadError wrapping ErrLoad and the cause
func Load(backend gpu.Backend, path string, options ...LoadOption) (*Model, error) {
	m, err := load(backend, path, newLoadConfig(options...))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return m, nil
}

func load(backend gpu.Backend, path string, cfg *loadConfig) (*Model, error) {
	asset, err := cfg.loader.Parse(path, loader.DefaultParseOptions())
	if err != nil {
		return nil, err
	}

	materialIDs, err := Validate(asset, cfg.policy)
	if err != nil {
		return nil, err
	}
	vertices := make([][]ModelVertex, len(asset.Meshes))
	for i, mesh := range asset.Meshes {
		if vertices[i], err = InterleaveVertices(mesh.Positions, mesh.TexCoords, mesh.Normals); err != nil {
			return nil, fmt.Errorf("mesh %d %q: %w", i, mesh.Name, err)
		}
	}

	rel := gpu.NewReleaser(backend)
	defer rel.Release()

	layout, err := material.NewLayout(backend)
	if err != nil {
		return nil, err
	}
	rel.Track(layout)

	dir := filepath.Dir(path)
	materials := make([]material.Material, 0, len(asset.Materials))
	for _, desc := range asset.Materials {
		if desc.DiffuseTexture == "" {
			return nil, fmt.Errorf("material %q: %w", desc.Name, material.ErrNoDiffuse)
		}
		tex, err := cfg.textureLoader(backend, filepath.Join(dir, desc.DiffuseTexture))
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", desc.Name, err)
		}

		mat, err := material.NewMaterial(backend, layout,
			material.WithName(desc.Name),
			material.WithDiffuseColor(desc.DiffuseColor),
			material.WithDiffuse(tex),
		)
		if err != nil {
			tex.Release()
			return nil, err
		}
		rel.Adopt(mat)
		materials = append(materials, mat)
	}

	meshes := make([]Mesh, 0, len(asset.Meshes))
	for i, part := range asset.Meshes {
		geom, err := NewGeometry(backend, part.Name, path, vertices[i], part.Indices)
		if err != nil {
			return nil, err
		}
		rel.Adopt(geom)
		meshes = append(meshes, Mesh{
			Name:     part.Name,
			Geometry: geom,
			Material: materialIDs[i],
		})
	}

	rel.Disarm()
	common.Logger().Debug("model loaded", "path", path, "meshes", len(meshes), "materials", len(materials))

	return &Model{
		Name:      common.Coalesce(cfg.name, path),
		Meshes:    meshes,
		Materials: materials,
		Layout:    layout,
		backend:   backend,
	}, nil
}
