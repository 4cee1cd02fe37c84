package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-draw/common"
)

const objBlanks = "\r\n\t "

// objCorner is one face corner as zero-based indices into the position, texcoord and
// normal pools. A negative texcoord or normal index means the corner omitted it.
type objCorner struct {
	v, vt, vn int
}

// objPartition accumulates faces sharing an object name and material.
type objPartition struct {
	name     string
	material *int
	faces    [][]objCorner
}

// objLoaderBackendImpl parses Wavefront OBJ files and their MTL material libraries.
type objLoaderBackendImpl struct{}

var _ loaderBackend = &objLoaderBackendImpl{}

func newOBJLoaderBackend() loaderBackend {
	return &objLoaderBackendImpl{}
}

// objDecoder holds the parse state of a single OBJ or MTL file.
type objDecoder struct {
	path string
	line int

	positions []float32
	texcoords []float32
	normals   []float32

	materials     []MaterialDescriptor
	materialIndex map[string]int

	partitions []*objPartition
	current    *objPartition
	objectName string
	material   *int
}

func (b *objLoaderBackendImpl) Parse(path string, opts ParseOptions) (*Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defer f.Close()

	dec := &objDecoder{
		path:          path,
		materialIndex: make(map[string]int),
	}
	if err := dec.parse(f, dec.parseObjLine); err != nil {
		return nil, err
	}
	return dec.build(opts)
}

// parse reads r line by line and hands each trimmed line to parseLine.
func (dec *objDecoder) parse(r io.Reader, parseLine func(string) error) error {
	bufin := bufio.NewReader(r)
	dec.line = 1
	for {
		line, err := bufin.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("%w: %s: %w", ErrParse, dec.path, err)
		}
		if perr := parseLine(strings.Trim(line, objBlanks)); perr != nil {
			return perr
		}
		if err == io.EOF {
			return nil
		}
		dec.line++
	}
}

func (dec *objDecoder) parseObjLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	switch fields[0] {
	case "mtllib":
		return dec.parseMatlib(fields[1:])
	// groups are treated the same as objects
	case "o", "g":
		return dec.parseObject(fields[1:])
	case "v":
		return dec.parseFloats(fields[1:], 3, &dec.positions)
	case "vt":
		return dec.parseFloats(fields[1:], 2, &dec.texcoords)
	case "vn":
		return dec.parseFloats(fields[1:], 3, &dec.normals)
	case "f":
		return dec.parseFace(fields[1:])
	case "usemtl":
		return dec.parseUsemtl(fields[1:])
	case "s", "l", "p":
	default:
		common.Logger().Debug("obj: field not supported", "path", dec.path, "line", dec.line, "field", fields[0])
	}
	return nil
}

// parseMatlib loads every library named on an mtllib line, relative to the OBJ directory.
func (dec *objDecoder) parseMatlib(fields []string) error {
	if len(fields) < 1 {
		return dec.formatError("mtllib with no fields")
	}
	for _, name := range fields {
		if err := dec.loadMaterialLibrary(filepath.Join(filepath.Dir(dec.path), name)); err != nil {
			return err
		}
	}
	return nil
}

func (dec *objDecoder) parseObject(fields []string) error {
	name := ""
	if len(fields) > 0 {
		name = strings.Join(fields, " ")
	}
	dec.objectName = name
	dec.current = nil
	return nil
}

// parseFloats appends the first n values of fields to dst. Extra components such as w are ignored.
// A texture coordinate may omit v, which is then zero.
func (dec *objDecoder) parseFloats(fields []string, n int, dst *[]float32) error {
	if len(fields) < 1 || (n == 3 && len(fields) < 3) {
		return dec.formatError(fmt.Sprintf("expected %d values", n))
	}
	for i := 0; i < n; i++ {
		if i >= len(fields) {
			*dst = append(*dst, 0)
			continue
		}
		val, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return dec.formatError(fmt.Sprintf("invalid number %q", fields[i]))
		}
		*dst = append(*dst, float32(val))
	}
	return nil
}

func (dec *objDecoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return dec.formatError("face line with less than 3 corners")
	}
	face := make([]objCorner, len(fields))
	for pos, f := range fields {
		parts := strings.Split(f, "/")

		v, err := dec.resolveIndex(parts[0], len(dec.positions)/3)
		if err != nil {
			return err
		}
		corner := objCorner{v: v, vt: -1, vn: -1}

		if len(parts) > 1 && parts[1] != "" {
			if corner.vt, err = dec.resolveIndex(parts[1], len(dec.texcoords)/2); err != nil {
				return err
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if corner.vn, err = dec.resolveIndex(parts[2], len(dec.normals)/3); err != nil {
				return err
			}
		}
		face[pos] = corner
	}

	if dec.current == nil {
		dec.current = &objPartition{name: dec.objectName, material: dec.material}
		dec.partitions = append(dec.partitions, dec.current)
	}
	dec.current.faces = append(dec.current.faces, face)
	return nil
}

// resolveIndex converts a one-based OBJ index, or a negative index relative to the
// most recently parsed element, into a zero-based index below count.
func (dec *objDecoder) resolveIndex(field string, count int) (int, error) {
	val, err := strconv.Atoi(field)
	if err != nil {
		return 0, dec.formatError(fmt.Sprintf("invalid index %q", field))
	}
	var idx int
	switch {
	case val > 0:
		idx = val - 1
	case val < 0:
		idx = count + val
	default:
		return 0, dec.formatError("index value equal to 0")
	}
	if idx < 0 || idx >= count {
		return 0, dec.formatError(fmt.Sprintf("index %d out of range", val))
	}
	return idx, nil
}

func (dec *objDecoder) parseUsemtl(fields []string) error {
	if len(fields) < 1 {
		return dec.formatError("usemtl with no fields")
	}
	name := fields[0]
	id, ok := dec.materialIndex[name]
	if ok {
		dec.material = &id
	} else {
		common.Logger().Warn("obj: unknown material", "path", dec.path, "line", dec.line, "material", name)
		dec.material = nil
	}
	dec.current = nil
	return nil
}

func (dec *objDecoder) loadMaterialLibrary(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: material library: %w", ErrParse, err)
	}
	defer f.Close()

	mtl := &objDecoder{path: path}
	mtl.materials = dec.materials
	if err := mtl.parse(f, mtl.parseMtlLine); err != nil {
		return err
	}
	for i := len(dec.materials); i < len(mtl.materials); i++ {
		dec.materialIndex[mtl.materials[i].Name] = i
	}
	dec.materials = mtl.materials
	return nil
}

func (dec *objDecoder) parseMtlLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	if fields[0] == "newmtl" {
		if len(fields) < 2 {
			return dec.formatError("newmtl with no name")
		}
		dec.materials = append(dec.materials, MaterialDescriptor{Name: fields[1], DiffuseColor: [3]float32{1, 1, 1}})
		return nil
	}
	if len(dec.materials) == 0 {
		return dec.formatError(fmt.Sprintf("%s before newmtl", fields[0]))
	}
	mat := &dec.materials[len(dec.materials)-1]

	switch fields[0] {
	case "Kd":
		var kd []float32
		if err := dec.parseFloats(fields[1:], 3, &kd); err != nil {
			return err
		}
		copy(mat.DiffuseColor[:], kd)
	case "map_Kd":
		return dec.parseMapKd(fields[1:], mat)
	}
	return nil
}

// parseMapKd takes the last non-option field as the texture file name.
// Options (-s, -o, -t, -bm, ...) and their numeric arguments are skipped.
func (dec *objDecoder) parseMapKd(fields []string, mat *MaterialDescriptor) error {
	if len(fields) < 1 {
		return dec.formatError("map_Kd with no fields")
	}
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if strings.HasPrefix(f, "-") {
			for i+1 < len(fields)-1 {
				if _, err := strconv.ParseFloat(fields[i+1], 32); err != nil {
					break
				}
				i++
			}
			continue
		}
		mat.DiffuseTexture = strings.Join(fields[i:], " ")
		return nil
	}
	return dec.formatError("map_Kd with no file name")
}

// build converts the collected faces into flat per-partition vertex arrays.
func (dec *objDecoder) build(opts ParseOptions) (*Asset, error) {
	asset := &Asset{
		Path:      dec.path,
		Materials: dec.materials,
		Meshes:    make([]MeshPartition, 0, len(dec.partitions)),
	}

	for _, p := range dec.partitions {
		mesh := MeshPartition{Name: p.name, MaterialID: p.material}
		withTex, withNorm := false, false
		for _, face := range p.faces {
			for _, c := range face {
				withTex = withTex || c.vt >= 0
				withNorm = withNorm || c.vn >= 0
			}
		}

		seen := make(map[objCorner]uint32)
		emit := func(c objCorner) uint32 {
			if opts.SingleIndex {
				if idx, ok := seen[c]; ok {
					return idx
				}
			}
			idx := uint32(len(mesh.Positions) / 3)
			mesh.Positions = append(mesh.Positions, dec.positions[3*c.v:3*c.v+3]...)
			if withTex {
				if c.vt >= 0 {
					mesh.TexCoords = append(mesh.TexCoords, dec.texcoords[2*c.vt:2*c.vt+2]...)
				} else {
					mesh.TexCoords = append(mesh.TexCoords, 0, 0)
				}
			}
			if withNorm {
				if c.vn >= 0 {
					mesh.Normals = append(mesh.Normals, dec.normals[3*c.vn:3*c.vn+3]...)
				} else {
					mesh.Normals = append(mesh.Normals, 0, 0, 0)
				}
			}
			if opts.SingleIndex {
				seen[c] = idx
			}
			return idx
		}

		for _, face := range p.faces {
			if len(face) > 3 && !opts.Triangulate {
				return nil, fmt.Errorf("%w: %s: partition %q has a %d-sided face and triangulation is disabled",
					ErrParse, dec.path, p.name, len(face))
			}
			for i := 1; i+1 < len(face); i++ {
				mesh.Indices = append(mesh.Indices, emit(face[0]), emit(face[i]), emit(face[i+1]))
			}
		}
		asset.Meshes = append(asset.Meshes, mesh)
	}
	return asset, nil
}

func (dec *objDecoder) formatError(msg string) error {
	return fmt.Errorf("%w: %s in %s line:%d", ErrParse, msg, dec.path, dec.line)
}
