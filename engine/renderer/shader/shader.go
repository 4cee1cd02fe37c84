package shader

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Entry point names every render shader must define.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

var (
	// ErrCompile is returned when WGSL source fails to parse, lower or validate.
	ErrCompile = errors.New("shader compilation failed")

	// ErrEntryPoint is returned when a required entry point is missing or has the wrong stage.
	ErrEntryPoint = errors.New("shader entry point missing")
)

// ShaderType identifies the pipeline stage of an entry point.
type ShaderType int

const (
	// ShaderTypeCompute indicates a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex indicates a @vertex entry point.
	ShaderTypeVertex

	// ShaderTypeFragment indicates a @fragment entry point.
	ShaderTypeFragment
)

// EntryPoint is one reflected entry point of a compiled shader.
type EntryPoint struct {
	Name string
	Type ShaderType
}

// shader is the implementation of the Shader interface.
// It holds the expanded source and the reflection data extracted from the naga IR.
type shader struct {
	key             string
	source          string
	entryPoints     []EntryPoint
	bindings        map[uint32][]uint32
	vertexLocations map[string][]uint32
	included        []string
	module          *wgpu.ShaderModuleDescriptor
}

// Shader defines the interface for a compiled and reflected WGSL shader. It exposes the
// source handed to the device together with the entry points, resource groups and vertex
// input locations the source declares.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as the module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the expanded WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source with includes expanded
	Source() string

	// EntryPoints retrieves every entry point in declaration order.
	//
	// Returns:
	//   - []EntryPoint: the entry points
	EntryPoints() []EntryPoint

	// HasEntryPoint reports whether the shader defines name as an entry point of type t.
	//
	// Parameters:
	//   - name: the entry point function name
	//   - t: the expected stage
	//
	// Returns:
	//   - bool: true if found
	HasEntryPoint(name string, t ShaderType) bool

	// Groups retrieves the sorted @group indices of every resource the shader declares.
	//
	// Returns:
	//   - []uint32: the group indices
	Groups() []uint32

	// Bindings retrieves the sorted @binding indices declared in group.
	//
	// Parameters:
	//   - group: the group index
	//
	// Returns:
	//   - []uint32: the binding indices, or nil if the group is not declared
	Bindings(group uint32) []uint32

	// VertexLocations retrieves the sorted @location indices consumed by a vertex entry point,
	// including locations of struct members passed as arguments.
	//
	// Parameters:
	//   - entryPoint: the vertex entry point name
	//
	// Returns:
	//   - []uint32: the input locations, or nil if entryPoint is not a vertex entry point
	VertexLocations(entryPoint string) []uint32

	// Included retrieves the include names expanded into the source.
	//
	// Returns:
	//   - []string: include names in source order
	Included() []string

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// Compile expands includes in source, then parses, lowers and validates it with naga and
// reflects the result. A render shader must define VertexEntryPoint and FragmentEntryPoint
// unless WithoutEntryPointCheck is given.
//
// Parameters:
//   - key: a unique identifier for the shader, used as the module label
//   - source: the WGSL source, possibly containing //@oxy:include directives
//   - options: variadic list of ShaderBuilderOption functions
//
// Returns:
//   - Shader: the compiled shader
//   - error: ErrInclude, ErrCompile or ErrEntryPoint
func Compile(key, source string, options ...ShaderBuilderOption) (Shader, error) {
	cfg := newShaderConfig(options...)

	expanded, err := cfg.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", key, err)
	}

	ast, err := naga.Parse(expanded)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCompile, key, err)
	}
	module, err := naga.LowerWithSource(ast, expanded)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCompile, key, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCompile, key, err)
	}
	if len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i := range verrs {
			errs[i] = verrs[i]
		}
		return nil, fmt.Errorf("%w: %q: %w", ErrCompile, key, errors.Join(errs...))
	}

	s := &shader{
		key:      key,
		source:   expanded,
		included: cfg.pp.Included(),
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: expanded,
			},
		},
	}
	s.reflect(module)

	if cfg.checkEntryPoints {
		if !s.HasEntryPoint(VertexEntryPoint, ShaderTypeVertex) {
			return nil, fmt.Errorf("%w: %q has no @vertex fn %s", ErrEntryPoint, key, VertexEntryPoint)
		}
		if !s.HasEntryPoint(FragmentEntryPoint, ShaderTypeFragment) {
			return nil, fmt.Errorf("%w: %q has no @fragment fn %s", ErrEntryPoint, key, FragmentEntryPoint)
		}
	}

	common.Logger().Debug("shader compiled", "key", key, "entry_points", len(s.entryPoints), "groups", s.Groups())
	return s, nil
}

// CompileFile reads WGSL source from path and compiles it with Compile.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - path: the WGSL file path
//   - options: variadic list of ShaderBuilderOption functions
//
// Returns:
//   - Shader: the compiled shader
//   - error: error if the file cannot be read, or any Compile error
func CompileFile(key, path string, options ...ShaderBuilderOption) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader %q: failed to read source file %q: %w", key, path, err)
	}
	return Compile(key, string(data), options...)
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoints() []EntryPoint {
	return s.entryPoints
}

func (s *shader) HasEntryPoint(name string, t ShaderType) bool {
	return slices.Contains(s.entryPoints, EntryPoint{Name: name, Type: t})
}

func (s *shader) Groups() []uint32 {
	groups := make([]uint32, 0, len(s.bindings))
	for g := range s.bindings {
		groups = append(groups, g)
	}
	slices.Sort(groups)
	return groups
}

func (s *shader) Bindings(group uint32) []uint32 {
	return s.bindings[group]
}

func (s *shader) VertexLocations(entryPoint string) []uint32 {
	return s.vertexLocations[entryPoint]
}

func (s *shader) Included() []string {
	return s.included
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

// reflect extracts entry points, resource bindings and vertex input locations from the IR.
func (s *shader) reflect(module *ir.Module) {
	s.bindings = make(map[uint32][]uint32)
	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		s.bindings[gv.Binding.Group] = append(s.bindings[gv.Binding.Group], gv.Binding.Binding)
	}
	for g := range s.bindings {
		slices.Sort(s.bindings[g])
	}

	s.vertexLocations = make(map[string][]uint32)
	for _, ep := range module.EntryPoints {
		var t ShaderType
		switch ep.Stage {
		case ir.StageVertex:
			t = ShaderTypeVertex
		case ir.StageFragment:
			t = ShaderTypeFragment
		case ir.StageCompute:
			t = ShaderTypeCompute
		default:
			continue
		}
		s.entryPoints = append(s.entryPoints, EntryPoint{Name: ep.Name, Type: t})

		if t != ShaderTypeVertex {
			continue
		}
		locations := []uint32{}
		for _, arg := range ep.Function.Arguments {
			locations = appendLocations(module, locations, arg.Binding, arg.Type)
		}
		slices.Sort(locations)
		s.vertexLocations[ep.Name] = locations
	}
}

// appendLocations adds the location of a bound argument, or the locations of every bound
// member when the argument is a struct.
func appendLocations(module *ir.Module, locations []uint32, binding *ir.Binding, typ ir.TypeHandle) []uint32 {
	if binding != nil {
		if loc, ok := locationOf(*binding); ok {
			locations = append(locations, loc)
		}
		return locations
	}
	if int(typ) >= len(module.Types) {
		return locations
	}
	st, ok := module.Types[typ].Inner.(ir.StructType)
	if !ok {
		return locations
	}
	for _, member := range st.Members {
		if member.Binding == nil {
			continue
		}
		if loc, ok := locationOf(*member.Binding); ok {
			locations = append(locations, loc)
		}
	}
	return locations
}

func locationOf(b ir.Binding) (uint32, bool) {
	switch lb := b.(type) {
	case ir.LocationBinding:
		return lb.Location, true
	case *ir.LocationBinding:
		return lb.Location, true
	}
	return 0, false
}
