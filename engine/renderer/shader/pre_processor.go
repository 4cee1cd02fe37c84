// pre_processor.go implements the Oxy WGSL include pre-processor. It scans shader source for
// //@oxy:include <name> lines and replaces each with the registered WGSL source, so shaders
// share the exact struct definitions the Go GPU types are marshalled against.
package shader

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-draw/engine/camera"
	"github.com/Carmen-Shannon/oxy-draw/engine/light"
	"github.com/Carmen-Shannon/oxy-draw/engine/model"
)

// includePrefix marks an include directive. It is a WGSL comment, so unprocessed source still parses.
const includePrefix = "//@oxy:include"

// ErrInclude is returned for a malformed include directive or an unknown include name.
var ErrInclude = errors.New("shader include failed")

// Include names registered by default.
const (
	IncludeModelVertex = "model_vertex"
	IncludeInstance    = "instance"
	IncludeCamera      = "camera"
	IncludeLight       = "light"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// registry maps include names to the WGSL source injected in their place.
	registry map[string]string

	// included lists the names injected by the most recent Process call, in source order.
	included []string
}

// PreProcessor expands include directives in WGSL source.
type PreProcessor interface {
	// Process replaces every include directive with its registered source. Each name is
	// injected at most once; repeated directives for the same name are dropped.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: ErrInclude with the offending line number
	Process(source string) (string, error)

	// Register adds or replaces an include.
	//
	// Parameters:
	//   - name: the include name used after //@oxy:include
	//   - source: the WGSL source injected for name
	Register(name, source string)

	// Included returns the include names expanded by the most recent Process call.
	//
	// Returns:
	//   - []string: the include names in source order
	Included() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the vertex, instance, camera and light
// struct sources registered.
//
// Returns:
//   - PreProcessor: the pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		registry: map[string]string{
			IncludeModelVertex: model.ModelVertexSource,
			IncludeInstance:    model.InstanceSource,
			IncludeCamera:      camera.GPUCameraUniformSource,
			IncludeLight:       light.GPULightSource,
		},
	}
}

func (p *preProcessor) Register(name, source string) {
	p.registry[name] = source
}

func (p *preProcessor) Included() []string {
	return p.included
}

func (p *preProcessor) Process(source string) (string, error) {
	p.included = nil
	seen := make(map[string]bool)

	var out strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(source))
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		trimmed := strings.TrimSpace(text)
		if !strings.HasPrefix(trimmed, includePrefix) {
			out.WriteString(text)
			out.WriteByte('\n')
			continue
		}

		args := strings.Fields(strings.TrimPrefix(trimmed, includePrefix))
		if len(args) != 1 {
			return "", fmt.Errorf("%w: line %d: expected one include name, got %d", ErrInclude, line, len(args))
		}
		name := args[0]
		src, ok := p.registry[name]
		if !ok {
			return "", fmt.Errorf("%w: line %d: unknown include %q", ErrInclude, line, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		p.included = append(p.included, name)
		out.WriteString(strings.TrimRight(src, "\n"))
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInclude, err)
	}
	return out.String(), nil
}
