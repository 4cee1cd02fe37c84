package shader

// ShaderBuilderOption is a functional option used to configure Compile.
type ShaderBuilderOption func(*shaderConfig)

type shaderConfig struct {
	pp               PreProcessor
	checkEntryPoints bool
}

func newShaderConfig(options ...ShaderBuilderOption) *shaderConfig {
	cfg := &shaderConfig{
		pp:               NewPreProcessor(),
		checkEntryPoints: true,
	}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg
}

// WithInclude registers an extra include for this compilation.
//
// Parameters:
//   - name: the include name used after //@oxy:include
//   - source: the WGSL source injected for name
//
// Returns:
//   - ShaderBuilderOption: a function that registers the include
func WithInclude(name, source string) ShaderBuilderOption {
	return func(cfg *shaderConfig) {
		cfg.pp.Register(name, source)
	}
}

// WithPreProcessor replaces the default pre-processor.
//
// Parameters:
//   - pp: the pre-processor to expand includes with
//
// Returns:
//   - ShaderBuilderOption: a function that sets the pre-processor
func WithPreProcessor(pp PreProcessor) ShaderBuilderOption {
	return func(cfg *shaderConfig) {
		cfg.pp = pp
	}
}

// WithoutEntryPointCheck allows shaders that do not define both vs_main and fs_main,
// such as compute shaders.
//
// Returns:
//   - ShaderBuilderOption: a function that disables the entry point check
func WithoutEntryPointCheck() ShaderBuilderOption {
	return func(cfg *shaderConfig) {
		cfg.checkEntryPoints = false
	}
}
