package loader

// loaderBackend defines the format-specific half of a Loader.
// Concrete implementations (e.g., objLoaderBackend) handle the file syntax.
type loaderBackend interface {
	// Parse reads the asset at path.
	//
	// Parameters:
	//   - path: the file path to parse
	//   - opts: triangulation and indexing options
	//
	// Returns:
	//   - *Asset: the parsed mesh partitions and material descriptors
	//   - error: error wrapping ErrParse if the file is malformed or unreadable
	Parse(path string, opts ParseOptions) (*Asset, error)
}
