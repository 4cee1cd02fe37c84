package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithAsset is an option builder that pre-populates the cache with an asset parsed with DefaultParseOptions.
//
// Parameters:
//   - asset: the asset to cache, keyed by its Path
//
// Returns:
//   - LoaderBuilderOption: a function that applies the asset option to a loader
func WithAsset(asset *Asset) LoaderBuilderOption {
	return func(l *loader) {
		l.assetCache[cacheKey(asset.Path, DefaultParseOptions())] = asset
	}
}

// WithoutCache is an option builder that disables the asset cache so every Parse reads the file.
//
// Returns:
//   - LoaderBuilderOption: a function that disables caching on a loader
func WithoutCache() LoaderBuilderOption {
	return func(l *loader) {
		l.noCache = true
	}
}
