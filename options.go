package hdt

// Options configures any of the Open* strategy constructors. The zero
// value is valid; unset fields take the defaults documented on each
// field, the same pattern badger.Options follows with its package-level
// defaultOptions.
type Options struct {
	// Logger receives diagnostics (cache fallback, corruption warnings,
	// index-budget decisions). Defaults to DefaultLogger().
	Logger Logger

	// CachePath, if non-empty, is consulted by OpenHybrid before
	// rebuilding indices from the HDT file: a valid, stamp-matching
	// .hdt.cache at this path skips index reconstruction entirely.
	CachePath string

	// ReaderCacheBytes bounds the ristretto block cache streaming
	// strategies keep over recently-read byte windows. Zero disables the
	// cache.
	ReaderCacheBytes int64

	// EnableMmap opens the HDT file with mmap instead of buffered reads
	// on platforms that support it; ignored by Open (which reads
	// everything once anyway).
	EnableMmap bool

	// EnableTrace emits golang.org/x/net/trace events for iterator
	// lifecycles; file-backed accessor calls are not traced.
	EnableTrace bool
}

func (o *Options) logger() Logger {
	if o == nil || o.Logger == nil {
		return DefaultLogger()
	}
	return o.Logger
}

// IndexConfig configures the Indexed-Streaming strategy: which indices
// to build, within what memory budget, and in what priority order. The
// zero value builds nothing and streams everything.
type IndexConfig struct {
	BuildSubjectIndex   bool
	BuildPredicateIndex bool
	BuildObjectIndex    bool

	// MaxIndexMemory bounds the running size estimate accumulated while
	// building indices in priority order (bitmap_y -> plain sequence_y
	// -> wavelet -> OP). Zero means unlimited.
	MaxIndexMemory uint64

	// ProgressiveLoading is accepted but has no effect: OpenIndexed
	// builds every selected index before it returns, starts no
	// background work, and does not report the flag in Stats.
	ProgressiveLoading bool
}

// DefaultIndexConfig builds every index with no memory limit — the
// behavior a caller who doesn't care about the budget knob probably
// wants, equivalent in result (not in construction cost) to Open.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		BuildSubjectIndex:   true,
		BuildPredicateIndex: true,
		BuildObjectIndex:    true,
	}
}
