package hdt

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats summarizes where a strategy's bytes live, grounded on the
// before/after byte counts the original implementation's
// streaming_comparison.rs example prints when comparing strategies.
type Stats struct {
	Strategy      string
	NumTriples    uint64
	ResidentBytes uint64
	StreamedBytes uint64
	CacheHits     uint64
	CacheMisses   uint64
	BytesStreamed uint64
	IOOperations  uint64
}

// String renders Stats the way hdt's CLI tools report strategy
// comparisons: human-readable byte counts rather than raw integers.
func (s Stats) String() string {
	return fmt.Sprintf("%s: %s triples, %s resident, %s streamed (%d I/O ops)",
		s.Strategy, humanize.Comma(int64(s.NumTriples)), humanize.Bytes(s.ResidentBytes),
		humanize.Bytes(s.StreamedBytes), s.IOOperations)
}
