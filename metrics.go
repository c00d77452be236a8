package hdt

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Measures and views exported for any process that wires in an
// opencensus exporter; recordCacheHit/Miss/Bytes/IO below record against
// them whenever a file-backed strategy streams through sharedReader:
// cache effectiveness and bytes streamed per strategy.
var (
	mBlockCacheHits   = stats.Int64("hdt/block_cache_hits", "block cache hits", stats.UnitDimensionless)
	mBlockCacheMisses = stats.Int64("hdt/block_cache_misses", "block cache misses", stats.UnitDimensionless)
	mBytesStreamed    = stats.Int64("hdt/bytes_streamed", "bytes read from the underlying file", stats.UnitBytes)
	mIOErrors         = stats.Int64("hdt/io_errors", "I/O errors encountered while streaming", stats.UnitDimensionless)

	// KeyStrategy is the tag key every view groups by. The recorders
	// below record without setting it, so measurements are not broken
	// down by strategy.
	KeyStrategy, _ = tag.NewKey("strategy")
)

// Views are the aggregations registered for export; RegisterViews must
// be called once by a process that wants these exported (Open* never
// calls it implicitly, matching opencensus' own "the library doesn't
// assume an exporter" convention).
var Views = []*view.View{
	{Name: "hdt/block_cache_hits_total", Measure: mBlockCacheHits, Aggregation: view.Sum(), TagKeys: []tag.Key{KeyStrategy}},
	{Name: "hdt/block_cache_misses_total", Measure: mBlockCacheMisses, Aggregation: view.Sum(), TagKeys: []tag.Key{KeyStrategy}},
	{Name: "hdt/bytes_streamed_total", Measure: mBytesStreamed, Aggregation: view.Sum(), TagKeys: []tag.Key{KeyStrategy}},
	{Name: "hdt/io_errors_total", Measure: mIOErrors, Aggregation: view.Sum(), TagKeys: []tag.Key{KeyStrategy}},
}

// RegisterViews registers Views with opencensus' default view processor.
func RegisterViews() error { return view.Register(Views...) }

// metricsRecorder accumulates the same counters Stats reports locally
// (so Stats works even without an opencensus exporter wired in) while
// also feeding the package-level opencensus measures.
type metricsRecorder struct {
	cacheHits   uint64
	cacheMisses uint64
	bytes       uint64
	ioErrors    uint64
}

func newMetricsRecorder() *metricsRecorder { return &metricsRecorder{} }

func (m *metricsRecorder) recordCacheHit() {
	m.cacheHits++
	stats.Record(context.Background(), mBlockCacheHits.M(1))
}

func (m *metricsRecorder) recordCacheMiss() {
	m.cacheMisses++
	stats.Record(context.Background(), mBlockCacheMisses.M(1))
}

func (m *metricsRecorder) recordBytes(n int) {
	m.bytes += uint64(n)
	stats.Record(context.Background(), mBytesStreamed.M(int64(n)))
}

func (m *metricsRecorder) recordIO() {
	m.ioErrors++
	stats.Record(context.Background(), mIOErrors.M(1))
}
