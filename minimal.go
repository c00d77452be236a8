package hdt

import (
	"github.com/hdtio/triplecore/internal/bitpack"
)

// streamingAccess backs both Minimal-Streaming and File-Based: only the
// four subsections' header metadata (offsets, bit/entry counts, widths —
// a few hundred bytes) is resident, and every accessor seeks into the
// file, including bitmap rank/select via streamBitmap.
// Minimal-Streaming is generally dominated by File-Based in practice, so
// this implementation gives them the identical data-structure shape and
// differs only in the Stats label.
type streamingAccess struct {
	bt       *BitmapTriples
	r        *sharedReader
	strategy string
	opts     *Options
}

func openStreaming(path string, opts *Options, strategy string) (TripleAccess, error) {
	ts, f, err := OpenTripleSection(path)
	if err != nil {
		return nil, err
	}
	f.Close()

	r, err := openSharedReader(path, opts)
	if err != nil {
		return nil, err
	}

	bitmapY, err := newStreamBitmap(r, ts.BitmapY)
	if err != nil {
		r.Close()
		return nil, err
	}
	bitmapZ, err := newStreamBitmap(r, ts.BitmapZ)
	if err != nil {
		r.Close()
		return nil, err
	}
	seqY, err := bitpack.NewFileBacked(r, &r.mu, ts.SequenceY.dataOffset, ts.SequenceY.n, ts.SequenceY.w)
	if err != nil {
		r.Close()
		return nil, translateCorrupt(err)
	}
	seqZ, err := bitpack.NewFileBacked(r, &r.mu, ts.SequenceZ.dataOffset, ts.SequenceZ.n, ts.SequenceZ.w)
	if err != nil {
		r.Close()
		return nil, translateCorrupt(err)
	}

	bt := NewBitmapTriples(ts.Order, bitmapY, bitmapZ, WrapSequence(seqY), seqZ, nil)
	return &streamingAccess{bt: bt, r: r, strategy: strategy, opts: opts}, nil
}

// OpenMinimal keeps only the Triples section's offsets resident; every
// query streams through the shared reader. Provided for completeness —
// it shares streamingAccess with OpenFileBased and behaves identically
// apart from the Stats strategy label.
func OpenMinimal(path string, opts *Options) (TripleAccess, error) {
	return openStreaming(path, opts, "minimal-streaming")
}

func (a *streamingAccess) NumTriples() uint64                   { return a.bt.NumTriples() }
func (a *streamingAccess) SizeInBytes() uint64                  { return a.bt.sizeInBytes() }
func (a *streamingAccess) FindY(x uint64) (uint64, error)       { return a.bt.FindY(x) }
func (a *streamingAccess) LastY(x uint64) (uint64, error)       { return a.bt.LastY(x) }
func (a *streamingAccess) GetPredicate(y uint64) (uint64, error) { return a.bt.GetPredicate(y) }
func (a *streamingAccess) GetObject(z uint64) (uint64, error)    { return a.bt.GetObject(z) }

func (a *streamingAccess) FindTriple(s, p, o uint64) (uint64, error) {
	x, yp, zp := a.bt.order.spoToXYZ(s, p, o)
	return a.bt.FindTriple(x, yp, zp)
}

func (a *streamingAccess) IterAll() TripleIterator {
	return traceIter(iterAll(a.bt, a.bt.order), a.opts, "IterAll", 0, 0, 0)
}

func (a *streamingAccess) IterPattern(s, p, o uint64) TripleIterator {
	return traceIter(iterPattern(a.bt, a.bt.order, s, p, o), a.opts, "IterPattern", s, p, o)
}

func (a *streamingAccess) Stats() Stats {
	return Stats{
		Strategy:      a.strategy,
		NumTriples:    a.bt.NumTriples(),
		ResidentBytes: a.bt.sizeInBytes(),
		StreamedBytes: uint64(a.r.Size()),
		CacheHits:     a.r.metrics.cacheHits,
		CacheMisses:   a.r.metrics.cacheMisses,
		BytesStreamed: a.r.metrics.bytes,
		IOOperations:  a.r.metrics.cacheHits + a.r.metrics.cacheMisses,
	}
}

func (a *streamingAccess) Close() error { return a.r.Close() }

var _ TripleAccess = (*streamingAccess)(nil)
