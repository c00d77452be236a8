package hdt

import (
	"github.com/hdtio/triplecore/internal/bitpack"
	"github.com/hdtio/triplecore/internal/opindex"
	"github.com/hdtio/triplecore/internal/wavelet"
)

// indexedAccess is the Indexed-Streaming strategy: bitmap_y and bitmap_z
// are always resident (navigation is impossible without them), and the
// caller's IndexConfig decides, within MaxIndexMemory, how much of
// sequence_y (plain or as a wavelet matrix) and the OP index get built;
// whatever doesn't fit falls back to a file-backed accessor.
type indexedAccess struct {
	bt   *BitmapTriples
	r    *sharedReader
	opts *Options
}

// OpenIndexed builds indices over path in priority order — bitmap_y,
// predicate structure, wavelet upgrade, OP index — stopping as soon as
// the running size estimate would exceed cfg.MaxIndexMemory (0 means
// unlimited).
func OpenIndexed(path string, cfg IndexConfig, opts *Options) (TripleAccess, error) {
	ts, f, err := OpenTripleSection(path)
	if err != nil {
		return nil, err
	}
	f.Close()

	r, err := openSharedReader(path, opts)
	if err != nil {
		return nil, err
	}
	log := opts.logger()

	bitmapY, err := ReadBitmap(r.f, ts.BitmapY)
	if err != nil {
		r.Close()
		return nil, err
	}
	bitmapZ, err := ReadBitmap(r.f, ts.BitmapZ)
	if err != nil {
		r.Close()
		return nil, err
	}

	budget := cfg.MaxIndexMemory
	spent := bitmapY.SizeInBytes() + bitmapZ.SizeInBytes()
	fits := func(extra uint64) bool { return budget == 0 || spent+extra <= budget }

	var seqY predicateSource

	if cfg.BuildSubjectIndex || cfg.BuildPredicateIndex {
		plainSeqY, err := ReadSequence(r.f, ts.SequenceY)
		if err != nil {
			r.Close()
			return nil, err
		}
		cost := plainSeqY.SizeInBytes()
		if fits(cost) {
			spent += cost
			seqY = WrapSequence(plainSeqY)

			if cfg.BuildPredicateIndex {
				values := make([]uint64, plainSeqY.Len())
				for i := range values {
					values[i] = plainSeqY.Get(uint64(i))
				}
				wm := wavelet.Build(values, int(plainSeqY.Width()))
				wcost := wm.SizeInBytes()
				if budget == 0 || spent-cost+wcost <= budget {
					spent = spent - cost + wcost
					seqY = WrapWavelet(wm)
				}
			}
		} else {
			log.Infof("hdt: indexed-streaming: sequence_y exceeds budget, streaming instead")
		}
	}

	if seqY == nil {
		fileSeqY, err := bitpack.NewFileBacked(r, &r.mu, ts.SequenceY.dataOffset, ts.SequenceY.n, ts.SequenceY.w)
		if err != nil {
			r.Close()
			return nil, translateCorrupt(err)
		}
		seqY = WrapSequence(fileSeqY)
	}

	// sequence_z never gets a budget check; it streams unconditionally
	// regardless of how much of sequence_y or the OP index fit.
	seqZ, err := bitpack.NewFileBacked(r, &r.mu, ts.SequenceZ.dataOffset, ts.SequenceZ.n, ts.SequenceZ.w)
	if err != nil {
		r.Close()
		return nil, translateCorrupt(err)
	}

	var op *opindex.Index
	if cfg.BuildObjectIndex {
		values := make([]uint64, seqZ.Len())
		for i := range values {
			v, err := seqZ.GetChecked(uint64(i))
			if err != nil {
				r.Close()
				return nil, err
			}
			values[i] = v
		}
		// Rough upper bound before building: one packed position per
		// triple plus one bucket bit, both at most 8 bytes/entry.
		estimate := uint64(len(values)) * 8
		if fits(estimate) {
			op = opindex.Build(values)
			spent += op.SizeInBytes()
		} else {
			log.Infof("hdt: indexed-streaming: OP index exceeds budget, falling back to linear scan")
		}
	}

	bt := NewBitmapTriples(ts.Order, WrapBitmap(bitmapY), WrapBitmap(bitmapZ), seqY, seqZ, op)
	return &indexedAccess{bt: bt, r: r, opts: opts}, nil
}

func (a *indexedAccess) NumTriples() uint64                   { return a.bt.NumTriples() }
func (a *indexedAccess) SizeInBytes() uint64                  { return a.bt.sizeInBytes() }
func (a *indexedAccess) FindY(x uint64) (uint64, error)       { return a.bt.FindY(x) }
func (a *indexedAccess) LastY(x uint64) (uint64, error)       { return a.bt.LastY(x) }
func (a *indexedAccess) GetPredicate(y uint64) (uint64, error) { return a.bt.GetPredicate(y) }
func (a *indexedAccess) GetObject(z uint64) (uint64, error)    { return a.bt.GetObject(z) }

func (a *indexedAccess) FindTriple(s, p, o uint64) (uint64, error) {
	x, yp, zp := a.bt.order.spoToXYZ(s, p, o)
	return a.bt.FindTriple(x, yp, zp)
}

func (a *indexedAccess) IterAll() TripleIterator {
	return traceIter(iterAll(a.bt, a.bt.order), a.opts, "IterAll", 0, 0, 0)
}

func (a *indexedAccess) IterPattern(s, p, o uint64) TripleIterator {
	return traceIter(iterPattern(a.bt, a.bt.order, s, p, o), a.opts, "IterPattern", s, p, o)
}

func (a *indexedAccess) Stats() Stats {
	return Stats{
		Strategy:      "indexed-streaming",
		NumTriples:    a.bt.NumTriples(),
		ResidentBytes: a.bt.sizeInBytes(),
		StreamedBytes: a.bt.seqZ.SizeInBytes(),
		CacheHits:     a.r.metrics.cacheHits,
		CacheMisses:   a.r.metrics.cacheMisses,
		BytesStreamed: a.r.metrics.bytes,
		IOOperations:  a.r.metrics.cacheHits + a.r.metrics.cacheMisses,
	}
}

func (a *indexedAccess) Close() error { return a.r.Close() }

var _ TripleAccess = (*indexedAccess)(nil)
