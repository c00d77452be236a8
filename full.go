package hdt

import (
	"github.com/hdtio/triplecore/internal/opindex"
)

// fullAccess is the Full-in-memory strategy: every subsection decoded
// once at Open time, all queries served from memory with no further
// I/O.
type fullAccess struct {
	bt   *BitmapTriples
	opts *Options
}

// Open loads the entire Triples section at path into memory, including
// an OP index, and returns a TripleAccess with zero runtime I/O.
func Open(path string, opts *Options) (TripleAccess, error) {
	ts, f, err := OpenTripleSection(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bitmapY, err := ReadBitmap(f, ts.BitmapY)
	if err != nil {
		return nil, err
	}
	seqY, err := ReadSequence(f, ts.SequenceY)
	if err != nil {
		return nil, err
	}
	bitmapZ, err := ReadBitmap(f, ts.BitmapZ)
	if err != nil {
		return nil, err
	}
	seqZ, err := ReadSequence(f, ts.SequenceZ)
	if err != nil {
		return nil, err
	}

	values := make([]uint64, seqZ.Len())
	for i := range values {
		values[i] = seqZ.Get(uint64(i))
	}
	op := opindex.Build(values)

	bt := NewBitmapTriples(ts.Order, WrapBitmap(bitmapY), WrapBitmap(bitmapZ), WrapSequence(seqY), seqZ, op)
	return &fullAccess{bt: bt, opts: opts}, nil
}

func (a *fullAccess) NumTriples() uint64   { return a.bt.NumTriples() }
func (a *fullAccess) SizeInBytes() uint64  { return a.bt.sizeInBytes() }
func (a *fullAccess) FindY(x uint64) (uint64, error)  { return a.bt.FindY(x) }
func (a *fullAccess) LastY(x uint64) (uint64, error)  { return a.bt.LastY(x) }
func (a *fullAccess) GetPredicate(y uint64) (uint64, error) { return a.bt.GetPredicate(y) }
func (a *fullAccess) GetObject(z uint64) (uint64, error)    { return a.bt.GetObject(z) }

func (a *fullAccess) FindTriple(s, p, o uint64) (uint64, error) {
	x, yp, zp := a.bt.order.spoToXYZ(s, p, o)
	return a.bt.FindTriple(x, yp, zp)
}

func (a *fullAccess) IterAll() TripleIterator {
	return traceIter(iterAll(a.bt, a.bt.order), a.opts, "IterAll", 0, 0, 0)
}

func (a *fullAccess) IterPattern(s, p, o uint64) TripleIterator {
	return traceIter(iterPattern(a.bt, a.bt.order, s, p, o), a.opts, "IterPattern", s, p, o)
}

func (a *fullAccess) Stats() Stats {
	return Stats{
		Strategy:      "full",
		NumTriples:    a.bt.NumTriples(),
		ResidentBytes: a.bt.sizeInBytes(),
	}
}

func (a *fullAccess) Close() error { return nil }

var _ TripleAccess = (*fullAccess)(nil)
