package hdt

import (
	"sort"

	"github.com/hdtio/triplecore/internal/bitmap"
	"github.com/hdtio/triplecore/internal/bitpack"
	"github.com/hdtio/triplecore/internal/opindex"
	"github.com/hdtio/triplecore/internal/wavelet"
)

// predicateSource is the narrow interface BitmapTriples needs to fetch a
// predicate id at a Y-position: either a plain bit-packed sequence or a
// wavelet matrix.
type predicateSource interface {
	Get(i uint64) uint64
	// GetChecked is the fallible counterpart to Get; a resident source
	// always returns a nil error, a file-backed sequence may return an
	// I/O error.
	GetChecked(i uint64) (uint64, error)
	Len() uint64
}

// rankSelect is the narrow interface BitmapTriples needs from bitmap_y
// and bitmap_z: a resident *bitmap.Bitmap answers these in O(1) with a
// nil error always; a *streamBitmap answers them by seeking through
// sharedReader, at the File-Based/Minimal-Streaming strategies'
// explicit cost.
type rankSelect interface {
	Len() uint64
	Popcount() uint64
	Rank1(i uint64) (uint64, error)
	Select1(k uint64) (uint64, error)
}

// residentRankSelect adapts *bitmap.Bitmap to rankSelect.
type residentRankSelect struct{ bm *bitmap.Bitmap }

func (r residentRankSelect) Len() uint64         { return r.bm.Len() }
func (r residentRankSelect) Popcount() uint64    { return r.bm.Popcount() }
func (r residentRankSelect) SizeInBytes() uint64 { return r.bm.SizeInBytes() }
func (r residentRankSelect) Rank1(i uint64) (uint64, error) {
	return r.bm.Rank1(i), nil
}
func (r residentRankSelect) Select1(k uint64) (uint64, error) {
	pos, ok := r.bm.Select1(k)
	if !ok {
		return 0, ErrNotFound
	}
	return pos, nil
}

// WrapBitmap adapts a resident bitmap for use as BitmapTriples'
// bitmap_y/bitmap_z. *streamBitmap already satisfies rankSelect
// directly and needs no adapter.
func WrapBitmap(bm *bitmap.Bitmap) rankSelect { return residentRankSelect{bm: bm} }

// BitmapTriples is the C4 navigation core shared by every storage
// strategy: two adjacency levels (bitmapY/sequenceY between subject and
// predicate, bitmapZ/sequenceZ between predicate and object), each a
// bitmap-delimited run of a bit-packed sequence.
//
// All positions (x, y, z) are 1-based, matching the HDT bitmap triples
// model; FindY/FindZ return the first 1-based position in their level
// for a given parent position.
type BitmapTriples struct {
	order Order

	bitmapY rankSelect
	bitmapZ rankSelect

	seqY predicateSource
	seqZ bitpack.Sequence

	// op indexes sequenceZ by object value; nil when a strategy chose
	// not to build it.
	op *opindex.Index

	subjectCount uint64
}

// NewBitmapTriples assembles a navigation core from already-decoded
// components. bitmapY/bitmapZ are typically WrapBitmap(*bitmap.Bitmap)
// or a *streamBitmap; seqY is typically WrapSequence over a
// *bitpack.Resident or *bitpack.FileBacked, or WrapWavelet over a
// *wavelet.Matrix; op may be nil.
func NewBitmapTriples(order Order, bitmapY, bitmapZ rankSelect, seqY predicateSource, seqZ bitpack.Sequence, op *opindex.Index) *BitmapTriples {
	return &BitmapTriples{
		order:        order,
		bitmapY:      bitmapY,
		bitmapZ:      bitmapZ,
		seqY:         seqY,
		seqZ:         seqZ,
		op:           op,
		subjectCount: bitmapY.Popcount(),
	}
}

// SubjectCount returns the number of distinct x values (|S| in
// SPO-family orders).
func (bt *BitmapTriples) SubjectCount() uint64 { return bt.subjectCount }

// sizeInBytes sums the resident footprint of every component this core
// actually holds; a predicateSource backed by bitpack.FileBacked reports
// only its small metadata and a streamBitmap contributes nothing, so this total
// reflects each strategy's real residency rather than assuming full
// materialization.
func (bt *BitmapTriples) sizeInBytes() uint64 {
	var total uint64
	if sized, ok := bt.seqY.(interface{ SizeInBytes() uint64 }); ok {
		total += sized.SizeInBytes()
	}
	total += bt.seqZ.SizeInBytes()
	if sized, ok := bt.bitmapY.(interface{ SizeInBytes() uint64 }); ok {
		total += sized.SizeInBytes()
	}
	if sized, ok := bt.bitmapZ.(interface{ SizeInBytes() uint64 }); ok {
		total += sized.SizeInBytes()
	}
	if bt.op != nil {
		total += bt.op.SizeInBytes()
	}
	return total
}

// NumTriples returns T, the size of the Z level.
func (bt *BitmapTriples) NumTriples() uint64 { return bt.seqZ.Len() }

// FindY returns the first 1-based Y-position belonging to subject x.
// x is 1-based; x==0 or x beyond SubjectCount is ErrNotFound.
func (bt *BitmapTriples) FindY(x uint64) (uint64, error) {
	if x == 0 || x > bt.subjectCount {
		return 0, ErrNotFound
	}
	pos, err := bt.bitmapY.Select1(x - 1)
	if err != nil {
		return 0, err
	}
	return pos + 1, nil
}

// LastY returns the inclusive last 1-based Y-position belonging to
// subject x.
func (bt *BitmapTriples) LastY(x uint64) (uint64, error) {
	if x == 0 || x > bt.subjectCount {
		return 0, ErrNotFound
	}
	if x == bt.subjectCount {
		return bt.bitmapY.Len(), nil
	}
	return bt.bitmapY.Select1(x)
}

// FindZ returns the first 1-based Z-position belonging to Y-position y.
func (bt *BitmapTriples) FindZ(y uint64) (uint64, error) {
	if y == 0 || y > bt.bitmapY.Len() {
		return 0, ErrNotFound
	}
	pos, err := bt.bitmapZ.Select1(y - 1)
	if err != nil {
		return 0, err
	}
	return pos + 1, nil
}

// LastZ returns the inclusive last 1-based Z-position belonging to
// Y-position y.
func (bt *BitmapTriples) LastZ(y uint64) (uint64, error) {
	if y == 0 || y > bt.bitmapY.Len() {
		return 0, ErrNotFound
	}
	if y == bt.bitmapY.Len() {
		return bt.bitmapZ.Len(), nil
	}
	return bt.bitmapZ.Select1(y)
}

// GetSubjectOf returns the 1-based subject x that Y-position y belongs
// to: rank1 over bitmapY at y.
func (bt *BitmapTriples) GetSubjectOf(y uint64) (uint64, error) {
	if y == 0 || y > bt.bitmapY.Len() {
		return 0, ErrNotFound
	}
	return bt.bitmapY.Rank1(y)
}

// GetYOf returns the 1-based Y-position that Z-position z belongs to:
// rank1 over bitmapZ at z.
func (bt *BitmapTriples) GetYOf(z uint64) (uint64, error) {
	if z == 0 || z > bt.bitmapZ.Len() {
		return 0, ErrNotFound
	}
	return bt.bitmapZ.Rank1(z)
}

// GetPredicate returns the predicate id stored at 1-based Y-position y.
func (bt *BitmapTriples) GetPredicate(y uint64) (uint64, error) {
	if y == 0 || y > bt.seqY.Len() {
		return 0, ErrNotFound
	}
	return bt.seqY.GetChecked(y - 1)
}

// GetObject returns the object id stored at 1-based Z-position z.
func (bt *BitmapTriples) GetObject(z uint64) (uint64, error) {
	if z == 0 || z > bt.seqZ.Len() {
		return 0, ErrNotFound
	}
	return bt.seqZ.GetChecked(z - 1)
}

// VerifyYSorted is a test-level consistency check for the open question
// recorded in DESIGN.md: FindYZ's binary search assumes predicates
// within one subject's Y-run are stored in strictly ascending order. Strategies
// never call this at runtime; it exists for conformance tests to assert
// the assumption holds for a given file.
func (bt *BitmapTriples) VerifyYSorted() bool {
	for x := uint64(1); x <= bt.subjectCount; x++ {
		first, _ := bt.FindY(x)
		last, _ := bt.LastY(x)
		prev := uint64(0)
		for y := first; y <= last; y++ {
			p, err := bt.GetPredicate(y)
			if err != nil {
				return false
			}
			if y > first && p <= prev {
				return false
			}
			prev = p
		}
	}
	return true
}

// FindYZ locates the 1-based Y-position within subject x's run whose
// predicate equals p, via binary search (VerifyYSorted documents the
// ascending-order assumption this relies on). Returns ErrNotFound if x
// has no such predicate.
func (bt *BitmapTriples) FindYZ(x, p uint64) (uint64, error) {
	first, err := bt.FindY(x)
	if err != nil {
		return 0, err
	}
	last, err := bt.LastY(x)
	if err != nil {
		return 0, err
	}

	lo, hi := first, last+1
	for lo < hi {
		mid := lo + (hi-lo)/2
		v, err := bt.GetPredicate(mid)
		if err != nil {
			return 0, err
		}
		if v < p {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo > last {
		return 0, ErrNotFound
	}
	v, err := bt.GetPredicate(lo)
	if err != nil {
		return 0, err
	}
	if v != p {
		return 0, ErrNotFound
	}
	return lo, nil
}

// FindTriple locates the exact triple (x,y-predicate p,object o) encoded
// in x/y/z coordinates and returns its 1-based Z-position, or
// ErrNotFound. o is matched by a linear scan of the (x,p) run's
// Z-range; the scan does not rely on the objects within the run being
// sorted.
func (bt *BitmapTriples) FindTriple(x, p, o uint64) (uint64, error) {
	y, err := bt.FindYZ(x, p)
	if err != nil {
		return 0, err
	}
	zFirst, err := bt.FindZ(y)
	if err != nil {
		return 0, err
	}
	zLast, err := bt.LastZ(y)
	if err != nil {
		return 0, err
	}
	for z := zFirst; z <= zLast; z++ {
		v, err := bt.GetObject(z)
		if err != nil {
			return 0, err
		}
		if v == o {
			return z, nil
		}
	}
	return 0, ErrNotFound
}

// ObjectPositions returns every Z-position whose object equals o, using
// the OP index when present; without an OP index it falls back to a
// full linear scan of sequenceZ, which is the behavior
// Minimal-Streaming and File-Based accept in exchange for not paying the
// OP index's memory cost.
func (bt *BitmapTriples) ObjectPositions(o uint64) ([]uint64, error) {
	if bt.op != nil {
		// opindex stores 0-based sequence_z positions; BitmapTriples'
		// Z-positions are 1-based.
		zeroBased := bt.op.PositionsForObject(o)
		out := make([]uint64, len(zeroBased))
		for i, p := range zeroBased {
			out[i] = p + 1
		}
		return out, nil
	}
	var out []uint64
	n := bt.seqZ.Len()
	for z := uint64(1); z <= n; z++ {
		v, err := bt.GetObject(z)
		if err != nil {
			return nil, err
		}
		if v == o {
			out = append(out, z)
		}
	}
	return out, nil
}

// waveletPredicateSource adapts *wavelet.Matrix to predicateSource. A
// wavelet matrix is always resident, so GetChecked never fails.
type waveletPredicateSource struct{ m *wavelet.Matrix }

func (w waveletPredicateSource) Get(i uint64) uint64                 { return w.m.Access(i) }
func (w waveletPredicateSource) GetChecked(i uint64) (uint64, error) { return w.m.Access(i), nil }
func (w waveletPredicateSource) Len() uint64                         { return w.m.Len() }
func (w waveletPredicateSource) SizeInBytes() uint64                 { return w.m.SizeInBytes() }

// WrapWavelet adapts a wavelet matrix for use as BitmapTriples' seqY.
func WrapWavelet(m *wavelet.Matrix) predicateSource { return waveletPredicateSource{m: m} }

// sequenceAdapter adapts bitpack.Sequence to predicateSource, forwarding
// GetChecked so a file-backed seqY's I/O errors reach GetPredicate
// instead of being swallowed as a fabricated 0.
type sequenceAdapter struct{ s bitpack.Sequence }

func (s sequenceAdapter) Get(i uint64) uint64                 { return s.s.Get(i) }
func (s sequenceAdapter) GetChecked(i uint64) (uint64, error) { return s.s.GetChecked(i) }
func (s sequenceAdapter) Len() uint64                         { return s.s.Len() }
func (s sequenceAdapter) SizeInBytes() uint64                 { return s.s.SizeInBytes() }

// WrapSequence adapts a bit-packed sequence for use as BitmapTriples' seqY.
func WrapSequence(s bitpack.Sequence) predicateSource { return sequenceAdapter{s: s} }

// distinctPredicates returns the sorted, deduplicated set of predicate
// ids appearing in seqY.
func distinctPredicates(seqY predicateSource) []uint64 {
	seen := make(map[uint64]struct{})
	for i := uint64(0); i < seqY.Len(); i++ {
		seen[seqY.Get(i)] = struct{}{}
	}
	out := make([]uint64, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
