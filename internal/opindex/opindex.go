// Package opindex implements the object-position index: an inverted
// index from object value to the sorted Z-sequence positions holding
// that value, built in one pass over sequence_z.
package opindex

import (
	"github.com/hdtio/triplecore/internal/bitmap"
	"github.com/hdtio/triplecore/internal/bitpack"
)

// Index is the resident object-position index: op_sequence (original
// Z-positions, grouped by object value) plus op_bitmap (bucket
// boundaries).
type Index struct {
	sequence    bitpack.Sequence
	bucketStart *bitmap.Bitmap
	objectCount uint64
}

func bitsFor(n uint64) uint {
	w := uint(0)
	for (uint64(1) << w) <= n {
		w++
	}
	if w == 0 {
		w = 1
	}
	return w
}

// Build groups sequence_z (each position 0..T-1 mapping to an object
// value) into |O| buckets ordered by value, each bucket's positions kept
// in ascending original order (a single left-to-right pass already
// yields that order, so no secondary sort is needed). Every object id in
// [1, |O|] is assumed to have at least one occurrence, mirroring the
// writer invariant that every subject has at least one predicate: the
// dictionary only ever assigns ids to terms that occur.
func Build(sequenceZ []uint64) *Index {
	t := uint64(len(sequenceZ))
	var maxObj uint64
	for _, v := range sequenceZ {
		if v > maxObj {
			maxObj = v
		}
	}

	buckets := make([][]uint64, maxObj+1)
	for pos, v := range sequenceZ {
		buckets[v] = append(buckets[v], uint64(pos))
	}

	positions := make([]uint64, 0, t)
	b := bitmap.NewBuilder()
	for o := uint64(1); o <= maxObj; o++ {
		for i, p := range buckets[o] {
			b.Add(i == 0)
			positions = append(positions, p)
		}
	}

	width := bitsFor(t)
	seq, err := bitpack.NewResident(positions, width)
	if err != nil {
		// width is always in [1,64] by construction of bitsFor.
		panic(err)
	}

	return &Index{sequence: seq, bucketStart: b.Build(), objectCount: maxObj}
}

// FromParts assembles an Index from an already-built sequence and bitmap,
// e.g. when decoding a .hdt.cache file or composing a Hybrid strategy
// that streams op_sequence but keeps op_bitmap resident.
func FromParts(sequence bitpack.Sequence, bucketStart *bitmap.Bitmap, objectCount uint64) *Index {
	return &Index{sequence: sequence, bucketStart: bucketStart, objectCount: objectCount}
}

// ObjectCount returns |O|, the number of distinct object values indexed.
func (idx *Index) ObjectCount() uint64 { return idx.objectCount }

// Bitmap exposes op_bitmap, for strategies that stream op_sequence but
// keep only this resident.
func (idx *Index) Bitmap() *bitmap.Bitmap { return idx.bucketStart }

// Sequence exposes op_sequence.
func (idx *Index) Sequence() bitpack.Sequence { return idx.sequence }

// FindOp returns the first op_sequence index for object o (1-based o).
func (idx *Index) FindOp(o uint64) (uint64, bool) {
	if o == 0 || o > idx.objectCount {
		return 0, false
	}
	return idx.bucketStart.Select1(o - 1)
}

// LastOp returns the inclusive last op_sequence index for object o.
func (idx *Index) LastOp(o uint64) (uint64, bool) {
	if o == 0 || o > idx.objectCount {
		return 0, false
	}
	if next, ok := idx.bucketStart.Select1(o); ok {
		return next - 1, true
	}
	return idx.sequence.Len() - 1, true
}

// ObjectPosition returns the Z-position stored at op_sequence index k.
func (idx *Index) ObjectPosition(k uint64) uint64 { return idx.sequence.Get(k) }

// PositionsForObject returns the ascending Z-positions for object o.
func (idx *Index) PositionsForObject(o uint64) []uint64 {
	start, ok := idx.FindOp(o)
	if !ok {
		return nil
	}
	last, _ := idx.LastOp(o)
	if last < start {
		return nil
	}
	out := make([]uint64, 0, last-start+1)
	for k := start; k <= last; k++ {
		out = append(out, idx.sequence.Get(k))
	}
	return out
}

// SizeInBytes returns the resident footprint of both structures.
func (idx *Index) SizeInBytes() uint64 {
	return idx.sequence.SizeInBytes() + idx.bucketStart.SizeInBytes()
}
