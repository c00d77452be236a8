// Package wavelet implements a wavelet matrix: access/rank/select over a
// sequence of small integers (here, sequence_y, the predicate run). W is
// the number of bits of the alphabet: Access and Rank run in O(W); Select
// runs in O(W log n), since each level's bitmap Select0 is a binary
// search over Rank1.
package wavelet

import (
	"github.com/hdtio/triplecore/internal/bitmap"
	"github.com/hdtio/triplecore/internal/wire"
)

// Matrix is a resident wavelet matrix built from a sequence of n values
// in [0, 2^width).
type Matrix struct {
	width int
	n     uint64
	// levels[0] is the most-significant bit's level, matching build
	// order; zeros[l] is the number of elements with bit 0 at level l.
	levels []*bitmap.Bitmap
	zeros  []uint64
}

// Build constructs a wavelet matrix over values (each assumed < 2^width).
// n==0 or width==0 yields a valid, empty matrix.
func Build(values []uint64, width int) *Matrix {
	m := &Matrix{width: width, n: uint64(len(values))}
	if width == 0 || len(values) == 0 {
		return m
	}
	m.levels = make([]*bitmap.Bitmap, width)
	m.zeros = make([]uint64, width)

	cur := make([]uint64, len(values))
	copy(cur, values)

	for lvl := 0; lvl < width; lvl++ {
		bitPos := width - 1 - lvl
		b := bitmap.NewBuilder()
		zeros := make([]uint64, 0, len(cur))
		ones := make([]uint64, 0, len(cur))
		for _, v := range cur {
			bit := (v >> uint(bitPos)) & 1
			b.Add(bit == 1)
			if bit == 0 {
				zeros = append(zeros, v)
			} else {
				ones = append(ones, v)
			}
		}
		m.levels[lvl] = b.Build()
		m.zeros[lvl] = uint64(len(zeros))
		cur = append(zeros, ones...)
	}
	return m
}

// Get is an alias for Access, letting *Matrix satisfy the same narrow
// get-by-index interface as a bitpack.Sequence wherever the predicate
// source may be either a raw sequence_y or a built wavelet matrix.
func (m *Matrix) Get(i uint64) uint64 { return m.Access(i) }

// Width returns the number of bits per element.
func (m *Matrix) Width() int { return m.width }

// Len returns the number of elements.
func (m *Matrix) Len() uint64 { return m.n }

// Access returns the value at position i.
func (m *Matrix) Access(i uint64) uint64 {
	if i >= m.n {
		return 0
	}
	var val uint64
	pos := i
	for lvl := 0; lvl < m.width; lvl++ {
		bit := m.levels[lvl].Get(pos)
		val <<= 1
		if bit {
			val |= 1
			pos = m.zeros[lvl] + m.levels[lvl].Rank1(pos)
		} else {
			pos = pos - m.levels[lvl].Rank1(pos)
		}
	}
	return val
}

// Rank returns the number of occurrences of value v in [0, i).
func (m *Matrix) Rank(v uint64, i uint64) uint64 {
	if i > m.n {
		i = m.n
	}
	lo, hi := uint64(0), i
	for lvl := 0; lvl < m.width; lvl++ {
		bitPos := m.width - 1 - lvl
		bit := (v >> uint(bitPos)) & 1
		bm := m.levels[lvl]
		if bit == 0 {
			lo = lo - bm.Rank1(lo)
			hi = hi - bm.Rank1(hi)
		} else {
			lo = m.zeros[lvl] + bm.Rank1(lo)
			hi = m.zeros[lvl] + bm.Rank1(hi)
		}
	}
	return hi - lo
}

// Select returns the position of the (k+1)-th occurrence of value v, or
// (0, false) if there are fewer than k+1 occurrences.
func (m *Matrix) Select(v uint64, k uint64) (uint64, bool) {
	if m.width == 0 {
		return 0, false
	}
	// Descend to the leaf interval [lo, hi) of all positions with value
	// v, same navigation as Rank over the full range.
	lo, hi := uint64(0), m.n
	for lvl := 0; lvl < m.width; lvl++ {
		bitPos := m.width - 1 - lvl
		bit := (v >> uint(bitPos)) & 1
		bm := m.levels[lvl]
		if bit == 0 {
			lo = lo - bm.Rank1(lo)
			hi = hi - bm.Rank1(hi)
		} else {
			lo = m.zeros[lvl] + bm.Rank1(lo)
			hi = m.zeros[lvl] + bm.Rank1(hi)
		}
	}
	if k >= hi-lo {
		return 0, false
	}
	pos := lo + k

	// Invert the partition level by level, from leaf back up to level 0,
	// to recover the original sequence position.
	for lvl := m.width - 1; lvl >= 0; lvl-- {
		bitPos := m.width - 1 - lvl
		bit := (v >> uint(bitPos)) & 1
		bm := m.levels[lvl]
		var ok bool
		if bit == 0 {
			pos, ok = bm.Select0(pos)
		} else {
			pos, ok = bm.Select1(pos - m.zeros[lvl])
		}
		if !ok {
			return 0, false
		}
	}
	return pos, true
}

// SizeInBytes returns the resident footprint of all level bitmaps.
func (m *Matrix) SizeInBytes() uint64 {
	var total uint64
	for _, l := range m.levels {
		total += l.SizeInBytes()
	}
	return total
}

// Levels exposes the per-level bitmaps and zero counts for the cache
// codec, which serializes them as one concatenated wavelet_y blob.
func (m *Matrix) Levels() ([]*bitmap.Bitmap, []uint64) { return m.levels, m.zeros }

// Serialize encodes the whole matrix (width, n, then each level's bitmap
// serialization) into the single wavelet_y blob the cache format stores.
func (m *Matrix) Serialize() []byte {
	out := []byte{byte(m.width)}
	out = wire.PutUvarint(out, m.n)
	for _, l := range m.levels {
		out = append(out, l.Serialize(3)...)
	}
	return out
}

// Deserialize decodes a matrix previously written by Serialize.
func Deserialize(buf []byte) (*Matrix, bool) {
	if len(buf) < 1 {
		return nil, false
	}
	width := int(buf[0])
	n, k, err := wire.Uvarint(buf[1:])
	if err != nil {
		return nil, false
	}
	off := 1 + k
	m := &Matrix{width: width, n: n}
	if width == 0 {
		return m, true
	}
	m.levels = make([]*bitmap.Bitmap, width)
	m.zeros = make([]uint64, width)
	for lvl := 0; lvl < width; lvl++ {
		bm, _, consumed, ok := bitmap.Deserialize(buf[off:])
		if !ok {
			return nil, false
		}
		m.levels[lvl] = bm
		m.zeros[lvl] = bm.Len() - bm.Popcount()
		off += consumed
	}
	return m, true
}
