// Package testhdt builds synthetic, on-disk HDT Triples sections for
// tests: it implements just enough of a writer, mirrored from the
// package root's reader, to produce small fixtures without depending on
// a real HDT toolchain.
package testhdt

import (
	"os"

	"github.com/hdtio/triplecore/internal/bitmap"
	"github.com/hdtio/triplecore/internal/bitpack"
	"github.com/hdtio/triplecore/internal/wire"
)

// Triple mirrors hdt.Triple without importing the root package, keeping
// this package free to be imported from the root package's own tests.
type Triple struct {
	S, P, O uint64
}

// Built holds the encoded bitmap_y/sequence_y/bitmap_z/sequence_z arrays
// a test can inspect directly, plus the section's encoded bytes.
type Built struct {
	Order         byte
	NumTriples    uint64
	SubjectCount  uint64
	BitmapY       []bool
	SequenceY     []uint64
	BitmapZ       []bool
	SequenceZ     []uint64
	SectionBytes  []byte
	ControlInfoLen int
}

func bitsFor(max uint64) uint {
	w := uint(0)
	for (uint64(1) << w) <= max {
		w++
	}
	if w == 0 {
		w = 1
	}
	return w
}

// BuildSPO builds a Triples section in SPO order from already-sorted
// triples (sorted by subject, then predicate, then object — the caller's
// responsibility, matching the writer invariant the reader relies on).
func BuildSPO(order byte, triples []Triple) *Built {
	b := &Built{Order: order, NumTriples: uint64(len(triples))}

	i := 0
	n := len(triples)
	var maxSubject uint64
	for i < n {
		x := triples[i].S
		if x > maxSubject {
			maxSubject = x
		}
		b.BitmapY = append(b.BitmapY, true)
		j := i
		for j < n && triples[j].S == x {
			y := triples[j].P
			b.SequenceY = append(b.SequenceY, y)
			if j > i {
				b.BitmapY = append(b.BitmapY, false)
			}
			b.BitmapZ = append(b.BitmapZ, true)
			k := j
			for k < n && triples[k].S == x && triples[k].P == y {
				b.SequenceZ = append(b.SequenceZ, triples[k].O)
				if k > j {
					b.BitmapZ = append(b.BitmapZ, false)
				}
				k++
			}
			j = k
		}
		i = j
	}
	b.SubjectCount = maxSubject

	b.SectionBytes = b.encode()
	return b
}

func (b *Built) encode() []byte {
	var out []byte

	// ControlInfo: type byte (2=Triples); vbyte-length-prefixed format
	// URI; vbyte-length-prefixed properties string; CRC8 over all of
	// the above.
	formatURI := []byte("hdt:triplesBitmap")
	props := []byte{}
	props = append(props, []byte("order=")...)
	props = append(props, byte('0'+b.Order))
	props = append(props, ';')

	ci := []byte{2}
	ci = wire.PutUvarint(ci, uint64(len(formatURI)))
	ci = append(ci, formatURI...)
	ci = wire.PutUvarint(ci, uint64(len(props)))
	ci = append(ci, props...)
	ci = append(ci, wire.CRC8(ci))
	b.ControlInfoLen = len(ci)
	out = append(out, ci...)

	bmY := boolsToBitmap(b.BitmapY)
	out = append(out, bmY.Serialize(1)...)

	wY := bitsFor(maxU64(b.SequenceY))
	seqY, _ := bitpack.NewResident(b.SequenceY, wY)
	out = append(out, seqY.Serialize(2)...)

	bmZ := boolsToBitmap(b.BitmapZ)
	out = append(out, bmZ.Serialize(1)...)

	wZ := bitsFor(maxU64(b.SequenceZ))
	seqZ, _ := bitpack.NewResident(b.SequenceZ, wZ)
	out = append(out, seqZ.Serialize(2)...)

	return out
}

func boolsToBitmap(bits []bool) *bitmap.Bitmap {
	b := bitmap.NewBuilder()
	for _, bit := range bits {
		b.Add(bit)
	}
	return b.Build()
}

func maxU64(vs []uint64) uint64 {
	var m uint64
	for _, v := range vs {
		if v > m {
			m = v
		}
	}
	return m
}

// WriteFile writes the encoded section to path, returning the byte
// offset at which each of the four subsections begins (for tests that
// exercise file-backed strategies directly).
func (b *Built) WriteFile(path string) error {
	return os.WriteFile(path, b.SectionBytes, 0o644)
}
