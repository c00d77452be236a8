package hdt

import (
	"io"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/hdtio/triplecore/internal/wire"
)

// streamBitmap is a bitmap whose bits are never materialized resident:
// every Rank1/Select1 call seeks and reads through sharedReader instead
// of consulting sample tables. File-Based and Minimal-Streaming both use
// it for bitmap_y and bitmap_z.
//
// Rank1 is O(i) and Select1 is O(L); both are acceptable here because
// the strategies that use streamBitmap accept O(log T) or worse per
// query in exchange for O(1) memory, and because a streamBitmap never
// backs the wavelet matrix (which needs Select0 and is simply not
// built by these two strategies).
type streamBitmap struct {
	r          *sharedReader
	dataOffset int64
	nBits      uint64
	pop        uint64
}

// newStreamBitmap reads the whole bitmap payload once to check it
// against its trailing CRC32 — the same check bitmap.Deserialize
// performs for a fully resident bitmap — before computing its
// popcount. A corrupted streamed bitmap fails here, at open time,
// rather than silently miscounting on the first Rank1/Select1 call.
func newStreamBitmap(r *sharedReader, meta subsectionMeta) (*streamBitmap, error) {
	nBytes := int64((meta.nBits + 7) / 8)
	buf := make([]byte, nBytes+4)
	if _, err := io.ReadFull(io.NewSectionReader(r, meta.dataOffset, int64(len(buf))), buf); err != nil {
		return nil, errors.Wrap(err, "hdt: reading bitmap payload for CRC32 check")
	}
	if wire.CRC32(buf[:nBytes]) != wire.Uint32(buf[nBytes:]) {
		return nil, ErrMalformedFile
	}

	sb := &streamBitmap{r: r, dataOffset: meta.dataOffset, nBits: meta.nBits}
	pop, err := sb.Rank1(meta.nBits)
	if err != nil {
		return nil, err
	}
	sb.pop = pop
	return sb, nil
}

func (sb *streamBitmap) Len() uint64     { return sb.nBits }
func (sb *streamBitmap) Popcount() uint64 { return sb.pop }

// Get reads a single bit.
func (sb *streamBitmap) Get(i uint64) (bool, error) {
	if i >= sb.nBits {
		return false, nil
	}
	var b [1]byte
	n, err := sb.r.ReadAt(b[:], sb.dataOffset+int64(i/8))
	if err != nil && n == 0 {
		return false, errors.Wrap(err, "hdt: reading bitmap bit")
	}
	return b[0]&(1<<(i%8)) != 0, nil
}

// Rank1 returns the number of set bits in [0, i), streaming whole bytes
// from the start of the bitmap.
func (sb *streamBitmap) Rank1(i uint64) (uint64, error) {
	if i > sb.nBits {
		i = sb.nBits
	}
	nBytes := i / 8
	buf := make([]byte, nBytes)
	if nBytes > 0 {
		n, err := sb.r.ReadAt(buf, sb.dataOffset)
		if err != nil && uint64(n) < nBytes {
			return 0, errors.Wrap(err, "hdt: reading bitmap range")
		}
	}
	var rank uint64
	for _, b := range buf {
		rank += uint64(bits.OnesCount8(b))
	}
	if rem := i % 8; rem != 0 {
		var last [1]byte
		n, err := sb.r.ReadAt(last[:], sb.dataOffset+int64(nBytes))
		if err != nil && n == 0 {
			return 0, errors.Wrap(err, "hdt: reading bitmap tail byte")
		}
		rank += uint64(bits.OnesCount8(last[0] & byte((1<<rem)-1)))
	}
	return rank, nil
}

// Select1 returns the 0-based index of the (k+1)-th set bit, scanning
// byte by byte from the start of the bitmap.
func (sb *streamBitmap) Select1(k uint64) (uint64, error) {
	if k >= sb.pop {
		return 0, ErrNotFound
	}
	var seen uint64
	nBytes := (sb.nBits + 7) / 8
	buf := make([]byte, nBytes)
	n, err := sb.r.ReadAt(buf, sb.dataOffset)
	if err != nil && uint64(n) < nBytes {
		return 0, errors.Wrap(err, "hdt: reading bitmap for select")
	}
	for bi, b := range buf {
		c := uint64(bits.OnesCount8(b))
		if seen+c > k {
			need := k - seen + 1
			for bit := 0; bit < 8; bit++ {
				if b&(1<<bit) != 0 {
					need--
					if need == 0 {
						return uint64(bi)*8 + uint64(bit), nil
					}
				}
			}
		}
		seen += c
	}
	return 0, ErrNotFound
}
