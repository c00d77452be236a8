// Package wire implements the low-level on-disk framing shared by the
// HDT Triples section reader and the .hdt.cache codec: vbyte integers
// and the CRC8/CRC32 header/payload checksums that guard them.
package wire

import (
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
)

// ErrVByteOverrun is returned when a vbyte sequence runs past a supplied
// byte limit without terminating.
var ErrVByteOverrun = errors.New("wire: vbyte sequence overran buffer")

var crc32Table = crc32.MakeTable(crc32.IEEE)

// CRC32 computes the CRC32 (IEEE polynomial) of data, matching the
// checksum placed after every packed-data payload in the HDT and cache
// formats.
func CRC32(data []byte) uint32 {
	return crc32.Checksum(data, crc32Table)
}

// crc8Table is the standard CRC-8/ATM (polynomial 0x07) lookup table used
// for the short header checksums ahead of each section's packed payload.
var crc8Table = func() [256]byte {
	var t [256]byte
	const poly = 0x07
	for i := 0; i < 256; i++ {
		c := byte(i)
		for b := 0; b < 8; b++ {
			if c&0x80 != 0 {
				c = (c << 1) ^ poly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}()

// CRC8 computes the CRC-8/ATM checksum of data.
func CRC8(data []byte) byte {
	c := byte(0)
	for _, b := range data {
		c = crc8Table[c^b]
	}
	return c
}

// PutUvarint encodes v as a 7-bit little-endian vbyte sequence (MSB=1
// marks the final byte) and appends it to dst, returning the result.
func PutUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// ReadUvarint decodes a vbyte integer from r.
func ReadUvarint(r io.ByteReader) (uint64, error) {
	var x uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "wire: reading vbyte")
		}
		x |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return x, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, ErrVByteOverrun
		}
	}
}

// Uvarint decodes a vbyte integer from the head of buf, returning the
// value and the number of bytes consumed.
func Uvarint(buf []byte) (uint64, int, error) {
	var x uint64
	var shift uint
	for i, b := range buf {
		x |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return x, i + 1, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, ErrVByteOverrun
		}
	}
	return 0, 0, ErrVByteOverrun
}

// PutUint64 appends v to dst in little-endian byte order.
func PutUint64(dst []byte, v uint64) []byte {
	return append(dst,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// Uint64 decodes a little-endian uint64 from the head of buf.
func Uint64(buf []byte) uint64 {
	return uint64(buf[0]) | uint64(buf[1])<<8 | uint64(buf[2])<<16 | uint64(buf[3])<<24 |
		uint64(buf[4])<<32 | uint64(buf[5])<<40 | uint64(buf[6])<<48 | uint64(buf[7])<<56
}

// PutUint32 appends v to dst in little-endian byte order.
func PutUint32(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// Uint32 decodes a little-endian uint32 from the head of buf.
func Uint32(buf []byte) uint32 {
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}
