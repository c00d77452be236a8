package hdt

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/hdtio/triplecore/internal/bitmap"
	"github.com/hdtio/triplecore/internal/bitpack"
	"github.com/hdtio/triplecore/internal/opindex"
	"github.com/hdtio/triplecore/internal/wavelet"
	"github.com/hdtio/triplecore/internal/wire"
)

// cacheMagic identifies a .hdt.cache file; cacheVersion lets a future
// format change refuse to load an older cache instead of misreading it.
var cacheMagic = [8]byte{'H', 'D', 'T', 'C', 'A', 'C', 'H', 'E'}

const cacheVersion = 1

// cacheStamp ties a cache file to the HDT file it was built from by its
// size and mtime (as Unix nanoseconds); the path is not stored. Any mismatch
// makes LoadCache report errCacheInvalid, never a hard error — a stale
// cache is simply a cold-rebuild signal.
type cacheStamp struct {
	size  int64
	mtime int64
}

func statStamp(path string) (cacheStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return cacheStamp{}, err
	}
	return cacheStamp{size: info.Size(), mtime: info.ModTime().UnixNano()}, nil
}

// cachePayload is everything WriteCache persists besides the header: the
// bitmaps, sequence_y (plain and, optionally, as a wavelet matrix) and
// the OP index that OpenHybrid would otherwise have to reconstruct from
// the HDT file on every Open.
type cachePayload struct {
	order     Order
	bitmapY   *bitmap.Bitmap
	bitmapZ   *bitmap.Bitmap
	waveletY  *wavelet.Matrix // nil if not built
	seqY      *bitpack.Resident
	opBitmap  *bitmap.Bitmap // nil if OP index not built
	opSeq     *bitpack.Resident
	opObjects uint64
}

// WriteCache serializes payload to cachePath, tagged with hdtPath's
// current (size, mtime) stamp, compressing each blob with zstd.
func WriteCache(cachePath, hdtPath string, payload cachePayload) error {
	stamp, err := statStamp(hdtPath)
	if err != nil {
		return errors.Wrap(err, "hdt: stamping source file")
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return errors.Wrap(err, "hdt: creating zstd encoder")
	}
	defer enc.Close()

	var buf bytes.Buffer
	buf.Write(cacheMagic[:])
	writeU32(&buf, cacheVersion)
	writeI64(&buf, stamp.size)
	writeI64(&buf, stamp.mtime)
	buf.WriteByte(byte(payload.order))

	writeBlob(&buf, enc, payload.bitmapY.Serialize(1))
	writeBlob(&buf, enc, payload.bitmapZ.Serialize(1))
	writeBlob(&buf, enc, payload.seqY.Serialize(2))

	if payload.waveletY != nil {
		buf.WriteByte(1)
		writeBlob(&buf, enc, payload.waveletY.Serialize())
	} else {
		buf.WriteByte(0)
	}

	if payload.opBitmap != nil {
		buf.WriteByte(1)
		writeBlob(&buf, enc, payload.opBitmap.Serialize(1))
		writeBlob(&buf, enc, payload.opSeq.Serialize(2))
		writeU64(&buf, payload.opObjects)
	} else {
		buf.WriteByte(0)
	}

	crc := wire.CRC32(buf.Bytes())
	writeU32(&buf, crc)

	return os.WriteFile(cachePath, buf.Bytes(), 0o644)
}

// LoadCache reads cachePath and validates it against hdtPath's current
// stamp, returning errCacheInvalid (never surfaced past the Open*
// constructors) on any mismatch or corruption rather than a hard error.
func LoadCache(cachePath, hdtPath string) (*cachePayload, error) {
	raw, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, errCacheInvalid
	}
	if len(raw) < 8+4+8+8+1+4 || !bytes.Equal(raw[:8], cacheMagic[:]) {
		return nil, errCacheInvalid
	}
	body := raw[:len(raw)-4]
	gotCRC := wire.Uint32(raw[len(raw)-4:])
	if wire.CRC32(body) != gotCRC {
		return nil, errCacheInvalid
	}

	r := bytes.NewReader(raw[8:])
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil || version != cacheVersion {
		return nil, errCacheInvalid
	}
	var size, mtime int64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, errCacheInvalid
	}
	if err := binary.Read(r, binary.LittleEndian, &mtime); err != nil {
		return nil, errCacheInvalid
	}
	stamp, err := statStamp(hdtPath)
	if err != nil || stamp.size != size || stamp.mtime != mtime {
		return nil, errCacheInvalid
	}

	orderByte, err := r.ReadByte()
	if err != nil {
		return nil, errCacheInvalid
	}
	payload := &cachePayload{order: Order(orderByte)}
	if !payload.order.valid() {
		return nil, errCacheInvalid
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errCacheInvalid
	}
	defer dec.Close()

	bmYBytes, err := readBlob(r, dec)
	if err != nil {
		return nil, errCacheInvalid
	}
	bm, _, _, ok := bitmap.Deserialize(bmYBytes)
	if !ok {
		return nil, errCacheInvalid
	}
	payload.bitmapY = bm

	bmZBytes, err := readBlob(r, dec)
	if err != nil {
		return nil, errCacheInvalid
	}
	bm, _, _, ok = bitmap.Deserialize(bmZBytes)
	if !ok {
		return nil, errCacheInvalid
	}
	payload.bitmapZ = bm

	seqYBytes, err := readBlob(r, dec)
	if err != nil {
		return nil, errCacheInvalid
	}
	seq, _, _, ok := bitpack.Deserialize(seqYBytes)
	if !ok {
		return nil, errCacheInvalid
	}
	payload.seqY = seq

	hasWavelet, err := r.ReadByte()
	if err != nil {
		return nil, errCacheInvalid
	}
	if hasWavelet == 1 {
		wBytes, err := readBlob(r, dec)
		if err != nil {
			return nil, errCacheInvalid
		}
		m, ok := wavelet.Deserialize(wBytes)
		if !ok {
			return nil, errCacheInvalid
		}
		payload.waveletY = m
	}

	hasOP, err := r.ReadByte()
	if err != nil {
		return nil, errCacheInvalid
	}
	if hasOP == 1 {
		opBmBytes, err := readBlob(r, dec)
		if err != nil {
			return nil, errCacheInvalid
		}
		bm, _, _, ok := bitmap.Deserialize(opBmBytes)
		if !ok {
			return nil, errCacheInvalid
		}
		payload.opBitmap = bm

		opSeqBytes, err := readBlob(r, dec)
		if err != nil {
			return nil, errCacheInvalid
		}
		seq, _, _, ok := bitpack.Deserialize(opSeqBytes)
		if !ok {
			return nil, errCacheInvalid
		}
		payload.opSeq = seq

		var objects uint64
		if err := binary.Read(r, binary.LittleEndian, &objects); err != nil {
			return nil, errCacheInvalid
		}
		payload.opObjects = objects
	}

	return payload, nil
}

// OPIndex reassembles the cached op index, if one was built.
func (p *cachePayload) OPIndex() *opindex.Index {
	if p.opBitmap == nil {
		return nil
	}
	return opindex.FromParts(p.opSeq, p.opBitmap, p.opObjects)
}

func writeU32(buf *bytes.Buffer, v uint32) { _ = binary.Write(buf, binary.LittleEndian, v) }
func writeU64(buf *bytes.Buffer, v uint64) { _ = binary.Write(buf, binary.LittleEndian, v) }
func writeI64(buf *bytes.Buffer, v int64)  { _ = binary.Write(buf, binary.LittleEndian, v) }

func writeBlob(buf *bytes.Buffer, enc *zstd.Encoder, raw []byte) {
	compressed := enc.EncodeAll(raw, nil)
	writeU32(buf, uint32(len(compressed)))
	buf.Write(compressed)
}

func readBlob(r *bytes.Reader, dec *zstd.Decoder) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	compressed := make([]byte, n)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}
	return dec.DecodeAll(compressed, nil)
}
