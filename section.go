package hdt

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hdtio/triplecore/internal/bitmap"
	"github.com/hdtio/triplecore/internal/bitpack"
	"github.com/hdtio/triplecore/internal/wire"
)

// controlInfoTriples is the type byte a Triples section's ControlInfo
// block is tagged with. There is no published byte grammar for
// ControlInfo in this retrieval pack's reference material, so this
// reader defines its own self-consistent one: type byte; vbyte-prefixed
// format URI; vbyte-prefixed ';'-joined key=value properties; CRC8 over
// everything before it.
const controlInfoTriples = 2

// controlInfo is the decoded header preceding the four Triples
// subsections.
type controlInfo struct {
	formatURI string
	props     map[string]string
	order     Order
}

func parseControlInfo(r io.Reader) (controlInfo, int, error) {
	ci := controlInfo{props: map[string]string{}}

	br := &countingReader{r: r}
	typeByte, err := readByte(br)
	if err != nil {
		return ci, br.n, errors.Wrap(err, "hdt: reading ControlInfo type")
	}
	if typeByte != controlInfoTriples {
		return ci, br.n, errors.Wrapf(ErrMalformedFile, "unexpected ControlInfo type %d", typeByte)
	}

	uriLen, err := wire.ReadUvarint(br)
	if err != nil {
		return ci, br.n, errors.Wrap(err, "hdt: reading ControlInfo format URI length")
	}
	uriBytes := make([]byte, uriLen)
	if _, err := io.ReadFull(br, uriBytes); err != nil {
		return ci, br.n, errors.Wrap(err, "hdt: reading ControlInfo format URI")
	}
	ci.formatURI = string(uriBytes)

	propLen, err := wire.ReadUvarint(br)
	if err != nil {
		return ci, br.n, errors.Wrap(err, "hdt: reading ControlInfo properties length")
	}
	propBytes := make([]byte, propLen)
	if _, err := io.ReadFull(br, propBytes); err != nil {
		return ci, br.n, errors.Wrap(err, "hdt: reading ControlInfo properties")
	}
	for _, kv := range strings.Split(string(propBytes), ";") {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			ci.props[parts[0]] = parts[1]
		}
	}

	gotCRC8, err := readByte(br)
	if err != nil {
		return ci, br.n, errors.Wrap(err, "hdt: reading ControlInfo CRC8")
	}
	// br.payload mirrors every byte read so far, including the CRC8 byte
	// itself as the last entry; the check covers everything before it.
	wantCRC8 := wire.CRC8(br.payload[:len(br.payload)-1])
	if gotCRC8 != wantCRC8 {
		return ci, br.n, ErrMalformedFile
	}

	if orderStr, ok := ci.props["order"]; ok {
		n, err := strconv.Atoi(orderStr)
		if err != nil {
			return ci, br.n, errors.Wrap(ErrMalformedFile, "hdt: non-numeric order property")
		}
		ci.order = Order(n)
		if !ci.order.valid() {
			return ci, br.n, badOrderError(byte(n))
		}
	} else {
		return ci, br.n, errors.Wrap(ErrMalformedFile, "hdt: ControlInfo missing order property")
	}

	return ci, br.n, nil
}

// countingReader tracks total bytes consumed and mirrors every read byte
// into payload, so the CRC8 check can cover exactly what was read
// without a second pass over the source.
type countingReader struct {
	r       io.Reader
	n       int
	payload []byte
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	c.payload = append(c.payload, p[:n]...)
	return n, err
}

// ReadByte lets countingReader satisfy io.ByteReader, so ControlInfo
// parsing can use wire.ReadUvarint directly instead of its own vbyte
// loop.
func (c *countingReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(c, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// subsectionMeta records where one of the four Triples subsections
// lives in the file without requiring its payload to be resident:
// dataOffset is the absolute byte offset of the packed payload (right
// after the subsection's own header+CRC8), totalLen is the full
// subsection length including its trailing CRC32.
type subsectionMeta struct {
	typeTag byte

	// start is the absolute offset of the subsection's own header (its
	// type byte), dataOffset the offset of its packed payload, totalLen
	// its full length including the trailing CRC32 — so the whole
	// subsection is file[start : start+totalLen] and the payload alone
	// is file[dataOffset : dataOffset+totalLen-(dataOffset-start)-4].
	start      int64
	dataOffset int64
	totalLen   int64

	// Bitmap subsections set nBits; sequence subsections set n and w.
	nBits uint64
	n     uint64
	w     uint
}

// peekBitmapHeader reads just a bitmap subsection's header (no payload)
// starting at offset, returning its metadata.
func peekBitmapHeader(r io.ReaderAt, offset int64) (subsectionMeta, error) {
	head := make([]byte, 11) // type(1) + vbyte(<=10)
	n, err := r.ReadAt(head, offset)
	if err != nil && n == 0 {
		return subsectionMeta{}, errors.Wrap(err, "hdt: reading bitmap header")
	}
	head = head[:n]
	if len(head) < 2 {
		return subsectionMeta{}, ErrMalformedFile
	}
	typeTag := head[0]
	nBits, k, err := wire.Uvarint(head[1:])
	if err != nil {
		return subsectionMeta{}, errors.Wrap(ErrMalformedFile, "hdt: bitmap length vbyte")
	}
	headerLen := int64(1 + k)
	nBytes := int64((nBits + 7) / 8)
	return subsectionMeta{
		typeTag:    typeTag,
		start:      offset,
		dataOffset: offset + headerLen + 1,
		totalLen:   headerLen + 1 + nBytes + 4,
		nBits:      nBits,
	}, nil
}

// peekSequenceHeader reads a sequence subsection's header starting at
// offset.
func peekSequenceHeader(r io.ReaderAt, offset int64) (subsectionMeta, error) {
	head := make([]byte, 12) // type(1) + width(1) + vbyte(<=10)
	n, err := r.ReadAt(head, offset)
	if err != nil && n == 0 {
		return subsectionMeta{}, errors.Wrap(err, "hdt: reading sequence header")
	}
	head = head[:n]
	if len(head) < 3 {
		return subsectionMeta{}, ErrMalformedFile
	}
	typeTag := head[0]
	w := uint(head[1])
	if w == 0 || w > 64 {
		return subsectionMeta{}, ErrUnsupportedEncoding
	}
	entries, k, err := wire.Uvarint(head[2:])
	if err != nil {
		return subsectionMeta{}, errors.Wrap(ErrMalformedFile, "hdt: sequence length vbyte")
	}
	headerLen := int64(2 + k)
	nBytes := int64((entries*uint64(w) + 7) / 8)
	return subsectionMeta{
		typeTag:    typeTag,
		start:      offset,
		dataOffset: offset + headerLen + 1,
		totalLen:   headerLen + 1 + nBytes + 4,
		n:          entries,
		w:          w,
	}, nil
}

// TripleSection is the parsed, on-disk layout of one Triples section: a
// ControlInfo block followed by bitmap_y, sequence_y, bitmap_z,
// sequence_z in that fixed order. Its subsection
// fields are metadata only — use ReadBitmap/ReadSequence to materialize
// any of them, or stream through the accessor each strategy builds over
// this metadata directly.
type TripleSection struct {
	Order Order

	BitmapY   subsectionMeta
	SequenceY subsectionMeta
	BitmapZ   subsectionMeta
	SequenceZ subsectionMeta

	// controlInfoLen is the ControlInfo block's byte length, i.e. the
	// offset at which bitmap_y begins.
	controlInfoLen int64
}

// OpenTripleSection opens path and parses the ControlInfo and all four
// subsection headers (not their payloads). The caller owns the returned
// *os.File and must Close it.
func OpenTripleSection(path string) (*TripleSection, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "hdt: opening triples section")
	}

	head := make([]byte, 256)
	n, err := f.ReadAt(head, 0)
	if err != nil && n == 0 {
		f.Close()
		return nil, nil, errors.Wrap(err, "hdt: reading ControlInfo")
	}
	ci, consumed, err := parseControlInfo(bytes.NewReader(head[:n]))
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	ts := &TripleSection{Order: ci.order, controlInfoLen: int64(consumed)}

	off := ts.controlInfoLen
	ts.BitmapY, err = peekBitmapHeader(f, off)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	off += ts.BitmapY.totalLen

	ts.SequenceY, err = peekSequenceHeader(f, off)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	off += ts.SequenceY.totalLen

	ts.BitmapZ, err = peekBitmapHeader(f, off)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	off += ts.BitmapZ.totalLen

	ts.SequenceZ, err = peekSequenceHeader(f, off)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	return ts, f, nil
}

// NumTriples returns T, read directly from sequence_z's entry count
// without materializing it.
func (ts *TripleSection) NumTriples() uint64 { return ts.SequenceZ.n }

// translateCorrupt maps a file-backed accessor's CRC32 failure to
// ErrMalformedFile, the sentinel callers already check with errors.Is
// for a subsection that was fully decoded instead of streamed.
func translateCorrupt(err error) error {
	if errors.Is(err, bitpack.ErrCorrupt) {
		return ErrMalformedFile
	}
	return err
}

// ReadBitmap fully materializes one of the section's two bitmap
// subsections, used by the Full and Hybrid strategies.
func ReadBitmap(f *os.File, meta subsectionMeta) (*bitmap.Bitmap, error) {
	buf := make([]byte, meta.totalLen)
	if _, err := io.ReadFull(io.NewSectionReader(f, meta.start, meta.totalLen), buf); err != nil {
		return nil, errors.Wrap(err, "hdt: reading bitmap payload")
	}
	bm, _, _, ok := bitmap.Deserialize(buf)
	if !ok {
		return nil, ErrMalformedFile
	}
	return bm, nil
}

// ReadSequence fully materializes one of the section's two sequence
// subsections, used by the Full and Hybrid strategies.
func ReadSequence(f *os.File, meta subsectionMeta) (*bitpack.Resident, error) {
	buf := make([]byte, meta.totalLen)
	if _, err := io.ReadFull(io.NewSectionReader(f, meta.start, meta.totalLen), buf); err != nil {
		return nil, errors.Wrap(err, "hdt: reading sequence payload")
	}
	seq, _, _, ok := bitpack.Deserialize(buf)
	if !ok {
		return nil, ErrMalformedFile
	}
	return seq, nil
}
