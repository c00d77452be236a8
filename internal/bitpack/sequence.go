// Package bitpack implements a bit-packed integer sequence: fixed-width
// integers concatenated LSB-first across a word stream, with a resident
// (in-memory) and a file-backed variant that implement one identical
// Sequence contract.
package bitpack

import (
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/hdtio/triplecore/internal/wire"
)

// ErrUnsupportedWidth is returned when a sequence width falls outside
// [1, 64].
var ErrUnsupportedWidth = errors.New("bitpack: width must be in [1,64]")

// ErrCorrupt is returned when a file-backed sequence's payload doesn't
// match its trailing CRC32, the same check Deserialize performs for a
// fully resident sequence.
var ErrCorrupt = errors.New("bitpack: CRC32 mismatch")

// maxWordReadBytes bounds a single file-backed get() read, per the
// original HDT implementation's compact_vector_access.rs: a W<=64 entry
// never straddles more than two 64-bit words, i.e. never needs more than
// 16 bytes from disk.
const maxWordReadBytes = 16

// Sequence is the contract both the resident and file-backed bit-packed
// sequences satisfy. Out-of-range Get calls return 0; callers must check
// against Len themselves.
type Sequence interface {
	Get(i uint64) uint64
	// GetChecked is the fallible counterpart to Get; Resident always
	// returns a nil error, FileBacked may return an I/O error.
	GetChecked(i uint64) (uint64, error)
	Len() uint64
	Width() uint
	SizeInBytes() uint64
}

// mask returns the W-bit mask (1<<W)-1, handling W==64.
func mask(w uint) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << w) - 1
}

// Resident is an in-memory bit-packed sequence backed by a []uint64 word
// array.
type Resident struct {
	words []uint64
	n     uint64
	w     uint
	m     uint64
}

// NewResident packs values (each assumed to fit in w bits) into a new
// Resident sequence.
func NewResident(values []uint64, w uint) (*Resident, error) {
	if w == 0 || w > 64 {
		return nil, ErrUnsupportedWidth
	}
	n := uint64(len(values))
	nWords := (n*uint64(w) + 63) / 64
	if nWords == 0 {
		nWords = 1
	}
	// One guard word so Get's two-word read never runs off the end.
	words := make([]uint64, nWords+1)
	s := &Resident{words: words, n: n, w: w, m: mask(w)}
	for i, v := range values {
		s.set(uint64(i), v)
	}
	return s, nil
}

// NewResidentFromWords wraps an already bit-packed word array (e.g.
// decoded from a cache file or an HDT Sequence subsection) as a Resident
// sequence with n entries of width w.
func NewResidentFromWords(words []uint64, n uint64, w uint) (*Resident, error) {
	if w == 0 || w > 64 {
		return nil, ErrUnsupportedWidth
	}
	// Guarantee the guard word table.go-style two-word reads rely on.
	needed := (n*uint64(w)+63)/64 + 1
	if uint64(len(words)) < needed {
		padded := make([]uint64, needed)
		copy(padded, words)
		words = padded
	}
	return &Resident{words: words, n: n, w: w, m: mask(w)}, nil
}

func (s *Resident) set(i, v uint64) {
	bo := i * uint64(s.w)
	wi := bo / 64
	bi := uint(bo % 64)
	v &= s.m
	s.words[wi] |= v << bi
	if bi+s.w > 64 {
		s.words[wi+1] |= v >> (64 - bi)
	}
}

// Get implements Sequence. It follows the standard two-word extraction:
// bo = i*W, wi = bo/64, bi = bo%64.
func (s *Resident) Get(i uint64) uint64 {
	if i >= s.n {
		return 0
	}
	bo := i * uint64(s.w)
	wi := bo / 64
	bi := uint(bo % 64)
	lo := s.words[wi] >> bi
	if bi+s.w <= 64 || wi+1 >= uint64(len(s.words)) {
		return lo & s.m
	}
	hi := s.words[wi+1] << (64 - bi)
	return (lo | hi) & s.m
}

// GetChecked implements Sequence; a resident sequence never fails.
func (s *Resident) GetChecked(i uint64) (uint64, error) { return s.Get(i), nil }

func (s *Resident) Len() uint64         { return s.n }
func (s *Resident) Width() uint         { return s.w }
func (s *Resident) SizeInBytes() uint64 { return uint64(len(s.words)) * 8 }

// Words exposes the underlying word array, for the cache codec (C8) to
// serialize byte-identically.
func (s *Resident) Words() []uint64 { return s.words }

// Reader is the minimal file interface a FileBacked sequence needs; it is
// satisfied by *os.File and by the shared reader in package hdt's
// internal reader wrapper.
type Reader interface {
	ReadAt(p []byte, off int64) (int, error)
}

// FileBacked is a bit-packed sequence whose data lives on disk; Get seeks
// and reads at most maxWordReadBytes bytes per call behind mu, mirroring
// table.Table's ReadAt-guarded block access.
type FileBacked struct {
	mu         *sync.Mutex
	r          Reader
	dataOffset int64
	n          uint64
	w          uint
	m          uint64
}

// NewFileBacked describes a sequence of n entries of width w whose packed
// bytes start at dataOffset within r. mu must be the same mutex guarding
// all other accessors sharing r (one mutex-guarded reader per open
// file). The payload is read once here and checked against its
// trailing CRC32, so a corrupted streamed sequence fails at open time
// the same way Deserialize fails a fully resident one.
func NewFileBacked(r Reader, mu *sync.Mutex, dataOffset int64, n uint64, w uint) (*FileBacked, error) {
	if w == 0 || w > 64 {
		return nil, ErrUnsupportedWidth
	}
	nBytes := int64((n*uint64(w) + 7) / 8)
	buf := make([]byte, nBytes+4)
	mu.Lock()
	_, err := io.ReadFull(io.NewSectionReader(r, dataOffset, int64(len(buf))), buf)
	mu.Unlock()
	if err != nil {
		return nil, errors.Wrap(err, "bitpack: reading sequence payload for CRC32 check")
	}
	if wire.CRC32(buf[:nBytes]) != wire.Uint32(buf[nBytes:]) {
		return nil, ErrCorrupt
	}
	return &FileBacked{mu: mu, r: r, dataOffset: dataOffset, n: n, w: w, m: mask(w)}, nil
}

// Get implements Sequence. On I/O error it returns 0; use GetChecked for
// a fallible accessor that surfaces the I/O error instead.
func (s *FileBacked) Get(i uint64) uint64 {
	v, _ := s.GetChecked(i)
	return v
}

// GetChecked is the fallible counterpart to Get, used by strategies whose
// contract permits I/O errors.
func (s *FileBacked) GetChecked(i uint64) (uint64, error) {
	if i >= s.n {
		return 0, nil
	}
	bo := i * uint64(s.w)
	byteOff := bo / 8
	bitShift := uint(bo % 8)
	nBytes := (bitShift + s.w + 7) / 8
	if nBytes > maxWordReadBytes {
		nBytes = maxWordReadBytes
	}

	buf := make([]byte, maxWordReadBytes)
	s.mu.Lock()
	n, err := s.r.ReadAt(buf[:nBytes], s.dataOffset+int64(byteOff))
	s.mu.Unlock()
	if err != nil && n == 0 {
		return 0, errors.Wrap(err, "bitpack: reading sequence entry")
	}

	var words [2]uint64
	for b := 0; b < n && b < 8; b++ {
		words[0] |= uint64(buf[b]) << (8 * b)
	}
	for b := 8; b < n && b < 16; b++ {
		words[1] |= uint64(buf[b]) << (8 * (b - 8))
	}
	lo := words[0] >> bitShift
	if bitShift+s.w <= 64 {
		return lo & s.m, nil
	}
	hi := words[1] << (64 - bitShift)
	return (lo | hi) & s.m, nil
}

func (s *FileBacked) Len() uint64 { return s.n }
func (s *FileBacked) Width() uint { return s.w }
func (s *FileBacked) SizeInBytes() uint64 {
	// Only the (offset, n, w) triple is resident; the packed data stays
	// on disk, per the Hybrid/Indexed/Minimal/File-Based strategies.
	return 8 + 8 + 1
}

// Meta returns (dataOffset, n, w), the only parts of a file-backed
// sequence kept resident.
func (s *FileBacked) Meta() (int64, uint64, uint) { return s.dataOffset, s.n, s.w }

// Serialize encodes the whole sequence as: type byte; W (1 byte); N
// (vbyte); CRC8; packed data (ceil(N*W/8) bytes); CRC32.
func (s *Resident) Serialize(typeTag byte) []byte {
	header := []byte{typeTag, byte(s.w)}
	header = wire.PutUvarint(header, s.n)
	crc8 := wire.CRC8(header)

	nBytes := (s.n*uint64(s.w) + 7) / 8
	raw := make([]byte, nBytes)
	for i, word := range s.words {
		for b := 0; b < 8 && uint64(i*8+b) < nBytes; b++ {
			raw[i*8+b] = byte(word >> (8 * b))
		}
	}

	out := make([]byte, 0, len(header)+1+len(raw)+4)
	out = append(out, header...)
	out = append(out, crc8)
	out = append(out, raw...)
	out = wire.PutUint32(out, wire.CRC32(raw))
	return out
}

// Deserialize decodes a sequence subsection previously written by
// Serialize, returning the sequence, its type tag, and the number of
// bytes consumed from buf. CRC8/CRC32 mismatches and an unsupported
// width both report ok=false.
func Deserialize(buf []byte) (seq *Resident, typeTag byte, consumed int, ok bool) {
	if len(buf) < 3 {
		return nil, 0, 0, false
	}
	typeTag = buf[0]
	w := uint(buf[1])
	if w == 0 || w > 64 {
		return nil, 0, 0, false
	}
	n, k, err := wire.Uvarint(buf[2:])
	if err != nil {
		return nil, 0, 0, false
	}
	headerLen := 2 + k
	if len(buf) < headerLen+1 {
		return nil, 0, 0, false
	}
	gotCRC8 := buf[headerLen]
	if wire.CRC8(buf[:headerLen]) != gotCRC8 {
		return nil, 0, 0, false
	}

	nBytes := int((n*uint64(w) + 7) / 8)
	dataStart := headerLen + 1
	if len(buf) < dataStart+nBytes+4 {
		return nil, 0, 0, false
	}
	raw := buf[dataStart : dataStart+nBytes]
	gotCRC32 := wire.Uint32(buf[dataStart+nBytes:])
	if wire.CRC32(raw) != gotCRC32 {
		return nil, 0, 0, false
	}

	words := make([]uint64, (n*uint64(w)+63)/64+1)
	for i := 0; i < nBytes; i++ {
		words[i/8] |= uint64(raw[i]) << (8 * (i % 8))
	}

	seq, err = NewResidentFromWords(words, n, w)
	if err != nil {
		return nil, 0, 0, false
	}
	return seq, typeTag, dataStart + nBytes + 4, true
}
