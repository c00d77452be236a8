package hdt

import (
	"path/filepath"
	"testing"

	"github.com/hdtio/triplecore/internal/bitpack"
	"github.com/hdtio/triplecore/internal/opindex"
	"github.com/hdtio/triplecore/internal/wavelet"
)

// buildCacheFor decodes path's Triples section directly (independent of
// any strategy) and writes a .hdt.cache for it, returning the cache's
// path.
func buildCacheFor(t *testing.T, path string) string {
	t.Helper()
	ts, f, err := OpenTripleSection(path)
	if err != nil {
		t.Fatalf("OpenTripleSection: %v", err)
	}
	defer f.Close()

	bitmapY, err := ReadBitmap(f, ts.BitmapY)
	if err != nil {
		t.Fatalf("ReadBitmap(y): %v", err)
	}
	bitmapZ, err := ReadBitmap(f, ts.BitmapZ)
	if err != nil {
		t.Fatalf("ReadBitmap(z): %v", err)
	}
	seqY, err := ReadSequence(f, ts.SequenceY)
	if err != nil {
		t.Fatalf("ReadSequence(y): %v", err)
	}
	seqZ, err := ReadSequence(f, ts.SequenceZ)
	if err != nil {
		t.Fatalf("ReadSequence(z): %v", err)
	}

	values := make([]uint64, seqY.Len())
	for i := range values {
		values[i] = seqY.Get(uint64(i))
	}
	waveletY := wavelet.Build(values, int(seqY.Width()))

	zValues := make([]uint64, seqZ.Len())
	for i := range zValues {
		zValues[i] = seqZ.Get(uint64(i))
	}
	op := opindex.Build(zValues)
	opSeq, ok := op.Sequence().(*bitpack.Resident)
	if !ok {
		t.Fatalf("opindex.Build's sequence is not *bitpack.Resident")
	}

	payload := cachePayload{
		order:     ts.Order,
		bitmapY:   bitmapY,
		bitmapZ:   bitmapZ,
		waveletY:  waveletY,
		seqY:      seqY,
		opBitmap:  op.Bitmap(),
		opSeq:     opSeq,
		opObjects: op.ObjectCount(),
	}

	cachePath := filepath.Join(t.TempDir(), "e1.hdt.cache")
	if err := WriteCache(cachePath, path, payload); err != nil {
		t.Fatalf("WriteCache: %v", err)
	}
	return cachePath
}

// TestCacheRoundTrip decodes the fixture directly, writes a cache, opens
// Hybrid from that cache, and compares every query pattern against
// Full's answers.
func TestCacheRoundTrip(t *testing.T) {
	path := buildE1(t)
	cachePath := buildCacheFor(t, path)

	full, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer full.Close()

	hybrid, err := OpenHybrid(path, &Options{CachePath: cachePath})
	if err != nil {
		t.Fatalf("OpenHybrid from cache: %v", err)
	}
	defer hybrid.Close()

	for _, pat := range patterns() {
		fullSet := tripleSet(t, full.IterPattern(pat.Subject, pat.Predicate, pat.Object))
		hybridSet := tripleSet(t, hybrid.IterPattern(pat.Subject, pat.Predicate, pat.Object))
		if !equalTripleSets(fullSet, hybridSet) {
			t.Fatalf("pattern %+v: hybrid-from-cache = %v, full = %v", pat, hybridSet, fullSet)
		}
	}

	if _, err := hybrid.FindTriple(1, 1, 2); err != nil {
		t.Fatalf("FindTriple(1,1,2) on cached hybrid: %v", err)
	}
}

// TestCacheStaleFallsBack checks that a cache whose stamp no longer
// matches the source file is reported invalid rather than trusted.
func TestCacheStaleFallsBack(t *testing.T) {
	path := buildE1(t)
	cachePath := buildCacheFor(t, path)

	otherPath := buildE1(t)
	if _, err := LoadCache(cachePath, otherPath); err == nil {
		t.Fatalf("LoadCache against a different file succeeded, want errCacheInvalid")
	}
}

// TestCacheCorruptionDetected checks that flipping a byte inside the
// cache payload fails the CRC32 check LoadCache performs.
func TestCacheCorruptionDetected(t *testing.T) {
	path := buildE1(t)
	cachePath := buildCacheFor(t, path)

	raw := readFile(t, cachePath)
	raw[len(raw)/2] ^= 0xFF
	writeFile(t, cachePath, raw)

	if _, err := LoadCache(cachePath, path); err == nil {
		t.Fatalf("LoadCache accepted a corrupted cache")
	}
}
