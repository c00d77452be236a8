package hdt

import (
	"errors"
	"testing"
)

// TestE6CorruptionDetection checks that flipping a bit in sequence_z's
// trailing CRC32 makes every strategy's opener fail with
// ErrMalformedFile: sequence_z always streams unconditionally on the
// four file-backed strategies, so this exercises the CRC32 check both
// full.go's ReadSequence path and bitpack.NewFileBacked's open-time
// check take.
func TestE6CorruptionDetection(t *testing.T) {
	cases := []struct {
		name string
		open func(string, *Options) (TripleAccess, error)
	}{
		{"full", Open},
		{"hybrid", OpenHybrid},
		{"indexed", func(p string, o *Options) (TripleAccess, error) { return OpenIndexed(p, DefaultIndexConfig(), o) }},
		{"minimal", OpenMinimal},
		{"filebased", OpenFileBased},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := buildE1(t)
			raw := readFile(t, path)
			raw[len(raw)-1] ^= 0x01 // last byte of sequence_z's CRC32
			writeFile(t, path, raw)

			if _, err := c.open(path, nil); !errors.Is(err, ErrMalformedFile) {
				t.Fatalf("open on corrupted file = %v, want ErrMalformedFile", err)
			}
		})
	}
}

// TestE2MissingSubject checks that a subject id with no triples reports
// ErrNotFound.
func TestE2MissingSubject(t *testing.T) {
	path := buildE1(t)
	a, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	if _, err := a.FindY(3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindY(3) = %v, want ErrNotFound", err)
	}
}

// TestE5StreamingConformance checks that every streaming strategy
// matches Full on the same query patterns.
func TestE5StreamingConformance(t *testing.T) {
	path := buildE1(t)

	full, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer full.Close()
	fullSet := tripleSet(t, full.IterPattern(0, 1, 0))

	for name, open := range map[string]func(string, *Options) (TripleAccess, error){
		"file-based": OpenFileBased,
		"minimal":    OpenMinimal,
		"hybrid":     OpenHybrid,
	} {
		a, err := open(path, nil)
		if err != nil {
			t.Fatalf("%s: open: %v", name, err)
		}
		got := tripleSet(t, a.IterPattern(0, 1, 0))
		a.Close()
		if !equalTripleSets(got, fullSet) {
			t.Fatalf("%s = %v, want %v", name, got, fullSet)
		}
	}
}
