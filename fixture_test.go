package hdt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hdtio/triplecore/internal/testhdt"
)

// e1Triples returns a tiny SPO fixture of four triples exercising two
// subjects, two predicates, and an object (1) shared across both
// subjects.
func e1Triples() []testhdt.Triple {
	return []testhdt.Triple{
		{S: 1, P: 1, O: 1},
		{S: 1, P: 1, O: 2},
		{S: 1, P: 2, O: 3},
		{S: 2, P: 1, O: 1},
	}
}

// buildE1 writes E1 as an SPO-ordered Triples section under t.TempDir()
// and returns its path.
func buildE1(t *testing.T) string {
	t.Helper()
	built := testhdt.BuildSPO(byte(OrderSPO), e1Triples())
	path := filepath.Join(t.TempDir(), "e1.hdt")
	if err := built.WriteFile(path); err != nil {
		t.Fatalf("writing E1 fixture: %v", err)
	}
	return path
}

// tripleSet collects a TripleIterator's output as a map for
// order-independent comparison.
func tripleSet(t *testing.T, it TripleIterator) map[Triple]bool {
	t.Helper()
	out := map[Triple]bool{}
	for it.Next() {
		out[it.Triple()] = true
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	it.Close()
	return out
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return b
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
