package hdt

import "testing"

// TestFullE1 exercises a small fixture's lookups and pattern queries
// against the Full in-memory strategy.
func TestFullE1(t *testing.T) {
	path := buildE1(t)
	a, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	if got := a.NumTriples(); got != 4 {
		t.Fatalf("NumTriples = %d, want 4", got)
	}

	if _, err := a.FindTriple(1, 1, 2); err != nil {
		t.Fatalf("FindTriple(1,1,2): %v", err)
	}
	if _, err := a.FindTriple(1, 1, 99); err != ErrNotFound {
		t.Fatalf("FindTriple(1,1,99) = %v, want ErrNotFound", err)
	}

	// E2: subject 3 does not exist.
	if _, err := a.FindY(3); err != ErrNotFound {
		t.Fatalf("FindY(3) = %v, want ErrNotFound", err)
	}

	// iter_object(1): every triple whose object is 1.
	got := tripleSet(t, a.IterPattern(0, 0, 1))
	want := map[Triple]bool{
		{Subject: 1, Predicate: 1, Object: 1}: true,
		{Subject: 2, Predicate: 1, Object: 1}: true,
	}
	if !equalTripleSets(got, want) {
		t.Fatalf("IterPattern(0,0,1) = %v, want %v", got, want)
	}

	// iter_subject(1): every triple with subject 1.
	got = tripleSet(t, a.IterPattern(1, 0, 0))
	want = map[Triple]bool{
		{Subject: 1, Predicate: 1, Object: 1}: true,
		{Subject: 1, Predicate: 1, Object: 2}: true,
		{Subject: 1, Predicate: 2, Object: 3}: true,
	}
	if !equalTripleSets(got, want) {
		t.Fatalf("IterPattern(1,0,0) = %v, want %v", got, want)
	}
}

// TestFullE3 checks the pattern ?P? for p=1 against the fixture.
func TestFullE3(t *testing.T) {
	path := buildE1(t)
	a, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	got := tripleSet(t, a.IterPattern(0, 1, 0))
	want := map[Triple]bool{
		{Subject: 1, Predicate: 1, Object: 1}: true,
		{Subject: 1, Predicate: 1, Object: 2}: true,
		{Subject: 2, Predicate: 1, Object: 1}: true,
	}
	if !equalTripleSets(got, want) {
		t.Fatalf("IterPattern(0,1,0) = %v, want %v", got, want)
	}
}

func TestFullIterAll(t *testing.T) {
	path := buildE1(t)
	a, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	got := tripleSet(t, a.IterAll())
	if len(got) != 4 {
		t.Fatalf("IterAll yielded %d triples, want 4", len(got))
	}
}

func equalTripleSets(a, b map[Triple]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
