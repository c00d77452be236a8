package hdt

import "testing"

func TestMinimalE1(t *testing.T) {
	path := buildE1(t)
	a, err := OpenMinimal(path, nil)
	if err != nil {
		t.Fatalf("OpenMinimal: %v", err)
	}
	defer a.Close()

	if got := a.NumTriples(); got != 4 {
		t.Fatalf("NumTriples = %d, want 4", got)
	}
	if _, err := a.FindTriple(1, 1, 2); err != nil {
		t.Fatalf("FindTriple(1,1,2): %v", err)
	}
	if _, err := a.FindY(3); err != ErrNotFound {
		t.Fatalf("FindY(3) = %v, want ErrNotFound", err)
	}

	got := tripleSet(t, a.IterAll())
	if len(got) != 4 {
		t.Fatalf("IterAll yielded %d triples, want 4", len(got))
	}

	if stats := a.Stats(); stats.Strategy != "minimal-streaming" {
		t.Fatalf("Strategy = %q, want minimal-streaming", stats.Strategy)
	}
}
