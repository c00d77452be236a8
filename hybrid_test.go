package hdt

import "testing"

func TestHybridE1(t *testing.T) {
	path := buildE1(t)
	a, err := OpenHybrid(path, nil)
	if err != nil {
		t.Fatalf("OpenHybrid: %v", err)
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

	got := tripleSet(t, a.IterPattern(0, 1, 0))
	want := map[Triple]bool{
		{Subject: 1, Predicate: 1, Object: 1}: true,
		{Subject: 1, Predicate: 1, Object: 2}: true,
		{Subject: 2, Predicate: 1, Object: 1}: true,
	}
	if !equalTripleSets(got, want) {
		t.Fatalf("IterPattern(0,1,0) = %v, want %v", got, want)
	}

	stats := a.Stats()
	if stats.Strategy != "hybrid" {
		t.Fatalf("Strategy = %q, want hybrid", stats.Strategy)
	}
}

func TestHybridClose(t *testing.T) {
	path := buildE1(t)
	a, err := OpenHybrid(path, nil)
	if err != nil {
		t.Fatalf("OpenHybrid: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
