package hdt

import "testing"

// openers lists every strategy under one name, for conformance tests
// that assert they all agree.
func openers() map[string]func(string, *Options) (TripleAccess, error) {
	return map[string]func(string, *Options) (TripleAccess, error){
		"full":     Open,
		"hybrid":   OpenHybrid,
		"indexed":  func(p string, o *Options) (TripleAccess, error) { return OpenIndexed(p, DefaultIndexConfig(), o) },
		"minimal":  OpenMinimal,
		"filebased": OpenFileBased,
	}
}

// patterns covers every bound/unbound shape over the fixture's id
// space.
func patterns() []Triple {
	return []Triple{
		{Subject: 1, Predicate: 1, Object: 1}, // SPO
		{Subject: 1, Predicate: 1, Object: 0}, // SP?
		{Subject: 1, Predicate: 0, Object: 3}, // S?O
		{Subject: 1, Predicate: 0, Object: 0}, // S??
		{Subject: 0, Predicate: 1, Object: 0}, // ?P?
		{Subject: 0, Predicate: 1, Object: 1}, // ?PO
		{Subject: 0, Predicate: 0, Object: 1}, // ??O
		{Subject: 0, Predicate: 0, Object: 0}, // ???
	}
}

func TestConformanceAllStrategiesAgree(t *testing.T) {
	path := buildE1(t)

	full, err := Open(path, nil)
	if err != nil {
		t.Fatalf("full: open: %v", err)
	}
	defer full.Close()

	baseline := map[Triple]map[Triple]bool{}
	for _, pat := range patterns() {
		baseline[pat] = tripleSet(t, full.IterPattern(pat.Subject, pat.Predicate, pat.Object))
	}

	for name, open := range openers() {
		if name == "full" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			a, err := open(path, nil)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer a.Close()

			for _, pat := range patterns() {
				pat := pat
				t.Run(patternLabel(pat), func(t *testing.T) {
					got := tripleSet(t, a.IterPattern(pat.Subject, pat.Predicate, pat.Object))
					if !equalTripleSets(got, baseline[pat]) {
						t.Fatalf("disagrees with full on pattern %+v: got %v, want %v", pat, got, baseline[pat])
					}
				})
			}
		})
	}
}

// patternLabel names a pattern by its bound/unbound shape, e.g. "S?O",
// for use as a t.Run subtest name.
func patternLabel(pat Triple) string {
	label := func(bound bool, letter string) string {
		if bound {
			return letter
		}
		return "?"
	}
	return label(pat.Subject != 0, "S") + label(pat.Predicate != 0, "P") + label(pat.Object != 0, "O")
}

func TestConformanceFindTripleAgrees(t *testing.T) {
	path := buildE1(t)

	full, err := Open(path, nil)
	if err != nil {
		t.Fatalf("full: open: %v", err)
	}
	defer full.Close()

	baseline := map[Triple]uint64{}
	for _, tr := range e1AsTriples() {
		z, err := full.FindTriple(tr.Subject, tr.Predicate, tr.Object)
		if err != nil {
			t.Fatalf("full: FindTriple(%v): %v", tr, err)
		}
		baseline[tr] = z
	}

	for name, open := range openers() {
		if name == "full" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			a, err := open(path, nil)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer a.Close()

			for _, tr := range e1AsTriples() {
				z, err := a.FindTriple(tr.Subject, tr.Predicate, tr.Object)
				if err != nil {
					t.Fatalf("FindTriple(%v): %v", tr, err)
				}
				if z != baseline[tr] {
					t.Fatalf("FindTriple(%v) = %d, full = %d", tr, z, baseline[tr])
				}
			}
		})
	}
}

func e1AsTriples() []Triple {
	ts := e1Triples()
	out := make([]Triple, len(ts))
	for i, tr := range ts {
		out[i] = Triple{Subject: tr.S, Predicate: tr.P, Object: tr.O}
	}
	return out
}
