package hdt

// Triple is an RDF triple expressed in dictionary id space.
type Triple struct {
	Subject   uint64
	Predicate uint64
	Object    uint64
}

// TripleIterator yields triples in an unspecified order (storage order
// for IterAll; deterministic but strategy-internal order for the other
// shapes). Err returns any error that terminated iteration early; once
// Next returns false, Err must be checked before trusting that iteration
// was exhaustive.
type TripleIterator interface {
	Next() bool
	Triple() Triple
	Err() error
	Close()
}

// TripleAccess is the single capability surface every storage strategy
// implements. All five strategies satisfy it with identical query
// results; they differ only in residency and in how often an accessor
// can return an I/O error.
type TripleAccess interface {
	// NumTriples returns T, the total number of triples.
	NumTriples() uint64

	// SizeInBytes returns the strategy's total resident footprint.
	SizeInBytes() uint64

	// FindY returns the first Y-position for subject x (1-based x), or
	// ErrNotFound if x is out of range.
	FindY(x uint64) (uint64, error)

	// LastY returns the inclusive last Y-position for subject x.
	LastY(x uint64) (uint64, error)

	// GetPredicate returns the predicate id stored at Y-position y. May
	// perform I/O on file-backed strategies.
	GetPredicate(y uint64) (uint64, error)

	// GetObject returns the object id stored at Z-position z. May
	// perform I/O on file-backed strategies.
	GetObject(z uint64) (uint64, error)

	// FindTriple locates (s,p,o) and returns its Z-position, or
	// ErrNotFound.
	FindTriple(s, p, o uint64) (uint64, error)

	// IterAll iterates every triple in on-disk storage order.
	IterAll() TripleIterator

	// IterPattern iterates triples matching the given pattern; 0 in any
	// position means "unbound" for that component.
	IterPattern(s, p, o uint64) TripleIterator

	// Stats reports the strategy's residency/streaming footprint.
	Stats() Stats

	// Close releases any held file handles. Safe to call more than
	// once.
	Close() error
}

// errIterator is a TripleIterator that immediately yields err (or, if
// err is nil, yields nothing) — used for out-of-range patterns and
// propagating open-time errors through the iterator contract.
type errIterator struct{ err error }

func (e *errIterator) Next() bool    { return false }
func (e *errIterator) Triple() Triple { return Triple{} }
func (e *errIterator) Err() error    { return e.err }
func (e *errIterator) Close()        {}

// emptyIterator yields no triples and no error — the response to a
// pattern whose bound components fall outside the valid id range.
func emptyIterator() TripleIterator { return &errIterator{} }
