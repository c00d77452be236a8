package hdt

// sequentialIterator walks a contiguous Z-position range [first, last]
// (1-based, inclusive), resolving each triple's (x,y,p,o) on demand —
// the shape every bound-subject pattern (SPO/SP?/S??) and IterAll share.
type sequentialIterator struct {
	bt      *BitmapTriples
	order   Order
	first   int64
	last    int64
	cur     int64
	curTrip Triple
	err     error
}

func newSequentialIterator(bt *BitmapTriples, order Order, first, last uint64) *sequentialIterator {
	return &sequentialIterator{bt: bt, order: order, first: int64(first), last: int64(last), cur: int64(first) - 1}
}

func (it *sequentialIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.cur++
	if it.cur > it.last {
		return false
	}
	z := uint64(it.cur)
	y, err := it.bt.GetYOf(z)
	if err != nil {
		it.err = err
		return false
	}
	x, err := it.bt.GetSubjectOf(y)
	if err != nil {
		it.err = err
		return false
	}
	p, err := it.bt.GetPredicate(y)
	if err != nil {
		it.err = err
		return false
	}
	o, err := it.bt.GetObject(z)
	if err != nil {
		it.err = err
		return false
	}
	s, pr, obj := it.order.xyzToSPO(x, p, o)
	it.curTrip = Triple{Subject: s, Predicate: pr, Object: obj}
	return true
}

func (it *sequentialIterator) Triple() Triple { return it.curTrip }
func (it *sequentialIterator) Err() error     { return it.err }
func (it *sequentialIterator) Close()         {}

// positionListIterator walks an explicit, possibly unsorted list of
// Z-positions — the shape an object-bound pattern (??O, S?O when no OP
// index narrows further) uses once the OP index (or a linear scan) has
// produced the candidate set.
type positionListIterator struct {
	bt    *BitmapTriples
	order Order
	zs    []uint64
	i     int
	cur   Triple
	err   error

	// boundX/boundY, when non-zero, additionally require the resolved
	// (x,y) to match them (0 means unbound), for patterns that bind more
	// than just the object.
	boundX, boundY uint64
}

func (it *positionListIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for it.i < len(it.zs) {
		z := it.zs[it.i]
		it.i++
		y, err := it.bt.GetYOf(z)
		if err != nil {
			it.err = err
			return false
		}
		x, err := it.bt.GetSubjectOf(y)
		if err != nil {
			it.err = err
			return false
		}
		if it.boundX != 0 && x != it.boundX {
			continue
		}
		if it.boundY != 0 && y != it.boundY {
			continue
		}
		p, err := it.bt.GetPredicate(y)
		if err != nil {
			it.err = err
			return false
		}
		o, err := it.bt.GetObject(z)
		if err != nil {
			it.err = err
			return false
		}
		s, pr, obj := it.order.xyzToSPO(x, p, o)
		it.cur = Triple{Subject: s, Predicate: pr, Object: obj}
		return true
	}
	return false
}

func (it *positionListIterator) Triple() Triple { return it.cur }
func (it *positionListIterator) Err() error     { return it.err }
func (it *positionListIterator) Close()         {}

// iterAll returns every triple in storage order, walking sequence_z
// start to finish.
func iterAll(bt *BitmapTriples, order Order) TripleIterator {
	n := bt.NumTriples()
	if n == 0 {
		return emptyIterator()
	}
	return newSequentialIterator(bt, order, 1, n)
}

// iterPattern dispatches an (s,p,o) pattern (0 = unbound in SPO space)
// to the cheapest navigation path BitmapTriples' two levels and OP index
// make available. The eight bound/unbound combinations reduce to three
// shapes: a subject-rooted range walk (any pattern with s bound), a
// predicate-rooted scan filtered by p (p bound, s unbound), and an
// object-rooted scan via the OP index (o bound, s and p unbound) — with
// the all-unbound case falling back to IterAll.
func iterPattern(bt *BitmapTriples, order Order, s, p, o uint64) TripleIterator {
	x, _, _ := order.spoToXYZ(s, p, o)
	xBound, yBound, zBound := unboundMask(order, s, p, o)

	switch {
	case xBound:
		return iterBoundSubject(bt, order, x, yBound, p, s, o)
	case yBound:
		return iterBoundPredicateOnly(bt, order, s, p, o)
	case zBound:
		return iterBoundObjectOnly(bt, order, s, p, o)
	default:
		return iterAll(bt, order)
	}
}

// unboundMask reports, in x/y/z space, whether each coordinate is bound
// by the caller's (s,p,o) pattern.
func unboundMask(order Order, s, p, o uint64) (xBound, yBound, zBound bool) {
	sBound, pBound, oBound := s != 0, p != 0, o != 0
	switch order {
	case OrderSPO:
		return sBound, pBound, oBound
	case OrderSOP:
		return sBound, oBound, pBound
	case OrderPSO:
		return pBound, sBound, oBound
	case OrderPOS:
		return pBound, oBound, sBound
	case OrderOSP:
		return oBound, sBound, pBound
	case OrderOPS:
		return oBound, pBound, sBound
	default:
		return sBound, pBound, oBound
	}
}

// iterBoundSubject handles every pattern with the primary (x) component
// bound: it walks subject x's Y-run, optionally narrowing to one Y value
// (when the secondary component is also bound) or filtering by the
// tertiary component while walking.
func iterBoundSubject(bt *BitmapTriples, order Order, x uint64, yBound bool, p, s, o uint64) TripleIterator {
	_, yp, zp := order.spoToXYZ(s, p, o)

	first, err := bt.FindY(x)
	if err != nil {
		return emptyIterator()
	}
	last, err := bt.LastY(x)
	if err != nil {
		return emptyIterator()
	}

	if yBound {
		y, err := bt.FindYZ(x, yp)
		if err != nil {
			return emptyIterator()
		}
		zFirst, err := bt.FindZ(y)
		if err != nil {
			return emptyIterator()
		}
		zLast, err := bt.LastZ(y)
		if err != nil {
			return emptyIterator()
		}
		if zp != 0 {
			z, err := bt.FindTriple(x, yp, zp)
			if err != nil {
				return emptyIterator()
			}
			return newSequentialIterator(bt, order, z, z)
		}
		return newSequentialIterator(bt, order, zFirst, zLast)
	}

	zFirst, err := bt.FindZ(first)
	if err != nil {
		return emptyIterator()
	}
	zLast, err := bt.LastZ(last)
	if err != nil {
		return emptyIterator()
	}

	if zp == 0 {
		return newSequentialIterator(bt, order, zFirst, zLast)
	}
	// x bound, z (object/predicate depending on order) bound, y unbound:
	// walk the subject's whole Z-range and filter by the tertiary value.
	zs := make([]uint64, 0, zLast-zFirst+1)
	for z := zFirst; z <= zLast; z++ {
		v, err := bt.GetObject(z)
		if err != nil {
			return &errIterator{err: err}
		}
		if v == zp {
			zs = append(zs, z)
		}
	}
	return &positionListIterator{bt: bt, order: order, zs: zs}
}

// iterBoundPredicateOnly handles patterns with only the secondary (y)
// component bound: ?P?/?PO. When seqY is a wavelet matrix, Select(p, k)
// walks straight to every Y-position holding predicate p, one Select per
// position; otherwise there is no direct index from predicate value to
// positions, and this falls back to searching every subject's run for
// its predicate — work proportional to |S| rather than to the matches.
func iterBoundPredicateOnly(bt *BitmapTriples, order Order, s, p, o uint64) TripleIterator {
	_, _, zp := order.spoToXYZ(s, p, o)
	_, yp, _ := order.spoToXYZ(s, p, o)

	var ys []uint64
	if w, ok := bt.seqY.(waveletPredicateSource); ok {
		for k := uint64(0); ; k++ {
			pos, found := w.m.Select(yp, k)
			if !found {
				break
			}
			ys = append(ys, pos+1)
		}
	} else {
		n := bt.SubjectCount()
		for x := uint64(1); x <= n; x++ {
			y, err := bt.FindYZ(x, yp)
			if err != nil {
				continue
			}
			ys = append(ys, y)
		}
	}

	var zs []uint64
	for _, y := range ys {
		zFirst, err := bt.FindZ(y)
		if err != nil {
			return &errIterator{err: err}
		}
		zLast, err := bt.LastZ(y)
		if err != nil {
			return &errIterator{err: err}
		}
		for z := zFirst; z <= zLast; z++ {
			if zp != 0 {
				v, err := bt.GetObject(z)
				if err != nil {
					return &errIterator{err: err}
				}
				if v != zp {
					continue
				}
			}
			zs = append(zs, z)
		}
	}
	return &positionListIterator{bt: bt, order: order, zs: zs}
}

// iterBoundObjectOnly handles patterns with only the tertiary (z)
// component bound: uses the OP index when available, otherwise a linear
// scan of sequence_z.
func iterBoundObjectOnly(bt *BitmapTriples, order Order, s, p, o uint64) TripleIterator {
	_, _, zp := order.spoToXYZ(s, p, o)
	zs, err := bt.ObjectPositions(zp)
	if err != nil {
		return &errIterator{err: err}
	}
	return &positionListIterator{bt: bt, order: order, zs: zs}
}
