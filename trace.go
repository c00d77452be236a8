package hdt

import "golang.org/x/net/trace"

var noEventLog trace.EventLog = nilEventLog{}

type nilEventLog struct{}

func (nilEventLog) Printf(format string, a ...interface{}) {}
func (nilEventLog) Errorf(format string, a ...interface{}) {}
func (nilEventLog) Finish()                                {}

// newEventLog returns a real x/net/trace event log when opts asks for
// one, and a no-op otherwise, so callers can log unconditionally.
func newEventLog(opts *Options, family, title string) trace.EventLog {
	if opts == nil || !opts.EnableTrace {
		return noEventLog
	}
	return trace.NewEventLog(family, title)
}

// tracedIterator wraps a TripleIterator with an x/net/trace event log,
// logging the pattern that started the scan and any error that ends it.
// Close finishes the event log in addition to the wrapped iterator's
// own Close.
type tracedIterator struct {
	TripleIterator
	elog trace.EventLog
}

func traceIter(it TripleIterator, opts *Options, op string, s, p, o uint64) TripleIterator {
	elog := newEventLog(opts, "hdt", "Iterator")
	elog.Printf("%s(%d,%d,%d)", op, s, p, o)
	return &tracedIterator{TripleIterator: it, elog: elog}
}

func (t *tracedIterator) Next() bool {
	ok := t.TripleIterator.Next()
	if !ok {
		if err := t.TripleIterator.Err(); err != nil {
			t.elog.Errorf("%v", err)
		}
	}
	return ok
}

func (t *tracedIterator) Close() {
	t.TripleIterator.Close()
	t.elog.Finish()
}
