/*
 * Copyright 2017 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package hdt

import "github.com/pkg/errors"

// ErrMalformedFile is returned when a Triples section or cache file is
// structurally invalid: bad magic, bad version, a bad type tag, a CRC
// mismatch, a truncated section, or a vbyte sequence that overruns its
// buffer.
var ErrMalformedFile = errors.New("hdt: malformed file")

// ErrUnsupportedEncoding is returned when the triple order byte is out of
// [1,6], or a sequence's bit width is 0 or greater than 64.
var ErrUnsupportedEncoding = errors.New("hdt: unsupported encoding")

// ErrNotFound is the "not found" form of OutOfRange for point accessors:
// FindY and FindTriple return it when the requested x/p/o falls outside
// the valid id range, or simply does not occur. Pattern queries never
// return it — an out-of-range pattern component just yields an empty
// iterator.
var ErrNotFound = errors.New("hdt: not found")

// ErrInvalidInvariant indicates a writer bug or data corruption that
// violates an invariant the reader relies on for correctness (e.g.
// non-increasing values inside a run that binary search assumed was
// sorted). It is surfaced, never panicked, so callers can retry against a
// different strategy or fail the request outright.
var ErrInvalidInvariant = errors.New("hdt: invariant violation")

// errCacheInvalid marks a cache file as unusable — a stamp mismatch, a
// CRC mismatch, or a truncated/malformed blob. LoadCache returns it;
// OpenHybrid treats it as a signal to rebuild and never returns it.
var errCacheInvalid = errors.New("hdt: cache invalid")

func exceedsWidthError(w uint) error {
	return errors.Errorf("hdt: sequence width %d outside [1,64]", w)
}

func badOrderError(order byte) error {
	return errors.Wrapf(ErrUnsupportedEncoding, "hdt: triple order %d outside [1,6]", order)
}
