/*
 * Copyright 2018 Dgraph Labs, Inc. and Contributors
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

import (
	"log"
	"os"
)

// Logger is implemented by any logging system an embedding application
// wants diagnostics routed through — cache rebuild fallbacks, corruption
// warnings, index-budget decisions during an Indexed-Streaming open. The
// core never configures one itself from a file or environment variable;
// callers wire it in via Options, the same way badger.Options carries a
// Logger field.
type Logger interface {
	Errorf(string, ...interface{})
	Warningf(string, ...interface{})
	Infof(string, ...interface{})
	Debugf(string, ...interface{})
}

type defaultLog struct {
	*log.Logger
}

var defaultLogger = &defaultLog{Logger: log.New(os.Stderr, "hdt ", log.LstdFlags)}

// DefaultLogger returns the stderr-backed Logger used when Options.Logger
// is nil.
func DefaultLogger() Logger { return defaultLogger }

func (l *defaultLog) Errorf(f string, v ...interface{}) {
	l.Printf("ERROR: "+f, v...)
}

func (l *defaultLog) Warningf(f string, v ...interface{}) {
	l.Printf("WARNING: "+f, v...)
}

func (l *defaultLog) Infof(f string, v ...interface{}) {
	l.Printf("INFO: "+f, v...)
}

func (l *defaultLog) Debugf(f string, v ...interface{}) {
	l.Printf("DEBUG: "+f, v...)
}

// nilLogger discards everything.
type nilLogger struct{}

func (nilLogger) Errorf(string, ...interface{})   {}
func (nilLogger) Warningf(string, ...interface{}) {}
func (nilLogger) Infof(string, ...interface{})    {}
func (nilLogger) Debugf(string, ...interface{})   {}

// NilLogger returns a Logger that discards all messages.
func NilLogger() Logger { return nilLogger{} }
