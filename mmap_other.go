//go:build !unix

package hdt

import (
	"os"

	"github.com/pkg/errors"
)

// mmapFile is unsupported outside unix; openSharedReader falls back to
// buffered ReadAt when this errors, so Options.EnableMmap degrades
// gracefully instead of failing Open.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	return nil, errors.New("hdt: mmap unsupported on this platform")
}

func munmapFile(b []byte) error { return nil }
