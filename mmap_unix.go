//go:build unix

package hdt

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapFile memory-maps f read-only, the fast path Options.EnableMmap
// asks for on platforms that support it.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
}

func munmapFile(b []byte) error {
	return unix.Munmap(b)
}
