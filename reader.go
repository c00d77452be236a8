package hdt

import (
	"os"
	"sync"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
)

// readerBlockSize is the granularity at which sharedReader caches bytes,
// chosen well above bitpack's maxWordReadBytes (16) so every sequence
// entry read is satisfied by at most two cached blocks.
const readerBlockSize = 4096

// sharedReader is the single mutex-guarded file handle every file-backed
// accessor (bitpack.FileBacked, streamBitmap) reads through, mirroring
// table.Table's embedded sync.Mutex plus ReadAt pattern. It optionally
// layers a ristretto block cache and an mmap fast path on top of plain
// ReadAt, matching each strategy's own residency/latency tradeoff.
type sharedReader struct {
	mu sync.Mutex

	f    *os.File
	size int64

	mmapped []byte // non-nil when Options.EnableMmap succeeded

	cache   *ristretto.Cache
	metrics *metricsRecorder
}

// openSharedReader opens path and wires up the cache/mmap behavior
// Options asks for. EnableMmap failures are logged and fall back to
// buffered reads rather than failing Open, since mmap is strictly a
// latency optimization.
func openSharedReader(path string, opts *Options) (*sharedReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "hdt: opening file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "hdt: stat")
	}

	r := &sharedReader{f: f, size: info.Size(), metrics: newMetricsRecorder()}

	if opts != nil && opts.EnableMmap {
		if mm, err := mmapFile(f, info.Size()); err != nil {
			opts.logger().Warningf("hdt: mmap disabled, falling back to buffered reads: %v", err)
		} else {
			r.mmapped = mm
		}
	}

	if opts != nil && opts.ReaderCacheBytes > 0 && r.mmapped == nil {
		numBlocks := opts.ReaderCacheBytes / readerBlockSize
		if numBlocks < 16 {
			numBlocks = 16
		}
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: numBlocks * 10,
			MaxCost:     opts.ReaderCacheBytes,
			BufferItems: 64,
		})
		if err != nil {
			opts.logger().Warningf("hdt: block cache disabled: %v", err)
		} else {
			r.cache = cache
		}
	}

	return r, nil
}

// ReadAt implements bitpack.Reader, serving from the mmap region, the
// block cache, or a direct file read, in that preference order.
func (r *sharedReader) ReadAt(p []byte, off int64) (int, error) {
	if r.mmapped != nil {
		if off < 0 || off >= int64(len(r.mmapped)) {
			return 0, errors.New("hdt: read past end of file")
		}
		n := copy(p, r.mmapped[off:])
		return n, nil
	}

	if r.cache == nil {
		r.mu.Lock()
		n, err := r.f.ReadAt(p, off)
		r.mu.Unlock()
		if err != nil {
			r.metrics.recordIO()
		}
		r.metrics.recordBytes(n)
		return n, err
	}

	return r.readCached(p, off)
}

// readCached satisfies a read from cached readerBlockSize-byte blocks,
// populating the cache on miss, mirroring table.Table's per-block cache
// access (table/table.go's block(), adapted from SST blocks to flat
// byte-range blocks since this package has no block index to align to).
func (r *sharedReader) readCached(p []byte, off int64) (int, error) {
	total := 0
	for total < len(p) {
		cur := off + int64(total)
		blockIdx := cur / readerBlockSize
		blockOff := cur % readerBlockSize

		block, err := r.block(blockIdx)
		if err != nil {
			return total, err
		}
		if blockOff >= int64(len(block)) {
			break // EOF within this block
		}
		n := copy(p[total:], block[blockOff:])
		total += n
		if n == 0 {
			break
		}
	}
	if total == 0 && len(p) > 0 {
		return 0, errors.New("hdt: read past end of file")
	}
	return total, nil
}

func (r *sharedReader) block(idx int64) ([]byte, error) {
	key := idx
	if v, ok := r.cache.Get(key); ok {
		r.metrics.recordCacheHit()
		return v.([]byte), nil
	}
	r.metrics.recordCacheMiss()

	buf := make([]byte, readerBlockSize)
	r.mu.Lock()
	n, err := r.f.ReadAt(buf, idx*readerBlockSize)
	r.mu.Unlock()
	if err != nil && n == 0 {
		r.metrics.recordIO()
		return nil, errors.Wrap(err, "hdt: reading block")
	}
	r.metrics.recordBytes(n)
	buf = buf[:n]
	r.cache.Set(key, buf, int64(len(buf)))
	return buf, nil
}

func (r *sharedReader) Size() int64 { return r.size }

func (r *sharedReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	if r.mmapped != nil {
		_ = munmapFile(r.mmapped)
		r.mmapped = nil
	}
	if r.cache != nil {
		r.cache.Close()
		r.cache = nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
