// Package resolver answers genomic interval queries against a bgzip
// compressed TAF file and its .tai index.
//
// A Resolver picks the smallest indexed byte range covering the query,
// fetches and decompresses it through a BlockStore and replays it with a
// taf.Decoder. Decodes are de-duplicated: concurrent queries resolving to the
// same byte range share one decode, and completed results are kept in a
// bounded LRU cache.
package resolver

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/tafview/errs"
	"github.com/arloliu/tafview/internal/hash"
	"github.com/arloliu/tafview/internal/lru"
	"github.com/arloliu/tafview/internal/options"
	"github.com/arloliu/tafview/taf"
	"github.com/arloliu/tafview/tai"
)

// DefaultCacheSize is the number of decoded blocks kept by default.
const DefaultCacheSize = 32

// BlockStore serves decompressed byte ranges of the alignment file.
type BlockStore interface {
	ReadBlocks(ctx context.Context, start, length uint64) ([]byte, error)
	BlockSize(ctx context.Context, blockPosition uint64) (uint64, error)
}

// Stats reports decode cache activity.
type Stats struct {
	// Decodes counts decode attempts started.
	Decodes int64
	// Hits counts queries answered from the completed-result cache.
	Hits int64
	// Joins counts queries that attached to an in-flight decode.
	Joins int64
}

// call is one decode attempt shared by its waiters.
type call struct {
	done    chan struct{}
	block   *taf.Block
	err     error
	waiters int
	cancel  context.CancelFunc
}

// Resolver resolves queries to decoded blocks. It is safe for concurrent use.
type Resolver struct {
	index     *tai.Index
	store     BlockStore
	decoder   *taf.Decoder
	logger    logrus.FieldLogger
	cacheSize int

	mu       sync.Mutex
	inflight map[uint64]*call
	cache    *lru.Cache[uint64, *taf.Block]

	decodes atomic.Int64
	hits    atomic.Int64
	joins   atomic.Int64
}

// Option configures a Resolver.
type Option = options.Option[*Resolver]

// WithCacheSize sets the number of completed decodes kept.
func WithCacheSize(n int) Option {
	return options.New(func(r *Resolver) error {
		if n <= 0 {
			return fmt.Errorf("cache size must be positive, got %d", n)
		}
		r.cacheSize = n

		return nil
	})
}

// WithDecoder overrides the TAF decoder.
func WithDecoder(d *taf.Decoder) Option {
	return options.NoError(func(r *Resolver) {
		if d != nil {
			r.decoder = d
		}
	})
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return options.NoError(func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	})
}

// New creates a Resolver over a parsed index and the matching block store.
func New(index *tai.Index, store BlockStore, opts ...Option) (*Resolver, error) {
	if index == nil || store == nil {
		return nil, fmt.Errorf("resolver needs an index and a block store")
	}

	r := &Resolver{
		index:     index,
		store:     store,
		logger:    logrus.StandardLogger(),
		cacheSize: DefaultCacheSize,
		inflight:  make(map[uint64]*call),
	}
	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}
	if r.decoder == nil {
		d, err := taf.NewDecoder(taf.WithLogger(r.logger))
		if err != nil {
			return nil, err
		}
		r.decoder = d
	}
	r.cache = lru.New[uint64, *taf.Block](r.cacheSize)

	return r, nil
}

// Index returns the index the resolver reads.
func (r *Resolver) Index() *tai.Index {
	return r.index
}

// Resolve decodes the alignment covering [start, end) on refName.
//
// refName may be qualified as "assembly.chr"; it is matched by its last
// dot-delimited token. The returned block is shared between callers and must
// be treated as read-only.
//
// Returns:
//   - *taf.Block: the decoded block, nil when the query lies outside the
//     indexed content
//   - error: errs.ErrInvalidRange for start > end, ctx.Err() when ctx ends
//     before the decode completes, or the fetch / decompress failure
func (r *Resolver) Resolve(ctx context.Context, refName string, start, end uint64) (*taf.Block, error) {
	if start > end {
		return nil, fmt.Errorf("%w: start %d > end %d", errs.ErrInvalidRange, start, end)
	}

	rng, ok := SelectRange(r.index.Entries(tai.CanonicalName(refName)), start, end)
	if !ok {
		r.logger.WithFields(logrus.Fields{"ref": refName, "start": start, "end": end}).Debug("query outside indexed content")
		return nil, nil
	}

	return r.resolveRange(ctx, rng)
}

// Stats returns a snapshot of cache counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		Decodes: r.decodes.Load(),
		Hits:    r.hits.Load(),
		Joins:   r.joins.Load(),
	}
}

func (r *Resolver) resolveRange(ctx context.Context, rng Range) (*taf.Block, error) {
	k := rng.key()
	key := hash.Uint64s(k[:]...)

	r.mu.Lock()
	if block, ok := r.cache.Get(key); ok {
		r.mu.Unlock()
		r.hits.Add(1)

		return block, nil
	}

	c, ok := r.inflight[key]
	if ok {
		r.joins.Add(1)
	} else {
		// the decode outlives any single caller; it is cancelled once every
		// waiter has left
		dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c = &call{done: make(chan struct{}), cancel: cancel}
		r.inflight[key] = c
		go r.run(dctx, key, c, rng)
	}
	c.waiters++
	r.mu.Unlock()

	select {
	case <-c.done:
		return c.block, c.err
	case <-ctx.Done():
		r.leave(key, c)
		return nil, ctx.Err()
	}
}

func (r *Resolver) leave(key uint64, c *call) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.waiters--
	if c.waiters > 0 {
		return
	}
	// abandoned: a later query for the same range gets a fresh slot
	if r.inflight[key] == c {
		delete(r.inflight, key)
	}
	c.cancel()
}

func (r *Resolver) run(ctx context.Context, key uint64, c *call, rng Range) {
	r.decodes.Add(1)
	block, err := r.decode(ctx, rng)

	r.mu.Lock()
	if r.inflight[key] == c {
		delete(r.inflight, key)
	}
	if err == nil {
		r.cache.Add(key, block)
	}
	c.block, c.err = block, err
	r.mu.Unlock()

	close(c.done)
	c.cancel()
}

// decode reads and replays the bytes of rng.
//
// The compressed range [First.block, Next.block) is read first. When Next is
// only a fallback, or Next's line starts inside its block, Next's block is
// appended too; a bounded read is then cut at Next's line and an unbounded
// one at its last complete line.
func (r *Resolver) decode(ctx context.Context, rng Range) (*taf.Block, error) {
	firstBlock := rng.First.Offset.BlockPosition()
	nextBlock := rng.Next.Offset.BlockPosition()
	if nextBlock < firstBlock {
		return nil, fmt.Errorf("%w: index entries out of order (%s after %s)", errs.ErrInvalidRange, rng.Next.Offset, rng.First.Offset)
	}

	var buf []byte
	if nextBlock > firstBlock {
		data, err := r.store.ReadBlocks(ctx, firstBlock, nextBlock-firstBlock)
		if err != nil {
			return nil, err
		}
		buf = data
	}

	nextData := int(rng.Next.Offset.DataPosition())
	if !rng.Bounded || nextData > 0 {
		size, err := r.store.BlockSize(ctx, nextBlock)
		if err != nil {
			return nil, err
		}
		if size > 0 {
			tail, err := r.store.ReadBlocks(ctx, nextBlock, size)
			if err != nil {
				return nil, err
			}
			cut := len(buf) + nextData
			buf = append(buf, tail...)
			if rng.Bounded && cut < len(buf) {
				buf = buf[:cut]
			}
		}
	}

	skip := min(int(rng.First.Offset.DataPosition()), len(buf))
	buf = buf[skip:]
	if !rng.Bounded {
		// the last line may continue in a block that was not read
		if i := bytes.LastIndexByte(buf, '\n'); i >= 0 {
			buf = buf[:i+1]
		}
	}

	r.logger.WithFields(logrus.Fields{
		"first": rng.First.Offset.String(),
		"next":  rng.Next.Offset.String(),
		"bytes": len(buf),
	}).Debug("decoding range")

	return r.decoder.Decode(ctx, buf)
}
