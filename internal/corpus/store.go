package corpus

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// Store holds the live snapshot behind a single atomically-replaced
// pointer — the one piece of mutable shared state in the service, per
// spec's concurrency model. Handlers borrow a reference with Current and
// never see a partially-built snapshot.
type Store struct {
	dir              string
	plaintextModulus uint64

	current  atomic.Pointer[Snapshot]
	previous atomic.Pointer[Snapshot]
	epoch    atomic.Uint64
}

// NewStore wraps an already-built initial snapshot. dir and plaintextModulus
// are remembered so Watch can re-load the same corpus on each rebuild.
func NewStore(dir string, plaintextModulus uint64, initial *Snapshot) *Store {
	s := &Store{dir: dir, plaintextModulus: plaintextModulus}
	s.epoch.Store(initial.Epoch)
	s.current.Store(initial)
	return s
}

// Lookup returns the snapshot for a given epoch if it is still live: either
// the current snapshot, or the one immediately before it. A session bound
// to any older epoch has its snapshot retired and must reconnect — this is
// the "richer" handover option: sessions are not forced to reconnect on
// every rebuild, only once their snapshot has aged out two generations.
func (s *Store) Lookup(epoch uint64) (*Snapshot, bool) {
	if cur := s.current.Load(); cur.Epoch == epoch {
		return cur, true
	}
	if prev := s.previous.Load(); prev != nil && prev.Epoch == epoch {
		return prev, true
	}
	return nil, false
}

// LoadAndBuild loads the corpus at dir and builds a fresh, epoch-0
// snapshot from it — the entry point used at server startup, before Watch
// takes over rebuilding.
func LoadAndBuild(rng *rand.Rand, dir string, plaintextModulus uint64) (*Snapshot, error) {
	bundle, err := Load(dir, plaintextModulus)
	if err != nil {
		return nil, err
	}
	return Build(rng, 0, bundle)
}

// Current returns the live snapshot. Safe for concurrent use; the returned
// pointer remains valid (and its contents immutable) even after a
// subsequent rebuild replaces the store's pointer.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Watch rebuilds the corpus from dir every interval, publishing a new
// snapshot on success and leaving the existing one in place on failure.
// Mirrors the Python reference's update_loop/asyncio.sleep, reimplemented
// as a cancellable goroutine around a time.Ticker: corpus rebuilding
// itself (clustering, fetching, embedding) is an external collaborator's
// job — this loop only re-reads whatever bundle that collaborator leaves
// on disk.
func (s *Store) Watch(ctx context.Context, interval time.Duration, rng *rand.Rand, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bundle, err := Load(s.dir, s.plaintextModulus)
			if err != nil {
				log.Error("corpus rebuild failed", "error", err)
				continue
			}
			next := s.epoch.Add(1)
			snapshot, err := Build(rng, next, bundle)
			if err != nil {
				log.Error("corpus snapshot build failed", "error", err)
				continue
			}
			s.previous.Store(s.current.Load())
			s.current.Store(snapshot)
			log.Info("corpus snapshot rebuilt", "epoch", next, "articles", snapshot.N)
		}
	}
}
