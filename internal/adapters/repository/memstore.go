package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/model"
	"github.com/okian/tcd/pkg/metrics"
)

const (
	defaultShardCount = 16
	defaultMaxRecords = 100_000
)

type shard struct {
	mu      sync.RWMutex
	records map[string]*model.Record
	order   []string // insertion order, used for eviction
}

// MemoryStore is a sharded in-memory Store.
type MemoryStore struct {
	shards     []*shard
	shardCount int
	maxRecords int
	perShard   int
	now        func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		shardCount: defaultShardCount,
		maxRecords: defaultMaxRecords,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]*model.Record)}
	}
	if s.maxRecords > 0 {
		s.perShard = max(1, s.maxRecords/s.shardCount)
	}
	return s
}

func (s *MemoryStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *MemoryStore) Create(_ context.Context, a model.Assessment) error { //nolint:gocritic // hugeParam
	sh := s.shardFor(a.ID)
	sh.mu.Lock()
	if _, ok := sh.records[a.ID]; ok {
		sh.mu.Unlock()
		return ErrExists
	}
	if s.perShard > 0 && len(sh.records) >= s.perShard {
		sh.evictOldestDone()
	}
	submitted := a.SubmittedAt
	if submitted.IsZero() {
		submitted = s.now()
	}
	sh.records[a.ID] = &model.Record{
		ID:          a.ID,
		Team:        a.Team,
		Industry:    a.Industry,
		Status:      model.StatusPending,
		SubmittedAt: submitted,
	}
	sh.order = append(sh.order, a.ID)
	sh.mu.Unlock()
	metrics.UpdateResultsStored(s.Count(context.Background()))
	return nil
}

// evictOldestDone drops the oldest finished record. Pending records are
// never evicted. Caller holds the lock.
func (sh *shard) evictOldestDone() {
	for i, id := range sh.order {
		r, ok := sh.records[id]
		if !ok {
			continue
		}
		if r.Done() {
			delete(sh.records, id)
			sh.order = append(sh.order[:i:i], sh.order[i+1:]...)
			return
		}
	}
}

func (s *MemoryStore) finish(id string, apply func(*model.Record)) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	r, ok := sh.records[id]
	if !ok {
		return ErrNotFound
	}
	apply(r)
	r.CompletedAt = s.now()
	return nil
}

func (s *MemoryStore) Complete(_ context.Context, id string, res formula.Result) error { //nolint:gocritic // hugeParam
	return s.finish(id, func(r *model.Record) {
		r.Status = model.StatusCompleted
		r.Result = &res
		r.Error = ""
	})
}

func (s *MemoryStore) Fail(_ context.Context, id string, cause error) error {
	return s.finish(id, func(r *model.Record) {
		r.Status = model.StatusFailed
		r.Result = nil
		if cause != nil {
			r.Error = cause.Error()
		}
	})
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.records[id]; !ok {
		return ErrNotFound
	}
	delete(sh.records, id)
	for i, oid := range sh.order {
		if oid == id {
			sh.order = append(sh.order[:i:i], sh.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Record, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	r, ok := sh.records[id]
	if !ok {
		return model.Record{}, ErrNotFound
	}
	return *r, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]model.Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	var out []model.Record
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, r := range sh.records {
			out = append(out, *r)
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.records)
		sh.mu.RUnlock()
	}
	return n
}
