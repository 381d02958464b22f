package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"meme-radar/internal/tracker/dao"
	"meme-radar/internal/tracker/model"

	"github.com/lib/pq"
)

type addressEntry struct {
	seq  int64
	addr model.PromisingAddress
}

// AddressStore 内存版 AddressDAO
type AddressStore struct {
	mu    sync.RWMutex
	seq   int64
	byID  map[string]*addressEntry
	byKey map[string]string // address_key -> id
	now   func() time.Time

	// BatchSizes 记录每次写入的批大小，测试用
	BatchSizes []int
}

var _ dao.AddressDAO = (*AddressStore)(nil)

func NewAddressStore() *AddressStore {
	return &AddressStore{
		byID:  make(map[string]*addressEntry),
		byKey: make(map[string]string),
		now:   time.Now,
	}
}

func (s *AddressStore) CreateBatch(_ context.Context, addrs []model.PromisingAddress, batchSize int) (int, error) {
	for i := range addrs {
		if addrs[i].ID == "" || addrs[i].AddressKey == "" {
			return 0, dao.ErrInvalidInput
		}
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for start := 0; start < len(addrs); start += batchSize {
		end := min(start+batchSize, len(addrs))
		s.BatchSizes = append(s.BatchSizes, end-start)
		for _, a := range addrs[start:end] {
			if _, dup := s.byKey[a.AddressKey]; dup {
				continue
			}
			rec := a.Clone()
			if rec.RelatedTokens == nil {
				rec.RelatedTokens = pq.StringArray{}
			}
			now := s.now()
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = now
			}
			rec.UpdatedAt = now
			s.seq++
			s.byID[rec.ID] = &addressEntry{seq: s.seq, addr: rec}
			s.byKey[rec.AddressKey] = rec.ID
			inserted++
		}
	}
	return inserted, nil
}

func (s *AddressStore) UpdateRelatedTokens(_ context.Context, id string, related []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return dao.ErrNotFound
	}
	e.addr.RelatedTokens = append(pq.StringArray{}, related...)
	e.addr.UpdatedAt = s.now()
	return nil
}

func (s *AddressStore) SetPromising(_ context.Context, id string, marked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return dao.ErrNotFound
	}
	e.addr.IsMarkedPromising = marked
	e.addr.UpdatedAt = s.now()
	return nil
}

func (s *AddressStore) GetByID(_ context.Context, id string) (*model.PromisingAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, dao.ErrNotFound
	}
	a := e.addr.Clone()
	return &a, nil
}

func (s *AddressStore) List(_ context.Context) ([]model.PromisingAddress, error) {
	s.mu.RLock()
	entries := make([]*addressEntry, 0, len(s.byID))
	for _, e := range s.byID {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.addr.CreatedAt.Equal(b.addr.CreatedAt) {
			return a.addr.CreatedAt.After(b.addr.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]model.PromisingAddress, len(entries))
	for i, e := range entries {
		out[i] = e.addr.Clone()
	}
	return out, nil
}

func (s *AddressStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return dao.ErrNotFound
	}
	delete(s.byKey, e.addr.AddressKey)
	delete(s.byID, id)
	return nil
}
