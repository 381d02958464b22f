package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"meme-radar/internal/tracker/dao"
	"meme-radar/internal/tracker/model"
)

type tokenEntry struct {
	seq   int64
	token model.TokenConfig
}

// TokenStore 内存版 TokenDAO，返回的都是副本
type TokenStore struct {
	mu     sync.RWMutex
	seq    int64
	tokens map[string]*tokenEntry
	now    func() time.Time
}

var _ dao.TokenDAO = (*TokenStore)(nil)

func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]*tokenEntry),
		now:    time.Now,
	}
}

func (s *TokenStore) Create(_ context.Context, token *model.TokenConfig) error {
	if token == nil || token.ID == "" {
		return dao.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token.ID]; ok {
		return dao.ErrInvalidInput
	}
	now := s.now()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now
	s.seq++
	s.tokens[token.ID] = &tokenEntry{seq: s.seq, token: token.Clone()}
	return nil
}

func (s *TokenStore) Upsert(ctx context.Context, token *model.TokenConfig) error {
	if token == nil || token.ID == "" {
		return dao.ErrInvalidInput
	}
	s.mu.Lock()
	if e, ok := s.tokens[token.ID]; ok {
		if token.CreatedAt.IsZero() {
			token.CreatedAt = e.token.CreatedAt
		}
		token.UpdatedAt = s.now()
		e.token = token.Clone()
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.Create(ctx, token)
}

func (s *TokenStore) GetByID(_ context.Context, id string) (*model.TokenConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.tokens[id]
	if !ok {
		return nil, dao.ErrNotFound
	}
	t := e.token.Clone()
	return &t, nil
}

func (s *TokenStore) List(_ context.Context) ([]model.TokenConfig, error) {
	s.mu.RLock()
	entries := make([]*tokenEntry, 0, len(s.tokens))
	for _, e := range s.tokens {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.token.CreatedAt.Equal(b.token.CreatedAt) {
			return a.token.CreatedAt.After(b.token.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]model.TokenConfig, len(entries))
	for i, e := range entries {
		out[i] = e.token.Clone()
	}
	return out, nil
}

func (s *TokenStore) UpdateBuyerStats(_ context.Context, id string, count int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tokens[id]
	if !ok {
		return dao.ErrNotFound
	}
	e.token.BuyersCount = &count
	e.token.BuyersLastUpdated = &at
	e.token.UpdatedAt = s.now()
	return nil
}

func (s *TokenStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[id]; !ok {
		return dao.ErrNotFound
	}
	delete(s.tokens, id)
	return nil
}
