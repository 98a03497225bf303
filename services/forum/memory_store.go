package forum

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process PostStore. It backs tests and the
// lightweight mode used when no document store is configured; contents do
// not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	posts map[string]*Post
	now   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts: make(map[string]*Post),
		now:   time.Now,
	}
}

// WithClock overrides the store's time source. Intended for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Find implements PostStore.
func (s *MemoryStore) Find(ctx context.Context, q Query) ([]Post, error) {
	s.mu.RLock()
	matched := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		if q.Matches(p) {
			matched = append(matched, *p.Clone())
		}
	}
	s.mu.RUnlock()

	SortPosts(matched, q.Sort)
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// FindByID implements PostStore.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// Insert implements PostStore.
func (s *MemoryStore) Insert(ctx context.Context, p *Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p.Clone()
	return nil
}

// Save implements PostStore.
func (s *MemoryStore) Save(ctx context.Context, p *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[p.ID]; !ok {
		return ErrNotFound
	}
	s.posts[p.ID] = p.Clone()
	return nil
}

// AddVote implements AtomicUpvoter. The store mutex serializes the
// read-modify-write, so concurrent upvotes for the same post cannot lose
// increments.
func (s *MemoryStore) AddVote(ctx context.Context, postID, voterID string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	if voterID != "" {
		for _, id := range p.UpvotedBy {
			if id == voterID {
				return nil, ErrAlreadyUpvoted
			}
		}
		p.UpvotedBy = append(p.UpvotedBy, voterID)
	}
	p.Votes++
	p.UpdatedAt = s.now()
	return p.Clone(), nil
}
