package forum

import (
	"context"
	"sort"
	"strings"
)

// SortOrder selects the listing order for Find.
type SortOrder string

const (
	// SortByDate orders by creation timestamp, newest first.
	SortByDate SortOrder = "date"

	// SortByVotes orders by vote count descending, ties broken by creation
	// timestamp descending.
	SortByVotes SortOrder = "votes"
)

// ParseSortOrder maps a query-string value onto a SortOrder, defaulting to
// date ordering for anything unrecognized.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == SortByVotes {
		return SortByVotes
	}
	return SortByDate
}

// Query describes a post listing request.
type Query struct {
	// Search is a case-insensitive substring matched against title,
	// content, or author. Empty means no filter.
	Search string

	// MatchAny filters to posts whose title or content contains any of the
	// given keywords, case-insensitively. Used by similar-post ranking.
	MatchAny []string

	// ExcludeID drops the post with this identifier from results.
	ExcludeID string

	// Sort selects the ordering. Zero value sorts by date.
	Sort SortOrder

	// Limit caps the number of results. Zero means unlimited.
	Limit int
}

// Matches reports whether a post satisfies the query's filters. Shared by
// the backends that filter in process (memory, badger).
func (q Query) Matches(p *Post) bool {
	if q.ExcludeID != "" && p.ID == q.ExcludeID {
		return false
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Content), term) &&
			!strings.Contains(strings.ToLower(p.Author), term) {
			return false
		}
	}
	if len(q.MatchAny) > 0 {
		title := strings.ToLower(p.Title)
		content := strings.ToLower(p.Content)
		hit := false
		for _, kw := range q.MatchAny {
			kw = strings.ToLower(kw)
			if kw == "" {
				continue
			}
			if strings.Contains(title, kw) || strings.Contains(content, kw) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// SortPosts orders posts in place according to order.
func SortPosts(posts []Post, order SortOrder) {
	switch order {
	case SortByVotes:
		sort.SliceStable(posts, func(i, j int) bool {
			if posts[i].Votes != posts[j].Votes {
				return posts[i].Votes > posts[j].Votes
			}
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	default:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	}
}

// PostStore is the document store contract for posts.
//
// Implementations return ErrNotFound from FindByID and Save when the post
// is absent, and wrap backend failures in StoreError.
type PostStore interface {
	// Find returns posts matching the query in the query's sort order.
	Find(ctx context.Context, q Query) ([]Post, error)

	// FindByID returns the post with the given identifier.
	FindByID(ctx context.Context, id string) (*Post, error)

	// Insert persists a new post, assigning its identifier and timestamps
	// when unset.
	Insert(ctx context.Context, p *Post) error

	// Save persists in-place mutation of an existing post.
	Save(ctx context.Context, p *Post) error
}

// AtomicUpvoter is implemented by stores that can apply a vote increment
// atomically at the storage level, closing the read-modify-write window
// between concurrent upvotes for the same post.
type AtomicUpvoter interface {
	// AddVote increments the post's vote count and, when voterID is
	// non-empty, adds the voter to the voter set. Returns the updated post,
	// ErrAlreadyUpvoted when the voter is already in the set, or
	// ErrNotFound when the post is absent.
	AddVote(ctx context.Context, postID, voterID string) (*Post, error)
}
