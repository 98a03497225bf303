package forum

import (
	"context"
	"errors"
	"testing"
)

func newBadgerTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore("")
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBadgerStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newBadgerTestStore(t)

	p := &Post{Title: "Badger basics", Content: "embedded kv", Author: "alice"}
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected assigned id")
	}

	t.Run("find by id", func(t *testing.T) {
		got, err := store.FindByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Title != "Badger basics" {
			t.Errorf("Title = %q", got.Title)
		}
	})

	t.Run("save persists changes", func(t *testing.T) {
		p.Title = "Badger fundamentals"
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, _ := store.FindByID(ctx, p.ID)
		if got.Title != "Badger fundamentals" {
			t.Errorf("Title = %q after save", got.Title)
		}
	})

	t.Run("save unknown post", func(t *testing.T) {
		if err := store.Save(ctx, &Post{ID: "missing"}); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("find filters and excludes", func(t *testing.T) {
		other := &Post{Title: "Unrelated", Content: "nothing here"}
		if err := store.Insert(ctx, other); err != nil {
			t.Fatal(err)
		}
		posts, err := store.Find(ctx, Query{Search: "badger"})
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if len(posts) != 1 || posts[0].ID != p.ID {
			t.Errorf("posts = %v, want only %s", posts, p.ID)
		}
		posts, err = store.Find(ctx, Query{ExcludeID: p.ID})
		if err != nil {
			t.Fatal(err)
		}
		if len(posts) != 1 || posts[0].ID != other.ID {
			t.Errorf("exclusion failed: %v", posts)
		}
	})

	t.Run("votes", func(t *testing.T) {
		if _, err := store.AddVote(ctx, p.ID, "u1"); err != nil {
			t.Fatalf("AddVote: %v", err)
		}
		if _, err := store.AddVote(ctx, p.ID, "u1"); !errors.Is(err, ErrAlreadyUpvoted) {
			t.Errorf("repeat vote err = %v, want ErrAlreadyUpvoted", err)
		}
		updated, err := store.AddVote(ctx, p.ID, "")
		if err != nil {
			t.Fatalf("anonymous AddVote: %v", err)
		}
		if updated.Votes != 2 {
			t.Errorf("Votes = %d, want 2", updated.Votes)
		}
		if len(updated.UpvotedBy) != 1 {
			t.Errorf("voter set = %v, want [u1]", updated.UpvotedBy)
		}
	})
}
