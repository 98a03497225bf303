// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package forum

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// postKeyPrefix namespaces post documents inside the badger keyspace.
const postKeyPrefix = "post:"

// BadgerStore is an embedded PostStore backend for single-node deployments
// that want persistence without running MongoDB. Posts are stored as JSON
// documents; queries filter and sort in process, which is fine at the
// collection sizes a single forum instance sees.
type BadgerStore struct {
	db *badger.DB

	// mu serializes read-modify-write sequences (Save, AddVote) so vote
	// increments cannot be lost between a read and its write-back.
	mu sync.Mutex
}

// NewBadgerStore opens (or creates) a badger database at path. An empty
// path opens an in-memory database, used by tests.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, &StoreError{Op: "open badger", Err: err}
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func postKey(id string) []byte {
	return []byte(postKeyPrefix + id)
}

// Find implements PostStore.
func (s *BadgerStore) Find(ctx context.Context, q Query) ([]Post, error) {
	matched := []Post{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(postKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p Post
				if err := json.Unmarshal(val, &p); err != nil {
					return err
				}
				if q.Matches(&p) {
					matched = append(matched, p)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &StoreError{Op: "find", Err: err}
	}

	SortPosts(matched, q.Sort)
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// FindByID implements PostStore.
func (s *BadgerStore) FindByID(ctx context.Context, id string) (*Post, error) {
	var post Post
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(postKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &post)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "find by id", Err: err}
	}
	return &post, nil
}

// Insert implements PostStore.
func (s *BadgerStore) Insert(ctx context.Context, p *Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	return s.write(p)
}

// Save implements PostStore.
func (s *BadgerStore) Save(ctx context.Context, p *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.FindByID(ctx, p.ID); err != nil {
		return err
	}
	return s.write(p)
}

// AddVote implements AtomicUpvoter; the store mutex makes the
// read-modify-write sequence effectively atomic for this process.
func (s *BadgerStore) AddVote(ctx context.Context, postID, voterID string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, err := s.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if voterID != "" {
		for _, id := range post.UpvotedBy {
			if id == voterID {
				return nil, ErrAlreadyUpvoted
			}
		}
		post.UpvotedBy = append(post.UpvotedBy, voterID)
	}
	post.Votes++
	post.UpdatedAt = time.Now()
	if err := s.write(post); err != nil {
		return nil, err
	}
	return post, nil
}

// write marshals and stores a post document.
func (s *BadgerStore) write(p *Post) error {
	data, err := json.Marshal(p)
	if err != nil {
		return &StoreError{Op: "marshal", Err: err}
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(postKey(p.ID), data)
	})
	if err != nil {
		return &StoreError{Op: "write", Err: err}
	}
	return nil
}
