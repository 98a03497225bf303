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
	"log/slog"
	"strings"
	"time"

	"github.com/learnato/forum/services/auth"
)

// Service applies the forum's mutation operations: create, reply, upvote,
// and mark-answered. Every successful mutation persists through the
// PostStore and emits events to the EventSink.
//
// Operations are designed to be called at most once per logical client
// action; the service does not deduplicate retried requests.
type Service struct {
	store PostStore
	sink  EventSink
	now   func() time.Time
}

// NewService creates a Service. A nil sink disables event emission.
func NewService(store PostStore, sink EventSink) *Service {
	if sink == nil {
		sink = NopSink{}
	}
	return &Service{store: store, sink: sink, now: time.Now}
}

// WithClock overrides the service's time source. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreatePostInput is the payload for CreatePost.
type CreatePostInput struct {
	Title   string
	Content string
	// Author is the explicit display name for anonymous submissions. An
	// authenticated identity's display name always wins over it.
	Author string
}

// CreatePost validates and persists a new post, then emits newPost.
//
// Author resolution order: authenticated display name, explicit author
// field, "Anonymous".
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput, ident *auth.Identity) (*Post, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, NewValidationError("title", "Title and content are required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, NewValidationError("content", "Title and content are required")
	}

	now := s.now()
	post := &Post{
		Title:     strings.TrimSpace(in.Title),
		Content:   strings.TrimSpace(in.Content),
		Author:    resolveAuthor(ident, in.Author),
		UpvotedBy: []string{},
		Replies:   []Reply{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, post); err != nil {
		return nil, err
	}

	slog.Info("post created", "postId", post.ID, "author", post.Author)
	s.sink.Publish(Event{Name: EventNewPost, Payload: *post.Clone()})
	return post, nil
}

// AddReply appends a reply to the post's reply sequence, bumps the
// last-modified timestamp, and emits both newReply and postUpdated so
// subscribers of either granularity stay consistent.
func (s *Service) AddReply(ctx context.Context, postID, content, author string, ident *auth.Identity) (*Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewValidationError("content", "Reply content is required")
	}

	post, err := s.store.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	reply := Reply{
		Content:   strings.TrimSpace(content),
		Author:    resolveAuthor(ident, author),
		CreatedAt: s.now(),
	}
	post.Replies = append(post.Replies, reply)
	post.UpdatedAt = reply.CreatedAt
	if err := s.store.Save(ctx, post); err != nil {
		return nil, err
	}

	slog.Info("reply added", "postId", post.ID, "author", reply.Author, "replies", len(post.Replies))
	s.sink.Publish(Event{Name: EventNewReply, Payload: ReplyEvent{PostID: post.ID, Reply: reply}})
	s.sink.Publish(Event{Name: EventPostUpdated, Payload: *post.Clone()})
	return post, nil
}

// Upvote increments the post's vote count and emits postUpdated.
//
// Authenticated identities are deduplicated against the voter set and get
// ErrAlreadyUpvoted on a repeat. Anonymous upvotes are not deduplicated;
// every call counts.
func (s *Service) Upvote(ctx context.Context, postID string, ident *auth.Identity) (*Post, error) {
	voterID := ""
	if ident != nil {
		voterID = ident.ID
	}

	var post *Post
	var err error
	if atomic, ok := s.store.(AtomicUpvoter); ok {
		post, err = atomic.AddVote(ctx, postID, voterID)
	} else {
		post, err = s.addVoteReadModifyWrite(ctx, postID, voterID)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("post upvoted", "postId", post.ID, "votes", post.Votes, "anonymous", voterID == "")
	s.sink.Publish(Event{Name: EventPostUpdated, Payload: *post.Clone()})
	return post, nil
}

// addVoteReadModifyWrite is the non-atomic path for stores without
// AtomicUpvoter. Two interleaved upvotes for the same post resolve
// last-write-wins at the store.
func (s *Service) addVoteReadModifyWrite(ctx context.Context, postID, voterID string) (*Post, error) {
	post, err := s.store.FindByID(ctx, postID)
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
	post.UpdatedAt = s.now()
	if err := s.store.Save(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ToggleAnswered flips the answered flag. Only an instructor or the post's
// author may call it; anonymous callers get ErrAuthRequired.
//
// Transition to answered stamps the answerer's display name and the
// current time; transition back to open clears both.
func (s *Service) ToggleAnswered(ctx context.Context, postID string, ident *auth.Identity) (*Post, error) {
	post, err := s.store.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, ErrAuthRequired
	}
	if !ident.IsInstructor() && post.Author != ident.DisplayName {
		return nil, ErrForbidden
	}

	post.IsAnswered = !post.IsAnswered
	if post.IsAnswered {
		post.AnsweredBy = ident.DisplayName
		at := s.now()
		post.AnsweredAt = &at
	} else {
		post.AnsweredBy = ""
		post.AnsweredAt = nil
	}
	post.UpdatedAt = s.now()
	if err := s.store.Save(ctx, post); err != nil {
		return nil, err
	}

	slog.Info("post answered state toggled", "postId", post.ID, "isAnswered", post.IsAnswered, "by", ident.DisplayName)
	s.sink.Publish(Event{Name: EventPostUpdated, Payload: *post.Clone()})
	return post, nil
}

// List returns posts matching the query, annotated with hasUpvoted for the
// requesting identity.
func (s *Service) List(ctx context.Context, q Query, ident *auth.Identity) ([]View, error) {
	posts, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return NewViews(posts, ident), nil
}

// Get returns a single annotated post.
func (s *Service) Get(ctx context.Context, id string, ident *auth.Identity) (*View, error) {
	post, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewView(*post, ident)
	return &view, nil
}

// resolveAuthor applies the author resolution order.
func resolveAuthor(ident *auth.Identity, explicit string) string {
	if ident != nil && ident.DisplayName != "" {
		return ident.DisplayName
	}
	if strings.TrimSpace(explicit) != "" {
		return strings.TrimSpace(explicit)
	}
	return AnonymousAuthor
}
