// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package forum holds the discussion forum domain: the Post/Reply model,
// the document store contract and its backends, and the mutation service
// that applies writes and emits change events.
package forum

import (
	"time"

	"github.com/learnato/forum/services/auth"
)

// AnonymousAuthor is the display name used when no identity and no explicit
// author accompany a submission.
const AnonymousAuthor = "Anonymous"

// Reply is a response attached to a post. It has no identity of its own;
// its position in the parent's reply sequence is its only handle.
type Reply struct {
	Content   string    `json:"content" bson:"content"`
	Author    string    `json:"author" bson:"author"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Post is a top-level forum question.
//
// Invariant: Votes is non-negative and equals len(UpvotedBy) as long as all
// upvotes came from authenticated users. Anonymous upvotes increment Votes
// without a corresponding entry, so Votes may exceed the set size.
type Post struct {
	ID         string     `json:"id" bson:"_id"`
	Title      string     `json:"title" bson:"title"`
	Content    string     `json:"content" bson:"content"`
	Author     string     `json:"author" bson:"author"`
	Votes      int        `json:"votes" bson:"votes"`
	UpvotedBy  []string   `json:"upvotedBy" bson:"upvotedBy"`
	IsAnswered bool       `json:"isAnswered" bson:"isAnswered"`
	AnsweredBy string     `json:"answeredBy,omitempty" bson:"answeredBy,omitempty"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty" bson:"answeredAt,omitempty"`
	Replies    []Reply    `json:"replies" bson:"replies"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// UpvotedByIdentity reports whether ident is in the post's voter set.
// Anonymous (nil) identities are never members.
func (p *Post) UpvotedByIdentity(ident *auth.Identity) bool {
	if ident == nil {
		return false
	}
	for _, id := range p.UpvotedBy {
		if id == ident.ID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so store callers never alias internal state.
func (p *Post) Clone() *Post {
	dup := *p
	dup.UpvotedBy = append([]string(nil), p.UpvotedBy...)
	dup.Replies = append([]Reply(nil), p.Replies...)
	if p.AnsweredAt != nil {
		at := *p.AnsweredAt
		dup.AnsweredAt = &at
	}
	return &dup
}

// View is a Post annotated for a specific reader.
type View struct {
	Post
	// HasUpvoted is true when the requesting identity is in the voter set.
	// Always false for anonymous readers.
	HasUpvoted bool `json:"hasUpvoted"`
}

// NewView annotates a post for the given (possibly nil) identity.
func NewView(p Post, ident *auth.Identity) View {
	return View{Post: p, HasUpvoted: p.UpvotedByIdentity(ident)}
}

// NewViews annotates a slice of posts, preserving order.
func NewViews(posts []Post, ident *auth.Identity) []View {
	views := make([]View, len(posts))
	for i, p := range posts {
		views[i] = NewView(p, ident)
	}
	return views
}
