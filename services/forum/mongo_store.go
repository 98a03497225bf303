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
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const postsCollection = "posts"

// MongoStore is the primary PostStore backend, keeping posts as documents
// in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB, pings it, and ensures the listing
// indexes. The caller should treat a connection failure as fatal; serving
// with a broken store is worse than not serving.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &StoreError{Op: "connect", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, &StoreError{Op: "ping", Err: err}
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(postsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureIndexes creates the createdAt and votes listing indexes.
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "votes", Value: -1}}},
	})
	if err != nil {
		return &StoreError{Op: "ensure indexes", Err: err}
	}
	return nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Find implements PostStore.
func (s *MongoStore) Find(ctx context.Context, q Query) ([]Post, error) {
	filter := bson.M{}
	if q.Search != "" {
		// Substring semantics: quote the term so regex metacharacters in
		// user input match literally.
		pattern := regexp.QuoteMeta(q.Search)
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"content": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"author": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	if len(q.MatchAny) > 0 {
		quoted := make([]string, 0, len(q.MatchAny))
		for _, kw := range q.MatchAny {
			if kw != "" {
				quoted = append(quoted, regexp.QuoteMeta(kw))
			}
		}
		if len(quoted) > 0 {
			pattern := strings.Join(quoted, "|")
			filter["$or"] = bson.A{
				bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
				bson.M{"content": bson.M{"$regex": pattern, "$options": "i"}},
			}
		}
	}
	if q.ExcludeID != "" {
		filter["_id"] = bson.M{"$ne": q.ExcludeID}
	}

	sortDoc := bson.D{{Key: "createdAt", Value: -1}}
	if q.Sort == SortByVotes {
		sortDoc = bson.D{{Key: "votes", Value: -1}, {Key: "createdAt", Value: -1}}
	}
	opts := options.Find().SetSort(sortDoc)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, &StoreError{Op: "find", Err: err}
	}
	defer cursor.Close(ctx)

	var posts []Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, &StoreError{Op: "decode", Err: err}
	}
	if posts == nil {
		posts = []Post{}
	}
	return posts, nil
}

// FindByID implements PostStore.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*Post, error) {
	var post Post
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "find by id", Err: err}
	}
	return &post, nil
}

// Insert implements PostStore.
func (s *MongoStore) Insert(ctx context.Context, p *Post) error {
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
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return &StoreError{Op: "insert", Err: err}
	}
	return nil
}

// Save implements PostStore. Whole-document replacement: concurrent saves
// for the same post resolve last-write-wins, which is why Upvote prefers
// the AddVote path below.
func (s *MongoStore) Save(ctx context.Context, p *Post) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddVote implements AtomicUpvoter with a guarded update so the increment
// and the voter-set insertion happen in one storage operation.
func (s *MongoStore) AddVote(ctx context.Context, postID, voterID string) (*Post, error) {
	filter := bson.M{"_id": postID}
	update := bson.M{
		"$inc": bson.M{"votes": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	if voterID != "" {
		filter["upvotedBy"] = bson.M{"$ne": voterID}
		update["$push"] = bson.M{"upvotedBy": voterID}
	}

	var post Post
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the post is gone or the voter guard filtered it out.
		if _, findErr := s.FindByID(ctx, postID); findErr != nil {
			return nil, findErr
		}
		return nil, ErrAlreadyUpvoted
	}
	if err != nil {
		return nil, &StoreError{Op: "add vote", Err: err}
	}
	return &post, nil
}
