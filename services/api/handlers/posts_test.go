// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnato/forum/services/api/middleware"
	"github.com/learnato/forum/services/auth"
	"github.com/learnato/forum/services/forum"
)

func newTestRouter(t *testing.T) (*gin.Engine, *forum.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidations()

	store := forum.NewMemoryStore()
	svc := forum.NewService(store, nil)

	verifier := &auth.StaticVerifier{Tokens: map[string]*auth.Identity{
		"learner-token":    {ID: "u1", DisplayName: "sam", Role: auth.RoleLearner},
		"instructor-token": {ID: "u2", DisplayName: "prof_ada", Role: auth.RoleInstructor},
	}}

	router := gin.New()
	api := router.Group("/api")
	api.Use(middleware.Identity(verifier))
	posts := api.Group("/posts")
	posts.GET("", ListPosts(svc))
	posts.GET("/search", SearchPosts(svc))
	posts.GET("/:id", GetPost(svc))
	posts.POST("", CreatePost(svc))
	posts.POST("/:id/reply", AddReply(svc))
	posts.POST("/:id/upvote", UpvotePost(svc))
	posts.POST("/:id/mark-answered", MarkAnswered(svc))
	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreatePostEndpoint(t *testing.T) {
	t.Run("anonymous create", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w := doJSON(t, router, http.MethodPost, "/api/posts", "", gin.H{"title": "t", "content": "c"})
		require.Equal(t, http.StatusCreated, w.Code)

		var post forum.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
		assert.Equal(t, "Anonymous", post.Author)
		assert.Equal(t, 0, post.Votes)
		assert.False(t, post.IsAnswered)
	})

	t.Run("authenticated create uses display name", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w := doJSON(t, router, http.MethodPost, "/api/posts", "learner-token", gin.H{"title": "t", "content": "c", "author": "ignored"})
		require.Equal(t, http.StatusCreated, w.Code)

		var post forum.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
		assert.Equal(t, "sam", post.Author)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w := doJSON(t, router, http.MethodPost, "/api/posts", "", gin.H{"title": "t"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Title and content are required")
	})
}

func TestListAndSearchEndpoints(t *testing.T) {
	router, svc := newTestRouter(t)
	ctx := context.Background()
	_, err := svc.CreatePost(ctx, forum.CreatePostInput{Title: "Goroutine leaks", Content: "pprof time"}, nil)
	require.NoError(t, err)
	second, err := svc.CreatePost(ctx, forum.CreatePostInput{Title: "Channel tricks", Content: "fan-in"}, nil)
	require.NoError(t, err)
	_, err = svc.Upvote(ctx, second.ID, nil)
	require.NoError(t, err)

	t.Run("list all", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/posts", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var views []forum.View
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
		assert.Len(t, views, 2)
	})

	t.Run("list sorted by votes", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/posts?sort=votes", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var views []forum.View
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
		require.Len(t, views, 2)
		assert.Equal(t, "Channel tricks", views[0].Title)
	})

	t.Run("q and search are synonyms", func(t *testing.T) {
		for _, path := range []string{"/api/posts?q=goroutine", "/api/posts?search=goroutine"} {
			w := doJSON(t, router, http.MethodGet, path, "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			var views []forum.View
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
			assert.Len(t, views, 1, path)
		}
	})

	t.Run("search endpoint health probe", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/posts/search?health=check", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Search endpoint is healthy")
	})

	t.Run("search endpoint requires a term", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/posts/search", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get by id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/posts/"+second.ID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var view forum.View
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, "Channel tricks", view.Title)
		assert.False(t, view.HasUpvoted)
	})

	t.Run("get unknown id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/posts/missing", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpvoteEndpoint(t *testing.T) {
	router, svc := newTestRouter(t)
	post, err := svc.CreatePost(context.Background(), forum.CreatePostInput{Title: "t", Content: "c"}, nil)
	require.NoError(t, err)

	t.Run("first authenticated upvote succeeds", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/posts/"+post.ID+"/upvote", "learner-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var updated forum.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, 1, updated.Votes)
	})

	t.Run("second authenticated upvote conflicts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/posts/"+post.ID+"/upvote", "learner-token", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "already upvoted")
	})

	t.Run("anonymous upvotes always count", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/posts/"+post.ID+"/upvote", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		w = doJSON(t, router, http.MethodPost, "/api/posts/"+post.ID+"/upvote", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var updated forum.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, 3, updated.Votes)
	})
}

func TestMarkAnsweredEndpoint(t *testing.T) {
	router, svc := newTestRouter(t)
	post, err := svc.CreatePost(context.Background(), forum.CreatePostInput{Title: "t", Content: "c", Author: "someone else"}, nil)
	require.NoError(t, err)

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/posts/"+post.ID+"/mark-answered", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-author learner is forbidden", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/posts/"+post.ID+"/mark-answered", "learner-token", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("instructor toggles", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/posts/"+post.ID+"/mark-answered", "instructor-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var updated forum.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.True(t, updated.IsAnswered)
		assert.Equal(t, "prof_ada", updated.AnsweredBy)
	})

	t.Run("invalid token degrades to anonymous", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/posts/"+post.ID+"/mark-answered", "bogus", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAddReplyEndpoint(t *testing.T) {
	router, svc := newTestRouter(t)
	post, err := svc.CreatePost(context.Background(), forum.CreatePostInput{Title: "t", Content: "c"}, nil)
	require.NoError(t, err)

	t.Run("reply appended", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/posts/"+post.ID+"/reply", "learner-token", gin.H{"content": "try pprof"})
		require.Equal(t, http.StatusOK, w.Code)
		var updated forum.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		require.Len(t, updated.Replies, 1)
		assert.Equal(t, "sam", updated.Replies[0].Author)
	})

	t.Run("empty reply rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/posts/"+post.ID+"/reply", "", gin.H{"content": ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Reply content is required")
	})
}
