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
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/learnato/forum/services/api/middleware"
	"github.com/learnato/forum/services/forum"
	"github.com/learnato/forum/services/observability"
)

// ListPosts returns all posts, optionally filtered and sorted.
// Both ?search= and ?q= name the search term; ?sort=votes|date picks the
// ordering, defaulting to newest first.
func ListPosts(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := c.Query("search")
		if search == "" {
			search = c.Query("q")
		}
		query := forum.Query{
			Search: strings.TrimSpace(search),
			Sort:   forum.ParseSortOrder(c.DefaultQuery("sort", "date")),
		}
		views, err := svc.List(c.Request.Context(), query, middleware.GetIdentity(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

// SearchPosts is the dedicated search endpoint. ?health=check short-circuits
// with a liveness probe so the client can verify search independently of
// post data.
func SearchPosts(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("health") == "check" {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Search endpoint is healthy"})
			return
		}
		term := strings.TrimSpace(c.Query("q"))
		if term == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Search term is required"})
			return
		}
		views, err := svc.List(c.Request.Context(), forum.Query{Search: term, Sort: forum.SortByDate}, middleware.GetIdentity(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

// GetPost returns a single post by id.
func GetPost(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.Get(c.Request.Context(), c.Param("id"), middleware.GetIdentity(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// CreatePostRequest is the body for creating a post. Author is only used
// for anonymous submissions.
type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,notblank"`
	Content string `json:"content" binding:"required,notblank"`
	Author  string `json:"author"`
}

// CreatePost creates a new post and returns it with 201.
func CreatePost(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title and content are required"})
			return
		}
		post, err := svc.CreatePost(c.Request.Context(), forum.CreatePostInput{
			Title:   req.Title,
			Content: req.Content,
			Author:  req.Author,
		}, middleware.GetIdentity(c))
		observability.RecordPostMutation("create", err)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, post)
	}
}

// AddReplyRequest is the body for replying to a post.
type AddReplyRequest struct {
	Content string `json:"content" binding:"required,notblank"`
	Author  string `json:"author"`
}

// AddReply appends a reply and returns the updated post.
func AddReply(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddReplyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Reply content is required"})
			return
		}
		post, err := svc.AddReply(c.Request.Context(), c.Param("id"), req.Content, req.Author, middleware.GetIdentity(c))
		observability.RecordPostMutation("reply", err)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// UpvotePost increments the post's votes and returns the updated post.
func UpvotePost(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := svc.Upvote(c.Request.Context(), c.Param("id"), middleware.GetIdentity(c))
		observability.RecordPostMutation("upvote", err)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// MarkAnswered toggles the post's answered flag and returns the updated
// post.
func MarkAnswered(svc *forum.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := svc.ToggleAnswered(c.Request.Context(), c.Param("id"), middleware.GetIdentity(c))
		observability.RecordPostMutation("toggle_answered", err)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}
