// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/learnato/forum/services/ai"
	"github.com/learnato/forum/services/api/handlers"
	"github.com/learnato/forum/services/api/middleware"
	"github.com/learnato/forum/services/auth"
	"github.com/learnato/forum/services/forum"
	"github.com/learnato/forum/services/realtime"
)

func SetupRoutes(router *gin.Engine, svc *forum.Service, gateway *ai.Gateway,
	hub *realtime.Hub, verifier auth.Verifier) {

	handlers.RegisterValidations()
	router.Use(middleware.CORS())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", hub.ServeWS())

	api := router.Group("/api")
	api.Use(middleware.Identity(verifier))
	{
		posts := api.Group("/posts")
		{
			posts.GET("", handlers.ListPosts(svc))
			// Search must come before the :id route to avoid conflict.
			posts.GET("/search", handlers.SearchPosts(svc))
			posts.GET("/:id", handlers.GetPost(svc))
			posts.POST("", handlers.CreatePost(svc))
			posts.POST("/:id/reply", handlers.AddReply(svc))
			posts.POST("/:id/upvote", handlers.UpvotePost(svc))
			posts.POST("/:id/mark-answered", handlers.MarkAnswered(svc))
		}

		aiGroup := api.Group("/ai")
		{
			aiGroup.GET("/search-suggestions", handlers.SearchSuggestions(gateway))
			aiGroup.GET("/similar/:postId", handlers.SimilarPosts(gateway))
			aiGroup.GET("/summarize/:postId", handlers.SummarizeDiscussion(gateway))
			aiGroup.POST("/smart-replies", handlers.SmartReplies(gateway))
			aiGroup.POST("/analyze-content", handlers.AnalyzeContent(gateway))
		}
	}
}
