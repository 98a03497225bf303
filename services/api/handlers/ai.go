package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnato/forum/services/ai"
)

// SearchSuggestions returns up to five suggested search queries for ?q=.
func SearchSuggestions(gw *ai.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		suggestions, err := gw.SearchSuggestions(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
	}
}

// SmartRepliesRequest is the body for reply suggestions.
type SmartRepliesRequest struct {
	PostID  string `json:"postId" binding:"required"`
	Context string `json:"context"`
}

// SmartReplies returns up to three suggested replies for a post.
func SmartReplies(gw *ai.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SmartRepliesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Post ID is required"})
			return
		}
		replies, err := gw.SmartReplies(c.Request.Context(), req.PostID, req.Context)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"replies": replies})
	}
}

// AnalyzeContentRequest is the body for content analysis.
type AnalyzeContentRequest struct {
	Content string `json:"content" binding:"required,notblank"`
}

// AnalyzeContent rates draft content for clarity, detail, and relevance.
func AnalyzeContent(gw *ai.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnalyzeContentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
			return
		}
		analysis, err := gw.AnalyzeContent(c.Request.Context(), req.Content)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"analysis": analysis})
	}
}

// SimilarPosts returns up to five posts related to the one named in the
// path.
func SimilarPosts(gw *ai.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		similar, err := gw.SimilarPosts(c.Request.Context(), c.Param("postId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"similarPosts": similar})
	}
}

// SummarizeDiscussion returns a summary of the post and its replies.
func SummarizeDiscussion(gw *ai.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := gw.SummarizeDiscussion(c.Request.Context(), c.Param("postId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"summary": summary})
	}
}
