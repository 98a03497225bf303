package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnato/forum/services/ai"
	"github.com/learnato/forum/services/forum"
)

func newAIRouter(t *testing.T) (*gin.Engine, *forum.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidations()

	store := forum.NewMemoryStore()
	svc := forum.NewService(store, nil)
	gw := ai.NewGateway(nil, store)

	router := gin.New()
	aiGroup := router.Group("/api/ai")
	aiGroup.GET("/search-suggestions", SearchSuggestions(gw))
	aiGroup.GET("/similar/:postId", SimilarPosts(gw))
	aiGroup.GET("/summarize/:postId", SummarizeDiscussion(gw))
	aiGroup.POST("/smart-replies", SmartReplies(gw))
	aiGroup.POST("/analyze-content", AnalyzeContent(gw))
	return router, svc
}

func TestAIEndpoints(t *testing.T) {
	router, svc := newAIRouter(t)
	post, err := svc.CreatePost(context.Background(), forum.CreatePostInput{Title: "Goroutine leaks", Content: "pprof"}, nil)
	require.NoError(t, err)

	t.Run("search suggestions", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/ai/search-suggestions?q=channels", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Suggestions []string `json:"suggestions"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Suggestions)
	})

	t.Run("search suggestions require a query", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/ai/search-suggestions", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("smart replies", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/ai/smart-replies", "", gin.H{"postId": post.ID})
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Replies []string `json:"replies"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Len(t, body.Replies, 3)
	})

	t.Run("smart replies for unknown post", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/ai/smart-replies", "", gin.H{"postId": "missing"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("analyze content", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/ai/analyze-content", "", gin.H{"content": "How do channels work under load?"})
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Analysis ai.Analysis `json:"analysis"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 3, body.Analysis.Clarity)
	})

	t.Run("similar posts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/ai/similar/"+post.ID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			SimilarPosts []ai.SimilarPost `json:"similarPosts"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Empty(t, body.SimilarPosts)
	})

	t.Run("summarize discussion", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/ai/summarize/"+post.ID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Summary ai.DiscussionSummary `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body.Summary.Summary, "0 replies")
	})
}
