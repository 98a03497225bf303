// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/learnato/forum/services/cache"
	"github.com/learnato/forum/services/forum"
	"github.com/learnato/forum/services/observability"
)

// Analysis is structured feedback on a piece of post content.
type Analysis struct {
	Clarity               int      `json:"clarity"`
	Detail                int      `json:"detail"`
	Relevance             int      `json:"relevance"`
	SuggestedImprovements []string `json:"suggested_improvements"`
	Tags                  []string `json:"tags"`
	Summary               string   `json:"summary"`
}

// SimilarPost is the trimmed projection returned by similar-post lookups.
type SimilarPost struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Votes     int    `json:"votes"`
	CreatedAt string `json:"createdAt"`
}

// KeyPoint is one highlighted insight extracted from a discussion.
type KeyPoint struct {
	Author  string `json:"author"`
	Preview string `json:"preview"`
}

// DiscussionSummary rolls up a post and its replies.
type DiscussionSummary struct {
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	TotalReplies int        `json:"totalReplies"`
	TotalVotes   int        `json:"totalVotes"`
	IsAnswered   bool       `json:"isAnswered"`
	KeyPoints    []KeyPoint `json:"keyPoints"`
	Summary      string     `json:"summary"`
}

// Gateway serves all AI-assisted forum features. The provider is optional:
// a nil provider routes every operation straight to its local fallback.
// Results are cached with a short TTL keyed by operation and input.
type Gateway struct {
	provider Provider
	store    forum.PostStore
	cache    *cache.Cache[any]
}

// NewGateway builds a gateway over the given store. provider may be nil.
func NewGateway(provider Provider, store forum.PostStore, opts ...cache.Option) *Gateway {
	return &Gateway{
		provider: provider,
		store:    store,
		cache:    cache.New[any](opts...),
	}
}

// CacheStats exposes cache counters for metrics scraping.
func (g *Gateway) CacheStats() cache.Stats { return g.cache.Stats() }

// generate calls the provider and records the outcome.
func (g *Gateway) generate(ctx context.Context, op, prompt string) (string, error) {
	resp, err := g.provider.Generate(ctx, prompt)
	observability.RecordAIProviderCall(op, err)
	return resp, err
}

// SearchSuggestions returns up to five short suggestions for a search query.
// Without a provider it expands the query's keywords into common search
// shapes instead.
func (g *Gateway) SearchSuggestions(ctx context.Context, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, forum.NewValidationError("q", "Query parameter is required")
	}

	key := "search_suggestions:" + strings.ToLower(strings.TrimSpace(query))
	v, err := g.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		if g.provider == nil {
			return g.fallbackSuggestions(query), nil
		}
		prompt := fmt.Sprintf("%s\n\nQuery: %s", promptSearchSuggestions, query)
		resp, err := g.generate(ctx, "search_suggestions", prompt)
		if err != nil {
			slog.Error("search suggestion generation failed, using fallback", "error", err)
			return g.fallbackSuggestions(query), nil
		}
		return limit(parseStringList(resp, 0), 5), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (g *Gateway) fallbackSuggestions(query string) []string {
	observability.RecordAIFallback("search_suggestions")
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 2 {
			keywords = append(keywords, w)
		}
	}
	seen := make(map[string]bool)
	var suggestions []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			suggestions = append(suggestions, s)
		}
	}
	for _, k := range keywords {
		add(k)
	}
	for _, k := range keywords {
		add(k + " tutorial")
	}
	for _, k := range keywords {
		add("how to " + k)
	}
	for _, k := range keywords {
		add(k + " examples")
	}
	for _, k := range keywords {
		add("best " + k + " practices")
	}
	return limit(suggestions, 5)
}

// SmartReplies proposes up to three short replies to a post, optionally
// steered by caller-supplied context.
func (g *Gateway) SmartReplies(ctx context.Context, postID, replyContext string) ([]string, error) {
	if postID == "" {
		return nil, forum.NewValidationError("postId", "Post ID is required")
	}
	post, err := g.store.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	key := "smart_replies:" + postID + ":" + replyContext
	v, err := g.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		if g.provider == nil {
			return g.fallbackReplies(), nil
		}
		steer := replyContext
		if steer == "" {
			steer = "No additional context provided"
		}
		prompt := fmt.Sprintf("%s\n\nPost: %s\n%s\n\nContext: %s", promptSmartReplies, post.Title, post.Content, steer)
		resp, err := g.generate(ctx, "smart_replies", prompt)
		if err != nil {
			slog.Error("smart reply generation failed, using fallback", "error", err)
			return g.fallbackReplies(), nil
		}
		return limit(parseStringList(resp, 100), 3), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (g *Gateway) fallbackReplies() []string {
	observability.RecordAIFallback("smart_replies")
	return []string{
		"Thanks for sharing this!",
		"I have a similar question.",
		"Can you provide more details?",
	}
}

// AnalyzeContent rates a draft post for clarity, detail, and relevance.
// This is the one operation where a malformed provider response is an
// error rather than a silent fallback: the caller asked for the model's
// judgement, and a canned score would be misleading.
func (g *Gateway) AnalyzeContent(ctx context.Context, content string) (*Analysis, error) {
	if strings.TrimSpace(content) == "" {
		return nil, forum.NewValidationError("content", "Content is required")
	}

	sum := sha256.Sum256([]byte(content))
	key := "content_analysis:" + hex.EncodeToString(sum[:])
	v, err := g.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		if g.provider == nil {
			return g.fallbackAnalysis(content), nil
		}
		prompt := fmt.Sprintf("%s\n\n%s\n\nPlease provide the analysis in valid JSON format.", promptContentAnalysis, content)
		resp, err := g.generate(ctx, "content_analysis", prompt)
		if err != nil {
			return nil, &forum.UpstreamError{Op: "analyze content", Err: err}
		}
		var analysis Analysis
		if !extractJSONObject(resp, &analysis) {
			return nil, &forum.UpstreamError{Op: "analyze content", Err: fmt.Errorf("invalid response format from AI")}
		}
		return &analysis, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Analysis), nil
}

func (g *Gateway) fallbackAnalysis(content string) *Analysis {
	observability.RecordAIFallback("content_analysis")
	wordCount := len(strings.Fields(content))
	detail := wordCount / 50
	if detail > 5 {
		detail = 5
	}
	return &Analysis{
		Clarity:   3,
		Detail:    detail,
		Relevance: 3,
		SuggestedImprovements: []string{
			"Consider adding more specific details",
			"Break down complex ideas into smaller sections",
			"Add examples to illustrate your points",
		},
		Tags:    []string{},
		Summary: "This is a summary of the content.",
	}
}

// SimilarPosts ranks up to five posts related to the given one. The
// provider sees a trimmed view of the 50 most recent other posts and
// returns IDs in similarity order; any provider trouble falls back to
// keyword search on the post title.
func (g *Gateway) SimilarPosts(ctx context.Context, postID string) ([]SimilarPost, error) {
	post, err := g.store.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	key := "similar_posts:" + postID
	v, err := g.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		if g.provider == nil {
			return g.fallbackSimilar(ctx, post)
		}

		candidates, err := g.store.Find(ctx, forum.Query{ExcludeID: postID, Sort: forum.SortByDate, Limit: 50})
		if err != nil {
			return nil, &forum.StoreError{Op: "find similar candidates", Err: err}
		}
		if len(candidates) == 0 {
			return []SimilarPost{}, nil
		}

		type candidate struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		trimmed := make([]candidate, len(candidates))
		for i, c := range candidates {
			trimmed[i] = candidate{ID: c.ID, Title: c.Title, Content: truncate(c.Content, 200)}
		}
		listing, _ := json.MarshalIndent(trimmed, "", "  ")

		prompt := fmt.Sprintf("%s\n\nQuestion/Post:\nTitle: %s\nContent: %s\n\nAvailable Posts:\n%s\n\nReturn only a JSON array of IDs like: [\"id1\", \"id2\", \"id3\", \"id4\", \"id5\"]",
			promptSimilarPosts, post.Title, truncate(post.Content, 500), listing)

		resp, err := g.generate(ctx, "similar_posts", prompt)
		if err != nil {
			slog.Error("similar post ranking failed, using fallback", "error", err)
			return g.fallbackSimilar(ctx, post)
		}

		var ids []string
		if !extractJSONArray(resp, &ids) {
			slog.Warn("similar post response had no parseable id array, using fallback")
			return g.fallbackSimilar(ctx, post)
		}

		byID := make(map[string]forum.Post, len(candidates))
		for _, c := range candidates {
			byID[c.ID] = c
		}
		var similar []SimilarPost
		for _, id := range ids {
			if c, ok := byID[id]; ok {
				similar = append(similar, projectSimilar(c))
			}
		}
		if similar == nil {
			similar = []SimilarPost{}
		}
		return limit(similar, 5), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]SimilarPost), nil
}

func (g *Gateway) fallbackSimilar(ctx context.Context, post *forum.Post) (any, error) {
	observability.RecordAIFallback("similar_posts")
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(post.Title)) {
		if len(w) > 3 {
			keywords = append(keywords, w)
		}
	}
	if len(keywords) == 0 {
		return []SimilarPost{}, nil
	}
	matches, err := g.store.Find(ctx, forum.Query{
		MatchAny:  keywords,
		ExcludeID: post.ID,
		Sort:      forum.SortByVotes,
		Limit:     5,
	})
	if err != nil {
		return nil, &forum.StoreError{Op: "find similar posts", Err: err}
	}
	similar := make([]SimilarPost, len(matches))
	for i, m := range matches {
		similar[i] = projectSimilar(m)
	}
	return similar, nil
}

func projectSimilar(p forum.Post) SimilarPost {
	return SimilarPost{
		ID:        p.ID,
		Title:     p.Title,
		Author:    p.Author,
		Votes:     p.Votes,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// SummarizeDiscussion produces a summary of a post and its reply thread.
func (g *Gateway) SummarizeDiscussion(ctx context.Context, postID string) (*DiscussionSummary, error) {
	post, err := g.store.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	key := "discussion_summary:" + postID
	v, err := g.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		if g.provider == nil {
			return g.fallbackSummary(post), nil
		}

		var replies strings.Builder
		for i, r := range post.Replies {
			if i > 0 {
				replies.WriteString("\n\n")
			}
			fmt.Fprintf(&replies, "Reply %d by %s:\n%s", i+1, r.Author, r.Content)
		}
		thread := "\nNo replies yet."
		if len(post.Replies) > 0 {
			thread = "\nReplies:\n" + replies.String()
		}

		prompt := fmt.Sprintf(`%s

Post:
Title: %s
Author: %s
Content: %s
%s

Return your response in the following JSON format:
{
  "summary": "Brief summary text here",
  "keyPoints": [
    {
      "author": "author name",
      "point": "key point text"
    }
  ]
}`, promptSummarize, post.Title, post.Author, post.Content, thread)

		resp, err := g.generate(ctx, "discussion_summary", prompt)
		if err != nil {
			slog.Error("discussion summary generation failed, using fallback", "error", err)
			return g.fallbackSummary(post), nil
		}

		var parsed struct {
			Summary   string `json:"summary"`
			KeyPoints []struct {
				Author string `json:"author"`
				Point  string `json:"point"`
			} `json:"keyPoints"`
		}
		if !extractJSONObject(resp, &parsed) || parsed.Summary == "" {
			slog.Warn("discussion summary response was not parseable, using fallback")
			return g.fallbackSummary(post), nil
		}

		summary := g.summaryShell(post)
		summary.Summary = parsed.Summary
		for _, kp := range limit(parsed.KeyPoints, 5) {
			author := kp.Author
			if author == "" {
				author = forum.AnonymousAuthor
			}
			summary.KeyPoints = append(summary.KeyPoints, KeyPoint{Author: author, Preview: kp.Point})
		}
		if len(summary.KeyPoints) == 0 {
			summary.KeyPoints = replyKeyPoints(post)
		}
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*DiscussionSummary), nil
}

func (g *Gateway) fallbackSummary(post *forum.Post) *DiscussionSummary {
	observability.RecordAIFallback("discussion_summary")
	summary := g.summaryShell(post)
	summary.Summary = fmt.Sprintf("This discussion has %d %s and %d %s. %s",
		len(post.Replies), plural(len(post.Replies), "reply", "replies"),
		post.Votes, plural(post.Votes, "vote", "votes"),
		answeredPhrase(post.IsAnswered))
	summary.KeyPoints = replyKeyPoints(post)
	return summary
}

func (g *Gateway) summaryShell(post *forum.Post) *DiscussionSummary {
	return &DiscussionSummary{
		Title:        post.Title,
		Author:       post.Author,
		TotalReplies: len(post.Replies),
		TotalVotes:   post.Votes,
		IsAnswered:   post.IsAnswered,
		KeyPoints:    []KeyPoint{},
	}
}

func replyKeyPoints(post *forum.Post) []KeyPoint {
	points := []KeyPoint{}
	for _, r := range limit(post.Replies, 3) {
		preview := truncate(r.Content, 100)
		if len(r.Content) > 100 {
			preview += "..."
		}
		points = append(points, KeyPoint{Author: r.Author, Preview: preview})
	}
	return points
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func answeredPhrase(answered bool) string {
	if answered {
		return "The question has been marked as answered."
	}
	return "The question is still open for discussion."
}
