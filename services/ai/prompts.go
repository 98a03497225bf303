package ai

// Prompt templates sent to the provider. Each operation appends its
// subject matter below the template.
const (
	promptSearchSuggestions = `Generate 5 search suggestions based on the following query. Keep them concise (2-5 words each) and relevant to a Q&A forum. Return as a JSON array of strings.`

	promptSmartReplies = `Generate 3 possible helpful and concise replies to the following post. Keep them under 20 words each. Return as a JSON array of strings.`

	promptContentAnalysis = `Analyze the following post content and provide feedback in JSON format with these keys:
  - clarity (1-5 rating)
  - detail (1-5 rating)
  - relevance (1-5 rating)
  - suggested_improvements (array of strings)
  - tags (array of relevant topic tags)
  - summary (brief summary in 1-2 sentences)

  Content to analyze:`

	promptSimilarPosts = `Given the following question/post, find the 5 most similar posts from the list below. Return only a JSON array of post IDs in order of similarity (most similar first).`

	promptSummarize = `Summarize the following discussion forum post and its replies. Provide:
1. A concise summary (2-3 sentences) of the main question and key points discussed
2. Extract 3-5 key points or insights from the replies`
)
