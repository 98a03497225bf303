// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ai provides the language-model gateway for the forum: search
// suggestions, smart replies, content analysis, similar-post ranking, and
// discussion summaries. Every operation degrades to a deterministic local
// fallback when no provider is configured, so the forum stays fully usable
// offline.
package ai

import "context"

// Provider is the standard interface for any text-generation backend.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
