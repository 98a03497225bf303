// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the forum API.
//
// The identity middleware extracts a bearer token from the Authorization
// header, verifies it with the configured auth.Verifier, and stores the
// resulting Identity in the Gin context for downstream handlers. The forum
// is usable anonymously, so a missing or invalid token never rejects the
// request: it just leaves the request unauthenticated.
package middleware

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/learnato/forum/services/auth"
)

// identityKey is the context key for the authenticated identity.
const identityKey = "forum_identity"

// Identity resolves the caller's identity for every request. verifier may
// be nil, in which case every request is anonymous.
func Identity(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			c.Next()
			return
		}

		ident, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			// Invalid credentials degrade to anonymous rather than 401:
			// expired tokens should not lock users out of reading.
			slog.Warn("Bearer token rejected, treating request as anonymous", "error", err)
			c.Next()
			return
		}
		c.Set(identityKey, ident)
		c.Next()
	}
}

// GetIdentity returns the authenticated identity, or nil for anonymous
// requests.
func GetIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	ident, _ := v.(*auth.Identity)
	return ident
}
