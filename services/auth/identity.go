// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package auth resolves optional request credentials into forum identities.
//
// Token issuance lives outside this service. This package only verifies a
// bearer credential and produces either a resolved Identity or nil for
// anonymous access; a missing or invalid credential is not an error at the
// request boundary.
package auth

import "context"

// Role is the coarse authorization role carried by an identity.
type Role string

const (
	// RoleLearner is the default role for authenticated users.
	RoleLearner Role = "learner"

	// RoleInstructor may mark any post as answered.
	RoleInstructor Role = "instructor"
)

// Identity is a resolved authenticated principal.
//
// A nil *Identity means the request is anonymous. Anonymous requests are
// valid everywhere except mark-answered.
type Identity struct {
	// ID is the stable identifier used for upvote deduplication.
	ID string `json:"id"`

	// DisplayName is the unique display name shown as post author.
	DisplayName string `json:"displayName"`

	// Role is learner or instructor.
	Role Role `json:"role"`
}

// IsInstructor reports whether the identity carries the instructor role.
func (i *Identity) IsInstructor() bool {
	return i != nil && i.Role == RoleInstructor
}

// Verifier turns a bearer credential into an Identity.
type Verifier interface {
	// Verify resolves token into an identity. A non-nil error means the
	// credential was present but could not be validated; callers decide
	// whether that degrades to anonymous or is surfaced.
	Verify(ctx context.Context, token string) (*Identity, error)
}
