// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what can be read from an access token without verifying it.
// It is for display only; the server remains the authority on validity.
type TokenInfo struct {
	IsJWT     bool      `json:"is_jwt"`
	Subject   string    `json:"subject,omitempty"`
	Issuer    string    `json:"issuer,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitzero"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Expired reports whether the token carries an expiry that has passed.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// DescribeToken decodes the registered claims of a JWT access token. Opaque
// tokens yield IsJWT == false.
func DescribeToken(token string) TokenInfo {
	if token == "" {
		return TokenInfo{}
	}

	claims := &jwt.RegisteredClaims{}
	// SECURITY: The signature is not checked; nothing here grants access.
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{IsJWT: true, Subject: claims.Subject, Issuer: claims.Issuer}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}
