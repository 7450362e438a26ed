// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeToken_JWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		Issuer:    "news-backend",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	info := DescribeToken(signed)
	assert.True(t, info.IsJWT)
	assert.Equal(t, "7", info.Subject)
	assert.Equal(t, "news-backend", info.Issuer)
	assert.True(t, exp.Equal(info.ExpiresAt))
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(exp.Add(time.Minute)))
}

func TestDescribeToken_Opaque(t *testing.T) {
	assert.Equal(t, TokenInfo{}, DescribeToken("tok-123"))
	assert.Equal(t, TokenInfo{}, DescribeToken(""))
	assert.False(t, TokenInfo{}.Expired(time.Now()))
}

func TestUserProfile_DisplayName(t *testing.T) {
	assert.Equal(t, "Lee", UserProfile{"id": 7, "name": "Lee"}.DisplayName())
	assert.Equal(t, "lee@example.com", UserProfile{"email": "lee@example.com"}.DisplayName())
	assert.Equal(t, "user #7", UserProfile{"id": float64(7)}.DisplayName())
	assert.Equal(t, "", UserProfile(nil).DisplayName())
}
