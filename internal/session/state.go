// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"fmt"
)

// Persistent keys. These names are shared with other clients of the same
// backend and must not change.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// Keys lists every key the store owns, in removal order.
var Keys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// UserProfile is the logged-in user's profile as returned by the backend.
// Its shape is not interpreted beyond DisplayName.
type UserProfile map[string]any

// DisplayName picks a human-readable label from common profile fields.
func (u UserProfile) DisplayName() string {
	for _, field := range []string{"name", "username", "email"} {
		if v, ok := u[field].(string); ok && v != "" {
			return v
		}
	}
	if id, ok := u["id"]; ok && id != nil {
		return fmt.Sprintf("user #%v", id)
	}
	return ""
}

// Clone returns a deep copy of u.
func (u UserProfile) Clone() UserProfile {
	if u == nil {
		return nil
	}
	return cloneValue(map[string]any(u)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case UserProfile:
		return UserProfile(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// encodeProfile serializes u and returns the normalized form a later
// hydration would produce, so memory and storage compare equal.
func encodeProfile(u UserProfile) (string, UserProfile, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	normalized, err := decodeProfile(string(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return string(data), normalized, nil
}

func decodeProfile(raw string) (UserProfile, error) {
	var u UserProfile
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("profile is null")
	}
	return u, nil
}

// State is a snapshot of the session. Authenticated is true exactly when
// AccessToken is non-empty.
type State struct {
	Authenticated bool        `json:"authenticated"`
	AccessToken   string      `json:"-"`
	RefreshToken  string      `json:"-"`
	User          UserProfile `json:"user,omitempty"`
}

func (s State) clone() State {
	s.User = s.User.Clone()
	return s
}

func loggedOut() State { return State{} }
