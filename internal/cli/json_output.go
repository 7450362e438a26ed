// json_output.go - Machine-readable output for all commands.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/choihjin/news-front-project/internal/session"
)

// JSONResponse is the envelope every --json command prints.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed response. data may be nil.
func NewJSONErrorResponse(command string, err error, data any) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      data,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// SessionData is returned by login and status.
type SessionData struct {
	Authenticated    bool                `json:"authenticated"`
	User             session.UserProfile `json:"user"`
	DisplayName      string              `json:"display_name,omitempty"`
	TokenFingerprint string              `json:"token_fingerprint"`
	Token            *session.TokenInfo  `json:"token,omitempty"`
	HasRefreshToken  bool                `json:"has_refresh_token"`
	Storage          *StorageData        `json:"storage,omitempty"`
	API              *APIData            `json:"api,omitempty"`
}

// StorageData describes where the session is persisted.
type StorageData struct {
	Backend   string `json:"backend"`
	Path      string `json:"path,omitempty"`
	Encrypted bool   `json:"encrypted"`
}

// APIData describes the logout endpoint.
type APIData struct {
	Offline   bool   `json:"offline"`
	LogoutURL string `json:"logout_url,omitempty"`
}

// LogoutData is returned by logout.
type LogoutData struct {
	RemoteInvalidated bool   `json:"remote_invalidated"`
	RemoteSkipped     bool   `json:"remote_skipped"`
	RemoteError       string `json:"remote_error,omitempty"`
	CleanupError      string `json:"cleanup_error,omitempty"`
}

// RouteData is returned by route.
type RouteData struct {
	Input      string            `json:"input"`
	Path       string            `json:"path"`
	Route      string            `json:"route"`
	Params     map[string]string `json:"params,omitempty"`
	Allowed    bool              `json:"allowed"`
	RedirectTo string            `json:"redirect_to,omitempty"`
}

// RouteEntry is one row of "route list".
type RouteEntry struct {
	Name         string `json:"name,omitempty"`
	Path         string `json:"path"`
	Redirect     string `json:"redirect,omitempty"`
	RequiresAuth bool   `json:"requires_auth"`
}

// VersionData is returned by version.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}
