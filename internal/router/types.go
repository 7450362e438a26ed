// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

// Route names used by the default table.
const (
	NameNews       = "news"
	NameNewsDetail = "newsDetail"
	NameDashboard  = "dashboard"
	NameRegister   = "register"
	NameLogin      = "login"
	NameNotFound   = "notFound"
)

// CatchAll is the pattern that matches every path.
const CatchAll = "*"

// DefaultLoginPath is where denied navigation is sent.
const DefaultLoginPath = "/login"

// Route is one entry of a Table.
type Route struct {
	// Name identifies the screen. Redirect-only routes may leave it empty.
	Name string `json:"name,omitempty"`

	// Path is the pattern, e.g. "/news/:id" or "*".
	Path string `json:"path"`

	// Redirect, when set, sends navigation to this path instead.
	Redirect string `json:"redirect,omitempty"`

	// RequiresAuth gates the route behind an authenticated session.
	RequiresAuth bool `json:"requires_auth,omitempty"`
}

// AuthChecker reports whether the current session is authenticated.
// session.Store implements it.
type AuthChecker interface {
	IsAuthenticated() bool
}

// Resolution is the outcome of resolving a path.
type Resolution struct {
	// Route is the matched route after following redirects.
	Route Route `json:"route"`

	// Path is the normalized path that matched Route.
	Path string `json:"path"`

	// Params holds captured ":name" segments.
	Params map[string]string `json:"params,omitempty"`

	// Allowed is false when Route requires authentication and the session
	// is not authenticated.
	Allowed bool `json:"allowed"`

	// RedirectTo is the login path when navigation was denied.
	RedirectTo string `json:"redirect_to,omitempty"`
}

// Param returns a captured parameter or "".
func (r Resolution) Param(name string) string {
	return r.Params[name]
}
