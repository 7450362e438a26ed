// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFlag bool

func (a authFlag) IsAuthenticated() bool { return bool(a) }

// countingAuth records reads so tests can check the gate only reads.
type countingAuth struct {
	authenticated bool
	reads         int
}

func (c *countingAuth) IsAuthenticated() bool {
	c.reads++
	return c.authenticated
}

// =============================================================================
// MATCHING
// =============================================================================

func TestResolve_DefaultTable(t *testing.T) {
	table := Default()

	tests := []struct {
		path     string
		wantName string
		wantPath string
		params   map[string]string
	}{
		{"/", NameNews, "/news", nil},
		{"", NameNews, "/news", nil},
		{"/news", NameNews, "/news", nil},
		{"/news/", NameNews, "/news", nil},
		{"/news/42", NameNewsDetail, "/news/42", map[string]string{"id": "42"}},
		{"/news/hello%20world", NameNewsDetail, "/news/hello%20world", map[string]string{"id": "hello world"}},
		{"/news/42?tab=comments#top", NameNewsDetail, "/news/42", map[string]string{"id": "42"}},
		{"/login", NameLogin, "/login", nil},
		{"/register", NameRegister, "/register", nil},
		{"/news/42/comments", NameNotFound, "/news/42/comments", nil},
		{"/nope", NameNotFound, "/nope", nil},
		{"login", NameLogin, "/login", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := table.Resolve(tt.path, authFlag(false))
			if res.Route.Name != tt.wantName {
				t.Errorf("Resolve(%q).Route.Name = %q, want %q", tt.path, res.Route.Name, tt.wantName)
			}
			assert.Equal(t, tt.wantPath, res.Path)
			assert.Equal(t, tt.params, res.Params)
			assert.True(t, res.Allowed)
		})
	}
}

func TestResolve_CatchAllDeclaredEarlyStillRanksLast(t *testing.T) {
	// The default table declares "*" before /register and /login.
	res := Default().Resolve("/register", nil)
	assert.Equal(t, NameRegister, res.Route.Name)
}

func TestResolve_StaticBeatsParam(t *testing.T) {
	table, err := NewTable([]Route{
		{Name: "detail", Path: "/news/:id"},
		{Name: "latest", Path: "/news/latest"},
	}, "/login")
	require.NoError(t, err)

	assert.Equal(t, "latest", table.Resolve("/news/latest", nil).Route.Name)
	assert.Equal(t, "detail", table.Resolve("/news/7", nil).Route.Name)
}

func TestResolve_NoCatchAll(t *testing.T) {
	table, err := NewTable([]Route{{Name: "home", Path: "/"}}, "/login")
	require.NoError(t, err)

	res := table.Resolve("/missing", nil)
	assert.Equal(t, NameNotFound, res.Route.Name)
	assert.True(t, res.Allowed)
}

func TestResolve_RedirectLoopIsBounded(t *testing.T) {
	table, err := NewTable([]Route{
		{Path: "/a", Redirect: "/b"},
		{Path: "/b", Redirect: "/a"},
	}, "/login")
	require.NoError(t, err)

	res := table.Resolve("/a", nil)
	assert.Equal(t, NameNotFound, res.Route.Name)
	assert.Empty(t, res.Route.Redirect)
	assert.True(t, res.Allowed)
	assert.Empty(t, res.RedirectTo)
}

func TestResolve_LongRedirectChainEndsNotFound(t *testing.T) {
	var routes []Route
	for i := 0; i <= maxRedirects; i++ {
		routes = append(routes, Route{Path: fmt.Sprintf("/r%d", i), Redirect: fmt.Sprintf("/r%d", i+1)})
	}
	routes = append(routes, Route{Name: "end", Path: fmt.Sprintf("/r%d", maxRedirects+1)})
	table, err := NewTable(routes, "/login")
	require.NoError(t, err)

	assert.Equal(t, NameNotFound, table.Resolve("/r0", nil).Route.Name)
	assert.Equal(t, "end", table.Resolve("/r1", nil).Route.Name)
}

// =============================================================================
// AUTH GATE
// =============================================================================

func TestResolve_DashboardRequiresAuth(t *testing.T) {
	table := Default()

	denied := table.Resolve("/dashboard", authFlag(false))
	assert.Equal(t, NameDashboard, denied.Route.Name)
	assert.False(t, denied.Allowed)
	assert.Equal(t, DefaultLoginPath, denied.RedirectTo)

	allowed := table.Resolve("/dashboard", authFlag(true))
	assert.True(t, allowed.Allowed)
	assert.Empty(t, allowed.RedirectTo)
}

func TestResolve_NilAuthIsLoggedOut(t *testing.T) {
	res := Default().Resolve("/dashboard", nil)
	assert.False(t, res.Allowed)
}

func TestResolve_PublicRoutesDoNotConsultSession(t *testing.T) {
	auth := &countingAuth{}
	Default().Resolve("/news", auth)
	assert.Zero(t, auth.reads)

	Default().Resolve("/dashboard", auth)
	assert.Equal(t, 1, auth.reads)
}

// =============================================================================
// TABLE
// =============================================================================

func TestNewTable_Validation(t *testing.T) {
	tests := map[string][]Route{
		"relative path":     {{Name: "x", Path: "news"}},
		"unnamed param":     {{Name: "x", Path: "/news/:"}},
		"duplicate name":    {{Name: "x", Path: "/a"}, {Name: "x", Path: "/b"}},
		"relative redirect": {{Path: "/", Redirect: "news"}},
		"no name":           {{Path: "/a"}},
	}
	for name, routes := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewTable(routes, "/login")
			assert.True(t, errors.Is(err, ErrInvalidRoute), "got %v", err)
		})
	}
}

func TestTable_LookupAndPathFor(t *testing.T) {
	table := Default()

	r, ok := table.Lookup(NameDashboard)
	require.True(t, ok)
	assert.True(t, r.RequiresAuth)

	_, ok = table.Lookup("missing")
	assert.False(t, ok)

	p, err := table.PathFor(NameNewsDetail, map[string]string{"id": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "/news/a%20b", p)
	assert.Equal(t, NameNewsDetail, table.Resolve(p, nil).Route.Name)

	_, err = table.PathFor(NameNewsDetail, nil)
	assert.Error(t, err)
	_, err = table.PathFor("missing", nil)
	assert.ErrorIs(t, err, ErrUnknownRoute)
	_, err = table.PathFor(NameNotFound, nil)
	assert.Error(t, err)
}

func TestTable_Routes(t *testing.T) {
	routes := Default().Routes()
	assert.Equal(t, DefaultRoutes(), routes)
	assert.Equal(t, DefaultLoginPath, Default().LoginPath())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/", Normalize(""))
	assert.Equal(t, "/", Normalize("/"))
	assert.Equal(t, "/news", Normalize("news/"))
	assert.Equal(t, "/news", Normalize("/a/../news"))
	assert.Equal(t, "/news/1", Normalize("/news//1?x=1"))
}
