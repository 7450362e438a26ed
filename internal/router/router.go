// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// maxRedirects bounds redirect chains so a misconfigured table cannot loop.
const maxRedirects = 8

var (
	// ErrInvalidRoute indicates a malformed route definition.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrUnknownRoute indicates a name lookup found nothing.
	ErrUnknownRoute = errors.New("unknown route")
)

// DefaultRoutes returns the newsdesk route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Redirect: "/news"},
		{Name: NameNews, Path: "/news"},
		{Name: NameNewsDetail, Path: "/news/:id"},
		{Name: NameDashboard, Path: "/dashboard", RequiresAuth: true},
		{Name: NameNotFound, Path: CatchAll},
		{Name: NameRegister, Path: "/register"},
		{Name: NameLogin, Path: DefaultLoginPath},
	}
}

// Default returns a Table over DefaultRoutes.
func Default() *Table {
	t, err := NewTable(DefaultRoutes(), DefaultLoginPath)
	if err != nil {
		panic(fmt.Sprintf("router: default table: %v", err))
	}
	return t
}

// =============================================================================
// TABLE
// =============================================================================

type compiledRoute struct {
	route    Route
	segments []string
	catchAll bool
	static   int
}

// Table is an immutable, ordered set of routes. It is safe for concurrent use.
type Table struct {
	routes    []compiledRoute
	byName    map[string]int
	loginPath string
}

// NewTable validates routes and builds a table. loginPath is where denied
// navigation is redirected.
func NewTable(routes []Route, loginPath string) (*Table, error) {
	t := &Table{
		byName:    make(map[string]int),
		loginPath: Normalize(loginPath),
	}

	for i, r := range routes {
		cr := compiledRoute{route: r}
		switch {
		case r.Path == CatchAll:
			cr.catchAll = true
		case strings.HasPrefix(r.Path, "/"):
			cr.segments = split(r.Path)
			for _, seg := range cr.segments {
				if seg == ":" {
					return nil, fmt.Errorf("%w: %q has an unnamed parameter", ErrInvalidRoute, r.Path)
				}
				if !strings.HasPrefix(seg, ":") {
					cr.static++
				}
			}
		default:
			return nil, fmt.Errorf("%w: path %q must start with / or be %q", ErrInvalidRoute, r.Path, CatchAll)
		}

		if r.Redirect != "" && !strings.HasPrefix(r.Redirect, "/") {
			return nil, fmt.Errorf("%w: redirect %q must be absolute", ErrInvalidRoute, r.Redirect)
		}
		if r.Name == "" && r.Redirect == "" {
			return nil, fmt.Errorf("%w: route %q needs a name or a redirect", ErrInvalidRoute, r.Path)
		}
		if r.Name != "" {
			if _, dup := t.byName[r.Name]; dup {
				return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidRoute, r.Name)
			}
			t.byName[r.Name] = i
		}
		t.routes = append(t.routes, cr)
	}
	return t, nil
}

// Routes returns a copy of the table's routes in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	for i, cr := range t.routes {
		out[i] = cr.route
	}
	return out
}

// LoginPath returns the redirect target for denied navigation.
func (t *Table) LoginPath() string {
	return t.loginPath
}

// Lookup finds a route by name.
func (t *Table) Lookup(name string) (Route, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.routes[i].route, true
}

// PathFor builds the path of the named route, filling ":param" segments.
func (t *Table) PathFor(name string, params map[string]string) (string, error) {
	i, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	cr := t.routes[i]
	if cr.catchAll {
		return "", fmt.Errorf("%w: %q has no fixed path", ErrUnknownRoute, name)
	}

	parts := make([]string, len(cr.segments))
	for j, seg := range cr.segments {
		if strings.HasPrefix(seg, ":") {
			v, ok := params[seg[1:]]
			if !ok || v == "" {
				return "", fmt.Errorf("missing parameter %q for route %q", seg[1:], name)
			}
			parts[j] = url.PathEscape(v)
			continue
		}
		parts[j] = seg
	}
	return "/" + strings.Join(parts, "/"), nil
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve matches p, follows redirects and applies the auth gate. auth may be
// nil, which is treated as logged out. A redirect chain longer than
// maxRedirects resolves to not-found. Resolve never mutates the session.
func (t *Table) Resolve(p string, auth AuthChecker) Resolution {
	current := Normalize(p)

	for hop := 0; ; hop++ {
		cr, params, ok := t.match(current)
		if !ok {
			return notFound(current)
		}
		if cr.route.Redirect != "" {
			if hop >= maxRedirects {
				return notFound(current)
			}
			current = Normalize(cr.route.Redirect)
			continue
		}

		res := Resolution{Route: cr.route, Path: current, Params: params, Allowed: true}
		if cr.route.RequiresAuth && (auth == nil || !auth.IsAuthenticated()) {
			res.Allowed = false
			res.RedirectTo = t.loginPath
		}
		return res
	}
}

func notFound(p string) Resolution {
	return Resolution{Route: Route{Name: NameNotFound, Path: CatchAll}, Path: p, Allowed: true}
}

// match returns the best route for a normalized path.
func (t *Table) match(p string) (compiledRoute, map[string]string, bool) {
	segs := split(p)

	best := -1
	var bestParams map[string]string
	for i, cr := range t.routes {
		if cr.catchAll {
			continue
		}
		params, ok := matchSegments(cr.segments, segs)
		if !ok {
			continue
		}
		if best < 0 || cr.static > t.routes[best].static {
			best = i
			bestParams = params
		}
	}
	if best >= 0 {
		return t.routes[best], bestParams, true
	}

	for _, cr := range t.routes {
		if cr.catchAll {
			return cr, nil, true
		}
	}
	return compiledRoute{}, nil, false
}

func matchSegments(pattern, segs []string) (map[string]string, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			v, err := url.PathUnescape(segs[i])
			if err != nil {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:]] = v
			continue
		}
		if seg != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// Normalize strips query and fragment, cleans dot segments and trailing
// slashes, and guarantees a leading slash.
func Normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func split(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
