// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router maps newsdesk paths to screens and gates protected routes.
//
// The router only reads the session through AuthChecker. It never logs in,
// logs out or otherwise mutates it.
//
// # Key Types
//
//   - Route: A named path pattern, optionally a redirect or auth-protected
//   - Table: Ordered set of routes with ranked matching
//   - Resolution: Result of resolving a path for the current session
//   - AuthChecker: Anything that reports whether the user is logged in
//
// # Matching
//
// Patterns are "/"-separated segments. A segment starting with ":" captures
// a parameter; the pattern "*" matches any path. When several routes match,
// the one with more static segments wins and "*" is always tried last, so
// declaration order only breaks ties.
//
// # Usage
//
//	table := router.Default()
//	res := table.Resolve("/dashboard", sessionStore)
//	if !res.Allowed {
//	    res = table.Resolve(res.RedirectTo, sessionStore)
//	}
package router
