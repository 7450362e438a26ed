// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the authenticated state of a newsdesk client.
//
// A Store is the single source of truth for whether the user is logged in.
// It mirrors its state into a persistent key-value store so that a restarted
// client, or another client sharing the same storage, sees the same session.
//
// # Key Types
//
//   - Store: Session state with persistence, observers and remote logout
//   - State: Immutable snapshot handed to readers and observers
//   - UserProfile: Arbitrary JSON profile of the logged-in user
//   - Invalidator: Server-side session invalidation (see internal/api)
//   - ChangedMsg: Bubble Tea message carrying a new State
//
// # Usage
//
// Construct a store over a kv backend; construction hydrates from storage:
//
//	store := session.New(backend, apiClient, session.WithLogger(log))
//
// Log in after credentials have been obtained elsewhere:
//
//	err := store.Login(token, session.UserProfile{"id": 7, "name": "Lee"},
//	    session.WithRefreshToken(refresh))
//
// Log out. Local state is always cleared, even if the server call fails:
//
//	res := store.Logout(ctx)
//	if res.RemoteErr != nil {
//	    // warn only
//	}
//
// # Persistence
//
// Three keys are used: "accessToken", "refresh_token" and "user" (the JSON
// encoded profile). Memory and storage are updated together; a failed write
// leaves both unchanged, and logout clears both on every exit path.
package session
