// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable pieces of the newsdesk terminal UI.
//
// # Key Types
//
//   - Header: Brand, route, search text and session badge
//   - StatusBar: Key hints, notices and the busy indicator
//
// Components only render; the screen model owns all state changes.
package components
