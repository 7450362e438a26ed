// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the newsdesk color palette and shared lipgloss styles.
// All colors are lipgloss.AdaptiveColor so light and dark terminals both work.
package styles
