// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/choihjin/news-front-project/internal/ui/styles"
)

// =============================================================================
// HEADER
// =============================================================================

// MinHeaderWidth is the narrowest header rendered; smaller terminals clip.
const MinHeaderWidth = 40

// Header is the title bar: brand, current route, search text and a session
// badge.
type Header struct {
	Title         string
	Route         string
	Search        string
	User          string
	Authenticated bool
	Offline       bool
	Width         int
	theme         *styles.Theme
}

// NewHeader creates a header with the default brand.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Title: "newsdesk", Width: 80, theme: theme}
}

// SetWidth updates the available width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetSession updates the badge. user is ignored when not authenticated.
func (h *Header) SetSession(authenticated bool, user string) {
	h.Authenticated = authenticated
	h.User = user
}

// badge renders the right-hand session indicator.
func (h *Header) badge(maxWidth int) string {
	t := h.theme
	var parts []string
	if h.Offline {
		parts = append(parts, t.BadgeAlert.Render("OFFLINE"))
	}
	if h.Authenticated {
		name := h.User
		if name == "" {
			name = "signed in"
		}
		// Badge padding takes two cells.
		name = runewidth.Truncate(name, max(maxWidth-2, 4), "…")
		parts = append(parts, t.BadgeAuth.Render(name))
	} else {
		parts = append(parts, t.BadgeGuest.Render("guest"))
	}
	return strings.Join(parts, " ")
}

// View renders the header across Width cells.
func (h *Header) View() string {
	t := h.theme
	width := max(h.Width, MinHeaderWidth)
	// Border and padding take four cells.
	inner := width - 4

	brand := t.HeaderBrand.Render(h.Title)
	badge := h.badge(inner / 3)

	left := brand
	if h.Route != "" {
		left += t.HeaderRoute.Render("  " + h.Route)
	}

	room := inner - lipgloss.Width(left) - lipgloss.Width(badge) - 1
	if h.Search != "" && room > 12 {
		query := runewidth.Truncate(h.Search, room-10, "…")
		left += t.Muted.Render("  search: ") + t.Body.Render(query)
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(badge)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + badge

	return t.Header.Width(width - 2).Render(line)
}
