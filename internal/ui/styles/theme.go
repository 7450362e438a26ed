// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles every screen shares.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderRoute lipgloss.Style
	BadgeAuth   lipgloss.Style
	BadgeGuest  lipgloss.Style
	BadgeAlert  lipgloss.Style

	// ==========================================================================
	// CONTENT
	// ==========================================================================

	Title       lipgloss.Style
	Body        lipgloss.Style
	Muted       lipgloss.Style
	Selected    lipgloss.Style
	Label       lipgloss.Style
	InputFocus  lipgloss.Style
	InputBlur   lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Warning     lipgloss.Style
	Spinner     lipgloss.Style
	StatusBar   lipgloss.Style
	ShortcutKey lipgloss.Style
}

// NewTheme detects terminal capabilities and builds the styles.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
		Width:        80,
		Height:       24,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.HeaderRoute = lipgloss.NewStyle().Foreground(TextSecondary)

	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(TextInverse)
	t.BadgeAuth = badge.Background(Emerald)
	t.BadgeGuest = badge.Background(TextMuted)
	t.BadgeAlert = badge.Background(Rose)

	t.Title = lipgloss.NewStyle().Bold(true).Foreground(Purple).MarginBottom(1)
	t.Body = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.Selected = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.Label = lipgloss.NewStyle().Foreground(TextSecondary).Width(14)

	t.InputFocus = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.InputBlur = t.InputFocus.BorderForeground(Overlay)

	t.Success = lipgloss.NewStyle().Foreground(Emerald)
	t.Error = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Warning = lipgloss.NewStyle().Foreground(Amber)
	t.Spinner = lipgloss.NewStyle().Foreground(Cyan)

	t.StatusBar = lipgloss.NewStyle().Foreground(TextSecondary).Background(SurfaceDim)
	t.ShortcutKey = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
}

// SetSize records the terminal size.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
