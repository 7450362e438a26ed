// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/choihjin/news-front-project/internal/ui/styles"
)

// NoticeKind selects how a status notice is colored.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

// StatusBar shows key hints and the latest notice at the bottom of the screen.
type StatusBar struct {
	Width  int
	Notice string
	Kind   NoticeKind
	Busy   string // rendered spinner frame plus label, empty when idle
	theme  *styles.Theme
}

// NewStatusBar creates an empty status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetNotice replaces the notice.
func (s *StatusBar) SetNotice(kind NoticeKind, text string) {
	s.Kind = kind
	s.Notice = text
}

// ClearNotice removes the notice.
func (s *StatusBar) ClearNotice() {
	s.Notice = ""
}

func (s *StatusBar) noticeStyle() lipgloss.Style {
	switch s.Kind {
	case NoticeSuccess:
		return s.theme.Success
	case NoticeWarning:
		return s.theme.Warning
	case NoticeError:
		return s.theme.Error
	default:
		return s.theme.Muted
	}
}

// View renders the notice line (if any) above the hint line.
func (s *StatusBar) View(bindings []key.Binding) string {
	t := s.theme
	width := max(s.Width, 20)

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		hints = append(hints, t.ShortcutKey.Render(h.Key)+" "+h.Desc)
	}
	hintLine := strings.Join(hints, "  ")
	if lipgloss.Width(hintLine) > width {
		// Styled text cannot be cut safely; fall back to plain keys.
		plain := make([]string, 0, len(bindings))
		for _, b := range bindings {
			if b.Enabled() {
				plain = append(plain, b.Help().Key+" "+b.Help().Desc)
			}
		}
		hintLine = runewidth.Truncate(strings.Join(plain, "  "), width, "…")
	}

	var lines []string
	switch {
	case s.Busy != "":
		lines = append(lines, t.Spinner.Render(runewidth.Truncate(s.Busy, width, "…")))
	case s.Notice != "":
		lines = append(lines, s.noticeStyle().Render(runewidth.Truncate(s.Notice, width, "…")))
	}
	lines = append(lines, t.StatusBar.Width(width).Render(hintLine))
	return strings.Join(lines, "\n")
}
