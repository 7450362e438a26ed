// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/choihjin/news-front-project/internal/ui/styles"
)

func TestHeader_GuestAndUser(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.Route = "/news"

	view := h.View()
	assert.Contains(t, view, "newsdesk")
	assert.Contains(t, view, "/news")
	assert.Contains(t, view, "guest")

	h.SetSession(true, "alice")
	view = h.View()
	assert.Contains(t, view, "alice")
	assert.NotContains(t, view, "guest")
}

func TestHeader_OfflineBadge(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.Offline = true
	assert.Contains(t, h.View(), "OFFLINE")
}

func TestHeader_FitsWidth(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.Route = "/news/12345"
	h.Search = strings.Repeat("뉴스 검색어 ", 20)
	h.SetSession(true, strings.Repeat("아주긴이름", 10))

	for _, width := range []int{40, 60, 100} {
		h.SetWidth(width)
		for _, line := range strings.Split(h.View(), "\n") {
			if w := lipgloss.Width(line); w > width {
				t.Errorf("width %d: line is %d cells: %q", width, w, line)
			}
		}
	}
}

func TestHeader_ShowsSearch(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.SetWidth(100)
	h.Search = "election"
	assert.Contains(t, h.View(), "search: election")
}

func TestStatusBar_NoticeAndHints(t *testing.T) {
	s := NewStatusBar(styles.NewTheme())
	quit := key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	hidden := key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hidden"), key.WithDisabled())

	s.SetNotice(NoticeWarning, "server did not confirm logout")
	view := s.View([]key.Binding{quit, hidden})
	assert.Contains(t, view, "server did not confirm logout")
	assert.Contains(t, view, "q quit")
	assert.NotContains(t, view, "hidden")

	s.Busy = "Logging out…"
	view = s.View([]key.Binding{quit})
	assert.Contains(t, view, "Logging out")
	assert.NotContains(t, view, "server did not confirm")

	s.Busy = ""
	s.ClearNotice()
	assert.Equal(t, 1, len(strings.Split(s.View([]key.Binding{quit}), "\n")))
}

func TestStatusBar_TruncatesHints(t *testing.T) {
	s := NewStatusBar(styles.NewTheme())
	s.Width = 20
	var bindings []key.Binding
	for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
		bindings = append(bindings, key.NewBinding(key.WithKeys(k), key.WithHelp(k, "action "+k)))
	}
	for _, line := range strings.Split(s.View(bindings), "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 20)
	}
}
