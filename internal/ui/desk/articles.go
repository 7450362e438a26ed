// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package desk

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Article is a headline shown on the news screens. Content comes from the
// news service; until that is wired the screens show placeholders.
type Article struct {
	ID      int
	Title   string
	Section string
}

// PlaceholderArticles returns the headlines shown before content loads.
func PlaceholderArticles() []Article {
	return []Article{
		{ID: 1, Title: "City council approves new transit budget", Section: "local"},
		{ID: 2, Title: "Markets steady ahead of rate decision", Section: "business"},
		{ID: 3, Title: "Researchers map coral recovery after heatwave", Section: "science"},
		{ID: 4, Title: "National team names squad for autumn friendlies", Section: "sports"},
		{ID: 5, Title: "Library extends weekend opening hours", Section: "local"},
		{ID: 6, Title: "Chipmakers report record quarterly orders", Section: "business"},
	}
}

// FilterArticles keeps articles whose title or section contains query,
// ignoring case. An empty query keeps everything.
func FilterArticles(articles []Article, query string) []Article {
	query = strings.TrimSpace(query)
	if query == "" {
		return articles
	}
	folder := cases.Fold()
	q := folder.String(query)

	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if strings.Contains(folder.String(a.Title), q) || strings.Contains(folder.String(a.Section), q) {
			out = append(out, a)
		}
	}
	return out
}

// FindArticle looks up an article by the ":id" route parameter.
func FindArticle(articles []Article, id string) (Article, bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return Article{}, false
	}
	for _, a := range articles {
		if a.ID == n {
			return a, true
		}
	}
	return Article{}, false
}

// sectionTitle capitalizes a section name for display.
func sectionTitle(section string) string {
	return cases.Title(language.English).String(section)
}
