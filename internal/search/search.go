// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package search holds the header search text shared by newsdesk screens.
//
// The text lives in memory only and is independent of the session.
package search

import (
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Store is the shared search text. The zero value is ready to use.
type Store struct {
	mu   sync.RWMutex
	text string

	obsMu     sync.Mutex
	observers map[int]func(string)
	order     []int
	nextID    int
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Text returns the current search text.
func (s *Store) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// UpdateSearchText replaces the text. Input is normalized to NFC so that
// composed and decomposed forms of the same characters compare equal.
// Observers are notified only when the stored value changes.
func (s *Store) UpdateSearchText(text string) {
	text = norm.NFC.String(text)

	s.mu.Lock()
	if s.text == text {
		s.mu.Unlock()
		return
	}
	s.text = text
	s.mu.Unlock()

	s.obsMu.Lock()
	fns := make([]func(string), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(text)
	}
}

// Clear resets the text to empty.
func (s *Store) Clear() {
	s.UpdateSearchText("")
}

// Subscribe registers fn to receive each new text, synchronously and in
// subscription order.
func (s *Store) Subscribe(fn func(string)) (unsubscribe func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	if s.observers == nil {
		s.observers = make(map[int]func(string))
	}
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.order = append(s.order, id)

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		if _, ok := s.observers[id]; !ok {
			return
		}
		delete(s.observers, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
}
