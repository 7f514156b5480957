// Package vocab resolves word definitions for interactive reading. A
// FreeDictionary-compatible service answers lookups and a local sqlite
// cache keeps every resolved word available offline.
package vocab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// ErrNotFound reports that the dictionary has no entry for the word.
var ErrNotFound = errors.New("word not found")

// Definition is one sense of a word.
type Definition struct {
	Definition string `json:"definition"`
	Example    string `json:"example,omitempty"`
}

// Meaning groups the definitions sharing a part of speech.
type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech"`
	Definitions  []Definition `json:"definitions"`
}

// Entry is the dictionary entry for a single word.
type Entry struct {
	Word     string    `json:"word"`
	Phonetic string    `json:"phonetic,omitempty"`
	Meanings []Meaning `json:"meanings"`
}

// Primary returns the first definition, the one the reading view shows
// inline.
func (e *Entry) Primary() string {
	for _, m := range e.Meanings {
		for _, d := range m.Definitions {
			if d.Definition != "" {
				return d.Definition
			}
		}
	}
	return ""
}

// Normalize maps a token from running text to its dictionary form:
// lowercased with surrounding punctuation stripped. Inner punctuation
// stays so contractions survive.
func Normalize(word string) string {
	w := strings.TrimFunc(strings.ToLower(strings.TrimSpace(word)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return w
}

// Service answers lookups from the cache first and falls back to the
// remote dictionary. A nil cache disables caching.
type Service struct {
	cache  *Cache
	remote *Client
}

// NewService builds a lookup service over cache and remote.
func NewService(cache *Cache, remote *Client) *Service {
	return &Service{cache: cache, remote: remote}
}

// Lookup resolves the definition of word. Cache problems degrade to
// remote lookups rather than failing the call.
func (s *Service) Lookup(ctx context.Context, word string) (*Entry, error) {
	w := Normalize(word)
	if w == "" {
		return nil, ErrNotFound
	}

	if s.cache != nil {
		e, err := s.cache.Get(w)
		if err != nil {
			slog.Warn("vocabulary cache read failed", "word", w, "error", err)
		} else if e != nil {
			return e, nil
		}
	}

	e, err := s.remote.Define(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("define %q: %w", w, err)
	}
	if s.cache != nil {
		if err := s.cache.Put(w, e); err != nil {
			slog.Warn("vocabulary cache write failed", "word", w, "error", err)
		}
	}
	return e, nil
}
