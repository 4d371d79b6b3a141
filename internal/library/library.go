// Package library is the advisory cache of community-approved answers. A hit
// lets the voting coordinator skip a redundant vote; a miss or stale entry
// only costs one extra voting round and can never corrupt a score, so the
// cache is consulted but never treated as authoritative.
package library

import (
	"context"
	"fmt"
	"log"
	"time"

	"tuttifrutti/internal/game"
	"tuttifrutti/internal/store"
)

// Library wraps the store's word table with key construction and
// normalization.
type Library struct {
	store store.Store
}

// New creates a library over the given store.
func New(st store.Store) *Library {
	return &Library{store: st}
}

// Key builds the composite library key {roomId}_{category}_{letter}_{normalizedWord}.
func Key(roomID, category, letter, normalized string) string {
	return fmt.Sprintf("%s_%s_%s_%s", roomID, category, letter, normalized)
}

// Contains reports whether the given raw answer was previously approved in
// this room for the category and letter. Store errors degrade to a miss.
func (l *Library) Contains(ctx context.Context, roomID, category, letter, word string) bool {
	normalized := game.Normalize(word)
	if normalized == "" {
		return false
	}
	ok, err := l.store.HasWord(ctx, Key(roomID, category, letter, normalized))
	if err != nil {
		log.Printf("library: lookup failed for %s/%s: %v", category, word, err)
		return false
	}
	return ok
}

// Approved is one answer to remember after a vote resolves.
type Approved struct {
	RoomID   string
	Category string
	Letter   string
	Word     string
}

// AddBatch inserts approved answers. Failures are logged and swallowed:
// the next round simply votes again.
func (l *Library) AddBatch(ctx context.Context, approved []Approved) {
	if len(approved) == 0 {
		return
	}
	now := time.Now()
	entries := make([]store.LibraryEntry, 0, len(approved))
	for _, a := range approved {
		normalized := game.Normalize(a.Word)
		if normalized == "" {
			continue
		}
		entries = append(entries, store.LibraryEntry{
			Key:        Key(a.RoomID, a.Category, a.Letter, normalized),
			Word:       a.Word,
			ApprovedAt: now,
		})
	}
	if err := l.store.AddWords(ctx, entries); err != nil {
		log.Printf("library: batch insert of %d entries failed: %v", len(entries), err)
	}
}
