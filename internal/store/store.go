// Package store defines the replicated document store collaborator that all
// peers coordinate through. It supplies two primitives: retryable
// read-modify-write transactions (the sole correctness mechanism for
// "already processed" guards) and ordered-per-watcher snapshot streams.
package store

import (
	"context"
	"errors"
	"time"

	"tuttifrutti/internal/game"
)

var (
	ErrNotFound = errors.New("room not found")
	ErrExists   = errors.New("room already exists")
)

// ActiveRoomsLimit caps the discoverable-rooms listing.
const ActiveRoomsLimit = 10

// RoomSnapshot is one observation of a room document. Exists is false once
// the document has been deleted; Room is nil in that case.
type RoomSnapshot struct {
	Room   *game.Room
	Exists bool
}

// RoomSummary is a listing entry for the discoverable-rooms query.
type RoomSummary struct {
	ID          string      `json:"roomId"`
	Name        string      `json:"roomName"`
	Status      game.Status `json:"status"`
	PlayerCount int         `json:"playerCount"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// UpdateFunc mutates a room inside a transaction. The store may invoke it
// any number of times with a fresh read each time, so it must be free of
// side effects beyond the room it is handed. Returning commit=false aborts
// the transaction without writing; that is the expected outcome of losing a
// race, not an error.
type UpdateFunc func(r *game.Room) (commit bool, err error)

// LibraryEntry is one approved (room, category, letter, word) record.
type LibraryEntry struct {
	Key        string    `json:"-"`
	Word       string    `json:"word"`
	ApprovedAt time.Time `json:"approvedAt"`
}

// Store is the document store every peer mutates the shared room through.
type Store interface {
	// CreateRoom writes a new room document; ErrExists on code collision.
	CreateRoom(ctx context.Context, room *game.Room) error
	// GetRoom returns a private copy of the room, or ErrNotFound.
	GetRoom(ctx context.Context, id string) (*game.Room, error)
	// DeleteRoom removes the document. Watchers observe Exists=false.
	DeleteRoom(ctx context.Context, id string) error
	// UpdateRoom runs fn as a retryable read-modify-write transaction.
	UpdateRoom(ctx context.Context, id string, fn UpdateFunc) error

	// ActiveRooms lists discoverable rooms, newest first, capped at
	// ActiveRoomsLimit.
	ActiveRooms(ctx context.Context) ([]RoomSummary, error)

	// WatchRoom streams snapshots of one room in write order. The returned
	// cancel func must be called to release the watcher; it closes the
	// channel.
	WatchRoom(id string) (<-chan RoomSnapshot, func())
	// WatchActiveRooms streams the discoverable-rooms listing on change.
	WatchActiveRooms() (<-chan []RoomSummary, func())

	// HasWord reports whether the library holds the given composite key.
	HasWord(ctx context.Context, key string) (bool, error)
	// AddWords batch-inserts library entries. Partial application is
	// acceptable: the library is an advisory cache.
	AddWords(ctx context.Context, entries []LibraryEntry) error

	Close() error
}
