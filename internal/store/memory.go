package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"tuttifrutti/internal/game"
)

// MemoryStore holds all documents in memory. A single mutex serializes
// every write, which makes UpdateRoom trivially linearizable; watchers get
// their own buffered channels and receive snapshots in write order.
type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string]*game.Room
	words map[string]LibraryEntry

	roomWatchers map[string][]*roomWatcher
	listWatchers []*listWatcher
}

type roomWatcher struct {
	id string
	ch chan RoomSnapshot
}

type listWatcher struct {
	ch chan []RoomSummary
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:        make(map[string]*game.Room),
		words:        make(map[string]LibraryEntry),
		roomWatchers: make(map[string][]*roomWatcher),
	}
}

// cloneRoom round-trips through JSON so callers never share memory with the
// stored document, mirroring what a remote store would do on the wire.
func cloneRoom(r *game.Room) *game.Room {
	data, err := json.Marshal(r)
	if err != nil {
		panic(fmt.Sprintf("room %s not serializable: %v", r.ID, err))
	}
	var out game.Room
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("room %s not deserializable: %v", r.ID, err))
	}
	return &out
}

func (s *MemoryStore) CreateRoom(ctx context.Context, room *game.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[room.ID]; exists {
		return ErrExists
	}
	s.rooms[room.ID] = cloneRoom(room)
	s.notifyLocked(room.ID)
	return nil
}

func (s *MemoryStore) GetRoom(ctx context.Context, id string) (*game.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[id]
	if !exists {
		return nil, ErrNotFound
	}
	return cloneRoom(room), nil
}

func (s *MemoryStore) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[id]; !exists {
		return ErrNotFound
	}
	delete(s.rooms, id)
	s.notifyLocked(id)
	return nil
}

func (s *MemoryStore) UpdateRoom(ctx context.Context, id string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[id]
	if !exists {
		return ErrNotFound
	}

	working := cloneRoom(room)
	commit, err := fn(working)
	if err != nil {
		return err
	}
	if !commit {
		return nil
	}
	s.rooms[id] = working
	s.notifyLocked(id)
	return nil
}

func (s *MemoryStore) ActiveRooms(ctx context.Context) ([]RoomSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRoomsLocked(), nil
}

func (s *MemoryStore) activeRoomsLocked() []RoomSummary {
	var out []RoomSummary
	for _, r := range s.rooms {
		if !r.Status.Discoverable() {
			continue
		}
		out = append(out, RoomSummary{
			ID:          r.ID,
			Name:        r.Name,
			Status:      r.Status,
			PlayerCount: len(r.Players),
			CreatedAt:   r.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > ActiveRoomsLimit {
		out = out[:ActiveRoomsLimit]
	}
	return out
}

// notifyLocked pushes the post-write state to every watcher. Sends are
// non-blocking: a full watcher just misses an interim state and catches up
// on the next write, which preserves per-watcher write order.
func (s *MemoryStore) notifyLocked(id string) {
	room, exists := s.rooms[id]
	for _, w := range s.roomWatchers[id] {
		snap := RoomSnapshot{Exists: exists}
		if exists {
			snap.Room = cloneRoom(room)
		}
		select {
		case w.ch <- snap:
		default:
		}
	}

	if len(s.listWatchers) > 0 {
		listing := s.activeRoomsLocked()
		for _, w := range s.listWatchers {
			select {
			case w.ch <- listing:
			default:
			}
		}
	}
}

func (s *MemoryStore) WatchRoom(id string) (<-chan RoomSnapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &roomWatcher{id: id, ch: make(chan RoomSnapshot, 32)}
	s.roomWatchers[id] = append(s.roomWatchers[id], w)

	// Seed with the current state so subscribers do not have to wait for
	// the next write.
	snap := RoomSnapshot{}
	if room, exists := s.rooms[id]; exists {
		snap = RoomSnapshot{Room: cloneRoom(room), Exists: true}
	}
	w.ch <- snap

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		watchers := s.roomWatchers[id]
		for i, cand := range watchers {
			if cand == w {
				s.roomWatchers[id] = append(watchers[:i], watchers[i+1:]...)
				close(w.ch)
				return
			}
		}
	}
	return w.ch, cancel
}

func (s *MemoryStore) WatchActiveRooms() (<-chan []RoomSummary, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &listWatcher{ch: make(chan []RoomSummary, 8)}
	s.listWatchers = append(s.listWatchers, w)
	w.ch <- s.activeRoomsLocked()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, cand := range s.listWatchers {
			if cand == w {
				s.listWatchers = append(s.listWatchers[:i], s.listWatchers[i+1:]...)
				close(w.ch)
				return
			}
		}
	}
	return w.ch, cancel
}

func (s *MemoryStore) HasWord(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.words[key]
	return ok, nil
}

func (s *MemoryStore) AddWords(ctx context.Context, entries []LibraryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.words[e.Key] = e
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
