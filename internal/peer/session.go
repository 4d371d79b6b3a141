// Package peer implements one client's side of the shared-room protocol.
// There is no server: every client runs a Session, and all coordination goes
// through the document store's transactions and snapshot streams. Host-only
// duties are attempted by whichever client currently matches players[0];
// transactional guards, not leader election, make concurrent attempts safe.
package peer

import (
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tuttifrutti/internal/config"
	"tuttifrutti/internal/game"
	"tuttifrutti/internal/library"
	"tuttifrutti/internal/store"
)

// Session is the per-device engine. One instance lives for the process
// lifetime and attaches to at most one room at a time.
type Session struct {
	cfg     *config.Config
	store   store.Store
	library *library.Library

	mu    sync.Mutex
	user  UserState
	room  RoomState
	vote  VoteClock
	tasks Tasks

	// voteLimiter throttles live vote-preview writes; dropped previews are
	// harmless because tallies read only the submitted maps.
	voteLimiter *rate.Limiter

	events chan Event
}

// NewSession creates a session for the given device identity.
func NewSession(cfg *config.Config, st store.Store, uid, name string) *Session {
	return &Session{
		cfg:         cfg,
		store:       st,
		library:     library.New(st),
		user:        UserState{UID: uid, Name: name},
		voteLimiter: rate.NewLimiter(rate.Limit(cfg.Peer.VoteRateLimit), cfg.Peer.VoteRateBurst),
		events:      make(chan Event, 64),
	}
}

// Events is the stream consumed by the presentation layer.
func (s *Session) Events() <-chan Event {
	return s.events
}

// UID returns the stable device uid this session writes under.
func (s *Session) UID() string {
	return s.user.UID
}

// Name returns the local display name.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Name
}

// SetName updates the local display name used on the next join.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.Name = name
}

// RoomID returns the id of the attached room, or "".
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.ID
}

// CurrentRoom returns the last observed snapshot of the attached room.
func (s *Session) CurrentRoom() *game.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Snapshot
}

// IsHost reports whether the local player is currently players[0].
func (s *Session) IsHost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.IsHost
}

// VoteClock returns the local countdown for the open category vote.
func (s *Session) VoteClock() VoteClock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vote
}

// Close detaches from any room and stops the listing watcher. The events
// channel stays open; consumers stop on their own context.
func (s *Session) Close() {
	s.mu.Lock()
	if s.tasks.listCancel != nil {
		s.tasks.listCancel()
		s.tasks.listCancel = nil
	}
	s.teardownRoomLocked()
	s.mu.Unlock()
}

// emit hands an event to the presentation layer without ever blocking the
// engine. A full channel drops the event; the next snapshot supersedes it.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		log.Printf("peer: dropping %s event, consumer too slow", ev.Type)
	}
}

// teardownRoomLocked cancels every background task and forgets the room.
func (s *Session) teardownRoomLocked() {
	s.tasks.cancelAll()
	s.room = RoomState{}
	s.vote = VoteClock{}
}

// attach subscribes to a room, replacing any prior subscription, and starts
// the heartbeat.
func (s *Session) attach(roomID string) {
	s.mu.Lock()
	s.teardownRoomLocked()
	s.room = RoomState{ID: roomID}

	ch, cancel := s.store.WatchRoom(roomID)
	s.tasks.watchCancel = cancel

	hbCtx, hbCancel := newTaskContext()
	s.tasks.heartbeatCancel = hbCancel
	s.mu.Unlock()

	go s.watchLoop(roomID, ch)
	go s.heartbeatLoop(hbCtx, roomID)
}

// WatchRooms starts streaming the discoverable-rooms listing as
// EventRoomList events. The returned cancel stops the stream.
func (s *Session) WatchRooms() func() {
	ch, cancel := s.store.WatchActiveRooms()

	s.mu.Lock()
	if s.tasks.listCancel != nil {
		s.tasks.listCancel()
	}
	s.tasks.listCancel = cancel
	s.mu.Unlock()

	go func() {
		for listing := range ch {
			s.emit(Event{Type: EventRoomList, Rooms: listing})
		}
	}()
	return cancel
}

func (s *Session) debugf(format string, args ...any) {
	if s.cfg.Bridge.Debug {
		log.Printf("DEBUG: "+format, args...)
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
