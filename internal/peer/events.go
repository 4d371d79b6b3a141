package peer

import (
	"tuttifrutti/internal/game"
	"tuttifrutti/internal/store"
)

// EventType classifies events handed to the presentation layer.
type EventType string

const (
	// EventRoomState carries a fresh snapshot of the joined room.
	EventRoomState EventType = "room_state"
	// EventRoomList carries the discoverable-rooms listing.
	EventRoomList EventType = "room_list"
	// EventReturnToLobby tells the UI to leave the game screen, with a
	// reason. This is normal lifecycle, not an error.
	EventReturnToLobby EventType = "return_to_lobby"
)

// Reasons attached to EventReturnToLobby.
const (
	ReasonRoomClosed = "room_closed"
	ReasonRemoved    = "removed_from_room"
)

// Event is what the engine emits toward the presentation layer. Exactly one
// of Room, Rooms or Reason is meaningful depending on Type.
type Event struct {
	Type   EventType
	Room   *game.Room
	Rooms  []store.RoomSummary
	Reason string
}
