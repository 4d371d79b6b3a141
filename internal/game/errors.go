package game

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyJoined = errors.New("player already in room")
	ErrNotHost       = errors.New("action requires the current host")
	ErrNoCategories  = errors.New("room has no categories")
)
