package game

import (
	"crypto/rand"
)

const codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RoomCodeLength is the length of the short code a room is addressed by.
const RoomCodeLength = 4

// NewRoomCode generates an uppercase alphanumeric room code.
func NewRoomCode(length int) string {
	if length <= 0 {
		length = RoomCodeLength
	}
	b := make([]byte, length)
	rand.Read(b)

	for i := range b {
		b[i] = codeChars[b[i]%byte(len(codeChars))]
	}

	return string(b)
}
