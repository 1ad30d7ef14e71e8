package utils

import (
	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

const (
	roomIDPrefix   = "room-"
	roomIDLength   = 9
	roomIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var roomIDSuffix = mustGenerator(nanoid.CustomASCII(roomIDAlphabet, roomIDLength))

func mustGenerator(gen func() string, err error) func() string {
	if err != nil {
		panic(err)
	}
	return gen
}

// NewConnectionID returns a unique identifier for a transport connection.
func NewConnectionID() string {
	return uuid.NewString()
}

// NewRoomID returns a short shareable room identifier such as "room-k3v9x0a2b".
func NewRoomID() string {
	return roomIDPrefix + roomIDSuffix()
}
