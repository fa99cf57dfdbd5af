package domain

// RoomName is the caller-supplied room identifier. Joining an unknown
// room creates it.
type RoomName string

type Room struct {
	Name RoomName
}
