package core

import (
	"github.com/dkeye/CodeRoom/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"socketId"`
	Username string        `json:"username"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	MembersSnapshot() []MemberDTO
	Has(sid SessionID) bool

	AddMember(sid SessionID, ms MemberSession, username string)
	RemoveMember(sid SessionID) bool
	// Broadcast sends data to every member except from. An empty from
	// addresses the whole room.
	Broadcast(from SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}

// RoomManager is the Room Membership Index. Rooms are created on first
// join and dropped once their last member leaves.
type RoomManager interface {
	Join(name domain.RoomName, sid SessionID, ms MemberSession, username string) []MemberDTO
	Leave(name domain.RoomName, sid SessionID) (remaining int, ok bool)
	Get(name domain.RoomName) (RoomService, bool)
	MembersSnapshot(name domain.RoomName) []MemberDTO
	IsMember(name domain.RoomName, sid SessionID) bool
	List() []RoomInfo
}
