package app

import (
	"sync"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomManagerImpl is the process-wide Room Membership Index. The manager
// lock is held across create/add and remove/drop so a room is never
// dropped while a join into it is in flight.
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]core.RoomService
}

func NewRoomManager() core.RoomManager {
	return &RoomManagerImpl{rooms: make(map[domain.RoomName]core.RoomService)}
}

func (f *RoomManagerImpl) Join(name domain.RoomName, sid core.SessionID, ms core.MemberSession, username string) []core.MemberDTO {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[name]
	if !ok {
		room = core.NewRoomService(&domain.Room{Name: name})
		f.rooms[name] = room
		log.Info().Str("module", "app.rooms").Str("room", string(name)).Msg("room created")
	}
	room.AddMember(sid, ms, username)
	return room.MembersSnapshot()
}

func (f *RoomManagerImpl) Leave(name domain.RoomName, sid core.SessionID) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[name]
	if !ok {
		return 0, false
	}
	if !room.RemoveMember(sid) {
		return room.MemberCount(), false
	}
	remaining := room.MemberCount()
	if remaining == 0 {
		delete(f.rooms, name)
		log.Info().Str("module", "app.rooms").Str("room", string(name)).Msg("room dropped (empty)")
	}
	return remaining, true
}

func (f *RoomManagerImpl) Get(name domain.RoomName) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[name]
	return room, ok
}

func (f *RoomManagerImpl) MembersSnapshot(name domain.RoomName) []core.MemberDTO {
	room, ok := f.Get(name)
	if !ok {
		return []core.MemberDTO{}
	}
	return room.MembersSnapshot()
}

func (f *RoomManagerImpl) IsMember(name domain.RoomName, sid core.SessionID) bool {
	room, ok := f.Get(name)
	return ok && room.Has(sid)
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for name, r := range f.rooms {
		out = append(out, core.RoomInfo{Name: name, MemberCount: r.MemberCount()})
	}
	return out
}
