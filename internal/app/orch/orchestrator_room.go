package orch

import (
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join registers the display name, adds sid to the room and announces
// the new member list. The joiner then gets the current lock status,
// taken under the arbiter lock so it cannot be overtaken by a transition.
func (o *Orchestrator) Join(sid core.SessionID, room domain.RoomName, username string) {
	if room == "" {
		return
	}
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	o.Registry.Register(sid, username)
	o.Registry.AddRoom(sid, room)
	members := o.Rooms.Join(room, sid, session, username)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Int("members", len(members)).Msg("joined")

	o.broadcast(room, "", core.JoinedEvent{
		Type:     core.EventJoined,
		RoomID:   room,
		Clients:  members,
		Username: username,
		SocketID: domain.UserID(sid),
	})
	o.Locks.Snapshot(room, func(status domain.LockStatus) {
		o.sendTo(sid, core.LockStatusEvent{
			Type:       core.EventLockStatus,
			RoomID:     room,
			LockStatus: status,
		})
	})
}

// Leave takes sid out of one room while keeping the connection open.
func (o *Orchestrator) Leave(sid core.SessionID, room domain.RoomName) {
	if _, ok := o.memberRoom(sid, room); !ok {
		return
	}
	o.leaveRoom(sid, room, o.username(sid))
	o.Registry.RemoveRoom(sid, room)
	o.sendTo(sid, core.LeftEvent{Type: core.EventLeft, RoomID: room})
}

// Disconnect cleans up after a closed transport. The registry entry is
// the once-guard: a second call finds nothing and does nothing.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	name := o.username(sid)
	rooms, ok := o.Registry.Unregister(sid)
	if !ok {
		return
	}
	for _, room := range rooms {
		o.leaveRoom(sid, room, name)
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Int("rooms", len(rooms)).Msg("disconnected")
}

// leaveRoom drops membership first so the lock release and the leave
// notice only reach the members that stay.
func (o *Orchestrator) leaveRoom(sid core.SessionID, room domain.RoomName, name string) {
	if _, ok := o.Rooms.Leave(room, sid); !ok {
		return
	}
	o.Locks.ForceRelease(room, sid)
	o.broadcast(room, sid, core.PeerEvent{
		Type:     core.EventDisconnected,
		RoomID:   room,
		SocketID: domain.UserID(sid),
		Username: name,
	})
}

func (o *Orchestrator) WhoAmI(sid core.SessionID) {
	o.sendTo(sid, core.WhoAmIEvent{
		Type:     core.EventWhoAmI,
		SocketID: domain.UserID(sid),
		Username: o.username(sid),
		Rooms:    o.Registry.RoomsOf(sid),
	})
}

func (o *Orchestrator) Ping(sid core.SessionID) {
	o.sendTo(sid, core.PongEvent{Type: core.EventPong})
}
