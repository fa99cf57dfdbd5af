package orch

import (
	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// CodeChange relays a buffer update to the rest of the room if the lock
// policy admits it. Rejected updates are dropped without a reply.
func (o *Orchestrator) CodeChange(sid core.SessionID, room domain.RoomName, code string) {
	if _, ok := o.memberRoom(sid, room); !ok {
		return
	}
	switch o.opts.LockPolicy {
	case app.LockNone:
	case app.LockKeystroke:
		if !o.Locks.Admit(room, sid, o.username(sid), true) {
			return
		}
	default:
		if !o.Locks.Admit(room, sid, o.username(sid), false) {
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("code change rejected: locked by another member")
			return
		}
	}
	o.broadcast(room, sid, core.CodeChangeEvent{
		Type:   core.EventCodeChange,
		RoomID: room,
		Code:   code,
	})
}

// RequestLock asks for exclusive edit permission. The arbiter broadcasts
// a grant; a rejection is silent.
func (o *Orchestrator) RequestLock(sid core.SessionID, room domain.RoomName) bool {
	if o.opts.LockPolicy == app.LockNone {
		return false
	}
	if _, ok := o.memberRoom(sid, room); !ok {
		return false
	}
	return o.Locks.Request(room, sid, o.username(sid))
}

// ReleaseLock is safe to call speculatively; only the holder's call has
// an effect.
func (o *Orchestrator) ReleaseLock(sid core.SessionID, room domain.RoomName) bool {
	if o.opts.LockPolicy == app.LockNone {
		return false
	}
	if _, ok := o.memberRoom(sid, room); !ok {
		return false
	}
	return o.Locks.Release(room, sid)
}

func (o *Orchestrator) LanguageChange(sid core.SessionID, room domain.RoomName, language string) {
	if _, ok := o.memberRoom(sid, room); !ok {
		return
	}
	ev := core.LanguageChangeEvent{
		Type:     core.EventLanguageChange,
		RoomID:   room,
		Language: language,
	}
	if o.opts.LanguageScope == app.ScopeRoom {
		o.broadcast(room, "", ev)
		return
	}
	o.broadcast(room, sid, ev)
}

func (o *Orchestrator) Typing(sid core.SessionID, room domain.RoomName) {
	if _, ok := o.memberRoom(sid, room); !ok {
		return
	}
	o.broadcast(room, sid, core.PeerEvent{
		Type:     core.EventTyping,
		RoomID:   room,
		SocketID: domain.UserID(sid),
		Username: o.username(sid),
	})
}
