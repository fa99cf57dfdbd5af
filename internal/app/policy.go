package app

import (
	"fmt"

	"github.com/dkeye/CodeRoom/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

type Policy interface {
	OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction
}

// SimplePolicy kicks members that cannot keep up; a client with a stale
// buffer is worse than a client that reconnects.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction {
	return KickMember
}

// LockPolicy decides when the edit lock is taken and released. All
// variants drive the same arbiter.
type LockPolicy string

const (
	// LockExplicit honours request/release (and start/stop typing) events;
	// edits pass when the room is unlocked or held by the sender.
	LockExplicit LockPolicy = "explicit"
	// LockKeystroke claims the lock on the first edit into an unlocked room
	// and relies on the idle timer to release it.
	LockKeystroke LockPolicy = "keystroke"
	// LockNone relays every edit; lock events are ignored.
	LockNone LockPolicy = "none"
)

func ParseLockPolicy(s string) (LockPolicy, error) {
	switch p := LockPolicy(s); p {
	case LockExplicit, LockKeystroke, LockNone:
		return p, nil
	case "":
		return LockExplicit, nil
	default:
		return "", fmt.Errorf("unknown lock policy %q", s)
	}
}

// Scope is the recipient set of a relayed event.
type Scope string

const (
	ScopeSender Scope = "sender"
	ScopeOthers Scope = "others"
	ScopeRoom   Scope = "room"
)

func ParseScope(s string, def Scope) (Scope, error) {
	switch sc := Scope(s); sc {
	case ScopeSender, ScopeOthers, ScopeRoom:
		return sc, nil
	case "":
		return def, nil
	default:
		return "", fmt.Errorf("unknown scope %q", s)
	}
}
