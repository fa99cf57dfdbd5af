// Package editlock implements the per-room edit lock: at most one
// connection per room may broadcast buffer changes, and an idle holder
// loses the lock after a configurable timeout.
package editlock

import (
	"sync"
	"time"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Notifier receives every lock transition. It is called with the arbiter
// lock held, so transitions reach clients in the order they happened;
// implementations must not call back into the Arbiter.
type Notifier interface {
	LockChanged(room domain.RoomName, status domain.LockStatus)
}

type NotifierFunc func(room domain.RoomName, status domain.LockStatus)

func (f NotifierFunc) LockChanged(room domain.RoomName, status domain.LockStatus) { f(room, status) }

type hold struct {
	holder core.SessionID
	name   string
	timer  *time.Timer
	gen    uint64
}

// Arbiter is the Edit-Arbitration State Machine for all rooms. A room
// without an entry is Unlocked.
type Arbiter struct {
	mu      sync.Mutex
	holds   map[domain.RoomName]*hold
	idle    time.Duration
	notify  Notifier
	gen     uint64
	stopped bool
}

// New returns an Arbiter releasing idle holders after idle. A zero idle
// disables auto-release.
func New(idle time.Duration, n Notifier) *Arbiter {
	if n == nil {
		n = NotifierFunc(func(domain.RoomName, domain.LockStatus) {})
	}
	return &Arbiter{
		holds:  make(map[domain.RoomName]*hold),
		idle:   idle,
		notify: n,
	}
}

// Request grants the lock to sid if the room is unlocked. A repeated
// request from the holder re-arms the idle timer. A request against
// another holder is rejected without any notification.
func (a *Arbiter) Request(room domain.RoomName, sid core.SessionID, name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return false
	}
	h, ok := a.holds[room]
	switch {
	case !ok:
		a.acquire(room, sid, name)
		return true
	case h.holder == sid:
		a.arm(room, h)
		return true
	default:
		log.Debug().Str("module", "editlock").Str("room", string(room)).Str("sid", string(sid)).Str("holder", string(h.holder)).Msg("lock request rejected")
		return false
	}
}

// Admit is the permission check for a buffer update. The holder is
// admitted and its timer re-armed; another holder blocks the update. On
// an unlocked room the update passes, and with claim set the sender
// takes the lock first.
func (a *Arbiter) Admit(room domain.RoomName, sid core.SessionID, name string, claim bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return false
	}
	h, ok := a.holds[room]
	switch {
	case !ok:
		if claim {
			a.acquire(room, sid, name)
		}
		return true
	case h.holder == sid:
		a.arm(room, h)
		return true
	default:
		return false
	}
}

// Release unlocks the room if sid holds it. Calls from anyone else are
// no-ops.
func (a *Arbiter) Release(room domain.RoomName, sid core.SessionID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.release(room, sid, "released")
}

// ForceRelease is the disconnect path. It still verifies that sid is the
// holder before touching the room.
func (a *Arbiter) ForceRelease(room domain.RoomName, sid core.SessionID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.release(room, sid, "force released")
}

func (a *Arbiter) Status(room domain.RoomName) domain.LockStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status(room)
}

// Snapshot runs fn with the current status while transitions are held
// off, so whatever fn enqueues is ordered with lock broadcasts.
func (a *Arbiter) Snapshot(room domain.RoomName, fn func(domain.LockStatus)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.status(room))
}

// Stop cancels every pending timer and drops all locks without notifying.
func (a *Arbiter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	for room, h := range a.holds {
		if h.timer != nil {
			h.timer.Stop()
		}
		delete(a.holds, room)
	}
}

func (a *Arbiter) status(room domain.RoomName) domain.LockStatus {
	h, ok := a.holds[room]
	if !ok {
		return domain.Unlocked()
	}
	return domain.LockedBy(domain.UserID(h.holder), h.name)
}

func (a *Arbiter) acquire(room domain.RoomName, sid core.SessionID, name string) {
	h := &hold{holder: sid, name: name}
	a.holds[room] = h
	a.arm(room, h)
	log.Info().Str("module", "editlock").Str("room", string(room)).Str("sid", string(sid)).Msg("lock acquired")
	a.notify.LockChanged(room, domain.LockedBy(domain.UserID(sid), name))
}

func (a *Arbiter) release(room domain.RoomName, sid core.SessionID, reason string) bool {
	h, ok := a.holds[room]
	if !ok || h.holder != sid {
		return false
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	delete(a.holds, room)
	log.Info().Str("module", "editlock").Str("room", string(room)).Str("sid", string(sid)).Msg("lock " + reason)
	a.notify.LockChanged(room, domain.Unlocked())
	return true
}

// arm cancels the pending timer and schedules a new one. Each arming gets
// a fresh generation; a callback that lost the race to Stop checks it and
// backs off, so a timer never fires after it was cancelled.
func (a *Arbiter) arm(room domain.RoomName, h *hold) {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	a.gen++
	h.gen = a.gen
	if a.idle <= 0 {
		return
	}
	gen := h.gen
	h.timer = time.AfterFunc(a.idle, func() { a.expire(room, h, gen) })
}

func (a *Arbiter) expire(room domain.RoomName, h *hold, gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cur, ok := a.holds[room]; !ok || cur != h || h.gen != gen {
		return
	}
	a.release(room, h.holder, "idle released")
}
