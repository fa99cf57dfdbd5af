package orch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
)

type chanConn struct {
	ch     chan core.Frame
	mu     sync.Mutex
	closed bool
}

func (c *chanConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	select {
	case c.ch <- f:
		return nil
	default:
		return errors.New("full")
	}
}

func (c *chanConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

type client struct {
	sid  core.SessionID
	conn *chanConn
}

func newOrch(t *testing.T, opts Options) *Orchestrator {
	t.Helper()
	o := New(context.Background(), app.NewRegistry(), app.NewRoomManager(), app.SimplePolicy{}, nil, opts)
	t.Cleanup(o.Close)
	return o
}

func connect(o *Orchestrator, id string, buffer int) *client {
	c := &client{sid: core.SessionID(id), conn: &chanConn{ch: make(chan core.Frame, buffer)}}
	user := domain.NewUser(domain.UserID(id))
	o.Registry.BindSignal(c.sid, user, core.NewMemberSession(domain.NewMember(user), c.conn), func() {})
	return c
}

type msg map[string]any

func (c *client) next(t *testing.T) msg {
	t.Helper()
	select {
	case f := <-c.conn.ch:
		var m msg
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("bad frame %s: %v", f, err)
		}
		return m
	case <-time.After(time.Second):
		t.Fatalf("%s: timed out waiting for a message", c.sid)
		return nil
	}
}

// expect skips messages until one of type typ arrives.
func (c *client) expect(t *testing.T, typ string) msg {
	t.Helper()
	for {
		m := c.next(t)
		if m["type"] == typ {
			return m
		}
	}
}

func (c *client) drain() {
	for {
		select {
		case <-c.conn.ch:
		default:
			return
		}
	}
}

func (c *client) expectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case f := <-c.conn.ch:
		t.Fatalf("%s: unexpected message %s", c.sid, f)
	case <-time.After(d):
	}
}

func (c *client) countType(t *testing.T, typ string, d time.Duration) int {
	t.Helper()
	n := 0
	deadline := time.After(d)
	for {
		select {
		case f := <-c.conn.ch:
			var m msg
			_ = json.Unmarshal(f, &m)
			if m["type"] == typ {
				n++
			}
		case <-deadline:
			return n
		}
	}
}

func TestLockScenario(t *testing.T) {
	o := newOrch(t, Options{})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)

	o.Join(a.sid, "r1", "alice")
	o.Join(b.sid, "r1", "bob")
	a.drain()
	b.drain()

	if !o.RequestLock(a.sid, "r1") {
		t.Fatal("A should get the lock")
	}
	for _, c := range []*client{a, b} {
		m := c.expect(t, core.EventLockStatus)
		if m["lockedBy"] != "A" || m["username"] != "alice" {
			t.Fatalf("%s saw %v", c.sid, m)
		}
	}

	o.CodeChange(b.sid, "r1", "print('b')")
	a.expectNone(t, 50*time.Millisecond)

	o.Disconnect(a.sid)
	if n := b.countType(t, core.EventLockStatus, 100*time.Millisecond); n != 1 {
		t.Fatalf("B saw %d lock-status updates, want 1", n)
	}
	if o.Rooms.IsMember("r1", a.sid) {
		t.Error("A still listed in r1")
	}
}

func TestDisconnectHolderBroadcastsUnlock(t *testing.T) {
	o := newOrch(t, Options{})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)
	o.Join(a.sid, "r1", "alice")
	o.Join(b.sid, "r1", "bob")
	o.RequestLock(a.sid, "r1")
	b.drain()

	o.Disconnect(a.sid)
	m := b.expect(t, core.EventLockStatus)
	if m["lockedBy"] != nil {
		t.Fatalf("expected unlock, got %v", m)
	}
	d := b.expect(t, core.EventDisconnected)
	if d["socketId"] != "A" || d["username"] != "alice" {
		t.Errorf("unexpected disconnect notice %v", d)
	}

	o.Disconnect(a.sid)
	b.expectNone(t, 50*time.Millisecond)
}

func TestDisconnectWithoutLockIsQuiet(t *testing.T) {
	o := newOrch(t, Options{})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)
	o.Join(a.sid, "r1", "alice")
	o.Join(b.sid, "r1", "bob")
	b.drain()

	o.Disconnect(a.sid)
	if n := b.countType(t, core.EventLockStatus, 50*time.Millisecond); n != 0 {
		t.Fatalf("unexpected lock-status updates: %d", n)
	}
}

func TestJoinReceivesCurrentHolder(t *testing.T) {
	o := newOrch(t, Options{})
	h := connect(o, "H", 16)
	o.Join(h.sid, "r1", "holder")
	o.RequestLock(h.sid, "r1")
	h.drain()

	j := connect(o, "J", 16)
	o.Join(j.sid, "r1", "joiner")

	joined := j.next(t)
	if joined["type"] != core.EventJoined {
		t.Fatalf("expected joined first, got %v", joined)
	}
	if clients, _ := joined["clients"].([]any); len(clients) != 2 {
		t.Errorf("joined clients = %v", joined["clients"])
	}
	st := j.next(t)
	if st["type"] != core.EventLockStatus || st["lockedBy"] != "H" {
		t.Fatalf("expected holder snapshot, got %v", st)
	}

	hm := h.expect(t, core.EventJoined)
	if hm["socketId"] != "J" || hm["username"] != "joiner" {
		t.Errorf("holder saw %v", hm)
	}
	h.expectNone(t, 50*time.Millisecond)
}

func TestCodeChangeRelayedToOthersOnly(t *testing.T) {
	o := newOrch(t, Options{})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)
	c := connect(o, "C", 16)
	for _, cl := range []*client{a, b, c} {
		o.Join(cl.sid, "r1", string(cl.sid))
	}
	o.RequestLock(a.sid, "r1")
	a.drain()
	b.drain()
	c.drain()

	code := "fn main() {\n\t\"quoted\" ✓\n}"
	o.CodeChange(a.sid, "r1", code)
	for _, cl := range []*client{b, c} {
		m := cl.expect(t, core.EventCodeChange)
		if m["code"] != code || m["roomId"] != "r1" {
			t.Errorf("%s got %v", cl.sid, m)
		}
	}
	a.expectNone(t, 50*time.Millisecond)
}

func TestUnlockedRoomAdmitsEdits(t *testing.T) {
	o := newOrch(t, Options{})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)
	o.Join(a.sid, "r1", "a")
	o.Join(b.sid, "r1", "b")
	a.drain()

	o.CodeChange(b.sid, "r1", "x")
	if m := a.expect(t, core.EventCodeChange); m["code"] != "x" {
		t.Fatalf("got %v", m)
	}
	if o.Locks.Status("r1").IsLocked() {
		t.Error("explicit policy must not claim on edit")
	}
}

func TestKeystrokePolicyClaimsOnEdit(t *testing.T) {
	o := newOrch(t, Options{LockPolicy: app.LockKeystroke, LockIdleTimeout: 40 * time.Millisecond})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)
	o.Join(a.sid, "r1", "a")
	o.Join(b.sid, "r1", "b")
	a.drain()
	b.drain()

	o.CodeChange(a.sid, "r1", "1")
	if m := b.expect(t, core.EventLockStatus); m["lockedBy"] != "A" {
		t.Fatalf("expected A to hold, got %v", m)
	}
	b.expect(t, core.EventCodeChange)

	o.CodeChange(b.sid, "r1", "2")
	if m := a.expect(t, core.EventLockStatus); m["lockedBy"] != "A" {
		t.Fatalf("unexpected %v", m)
	}
	// B's edit is dropped; the next thing A sees is the idle release.
	m := a.next(t)
	if m["type"] != core.EventLockStatus || m["lockedBy"] != nil {
		t.Fatalf("expected idle release, got %v", m)
	}
}

func TestNonePolicyRelaysEverything(t *testing.T) {
	o := newOrch(t, Options{LockPolicy: app.LockNone})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)
	o.Join(a.sid, "r1", "a")
	o.Join(b.sid, "r1", "b")
	a.drain()
	b.drain()

	if o.RequestLock(a.sid, "r1") {
		t.Fatal("lock requests are ignored without a lock policy")
	}
	o.CodeChange(b.sid, "r1", "b")
	if m := a.next(t); m["type"] != core.EventCodeChange {
		t.Fatalf("got %v", m)
	}
}

func TestEventsForUnknownRoomAreDropped(t *testing.T) {
	o := newOrch(t, Options{})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)
	o.Join(b.sid, "r1", "b")
	b.drain()

	o.CodeChange(a.sid, "r1", "x")
	o.LanguageChange(a.sid, "r1", "go")
	o.Typing(a.sid, "r1")
	if o.RequestLock(a.sid, "r1") {
		t.Fatal("non-member must not take the lock")
	}
	if o.RequestLock(a.sid, "nowhere") {
		t.Fatal("lock on unknown room must fail")
	}
	b.expectNone(t, 50*time.Millisecond)
	a.expectNone(t, 10*time.Millisecond)
}

func TestLanguageChangeScope(t *testing.T) {
	o := newOrch(t, Options{})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)
	o.Join(a.sid, "r1", "a")
	o.Join(b.sid, "r1", "b")
	a.drain()
	b.drain()

	o.LanguageChange(a.sid, "r1", "python")
	if m := b.next(t); m["type"] != core.EventLanguageChange || m["language"] != "python" {
		t.Fatalf("got %v", m)
	}
	a.expectNone(t, 50*time.Millisecond)
}

func TestLeaveKeepsConnection(t *testing.T) {
	o := newOrch(t, Options{})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)
	o.Join(a.sid, "r1", "a")
	o.Join(a.sid, "r2", "a")
	o.Join(b.sid, "r1", "b")
	o.RequestLock(a.sid, "r1")
	a.drain()
	b.drain()

	o.Leave(a.sid, "r1")
	if m := a.expect(t, core.EventLeft); m["roomId"] != "r1" {
		t.Fatalf("got %v", m)
	}
	if m := b.expect(t, core.EventLockStatus); m["lockedBy"] != nil {
		t.Fatalf("leave must release the lock, got %v", m)
	}
	if rooms := o.Registry.RoomsOf(a.sid); len(rooms) != 1 || rooms[0] != "r2" {
		t.Errorf("RoomsOf = %v", rooms)
	}
}

func TestEmptyRoomIsDropped(t *testing.T) {
	o := newOrch(t, Options{})
	a := connect(o, "A", 16)
	o.Join(a.sid, "r1", "a")
	o.Disconnect(a.sid)
	if _, ok := o.Rooms.Get("r1"); ok {
		t.Fatal("room should be gone")
	}
}

func TestSlowMemberIsKicked(t *testing.T) {
	o := newOrch(t, Options{})
	a := connect(o, "A", 16)
	slow := connect(o, "S", 1)
	o.Join(slow.sid, "r1", "s")
	o.Join(a.sid, "r1", "a")

	// S's buffer holds its own joined event, so A's joined broadcast
	// overflows it.
	o.CodeChange(a.sid, "r1", "x")

	slow.conn.mu.Lock()
	closed := slow.conn.closed
	slow.conn.mu.Unlock()
	if !closed {
		t.Fatal("slow member should have been kicked")
	}
}

func TestWhoAmIAndPing(t *testing.T) {
	o := newOrch(t, Options{})
	a := connect(o, "A", 16)
	o.Join(a.sid, "r1", "alice")
	a.drain()

	o.WhoAmI(a.sid)
	m := a.next(t)
	if m["type"] != core.EventWhoAmI || m["username"] != "alice" || m["socketId"] != "A" {
		t.Fatalf("got %v", m)
	}
	o.Ping(a.sid)
	if m := a.next(t); m["type"] != core.EventPong {
		t.Fatalf("got %v", m)
	}
}
