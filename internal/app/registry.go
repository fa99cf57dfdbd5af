package app

import (
	"context"
	"slices"
	"sync"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	User    *domain.User
	Session core.MemberSession
	Cancel  context.CancelFunc
	Named   bool
	Rooms   []domain.RoomName
}

// Registry is the Connection Registry: it owns every live connection,
// its display name and the rooms it joined.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

// BindSignal records a freshly connected transport session.
func (r *Registry) BindSignal(sid core.SessionID, user *domain.User, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{User: user, Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

// Register attaches a display name, overwriting any previous one.
func (r *Registry) Register(sid core.SessionID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.User.Username = name
	e.Named = true
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("username", name).Msg("registered username")
	return true
}

func (r *Registry) Lookup(sid core.SessionID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || !e.Named {
		return "", false
	}
	return e.User.Username, true
}

// Unregister removes the connection and hands back the rooms it was in.
// It reports false when the connection was already gone, which makes it
// the once-guard for disconnect cleanup.
func (r *Registry) Unregister(sid core.SessionID) ([]domain.RoomName, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	return e.Rooms, true
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) AddRoom(sid core.SessionID, room domain.RoomName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	if !slices.Contains(e.Rooms, room) {
		e.Rooms = append(e.Rooms, room)
	}
	return true
}

func (r *Registry) RemoveRoom(sid core.SessionID, room domain.RoomName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		if i := slices.Index(e.Rooms, room); i >= 0 {
			e.Rooms = slices.Delete(e.Rooms, i, i+1)
		}
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("removed room association")
}

func (r *Registry) RoomsOf(sid core.SessionID) []domain.RoomName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	return slices.Clone(e.Rooms)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Kick cancels the session context and closes its transport; the
// adapter's read loop then runs the regular disconnect path.
func (r *Registry) Kick(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	if sig := e.Session.Signal(); sig != nil {
		sig.Close()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("kicked session")
	return true
}
