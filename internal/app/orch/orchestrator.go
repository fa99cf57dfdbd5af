// Package orch is the event router: it validates inbound room events,
// drives the registry, membership index and edit lock, and fans out the
// resulting events.
package orch

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/app/editlock"
	"github.com/dkeye/CodeRoom/internal/app/executor"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

type Options struct {
	LockPolicy        app.LockPolicy
	LockIdleTimeout   time.Duration
	LanguageScope     app.Scope
	RunScope          app.Scope
	MaxConcurrentRuns int64
}

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Locks    *editlock.Arbiter
	Runner   executor.Runner

	opts Options
	ctx  context.Context
	runs *semaphore.Weighted
	wg   sync.WaitGroup
}

// New wires the router. ctx bounds outstanding execution requests.
func New(ctx context.Context, reg *app.Registry, rooms core.RoomManager, policy app.Policy, runner executor.Runner, opts Options) *Orchestrator {
	if opts.LockPolicy == "" {
		opts.LockPolicy = app.LockExplicit
	}
	if opts.LanguageScope == "" {
		opts.LanguageScope = app.ScopeOthers
	}
	if opts.RunScope == "" {
		opts.RunScope = app.ScopeRoom
	}
	if opts.MaxConcurrentRuns <= 0 {
		opts.MaxConcurrentRuns = 4
	}
	o := &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   policy,
		Runner:   runner,
		opts:     opts,
		ctx:      ctx,
		runs:     semaphore.NewWeighted(opts.MaxConcurrentRuns),
	}
	o.Locks = editlock.New(opts.LockIdleTimeout, o)
	return o
}

// Close stops lock timers and waits for outstanding runs.
func (o *Orchestrator) Close() {
	o.Locks.Stop()
	o.wg.Wait()
}

// LockChanged implements editlock.Notifier by telling the whole room.
func (o *Orchestrator) LockChanged(room domain.RoomName, status domain.LockStatus) {
	o.broadcast(room, "", core.LockStatusEvent{
		Type:       core.EventLockStatus,
		RoomID:     room,
		LockStatus: status,
	})
}

// memberRoom resolves a room the sender has joined. Anything else is an
// unknown room for that sender and the event is dropped.
func (o *Orchestrator) memberRoom(sid core.SessionID, room domain.RoomName) (core.RoomService, bool) {
	if room == "" {
		return nil, false
	}
	rs, ok := o.Rooms.Get(room)
	if !ok || !rs.Has(sid) {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("dropping event for unknown room")
		return nil, false
	}
	return rs, true
}

func (o *Orchestrator) username(sid core.SessionID) string {
	name, _ := o.Registry.Lookup(sid)
	return name
}

// broadcast fans v out to room, skipping from unless it is empty.
func (o *Orchestrator) broadcast(room domain.RoomName, from core.SessionID, v any) {
	rs, ok := o.Rooms.Get(room)
	if !ok {
		return
	}
	frame, err := core.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode event")
		return
	}
	res := rs.Broadcast(from, frame)
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(rs, slow) {
		case app.KickMember:
			sid := core.SessionID(slow.Meta().User.ID)
			log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("kicking slow member")
			o.Registry.Kick(sid)
		case app.DropFrame, app.NoAction:
		}
	}
}

func (o *Orchestrator) sendTo(sid core.SessionID, v any) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	frame, err := core.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode event")
		return
	}
	if err := sess.Signal().TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("send to sender failed")
	}
}
