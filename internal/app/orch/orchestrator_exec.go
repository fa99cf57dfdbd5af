package orch

import (
	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/app/executor"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Run hands the request to the execution service on its own goroutine so
// other rooms keep flowing while it is outstanding. The result goes to
// the sender or the whole room depending on RunScope.
func (o *Orchestrator) Run(sid core.SessionID, room domain.RoomName, req executor.Request) bool {
	if _, ok := o.memberRoom(sid, room); !ok {
		return false
	}
	if o.Runner == nil {
		return false
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.runs.Acquire(o.ctx, 1); err != nil {
			return
		}
		defer o.runs.Release(1)

		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Str("language", req.Language).Msg("run requested")
		res := o.Runner.Execute(o.ctx, req)
		ev := core.CodeResponseEvent{
			Type:        core.EventCodeResponse,
			RoomID:      room,
			RequestedBy: domain.UserID(sid),
			Language:    req.Language,
			Failed:      res.Failed,
			Run: core.RunOutput{
				Stdout: res.Stdout,
				Stderr: res.Stderr,
				Output: res.Output,
				Code:   res.Code,
			},
		}
		if o.opts.RunScope == app.ScopeSender {
			o.sendTo(sid, ev)
			return
		}
		o.broadcast(room, "", ev)
	}()
	return true
}
