package signal

import "github.com/dkeye/CodeRoom/internal/core"

func (ctl *SignalWSController) handlePing(sid core.SessionID) {
	ctl.Orch.Ping(sid)
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID) {
	ctl.Orch.WhoAmI(sid)
}
