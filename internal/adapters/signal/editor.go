package signal

import (
	"github.com/dkeye/CodeRoom/internal/app/executor"
	"github.com/dkeye/CodeRoom/internal/core"
)

func (ctl *SignalWSController) handleCodeChange(sid core.SessionID, m CodeChangeMsg) {
	ctl.Orch.CodeChange(sid, m.RoomID, m.Code)
}

func (ctl *SignalWSController) handleRequestLock(sid core.SessionID, m RequestLockMsg) {
	ctl.Orch.RequestLock(sid, m.RoomID)
}

func (ctl *SignalWSController) handleReleaseLock(sid core.SessionID, m ReleaseLockMsg) {
	ctl.Orch.ReleaseLock(sid, m.RoomID)
}

func (ctl *SignalWSController) handleLanguageChange(sid core.SessionID, m LanguageChangeMsg) {
	ctl.Orch.LanguageChange(sid, m.RoomID, m.Language)
}

func (ctl *SignalWSController) handleTyping(sid core.SessionID, m TypingMsg) {
	ctl.Orch.Typing(sid, m.RoomID)
}

func (ctl *SignalWSController) handleCompile(sid core.SessionID, m CompileMsg) {
	ctl.Orch.Run(sid, m.RoomID, executor.Request{
		Source:   m.Code,
		Language: m.Language,
		Stdin:    m.Stdin,
	})
}
