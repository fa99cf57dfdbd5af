package signal

import (
	"strings"
	"unicode/utf8"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/rs/zerolog/log"
)

const maxUsernameLen = 64

func (ctl *SignalWSController) handleJoin(sid core.SessionID, m JoinMsg) {
	name := strings.TrimSpace(m.Username)
	if utf8.RuneCountInString(name) > maxUsernameLen {
		name = string([]rune(name)[:maxUsernameLen])
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(m.RoomID)).Msg("join")
	ctl.Orch.Join(sid, m.RoomID, name)
}

// handleLeave takes the connection out of one room; the socket stays open.
func (ctl *SignalWSController) handleLeave(sid core.SessionID, m LeaveMsg) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(m.RoomID)).Msg("leave")
	ctl.Orch.Leave(sid, m.RoomID)
}
