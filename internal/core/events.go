package core

import (
	"encoding/json"

	"github.com/dkeye/CodeRoom/internal/domain"
)

// Event names shared by the transport and the router. Inbound aliases
// from older clients are resolved by the signal adapter.
const (
	EventJoin           = "join"
	EventJoined         = "joined"
	EventLeave          = "leave"
	EventLeft           = "left"
	EventCodeChange     = "code-change"
	EventRequestLock    = "request-lock"
	EventReleaseLock    = "release-lock"
	EventLockStatus     = "lock-status-update"
	EventLanguageChange = "language-change"
	EventCompileCode    = "compile-code"
	EventCodeResponse   = "code-response"
	EventTyping         = "typing"
	EventDisconnected   = "disconnected"
	EventPing           = "ping"
	EventPong           = "pong"
	EventWhoAmI         = "whoami"
)

type JoinedEvent struct {
	Type     string          `json:"type"`
	RoomID   domain.RoomName `json:"roomId"`
	Clients  []MemberDTO     `json:"clients"`
	Username string          `json:"username"`
	SocketID domain.UserID   `json:"socketId"`
}

type LockStatusEvent struct {
	Type   string          `json:"type"`
	RoomID domain.RoomName `json:"roomId"`
	domain.LockStatus
}

type CodeChangeEvent struct {
	Type   string          `json:"type"`
	RoomID domain.RoomName `json:"roomId"`
	Code   string          `json:"code"`
}

type LanguageChangeEvent struct {
	Type     string          `json:"type"`
	RoomID   domain.RoomName `json:"roomId"`
	Language string          `json:"language"`
}

// PeerEvent is used for typing and disconnected notices.
type PeerEvent struct {
	Type     string          `json:"type"`
	RoomID   domain.RoomName `json:"roomId"`
	SocketID domain.UserID   `json:"socketId"`
	Username string          `json:"username"`
}

type RunOutput struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
	Code   *int   `json:"code,omitempty"`
}

type CodeResponseEvent struct {
	Type        string          `json:"type"`
	RoomID      domain.RoomName `json:"roomId"`
	RequestedBy domain.UserID   `json:"requestedBy"`
	Language    string          `json:"language"`
	Failed      bool            `json:"failed"`
	Run         RunOutput       `json:"run"`
}

type LeftEvent struct {
	Type   string          `json:"type"`
	RoomID domain.RoomName `json:"roomId"`
}

type WhoAmIEvent struct {
	Type     string            `json:"type"`
	SocketID domain.UserID     `json:"socketId"`
	Username string            `json:"username"`
	Rooms    []domain.RoomName `json:"rooms"`
}

type PongEvent struct {
	Type string `json:"type"`
}

// Encode marshals an outbound event once so it can be fanned out as is.
func Encode(v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}
