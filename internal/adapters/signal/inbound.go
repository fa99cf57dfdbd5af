package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/tidwall/gjson"
)

var (
	ErrInvalidJSON  = errors.New("invalid json")
	ErrUnknownEvent = errors.New("unknown event")
	ErrMissingRoom  = errors.New("missing roomId")
)

// Inbound messages. Room-scoped ones all carry the target room.
type (
	JoinMsg struct {
		RoomID   domain.RoomName `json:"roomId"`
		Username string          `json:"username"`
	}
	LeaveMsg struct {
		RoomID domain.RoomName `json:"roomId"`
	}
	CodeChangeMsg struct {
		RoomID domain.RoomName `json:"roomId"`
		Code   string          `json:"code"`
	}
	RequestLockMsg struct {
		RoomID domain.RoomName `json:"roomId"`
	}
	ReleaseLockMsg struct {
		RoomID domain.RoomName `json:"roomId"`
	}
	LanguageChangeMsg struct {
		RoomID   domain.RoomName `json:"roomId"`
		Language string          `json:"language"`
	}
	CompileMsg struct {
		RoomID   domain.RoomName `json:"roomId"`
		Code     string          `json:"code"`
		Language string          `json:"language"`
		Stdin    string          `json:"stdin"`
	}
	TypingMsg struct {
		RoomID domain.RoomName `json:"roomId"`
	}
	PingMsg   struct{}
	WhoAmIMsg struct{}
)

// aliases maps legacy event names onto the canonical ones.
var aliases = map[string]string{
	"start-typing-lock": core.EventRequestLock,
	"stop-typing-lock":  core.EventReleaseLock,
	"compileCode":       core.EventCompileCode,
}

// Canonical resolves an inbound event name.
func Canonical(typ string) string {
	if c, ok := aliases[typ]; ok {
		return c
	}
	return typ
}

// Decode turns one text frame into a typed message. Only the type field
// is looked at before the payload is decoded into its concrete shape.
func Decode(data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	typ := gjson.GetBytes(data, "type").String()

	switch Canonical(typ) {
	case core.EventJoin:
		return decodeRoom[JoinMsg](data, func(m JoinMsg) domain.RoomName { return m.RoomID })
	case core.EventLeave:
		return decodeRoom[LeaveMsg](data, func(m LeaveMsg) domain.RoomName { return m.RoomID })
	case core.EventCodeChange:
		return decodeRoom[CodeChangeMsg](data, func(m CodeChangeMsg) domain.RoomName { return m.RoomID })
	case core.EventRequestLock:
		return decodeRoom[RequestLockMsg](data, func(m RequestLockMsg) domain.RoomName { return m.RoomID })
	case core.EventReleaseLock:
		return decodeRoom[ReleaseLockMsg](data, func(m ReleaseLockMsg) domain.RoomName { return m.RoomID })
	case core.EventLanguageChange:
		return decodeRoom[LanguageChangeMsg](data, func(m LanguageChangeMsg) domain.RoomName { return m.RoomID })
	case core.EventCompileCode:
		return decodeRoom[CompileMsg](data, func(m CompileMsg) domain.RoomName { return m.RoomID })
	case core.EventTyping:
		return decodeRoom[TypingMsg](data, func(m TypingMsg) domain.RoomName { return m.RoomID })
	case core.EventPing:
		return PingMsg{}, nil
	case core.EventWhoAmI:
		return WhoAmIMsg{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, typ)
	}
}

func decodeRoom[T any](data []byte, room func(T) domain.RoomName) (any, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if room(m) == "" {
		return nil, ErrMissingRoom
	}
	return m, nil
}
