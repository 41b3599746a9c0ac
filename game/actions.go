package game

import (
	"encoding/json"
	"strings"
)

// Inbound frames are {"action": "...", "payload": {...}}. Each action is a
// closed variant validated here, once, before it reaches the hub; the state
// machine never sees raw payloads.

type Action interface {
	actionName() string
}

type LobbyInfoAction struct{}
type RoomInfoAction struct {
	RoomID string `json:"roomId"`
}
type EnterLobbyAction struct{}
type ExitLobbyAction struct{}
type CreateRoomAction struct {
	RoomName string `json:"roomName"`
	Capacity int    `json:"capacity"`
}
type EnterRoomAction struct {
	RoomID string `json:"roomId"`
}
type ExitRoomAction struct{}
type ChatAction struct {
	Message string `json:"message"`
}
type DMAction struct {
	UserName string `json:"userName"`
	Message  string `json:"message"`
}
type ReadyAction struct{}
type KickAction struct {
	UserName string `json:"userName"`
}
type ItemAction struct {
	Item string `json:"item"`
}
type PassAction struct{}
type ExitResultAction struct{}
type InviteAction struct {
	UserName string `json:"userName"`
}

func (LobbyInfoAction) actionName() string  { return "lobby_info" }
func (RoomInfoAction) actionName() string   { return "room_info" }
func (EnterLobbyAction) actionName() string { return "enter_lobby" }
func (ExitLobbyAction) actionName() string  { return "exit_lobby" }
func (CreateRoomAction) actionName() string { return "create_room" }
func (EnterRoomAction) actionName() string  { return "enter_room" }
func (ExitRoomAction) actionName() string   { return "exit_room" }
func (ChatAction) actionName() string       { return "chat" }
func (DMAction) actionName() string         { return "dm" }
func (ReadyAction) actionName() string      { return "ready" }
func (KickAction) actionName() string       { return "kick" }
func (ItemAction) actionName() string       { return "item" }
func (PassAction) actionName() string       { return "pass" }
func (ExitResultAction) actionName() string { return "exit_result" }
func (InviteAction) actionName() string     { return "invite" }

const (
	maxChatLength = 500
	maxRoomName   = 40
	maxCapacity   = 8
)

type actionEnvelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// ParseAction decodes and validates one inbound frame. Anything malformed is
// rejected here with ErrMalformedAction and never reaches a state machine
// operation.
func ParseAction(data []byte) (Action, error) {
	var env actionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformedAction
	}

	decode := func(into any) error {
		if len(env.Payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(env.Payload, into); err != nil {
			return ErrMalformedAction
		}
		return nil
	}

	switch env.Action {
	case "lobby_info":
		return LobbyInfoAction{}, nil
	case "enter_lobby":
		return EnterLobbyAction{}, nil
	case "exit_lobby":
		return ExitLobbyAction{}, nil
	case "exit_room":
		return ExitRoomAction{}, nil
	case "ready":
		return ReadyAction{}, nil
	case "pass":
		return PassAction{}, nil
	case "exit_result":
		return ExitResultAction{}, nil

	case "room_info":
		var a RoomInfoAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		if a.RoomID == "" {
			return nil, ErrMalformedAction
		}
		return a, nil

	case "create_room":
		var a CreateRoomAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		a.RoomName = strings.TrimSpace(a.RoomName)
		if a.RoomName == "" || len(a.RoomName) > maxRoomName {
			return nil, ErrMalformedAction
		}
		if a.Capacity < minMembersToStart || a.Capacity > maxCapacity {
			return nil, ErrMalformedAction
		}
		return a, nil

	case "enter_room":
		var a EnterRoomAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		if a.RoomID == "" {
			return nil, ErrMalformedAction
		}
		return a, nil

	case "chat":
		var a ChatAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		if a.Message == "" || len(a.Message) > maxChatLength {
			return nil, ErrMalformedAction
		}
		return a, nil

	case "dm":
		var a DMAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		if a.UserName == "" || a.Message == "" || len(a.Message) > maxChatLength {
			return nil, ErrMalformedAction
		}
		return a, nil

	case "kick":
		var a KickAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		if a.UserName == "" {
			return nil, ErrMalformedAction
		}
		return a, nil

	case "item":
		var a ItemAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		if !validItemKind(ItemKind(a.Item)) {
			return nil, ErrMalformedAction
		}
		return a, nil

	case "invite":
		var a InviteAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		if a.UserName == "" {
			return nil, ErrMalformedAction
		}
		return a, nil
	}

	return nil, ErrMalformedAction
}
