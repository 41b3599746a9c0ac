package game

import (
	"encoding/json"

	"github.com/movingsummer/web06-CodeClash/domain"
)

// Outbound frames are {"event": "...", "payload": {...}}. Constructors
// marshal once so a broadcast reuses the same bytes for every recipient.

type eventEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

func marshalEvent(name string, payload any) []byte {
	data, err := json.Marshal(eventEnvelope{Event: name, Payload: payload})
	if err != nil {
		// Payloads are our own structs; failing to marshal one is a bug.
		panic(err)
	}
	return data
}

type usernamePayload struct {
	Username string `json:"username"`
}

type roomIdPayload struct {
	RoomID string `json:"roomId"`
}

func EventError(action string, err error) []byte {
	return marshalEvent("error", struct {
		Action string `json:"action"`
		Code   string `json:"code"`
	}{action, err.Error()})
}

func EventLobbyInfo(rooms []RoomSummary, userCount int) []byte {
	return marshalEvent("lobby_info", struct {
		Rooms     []RoomSummary `json:"rooms"`
		UserCount int           `json:"userCount"`
	}{rooms, userCount})
}

func EventRoomInfo(detail RoomDetail) []byte {
	return marshalEvent("room_info", detail)
}

func EventUserEnterLobby(username string) []byte {
	return marshalEvent("user_enter_lobby", usernamePayload{username})
}

func EventUserExitLobby(username string) []byte {
	return marshalEvent("user_exit_lobby", usernamePayload{username})
}

func EventUserCreateRoom(summary RoomSummary) []byte {
	return marshalEvent("user_create_room", summary)
}

func EventCreateRoomReply(roomID string) []byte {
	return marshalEvent("create_room", roomIdPayload{roomID})
}

func EventEnterRoomReply(detail RoomDetail) []byte {
	return marshalEvent("enter_room", detail)
}

func EventExitRoomReply(roomID string) []byte {
	return marshalEvent("exit_room", roomIdPayload{roomID})
}

func EventUserEnterRoom(username string) []byte {
	return marshalEvent("user_enter_room", usernamePayload{username})
}

func EventUserExitRoom(username string) []byte {
	return marshalEvent("user_exit_room", usernamePayload{username})
}

func EventChangeUserCount(roomID string, count int) []byte {
	return marshalEvent("change_user_count", struct {
		RoomID    string `json:"roomId"`
		UserCount int    `json:"userCount"`
	}{roomID, count})
}

func EventDeleteRoom(roomID string) []byte {
	return marshalEvent("delete_room", roomIdPayload{roomID})
}

func EventChat(from, message string) []byte {
	return marshalEvent("chat", struct {
		From    string `json:"from"`
		Message string `json:"message"`
	}{from, message})
}

func EventDM(from, message string) []byte {
	return marshalEvent("dm", struct {
		From    string `json:"from"`
		Message string `json:"message"`
	}{from, message})
}

func EventReady(username string, ready bool) []byte {
	return marshalEvent("ready", struct {
		Username string `json:"username"`
		Ready    bool   `json:"ready"`
	}{username, ready})
}

func EventGameStart(round int) []byte {
	return marshalEvent("game_start", struct {
		Round int `json:"round"`
	}{round})
}

func EventProblems(round int, problems []domain.Problem) []byte {
	return marshalEvent("problems", struct {
		Round    int              `json:"round"`
		Problems []domain.Problem `json:"problems"`
	}{round, problems})
}

func EventItemAssign(item ItemKind, inventory map[ItemKind]int) []byte {
	return marshalEvent("item_assign", struct {
		Item      ItemKind         `json:"item"`
		Inventory map[ItemKind]int `json:"inventory"`
	}{item, inventory})
}

func EventItemUse(result ItemUseResult) []byte {
	return marshalEvent("item", result)
}

func EventCountdown(seconds int) []byte {
	return marshalEvent("countdown", struct {
		Seconds int `json:"seconds"`
	}{seconds})
}

func EventGameOver(roomID string, round int) []byte {
	return marshalEvent("game_over", struct {
		RoomID string `json:"roomId"`
		Round  int    `json:"round"`
	}{roomID, round})
}

func EventRoomGameOver(roomID string) []byte {
	return marshalEvent("room_game_over", roomIdPayload{roomID})
}

func EventKicked(by string) []byte {
	return marshalEvent("kicked", struct {
		By string `json:"by"`
	}{by})
}

func EventExitResult() []byte {
	return marshalEvent("exit_result", nil)
}

func EventInvite(from, roomID, targetRoomID string) []byte {
	return marshalEvent("invite", struct {
		From         string `json:"from"`
		RoomID       string `json:"roomId"`
		TargetRoomID string `json:"targetRoomId,omitempty"`
	}{from, roomID, targetRoomID})
}
