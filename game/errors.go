package game

import "errors"

var (
	ErrAlreadyConnected = errors.New("already-connected")
	ErrRoomNotFound     = errors.New("room-not-found")
	ErrRoomFull         = errors.New("room-full")
	ErrNotAMember       = errors.New("not-a-member")
	ErrItemNotOwned     = errors.New("item-not-owned")
	ErrUnknownItem      = errors.New("unknown-item")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUserNotFound     = errors.New("user-not-found")
	ErrMalformedAction  = errors.New("bad-request")
	ErrNotInLobby       = errors.New("not-in-lobby")
)
