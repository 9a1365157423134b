package chat

import "errors"

var (
	ErrInvalidRoomName       = errors.New("invalid room name")
	ErrInvalidMessageContent = errors.New("message content is empty or invalid")
)
