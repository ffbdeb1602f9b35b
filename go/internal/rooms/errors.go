package rooms

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrWrongPassword  = errors.New("incorrect room password")
	ErrInvalidRequest = errors.New("invalid request")
)
