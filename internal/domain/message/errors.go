package message

import "errors"

var (
	// ErrThreadNotFound indicates the thread doesn't exist.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrInvalidInput indicates invalid input for messaging operations.
	ErrInvalidInput = errors.New("invalid message input")
	// ErrNotParticipant indicates the user is not part of a private thread.
	ErrNotParticipant = errors.New("user is not a thread participant")
)
