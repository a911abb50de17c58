package errors

import "fmt"

// Framing errors are fatal to the connection that produced them.
var (
	ErrIncompleteFrame = fmt.Errorf("incomplete frame")
	ErrFrameTooLarge   = fmt.Errorf("frame exceeds maximum size")
)

// Protocol errors are reported to the sender only.
var (
	ErrProtocol      = fmt.Errorf("protocol error")
	ErrUnknownAction = fmt.Errorf("%w: unknown action", ErrProtocol)
	ErrNotLoggedIn   = fmt.Errorf("login first")
	ErrNotInChat     = fmt.Errorf("you are not in any chat")
)

var (
	ErrEmptyName         = fmt.Errorf("name cannot be empty")
	ErrDuplicateIdentity = fmt.Errorf("name already taken")
	ErrAlreadyLoggedIn   = fmt.Errorf("connection is already logged in")
)

var (
	ErrGroupBusy     = fmt.Errorf("users already in chat")
	ErrGroupTooSmall = fmt.Errorf("groups need at least 3 members")
	ErrSelfConnect   = fmt.Errorf("cannot connect to yourself")
	ErrUnknownPeer   = fmt.Errorf("user not found")
)

var (
	ErrSlowConsumer = fmt.Errorf("send queue full")
	ErrWorkerPanic  = fmt.Errorf("worker panic")
)
