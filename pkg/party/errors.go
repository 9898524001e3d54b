package party

import "errors"

var (
	// ErrAlreadyInSession is returned by commands that require a free
	// client while a session is still held.
	ErrAlreadyInSession = errors.New("already in a session")
	// ErrNotInSession is returned by commands that require an active
	// session when none is held.
	ErrNotInSession = errors.New("not in a session")
	// ErrNotHost is returned by host-only commands issued by a guest.
	ErrNotHost = errors.New("not the session host")
	// ErrUnknownGame is returned when a game id is not present in the
	// configured game library.
	ErrUnknownGame = errors.New("unknown game")
)
