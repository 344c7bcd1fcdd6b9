package chatrepo

import "errors"

// errForeignThread is returned when a message is appended to a thread owned
// by another session.
var errForeignThread = errors.New("thread belongs to another session")
