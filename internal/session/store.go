package session

import "errors"

var ErrSessionNotFound = errors.New("checkout session not found")

// Session is anything the store can hold. Close releases its background work.
type Session interface {
	Close()
}
