package api

import (
	"errors"
	"fmt"
)

// Kind classifies a remote call failure.
type Kind string

const (
	KindAuth     Kind = "auth"      // 401-class
	KindNotFound Kind = "not_found" // 404-class
	KindBadInput Kind = "bad_input" // other 4xx
	KindServer   Kind = "server"    // 5xx-class
	KindNetwork  Kind = "network"   // transport failure
	KindTimeout  Kind = "timeout"   // deadline exceeded
)

// Error is the structured failure outcome for every remote call. The
// message is the server's, when one was given.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("remote store: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("remote store: %s: %s", e.Kind, e.Message)
}

func errKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// IsAuth reports whether err is a 401-class failure.
func IsAuth(err error) bool { return errKind(err, KindAuth) }

// IsNotFound reports whether err is a 404-class failure.
func IsNotFound(err error) bool { return errKind(err, KindNotFound) }

// IsServer reports whether err is a 5xx-class failure.
func IsServer(err error) bool { return errKind(err, KindServer) }

// IsUnreachable reports whether err is a network or timeout failure.
func IsUnreachable(err error) bool {
	return errKind(err, KindNetwork) || errKind(err, KindTimeout)
}
