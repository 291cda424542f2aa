// Package errors defines the error taxonomy shared by services and handlers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// DomainError is a classified failure. Handlers translate it into an HTTP
// status and a JSON body; Details carries upstream diagnostics verbatim.
type DomainError struct {
	Code    string
	Message string
	Status  int
	Details string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code, so errors.Is(err, ErrUpstreamTimeout) holds for every
// timeout regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// As extracts the DomainError from an error chain.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err, 500 when unclassified.
func StatusOf(err error) int {
	if de, ok := As(err); ok && de.Status != 0 {
		return de.Status
	}
	return 500
}
