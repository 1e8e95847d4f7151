package nicehash

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport indicates that no usable response came back: connection
	// failures, timeouts, or a body that couldn't be read.
	//
	ErrTransport = errors.New("transport failure")

	// ErrProtocol indicates that a response came back but it can't be
	// trusted: non-2xx status, a non-JSON body, or a body carrying the
	// API's error indicator.
	//
	ErrProtocol = errors.New("protocol failure")
)

// APIError is the error document NiceHash answers with when a request is
// rejected.
//
//	{"error_id": "...", "errors": [{"code": 2000, "message": "..."}]}
//
type APIError struct {
	ID     string        `json:"error_id"`
	Errors []ErrorDetail `json:"errors"`
}

// ErrorDetail is a single entry of an APIError.
//
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%d %s", d.Code, d.Message))
	}

	return fmt.Sprintf("api error '%s': %s", e.ID, strings.Join(msgs, "; "))
}

// present tells whether the decoded document actually carried the error
// indicator.
//
func (e *APIError) present() bool {
	return e.ID != "" || len(e.Errors) > 0
}
