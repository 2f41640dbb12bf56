package wsbridge

import (
	"net/url"

	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrRateLimit        = errors.New("rate limit exceeded")
	ErrNotOpen          = errors.New("socket is not open")
	ErrInvalidURL       = errors.New("invalid websocket url")
)

// ErrUnrecoverableConnection is reported when a socket never reached the open state.
type ErrUnrecoverableConnection struct {
	err error
	url url.URL
}

func (e ErrUnrecoverableConnection) Error() string {
	return fmt.Sprintf("Unrecoverable connection error: %s to %s", e.err, e.url.String())
}

func (e ErrUnrecoverableConnection) Unwrap() error { return e.err }

// WrapErrorUnrecoverableConnection attaches url to a dial failure. It returns nil for a nil err.
func WrapErrorUnrecoverableConnection(err error, url url.URL) *ErrUnrecoverableConnection {
	if err == nil {
		return nil
	}
	return &ErrUnrecoverableConnection{
		err: err,
		url: url,
	}
}
