package wsbridge

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
)

type (
	// Dialer opens websocket connections. *websocket.Dialer satisfies it.
	Dialer interface {
		DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
	}

	OpenConnectionParams struct {
		URL    url.URL
		Header http.Header
	}
)

var _ Dialer = (*websocket.Dialer)(nil)

// newOpenConnectionParams validates raw and normalizes http(s) schemes to ws(s).
func newOpenConnectionParams(raw string, header http.Header) (OpenConnectionParams, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return OpenConnectionParams{}, errors.Wrap(ErrInvalidURL, err.Error())
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return OpenConnectionParams{}, errors.Wrapf(ErrInvalidURL, "unsupported scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return OpenConnectionParams{}, errors.Wrapf(ErrInvalidURL, "missing host in %q", raw)
	}

	if u.Fragment != "" || u.RawFragment != "" {
		return OpenConnectionParams{}, errors.Wrapf(ErrInvalidURL, "fragment not allowed in %q", raw)
	}

	return OpenConnectionParams{URL: *u, Header: header.Clone()}, nil
}
