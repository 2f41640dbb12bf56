package wsbridge

import (
	"net/http"
	"time"
)

const (
	DefaultHandshakeTimeout = 45 * time.Second
	DefaultWriteTimeout     = time.Second
	DefaultCloseTimeout     = 5 * time.Second
)

// Config holds the transport settings of a Connector.
type Config struct {
	// HandshakeTimeout bounds the opening handshake when the Connector builds its own dialer.
	HandshakeTimeout time.Duration
	// WriteTimeout is the deadline applied to every outgoing frame.
	WriteTimeout time.Duration
	// CloseTimeout is how long a caller-initiated close waits for the peer to echo the close frame.
	CloseTimeout time.Duration
	// ReadLimit is the maximum size in bytes of an incoming message. Zero means no limit.
	ReadLimit int64
	// Header is sent with every opening handshake.
	Header http.Header
}

func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		CloseTimeout:     DefaultCloseTimeout,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = d.CloseTimeout
	}
	return c
}
