package wsbridge

import (
	"context"
	"io"
	"net/http"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type (
	// OpenHandler receives the live socket once the connection is established.
	OpenHandler func(*Socket)
	// MessageHandler receives every data frame payload in arrival order.
	MessageHandler func(string)
	// CloseHandler receives the close code once the connection is gone.
	CloseHandler func(code int)

	// Connector opens websocket connections and drives their lifecycle. It holds no per-connection
	// state, so a single Connector can serve any number of concurrent Init calls.
	Connector struct {
		logger Logger
		dialer Dialer
		config Config
	}
)

var defaultConnector = NewConnector(NewLogrusLogger(logrus.StandardLogger()), nil, DefaultConfig())

func NewConnector(logger Logger, dialer Dialer, config Config) *Connector {
	config = config.withDefaults()

	if logger == nil {
		logger = NewLogrusLogger(nil)
	}

	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
		}
	}

	return &Connector{
		logger: logger.WithField("net", "ws_connector"),
		dialer: dialer,
		config: config,
	}
}

// Init connects to rawURL using the default connector. See Connector.Init.
func Init(ctx context.Context, rawURL string, onOpen OpenHandler, onMessage MessageHandler, onClose CloseHandler) error {
	return defaultConnector.Init(ctx, rawURL, onOpen, onMessage, onClose)
}

// Send writes message on s. It fails with ErrNotOpen unless s is open.
func Send(s *Socket, message string) error {
	return s.Send(message)
}

// Close starts closing s. It fails with ErrNotOpen if s is already closing or closed.
func Close(s *Socket) error {
	return s.Close()
}

// Init starts connecting to rawURL and returns immediately. Only a malformed URL is reported
// synchronously; everything else is observed through the handlers, which run one at a time in
// lifecycle order: onOpen at most once, then onMessage per frame, then onClose exactly once.
// Transport errors are logged and surface to the caller only as the close code.
// Cancelling ctx closes the connection with code 1001.
func (c *Connector) Init(
	ctx context.Context,
	rawURL string,
	onOpen OpenHandler,
	onMessage MessageHandler,
	onClose CloseHandler,
) error {
	p, err := newOpenConnectionParams(rawURL, c.config.Header)
	if err != nil {
		return err
	}

	if onOpen == nil {
		onOpen = func(*Socket) {}
	}
	if onMessage == nil {
		onMessage = func(string) {}
	}
	if onClose == nil {
		onClose = func(int) {}
	}

	go c.run(ctx, p, func(l Lifecycle) {
		switch l.Kind {
		case Opened:
			onOpen(l.Socket)
		case Received:
			onMessage(l.Data)
		case Closed:
			onClose(l.Code)
		}
	})

	return nil
}

// run owns one connection from dial to teardown and reports every lifecycle moment to emit.
func (c *Connector) run(ctx context.Context, p OpenConnectionParams, emit func(Lifecycle)) {
	rawURL := p.URL.String()
	logger := c.logger.WithField("url", rawURL)

	conn, resp, err := c.dialer.DialContext(ctx, rawURL, p.Header)
	if err = handleDialError(resp, err); err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		logger.Errorf("unhandled websocket error: %s", err)
		emit(NewClosed(websocket.CloseAbnormalClosure, WrapErrorUnrecoverableConnection(err, p.URL)))
		return
	}

	logger.Debugf("success opening connection to %s", rawURL)

	s := newSocket(logger, rawURL, conn, c.config)
	s.state.Store(int32(StateOpen))

	// Registered after the socket is open so an already cancelled ctx still closes it.
	stop := context.AfterFunc(ctx, func() {
		_ = s.closeWithCode(websocket.CloseGoingAway)
	})
	defer stop()

	emit(NewOpened(s))

	code := s.read(func(data string) {
		emit(NewReceived(data))
	})

	emit(NewClosed(code, s.CloseErr()))
}

func handleDialError(resp *http.Response, err error) error {
	if err == nil {
		return nil
	}

	var msg string

	if resp != nil {
		if resp.Body != nil {
			bts, rerr := io.ReadAll(resp.Body)
			if rerr == nil {
				msg = string(bts)
			}
			_ = resp.Body.Close()
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(ErrRateLimit, msg)
		}
	}

	return errors.Wrap(ErrCannotConnect, err.Error())
}
