package wsbridge

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
)

type (
	State int32

	CloseChan chan struct{}

	// Socket is the handle of one live websocket connection. It is handed to the caller by the
	// open callback and stays usable for Send and Close until the connection reaches StateClosed.
	Socket struct {
		url          string
		conn         *websocket.Conn
		logger       Logger
		writeTimeout time.Duration
		closeTimeout time.Duration

		state   atomic.Int32
		writeMu sync.Mutex

		closeChan       CloseChan
		closeOnce       sync.Once
		closeReason     error
		closeReasonOnce sync.Once
	}
)

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func newSocket(logger Logger, rawURL string, conn *websocket.Conn, cfg Config) *Socket {
	s := &Socket{
		url:          rawURL,
		conn:         conn,
		logger:       logger,
		writeTimeout: cfg.WriteTimeout,
		closeTimeout: cfg.CloseTimeout,
		closeChan:    make(CloseChan),
	}

	if cfg.ReadLimit > 0 {
		conn.SetReadLimit(cfg.ReadLimit)
	}

	conn.SetPingHandler(func(appData string) error {
		s.logger.Debugln("<= [PING]")
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(s.writeTimeout))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		return err
	})

	return s
}

func (s *Socket) String() string {
	return fmt.Sprintf("Socket{url=%s,state=%s}", s.url, s.State())
}

// URL returns the address the socket is connected to.
func (s *Socket) URL() string {
	return s.url
}

func (s *Socket) State() State {
	return State(s.state.Load())
}

// Done returns a channel that is closed once the socket reaches StateClosed.
func (s *Socket) Done() CloseChan {
	return s.closeChan
}

// CloseErr returns the last error observed on the connection. It is nil when the connection
// closed normally (1000, 1001 or a close frame without status).
func (s *Socket) CloseErr() error {
	select {
	case <-s.closeChan:
		return s.closeReason
	default:
		return nil
	}
}

// Send writes message as a single text frame.
func (s *Socket) Send(message string) error {
	if st := s.State(); st != StateOpen {
		return errors.Wrapf(ErrNotOpen, "cannot send on %s socket", st)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		return errors.Wrap(err, "websocket write")
	}

	s.logger.Debugf("=> [DATA] %s", message)

	return nil
}

// Close starts the closing handshake with a normal closure code and returns without waiting for
// the peer. The close callback fires once the peer answers, or after the close timeout.
func (s *Socket) Close() error {
	return s.closeWithCode(websocket.CloseNormalClosure)
}

func (s *Socket) closeWithCode(code int) error {
	if !s.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		return errors.Wrapf(ErrNotOpen, "cannot close %s socket", s.State())
	}

	s.logger.Debugf("=> [CLOSE] %d", code)

	deadline := time.Now().Add(s.closeTimeout)
	err := s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), deadline)
	if errors.Is(err, websocket.ErrCloseSent) {
		// The peer started the handshake and our echo is already on the wire.
		err = nil
	}
	if err != nil {
		// Peer is unreachable, drop the transport so the read loop terminates.
		s.setCloseReason(errors.Wrap(ErrConnectionClosed, err.Error()))
		_ = s.conn.Close()
		return errors.Wrap(err, "websocket close")
	}

	_ = s.conn.SetReadDeadline(deadline)

	return nil
}

// read blocks delivering data frames to onMessage until the connection ends, and returns the
// close code to report.
func (s *Socket) read(onMessage func(string)) int {
	for {
		messageType, bts, err := s.conn.ReadMessage()
		if err != nil {
			return s.finish(err)
		}

		switch messageType {
		case websocket.BinaryMessage:
			s.logger.Debugln("<= [BIN]")
		default:
			s.logger.Debugf("<= [DATA] %s", string(bts))
		}

		onMessage(string(bts))
	}
}

func (s *Socket) finish(err error) int {
	code := websocket.CloseAbnormalClosure

	// A 1006 close error is synthesized locally for an unexpected EOF, never received on the wire.
	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure {
		s.logger.Debugf("<= [CLOSE] %d %s", ce.Code, ce.Text)
		code = ce.Code
		switch code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived:
		default:
			s.setCloseReason(errors.Wrap(ErrConnectionClosed, ce.Error()))
		}
	} else {
		s.logger.Errorf("unhandled websocket error: %s", err)
		s.setCloseReason(errors.Wrap(ErrConnectionClosed, "error occurred on websocket read: "+err.Error()))
	}

	s.safeClose()

	return code
}

func (s *Socket) safeClose() {
	s.closeOnce.Do(s.close)
}

func (s *Socket) close() {
	_ = s.conn.Close()
	s.state.Store(int32(StateClosed))
	close(s.closeChan)
}

func (s *Socket) setCloseReason(err error) {
	s.closeReasonOnce.Do(func() {
		s.closeReason = err
	})
}
