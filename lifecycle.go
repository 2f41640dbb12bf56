package wsbridge

import (
	"context"
	"fmt"
)

type LifecycleKind byte

const (
	Opened LifecycleKind = iota + 1
	Received
	Closed
)

func (k LifecycleKind) String() string {
	switch k {
	case Opened:
		return "opened"
	case Received:
		return "received"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

func (k LifecycleKind) IsTerminal() bool {
	return k == Closed
}

// Lifecycle is one observable moment of a connection. Which fields are set depends on Kind:
// Opened carries Socket, Received carries Data, Closed carries Code and optionally Err.
type Lifecycle struct {
	Kind   LifecycleKind
	Socket *Socket
	Data   string
	Code   int
	Err    error
}

func (l Lifecycle) String() string {
	switch l.Kind {
	case Opened:
		if l.Socket == nil {
			return fmt.Sprintf("Lifecycle{kind=%s}", l.Kind)
		}
		return fmt.Sprintf("Lifecycle{kind=%s,url=%s}", l.Kind, l.Socket.URL())
	case Received:
		return fmt.Sprintf("Lifecycle{kind=%s,data=%s}", l.Kind, l.Data)
	case Closed:
		if l.Err != nil {
			return fmt.Sprintf("Lifecycle{kind=%s,code=%d,err=%s}", l.Kind, l.Code, l.Err)
		}
		return fmt.Sprintf("Lifecycle{kind=%s,code=%d}", l.Kind, l.Code)
	default:
		return fmt.Sprintf("Lifecycle{kind=%s}", l.Kind)
	}
}

func NewOpened(s *Socket) Lifecycle {
	return Lifecycle{Kind: Opened, Socket: s}
}

func NewReceived(data string) Lifecycle {
	return Lifecycle{Kind: Received, Data: data}
}

func NewClosed(code int, err error) Lifecycle {
	return Lifecycle{Kind: Closed, Code: code, Err: err}
}

// Stream opens a connection like Init but delivers its lifecycle over a channel. Values arrive in
// the same order Init would invoke its callbacks and the channel is closed right after the Closed
// value. Reading from the channel is what lets the connection make progress; once ctx is done,
// values nobody is reading are dropped.
func (c *Connector) Stream(ctx context.Context, rawURL string) (<-chan Lifecycle, error) {
	p, err := newOpenConnectionParams(rawURL, c.config.Header)
	if err != nil {
		return nil, err
	}

	out := make(chan Lifecycle)

	go func() {
		defer close(out)

		c.run(ctx, p, func(l Lifecycle) {
			select {
			case out <- l:
			case <-ctx.Done():
				if l.Kind.IsTerminal() {
					select {
					case out <- l:
					default:
					}
				}
			}
		})
	}()

	return out, nil
}
