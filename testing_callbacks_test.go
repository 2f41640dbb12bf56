package wsbridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testWait = 5 * time.Second

type mockCallbacks struct {
	mock.Mock

	opened chan *Socket
	closed chan int
}

func newMockCallbacks() *mockCallbacks {
	return &mockCallbacks{
		opened: make(chan *Socket, 1),
		closed: make(chan int, 1),
	}
}

func (m *mockCallbacks) OnOpen(s *Socket) {
	m.Called(s)
	m.opened <- s
}

func (m *mockCallbacks) OnMessage(data string) {
	m.Called(data)
}

func (m *mockCallbacks) OnClose(code int) {
	m.Called(code)
	m.closed <- code
}

func (m *mockCallbacks) init(t *testing.T, ctx context.Context, c *Connector, rawURL string) {
	t.Helper()
	require.NoError(t, c.Init(ctx, rawURL, m.OnOpen, m.OnMessage, m.OnClose))
}

func (m *mockCallbacks) waitOpened(t *testing.T) *Socket {
	t.Helper()
	select {
	case s := <-m.opened:
		return s
	case <-time.After(testWait):
		t.Fatal("open callback was not invoked")
		return nil
	}
}

func (m *mockCallbacks) waitClosed(t *testing.T) int {
	t.Helper()
	select {
	case code := <-m.closed:
		return code
	case <-time.After(testWait):
		t.Fatal("close callback was not invoked")
		return 0
	}
}

// sequence returns the invoked callbacks in order. Only safe once the close callback has fired.
func (m *mockCallbacks) sequence() []string {
	out := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		out = append(out, c.Method)
	}
	return out
}
