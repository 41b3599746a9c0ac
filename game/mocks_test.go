package game

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/movingsummer/web06-CodeClash/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- NetworkSession ---

// fakeSession is a channel-backed session for pump-level tests.
type fakeSession struct {
	incoming chan []byte
	outgoing chan []byte
	closed   chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		incoming: make(chan []byte, 64),
		outgoing: make(chan []byte, 256),
		closed:   make(chan struct{}),
	}
}

func (fs *fakeSession) Read() ([]byte, error) {
	data, ok := <-fs.incoming
	if !ok {
		return nil, io.EOF
	}
	return data, nil
}

func (fs *fakeSession) Write(data []byte) error {
	fs.outgoing <- data
	return nil
}

func (fs *fakeSession) Ping() error { return nil }

func (fs *fakeSession) Close(errCode string) {
	select {
	case <-fs.closed:
	default:
		close(fs.closed)
	}
}

// --- ProblemSource ---

type MockProblemSource struct {
	mock.Mock
}

func (m *MockProblemSource) RandomProblems(ctx context.Context, count int) ([]domain.Problem, error) {
	args := m.Called(ctx, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Problem), args.Error(1)
}

// --- event helpers ---

type eventFrame struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

func decodeEvent(t *testing.T, data []byte) eventFrame {
	t.Helper()
	var frame eventFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

// drainEvents empties the client's outbox without blocking.
func drainEvents(t *testing.T, c *Client) []eventFrame {
	t.Helper()
	var frames []eventFrame
	for {
		select {
		case data, ok := <-c.outbox:
			if !ok {
				return frames
			}
			frames = append(frames, decodeEvent(t, data))
		default:
			return frames
		}
	}
}

func eventNames(frames []eventFrame) []string {
	names := make([]string, 0, len(frames))
	for _, f := range frames {
		names = append(names, f.Event)
	}
	return names
}

func findEvent(frames []eventFrame, name string) (eventFrame, bool) {
	for _, f := range frames {
		if f.Event == name {
			return f, true
		}
	}
	return eventFrame{}, false
}
