package handsource

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-evergreen/pkg/gesture"
	"github.com/teslashibe/go-evergreen/pkg/protocol"
)

// Publisher sends hand samples to a server's tracker endpoint.
type Publisher struct {
	ws   *websocket.Conn
	wsMu sync.Mutex
	sent atomic.Uint64
}

// Dial connects to url, typically ws://host:port/ws/tracker/<id>.
func Dial(ctx context.Context, url string) (*Publisher, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	p := &Publisher{ws: ws}
	go p.drain()
	return p, nil
}

// drain discards server replies (pongs, rejections) so control frames
// are processed.
func (p *Publisher) drain() {
	for {
		if _, _, err := p.ws.ReadMessage(); err != nil {
			return
		}
	}
}

// Send publishes one sample.
func (p *Publisher) Send(s gesture.Sample) error {
	msg, err := protocol.NewHandMessage(s)
	if err != nil {
		return err
	}
	if !s.At.IsZero() {
		msg.Timestamp = s.At.UnixMilli()
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	p.wsMu.Lock()
	defer p.wsMu.Unlock()
	p.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := p.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	p.sent.Add(1)
	return nil
}

// Sent returns how many samples were published.
func (p *Publisher) Sent() uint64 { return p.sent.Load() }

// Close sends a close frame and closes the connection.
func (p *Publisher) Close() error {
	p.wsMu.Lock()
	p.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	p.wsMu.Unlock()
	return p.ws.Close()
}
