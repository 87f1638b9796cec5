package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("backpressure")

const writeDeadline = 5 * time.Second

// Conn is the telephony endpoint of one call. Writes go through a
// buffered channel drained by writePump so no caller ever blocks on the
// network; sends on a closed or congested connection are dropped.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan []byte, 64),
	}
}

func (c *Conn) trySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

// SendMedia wraps synthesized audio in an outbound media frame tagged
// with the call identifier.
func (c *Conn) SendMedia(streamSid, payload string) error {
	frame := outboundMedia{
		Event:     "media",
		StreamSid: streamSid,
		Media:     mediaPayload{Payload: payload},
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.trySend(data)
}

// Close closes the socket; repeated calls are no-ops.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.ws.Close()
}

func (c *Conn) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "telephony").Msg("writePump set deadline")
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "telephony").Msg("writePump write error")
				return
			}
		}
	}
}
