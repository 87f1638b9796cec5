// Package realtime is the AI-side adapter: one outbound websocket per
// call to the realtime speech service, typed outbound events, and a read
// loop that dispatches the inbound event stream to the owning session.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/LYRARO/lyraro-voice-server/internal/app"
)

// Options configures one realtime connection.
type Options struct {
	URL                string
	APIKey             string
	Voice              string
	TranscriptionModel string // empty disables input transcription
}

// Client owns one realtime websocket. All sends are no-ops once the
// socket is closed; Close is idempotent.
type Client struct {
	opts Options
	conn *websocket.Conn
	sink app.AIEvents

	mu     sync.Mutex
	closed bool
}

var _ app.AIClient = (*Client)(nil)

// Dial opens the realtime socket with the bearer credential and protocol
// version header, and starts the read loop. The sink receives inbound
// events until the socket closes.
func Dial(ctx context.Context, opts Options, sink app.AIEvents) (*Client, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+opts.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, opts.URL, header)
	if err != nil {
		if resp != nil {
			log.Error().Err(err).Str("module", "realtime").
				Int("status", resp.StatusCode).Msg("realtime dial failed")
		}
		return nil, err
	}

	c := &Client{opts: opts, conn: conn, sink: sink}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer func() {
		c.Close()
		c.sink.OnAIClosed()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "realtime").Msg("realtime read error")
			}
			return
		}
		for _, raw := range splitEvents(data) {
			c.dispatch(raw)
		}
	}
}

func (c *Client) dispatch(raw []byte) {
	var ev serverEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Warn().Err(err).Str("module", "realtime").Msg("malformed realtime event dropped")
		return
	}

	switch ev.Type {
	case "session.created":
		c.sink.OnSessionCreated()
	case "session.updated":
		c.sink.OnSessionUpdated()
	case "response.audio.delta", "response.output_audio.delta":
		c.sink.OnAudioDelta(ev.Delta)
	case "error":
		// Non-fatal; the socket stays open.
		log.Warn().Str("module", "realtime").Str("error", string(ev.Error)).
			Msg("realtime error event")
	default:
		log.Debug().Str("module", "realtime").Str("type", ev.Type).Msg("realtime event")
	}
}

// send marshals and writes one event, silently dropping it when the
// socket is already closed.
func (c *Client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.conn.WriteJSON(v)
}

// SendSessionUpdate configures the session: instructions, voice, both
// audio formats mu-law to match the telephony leg, and server-side turn
// detection.
func (c *Client) SendSessionUpdate(instructions string) error {
	cfg := sessionConfig{
		Modalities:        []string{"audio", "text"},
		Instructions:      instructions,
		Voice:             c.opts.Voice,
		InputAudioFormat:  "g711_ulaw",
		OutputAudioFormat: "g711_ulaw",
		TurnDetection:     &turnDetectionConfig{Type: "server_vad"},
	}
	if c.opts.TranscriptionModel != "" {
		cfg.InputAudioTranscription = &transcriptionConfig{Model: c.opts.TranscriptionModel}
	}
	return c.send(sessionUpdateEvent{Type: "session.update", Session: cfg})
}

func (c *Client) SendConversationItem(role, text string) error {
	return c.send(conversationItemCreateEvent{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type:    "message",
			Role:    role,
			Content: []itemContent{{Type: "input_text", Text: text}},
		},
	})
}

func (c *Client) SendResponseCreate() error {
	return c.send(responseCreateEvent{Type: "response.create"})
}

func (c *Client) SendAudioAppend(payload string) error {
	return c.send(audioAppendEvent{Type: "input_audio_buffer.append", Audio: payload})
}

// Close closes the socket; repeated calls are no-ops.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	_ = c.conn.Close()
}
