// Package telephony terminates the platform's media-stream websocket:
// one socket per call, inbound control/media frames parsed and fed to
// the call's session, synthesized audio written back out.
package telephony

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/LYRARO/lyraro-voice-server/internal/adapters/realtime"
	"github.com/LYRARO/lyraro-voice-server/internal/app"
	"github.com/LYRARO/lyraro-voice-server/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	cfg *config.Config
}

func NewController(cfg *config.Config) *Controller {
	return &Controller{cfg: cfg}
}

// HandleMediaStream accepts one media-stream socket and builds the
// call's session around it. The session's AI socket is opened lazily,
// on the start frame.
func (ctl *Controller) HandleMediaStream(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "telephony").Msg("ws upgrade")
		return
	}
	conn := newConn(ws)

	if !ctl.cfg.HasCredential() {
		log.Error().Str("module", "telephony").
			Msg("no AI service credential configured, closing telephony socket")
		conn.Close()
		return
	}

	prompt := c.Query("systemPrompt")
	if prompt == "" {
		prompt = ctl.cfg.SystemPrompt
	}
	greeting := c.Query("greeting")
	if greeting == "" {
		greeting = ctl.cfg.Greeting
	}

	dial := func(sink app.AIEvents) (app.AIClient, error) {
		return realtime.Dial(ctx, realtime.Options{
			URL:                ctl.cfg.RealtimeURL,
			APIKey:             ctl.cfg.OpenAIAPIKey,
			Voice:              ctl.cfg.Voice,
			TranscriptionModel: "whisper-1",
		}, sink)
	}

	sess := app.NewSession(prompt, greeting, ctl.cfg.GreetingRole, conn, dial)
	log.Info().Str("module", "telephony").Str("call", sess.ID()).Msg("media stream connected")

	ctx, cancel := context.WithCancel(ctx)
	go conn.writePump(ctx)
	go ctl.readPump(ctx, cancel, sess, conn)
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, sess *app.Session, conn *Conn) {
	defer func() {
		cancel()
		sess.Teardown("telephony socket closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := conn.ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "telephony").
						Str("call", sess.ID()).Msg("readPump read error")
				}
				return
			}
			ctl.handleFrame(sess, data)
		}
	}
}

func (ctl *Controller) handleFrame(sess *app.Session, data []byte) {
	var f mediaFrame
	if err := json.Unmarshal(data, &f); err != nil {
		log.Warn().Err(err).Str("module", "telephony").
			Str("call", sess.ID()).Msg("malformed frame dropped")
		return
	}

	switch f.Event {
	case "connected":
		log.Debug().Str("module", "telephony").Str("call", sess.ID()).Msg("platform connected")
	case "start":
		if f.Start != nil {
			sess.HandleStart(f.Start.StreamSid)
		}
	case "media":
		if f.Media != nil {
			sess.HandleMedia(f.Media.Payload)
		}
	case "stop":
		sess.HandleStop()
	case "mark":
		// Synchronization marker, nothing to do.
	default:
		log.Warn().Str("module", "telephony").Str("call", sess.ID()).
			Str("event", f.Event).Msg("unknown frame kind")
	}
}
