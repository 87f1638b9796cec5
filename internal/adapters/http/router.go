// Package http wires the bridge's three routes: liveness, the call-setup
// responder, and the media-stream websocket upgrade.
package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/LYRARO/lyraro-voice-server/internal/adapters/telephony"
	"github.com/LYRARO/lyraro-voice-server/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "lyraro-voice-server"})
	})

	r.POST("/voice", func(c *gin.Context) {
		body, err := voiceTwiML(cfg.PublicHost, c.Query("systemPrompt"), c.Query("greeting"))
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("twiml build failed")
			c.String(500, "internal server error")
			return
		}
		c.Header("Content-Type", "text/xml")
		c.String(200, body)
	})

	ctl := telephony.NewController(cfg)
	r.GET("/media-stream", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Msg("media stream endpoint hit")
		ctl.HandleMediaStream(ctx, c)
	})

	return r
}
