// Package app holds the per-call bridge state: one telephony socket wired
// to one AI-side realtime socket, with the negotiation state machine that
// decides when each side may send what.
package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxPendingFrames bounds caller audio buffered before the AI session is
// ready. 20ms mu-law frames, so this is roughly four seconds of speech.
const maxPendingFrames = 200

// MediaSender is the telephony-side endpoint a session speaks back to.
// Owned by the telephony adapter; Close must be idempotent.
type MediaSender interface {
	SendMedia(streamSid, payload string) error
	Close()
}

// AIClient is the realtime endpoint exclusively owned by one session.
// All sends must be no-ops once the socket is closed.
type AIClient interface {
	SendSessionUpdate(instructions string) error
	SendConversationItem(role, text string) error
	SendResponseCreate() error
	SendAudioAppend(payload string) error
	Close()
}

// AIEvents receives inbound realtime events for one call. Session
// implements it; the realtime adapter's read loop drives it.
type AIEvents interface {
	OnSessionCreated()
	OnSessionUpdated()
	OnAudioDelta(payload string)
	OnAIClosed()
}

// AIDialer opens the AI-side socket for a session, delivering inbound
// events to sink. The session calls it exactly once, on the start frame.
type AIDialer func(sink AIEvents) (AIClient, error)

// Session bridges one telephony socket to one AI socket. Each accepted
// call gets its own Session; nothing is shared across calls.
type Session struct {
	id           string
	instructions string
	greeting     string
	greetingRole string

	phone MediaSender
	dial  AIDialer

	mu        sync.Mutex
	state     State
	streamSid string
	started   bool
	ai        AIClient
	pending   []string
}

func NewSession(instructions, greeting, greetingRole string, phone MediaSender, dial AIDialer) *Session {
	return &Session{
		id:           uuid.NewString(),
		instructions: instructions,
		greeting:     greeting,
		greetingRole: greetingRole,
		phone:        phone,
		dial:         dial,
		state:        StateConnecting,
	}
}

// ID returns the session's log-correlation id, assigned at accept time
// (the platform's streamSid only becomes known on the start frame).
func (s *Session) ID() string { return s.id }

// advance moves the negotiation state forward. Regressions, repeats and
// transitions out of StateClosed are rejected.
func (s *Session) advance(to State) bool {
	if s.state == StateClosed || to <= s.state {
		return false
	}
	s.state = to
	return true
}

// HandleStart captures the call identifier and opens the AI socket.
// Duplicate start frames for an already-started call are ignored; a
// second AI socket is never opened.
func (s *Session) HandleStart(streamSid string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		log.Warn().Str("module", "app.session").Str("call", s.id).
			Str("streamSid", streamSid).Msg("duplicate start frame ignored")
		return
	}
	s.started = true
	s.streamSid = streamSid

	ai, err := s.dial(s)
	if err != nil {
		log.Error().Err(err).Str("module", "app.session").Str("call", s.id).
			Msg("ai dial failed, tearing down")
		s.teardownLocked()
		return
	}
	s.ai = ai
	s.advance(StateAwaitingCreated)
	log.Info().Str("module", "app.session").Str("call", s.id).
		Str("streamSid", streamSid).Msg("call started, ai socket open")
}

// HandleMedia forwards caller audio to the AI socket once negotiation is
// ready. Earlier audio is buffered (bounded, oldest dropped) and flushed
// in order at the ready transition so early speech is not lost.
func (s *Session) HandleMedia(payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateReady:
		_ = s.ai.SendAudioAppend(payload)
	case StateClosed:
	default:
		if len(s.pending) >= maxPendingFrames {
			s.pending = s.pending[1:]
		}
		s.pending = append(s.pending, payload)
	}
}

// HandleStop tears down both sockets.
func (s *Session) HandleStop() {
	s.Teardown("stop frame")
}

// OnSessionCreated sends the session configuration. The config event is
// always sent before any greeting or audio for this call.
func (s *Session) OnSessionCreated() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.advance(StateAwaitingUpdated) {
		return
	}
	_ = s.ai.SendSessionUpdate(s.instructions)
	log.Info().Str("module", "app.session").Str("call", s.id).Msg("session configured")
}

// OnSessionUpdated marks the session ready. A non-empty greeting
// produces exactly one conversation item plus one response request, so
// the AI speaks first; buffered caller audio is then flushed in order.
func (s *Session) OnSessionUpdated() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.advance(StateReady) {
		return
	}
	if s.greeting != "" {
		_ = s.ai.SendConversationItem(s.greetingRole, s.greeting)
		_ = s.ai.SendResponseCreate()
	}
	for _, payload := range s.pending {
		_ = s.ai.SendAudioAppend(payload)
	}
	s.pending = nil
	log.Info().Str("module", "app.session").Str("call", s.id).Msg("session ready")
}

// OnAudioDelta relays synthesized audio back into the call. Deltas that
// arrive before the call identifier is known are dropped.
func (s *Session) OnAudioDelta(payload string) {
	s.mu.Lock()
	sid := s.streamSid
	closed := s.state == StateClosed
	s.mu.Unlock()

	if closed {
		return
	}
	if sid == "" {
		log.Debug().Str("module", "app.session").Str("call", s.id).
			Msg("audio delta before streamSid known, dropped")
		return
	}
	_ = s.phone.SendMedia(sid, payload)
}

// OnAIClosed handles the AI socket dropping; the call ends.
func (s *Session) OnAIClosed() {
	s.Teardown("ai socket closed")
}

// Teardown closes both sockets. Idempotent; safe from either side's
// read loop.
func (s *Session) Teardown(reason string) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.pending = nil
	ai := s.ai
	s.mu.Unlock()

	log.Info().Str("module", "app.session").Str("call", s.id).
		Str("reason", reason).Msg("session teardown")
	if ai != nil {
		ai.Close()
	}
	s.phone.Close()
}

// teardownLocked is Teardown for paths already holding s.mu.
func (s *Session) teardownLocked() {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.pending = nil
	if s.ai != nil {
		s.ai.Close()
	}
	s.phone.Close()
}

// State reports the current negotiation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
