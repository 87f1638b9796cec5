package http

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

const voiceTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<Response>
    <Connect>
        <Stream url="%s" />
    </Connect>
</Response>`

// streamURL builds the media-stream socket address with the prompt and
// greeting re-encoded as connection parameters. Absent parameters are
// left out; the telephony side falls back to configured defaults.
func streamURL(host, prompt, greeting string) string {
	u := url.URL{Scheme: "wss", Host: host, Path: "/media-stream"}
	q := url.Values{}
	if prompt != "" {
		q.Set("systemPrompt", prompt)
	}
	if greeting != "" {
		q.Set("greeting", greeting)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// voiceTwiML renders the call-setup handoff document pointing the
// platform at the media-stream socket.
func voiceTwiML(host, prompt, greeting string) (string, error) {
	var esc strings.Builder
	if err := xml.EscapeText(&esc, []byte(streamURL(host, prompt, greeting))); err != nil {
		return "", fmt.Errorf("escape stream url: %w", err)
	}
	return fmt.Sprintf(voiceTemplate, esc.String()), nil
}
