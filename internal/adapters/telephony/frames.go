package telephony

// Media Streams wire frames. Inbound frames share one envelope tagged by
// Event; only the fields the bridge acts on are decoded.

type mediaFrame struct {
	Event     string        `json:"event"`
	StreamSid string        `json:"streamSid,omitempty"`
	Start     *startFrame   `json:"start,omitempty"`
	Media     *mediaPayload `json:"media,omitempty"`
	Mark      *markFrame    `json:"mark,omitempty"`
}

type startFrame struct {
	StreamSid    string            `json:"streamSid"`
	CallSid      string            `json:"callSid"`
	MediaFormat  mediaFormat       `json:"mediaFormat"`
	CustomParams map[string]string `json:"customParameters"`
}

type mediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

type markFrame struct {
	Name string `json:"name"`
}

// outboundMedia is the only frame the bridge sends back into the call.
type outboundMedia struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid"`
	Media     mediaPayload `json:"media"`
}
