package protocol

import (
	"encoding/json"
	"errors"
)

var (
	ErrInvalidJSON = errors.New("protocol: invalid JSON")
	ErrMissingType = errors.New("protocol: missing message type")
)

// MaxActionsPerFrame caps the action buffer carried by one input frame.
const MaxActionsPerFrame = 16

// Inbound is a decoded client frame. Payload fields beyond the ones for the
// given Type are left at their zero values.
type Inbound struct {
	Type    string
	Ready   bool
	Message string
	Tick    int64
	Actions []string
}

// rawInbound mirrors the wire shape. Loosely typed fields use RawMessage so a
// wrong-typed payload degrades to its documented default instead of failing
// the whole frame.
type rawInbound struct {
	Type    string          `json:"type"`
	Ready   json.RawMessage `json:"ready"`
	Message json.RawMessage `json:"message"`
	Tick    json.RawMessage `json:"tick"`
	Actions json.RawMessage `json:"actions"`
}

// Decode parses one inbound frame. It returns ErrInvalidJSON when the bytes
// are not a JSON object and ErrMissingType when the "type" field is absent or
// not a string; both are protocol errors the caller reports to the client
// without closing the connection.
func Decode(data []byte) (*Inbound, error) {
	var raw rawInbound
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ErrInvalidJSON
	}
	if raw.Type == "" {
		return nil, ErrMissingType
	}

	in := &Inbound{Type: raw.Type}

	if len(raw.Ready) > 0 {
		// Non-bool values keep the default false.
		_ = json.Unmarshal(raw.Ready, &in.Ready)
	}
	if len(raw.Message) > 0 {
		_ = json.Unmarshal(raw.Message, &in.Message)
	}
	if len(raw.Tick) > 0 {
		_ = json.Unmarshal(raw.Tick, &in.Tick)
	}
	if len(raw.Actions) > 0 {
		in.Actions = decodeActions(raw.Actions)
	}

	return in, nil
}

// decodeActions extracts the string entries of an actions array. Non-string
// entries are dropped, a non-array payload yields nil, and the result is
// capped at MaxActionsPerFrame.
func decodeActions(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	actions := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		actions = append(actions, s)
		if len(actions) == MaxActionsPerFrame {
			break
		}
	}
	return actions
}

// TruncateChat enforces the chat length cap without splitting a multi-byte
// character.
func TruncateChat(message string, maxRunes int) string {
	runes := []rune(message)
	if len(runes) <= maxRunes {
		return message
	}
	return string(runes[:maxRunes])
}
