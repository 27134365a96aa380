package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Engine.IO packet types, the first byte of every websocket frame.
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
)

// Socket.IO packet types, the first byte after an Engine.IO message byte.
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioAck          = '3'
	sioConnectError = '4'
	sioBinaryEvent  = '5'
	sioBinaryAck    = '6'
)

// handshake is the payload of the Engine.IO open packet.
type handshake struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// parseEvent splits a Socket.IO event payload, `["name", arg, ...]`, into
// its name and raw arguments. A namespace or ack id in front of the array is
// skipped.
func parseEvent(p []byte) (string, []json.RawMessage, error) {
	i := bytes.IndexByte(p, '[')
	if i < 0 {
		return "", nil, errors.New("event without payload")
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(p[i:], &parts); err != nil {
		return "", nil, fmt.Errorf("event payload: %w", err)
	}
	if len(parts) == 0 {
		return "", nil, errors.New("event without name")
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return "", nil, fmt.Errorf("event name: %w", err)
	}
	return name, parts[1:], nil
}

// ackID returns the ack id in front of an event payload, after an optional
// namespace. ok is false when the sender asked for no acknowledgement.
func ackID(p []byte) (id string, ok bool) {
	if len(p) > 0 && p[0] == '/' {
		i := bytes.IndexByte(p, ',')
		if i < 0 {
			return "", false
		}
		p = p[i+1:]
	}
	n := 0
	for n < len(p) && p[n] >= '0' && p[n] <= '9' {
		n++
	}
	return string(p[:n]), n > 0
}

// encodeAck builds the empty acknowledgement for event id on the main
// namespace.
func encodeAck(id string) []byte {
	return append([]byte{eioMessage, sioAck}, id+"[]"...)
}

// encodeEvent builds the websocket frame emitting name with args.
func encodeEvent(name string, args ...any) ([]byte, error) {
	payload, err := json.Marshal(append([]any{name}, args...))
	if err != nil {
		return nil, err
	}
	return append([]byte{eioMessage, sioEvent}, payload...), nil
}

// connectError pulls the message out of a Socket.IO connect error payload.
func connectError(p []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(p, &body); err != nil || body.Message == "" {
		return string(p)
	}
	return body.Message
}
