package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"shakeout/server/internal/game"
	"shakeout/server/internal/motion"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	typeWelcome = "welcome"
	typeLobby   = "lobby"
	typeEvent   = "event"
	typeError   = "error"
)

// Client message type identifiers.
const (
	TypeMotion  = "motion"
	TypeStart   = "start"
	TypeStop    = "stop"
	TypeNext    = "next"
	TypeCapture = "capture"
	TypeEffect  = "effect"
)

// Exported aliases for outbound message type identifiers.
const (
	TypeWelcome = typeWelcome
	TypeLobby   = typeLobby
	TypeEvent   = typeEvent
	TypeError   = typeError
)

var (
	// ErrUnknownMessage is returned for a well-formed message of an
	// unsupported type.
	ErrUnknownMessage = errors.New("unknown message type")
	// ErrUnknownCodec is returned when a client asks for an unsupported codec.
	ErrUnknownCodec = errors.New("unknown codec")
)

// Codec encodes and decodes websocket payloads.
type Codec interface {
	Name() string
	// Binary reports whether frames should be sent as binary messages.
	Binary() bool
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Binary() bool                       { return false }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// msgpackCodec reuses the json struct tags so both codecs share field names.
type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }
func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// JSON is the default text codec.
var JSON Codec = jsonCodec{}

// MessagePack is the binary codec selected with ?codec=msgpack.
var MessagePack Codec = msgpackCodec{}

// CodecByName resolves a codec from its query-string name. An empty name
// selects JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", JSON.Name():
		return JSON, nil
	case MessagePack.Name():
		return MessagePack, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// ClientMessage is the union of every inbound message. Only the fields
// relevant to Type are read.
type ClientMessage struct {
	Ver  int    `json:"ver,omitempty"`
	Type string `json:"type"`
	Seq  uint64 `json:"seq,omitempty"`

	X         float64  `json:"x,omitempty"`
	Y         float64  `json:"y,omitempty"`
	Z         float64  `json:"z,omitempty"`
	Intensity *float64 `json:"intensity,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`

	Config *game.ModeConfig `json:"config,omitempty"`

	BaseID string `json:"baseId,omitempty"`

	PlayerID   string `json:"playerId,omitempty"`
	Effect     string `json:"effect,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

// Sample converts a motion message into a normalizer sample.
func (m ClientMessage) Sample() motion.Sample {
	return motion.Sample{X: m.X, Y: m.Y, Z: m.Z, Intensity: m.Intensity, Timestamp: m.Timestamp}
}

// Duration returns the requested effect duration.
func (m ClientMessage) Duration() time.Duration {
	if m.DurationMs <= 0 {
		return 0
	}
	return time.Duration(m.DurationMs) * time.Millisecond
}

// DecodeClientMessage parses an inbound payload and rejects unknown types.
func DecodeClientMessage(codec Codec, payload []byte) (ClientMessage, error) {
	if codec == nil {
		codec = JSON
	}
	var msg ClientMessage
	if err := codec.Unmarshal(payload, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("decode %s message: %w", codec.Name(), err)
	}
	switch msg.Type {
	case TypeMotion, TypeStart, TypeStop, TypeNext, TypeCapture, TypeEffect:
		return msg, nil
	}
	return msg, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
}

// LobbyMember is one connected client.
type LobbyMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Welcome is the first message a client receives.
type Welcome struct {
	Ver      int           `json:"ver"`
	Type     string        `json:"type"`
	PlayerID string        `json:"playerId"`
	Name     string        `json:"name"`
	Codec    string        `json:"codec"`
	State    game.State    `json:"state"`
	Lobby    []LobbyMember `json:"lobby"`
	Modes    []string      `json:"modes,omitempty"`
}

// NewWelcome builds a welcome message.
func NewWelcome(id, name string, codec Codec, state game.State, lobby []LobbyMember, modes []string) Welcome {
	return Welcome{
		Ver:      Version,
		Type:     typeWelcome,
		PlayerID: id,
		Name:     name,
		Codec:    codec.Name(),
		State:    state,
		Lobby:    lobby,
		Modes:    modes,
	}
}

// Lobby announces the connected roster after a join or leave.
type Lobby struct {
	Ver     int           `json:"ver"`
	Type    string        `json:"type"`
	State   game.State    `json:"state"`
	Players []LobbyMember `json:"players"`
}

// NewLobby builds a roster update.
func NewLobby(state game.State, players []LobbyMember) Lobby {
	return Lobby{Ver: Version, Type: typeLobby, State: state, Players: players}
}

// EventMessage wraps an engine event for delivery.
type EventMessage struct {
	Ver   int        `json:"ver"`
	Type  string     `json:"type"`
	Event game.Event `json:"event"`
}

// NewEvent wraps an engine event.
func NewEvent(e game.Event) EventMessage {
	return EventMessage{Ver: Version, Type: typeEvent, Event: e}
}

// ErrorMessage reports a rejected client request.
type ErrorMessage struct {
	Ver     int    `json:"ver"`
	Type    string `json:"type"`
	Request string `json:"request,omitempty"`
	Seq     uint64 `json:"seq,omitempty"`
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason"`
}

// NewError describes err in reply to a request. Validation failures carry
// the offending field.
func NewError(request string, seq uint64, err error) ErrorMessage {
	msg := ErrorMessage{Ver: Version, Type: typeError, Request: request, Seq: seq}
	if err != nil {
		msg.Reason = err.Error()
	}
	var verr *game.ValidationError
	if errors.As(err, &verr) {
		msg.Field = verr.Field
		msg.Reason = verr.Message
	}
	return msg
}
