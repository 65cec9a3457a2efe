package proto

import (
	"errors"
	"strings"
	"testing"

	"shakeout/server/internal/game"
)

func TestDecodeClientMessage(t *testing.T) {
	t.Run("motion sample", func(t *testing.T) {
		msg, err := DecodeClientMessage(JSON, []byte(`{"type":"motion","x":3,"y":4,"z":0,"timestamp":1700}`))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		sample := msg.Sample()
		if sample.X != 3 || sample.Y != 4 || sample.Timestamp != 1700 || sample.Intensity != nil {
			t.Fatalf("unexpected sample %+v", sample)
		}
	})

	t.Run("pre-normalized intensity", func(t *testing.T) {
		msg, err := DecodeClientMessage(JSON, []byte(`{"type":"motion","intensity":0.4}`))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Intensity == nil || *msg.Intensity != 0.4 {
			t.Fatalf("expected intensity 0.4, got %v", msg.Intensity)
		}
	})

	t.Run("start with config", func(t *testing.T) {
		msg, err := DecodeClientMessage(JSON, []byte(`{"type":"start","config":{"mode":"death-count","countdownSeconds":0,"roundDurationMs":60000}}`))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Config == nil || msg.Config.Mode != "death-count" || msg.Config.Countdown() != 0 {
			t.Fatalf("unexpected config %+v", msg.Config)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := DecodeClientMessage(JSON, []byte(`{"type":"teleport"}`)); !errors.Is(err, ErrUnknownMessage) {
			t.Fatalf("expected ErrUnknownMessage, got %v", err)
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := DecodeClientMessage(JSON, []byte(`{"type":`))
		if err == nil || errors.Is(err, ErrUnknownMessage) {
			t.Fatalf("expected a decode error, got %v", err)
		}
	})
}

func TestMessagePackSharesJSONFieldNames(t *testing.T) {
	intensity := 0.75
	data, err := MessagePack.Marshal(ClientMessage{Type: TypeMotion, Intensity: &intensity})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := MessagePack.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["type"] != TypeMotion || raw["intensity"] != 0.75 {
		t.Fatalf("unexpected msgpack fields %v", raw)
	}

	msg, err := DecodeClientMessage(MessagePack, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Intensity == nil || *msg.Intensity != 0.75 {
		t.Fatalf("expected intensity to survive a msgpack round trip")
	}
}

func TestEventMessageEncodesPayload(t *testing.T) {
	event := game.Event{Seq: 7, Type: game.EventPlayerDeath, GameID: "g-1", Payload: game.DeathEventPayload{VictimID: "a"}}
	for _, codec := range []Codec{JSON, MessagePack} {
		data, err := codec.Marshal(NewEvent(event))
		if err != nil {
			t.Fatalf("%s marshal: %v", codec.Name(), err)
		}
		var decoded struct {
			Type  string `json:"type"`
			Event struct {
				Seq     uint64         `json:"seq"`
				Type    string         `json:"type"`
				Payload map[string]any `json:"payload"`
			} `json:"event"`
		}
		if err := codec.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("%s unmarshal: %v", codec.Name(), err)
		}
		if decoded.Type != TypeEvent || decoded.Event.Seq != 7 || decoded.Event.Type != string(game.EventPlayerDeath) {
			t.Fatalf("%s: unexpected envelope %+v", codec.Name(), decoded)
		}
		if decoded.Event.Payload["victimId"] != "a" {
			t.Fatalf("%s: unexpected payload %v", codec.Name(), decoded.Event.Payload)
		}
	}
}

func TestCodecByName(t *testing.T) {
	for name, want := range map[string]Codec{"": JSON, "json": JSON, "msgpack": MessagePack} {
		got, err := CodecByName(name)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %v (%v)", name, want.Name(), got, err)
		}
	}
	if _, err := CodecByName("xml"); !errors.Is(err, ErrUnknownCodec) {
		t.Fatalf("expected ErrUnknownCodec, got %v", err)
	}
}

func TestNewErrorCarriesValidationField(t *testing.T) {
	msg := NewError(TypeStart, 3, &game.ValidationError{Field: "players", Message: "need 2 players"})
	if msg.Field != "players" || msg.Reason != "need 2 players" || msg.Seq != 3 {
		t.Fatalf("unexpected error message %+v", msg)
	}
	plain := NewError(TypeCapture, 0, game.ErrUnsupported)
	if plain.Field != "" || !strings.Contains(plain.Reason, "not supported") {
		t.Fatalf("unexpected error message %+v", plain)
	}
}
