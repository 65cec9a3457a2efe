package network

import (
	"context"

	"shakeout/server/logging"
)

const (
	// EventClientConnected is emitted when a websocket client joins the lobby.
	EventClientConnected logging.EventType = "network.client_connected"
	// EventClientDisconnected is emitted when a websocket client leaves.
	EventClientDisconnected logging.EventType = "network.client_disconnected"
	// EventMessageRejected is emitted when an inbound message cannot be handled.
	EventMessageRejected logging.EventType = "network.message_rejected"
)

// ClientPayload describes a connection transition.
type ClientPayload struct {
	Name   string `json:"name,omitempty"`
	Codec  string `json:"codec,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// MessageRejectedPayload captures why an inbound message was dropped.
type MessageRejectedPayload struct {
	MessageType string `json:"messageType,omitempty"`
	Reason      string `json:"reason"`
}

// ClientConnected publishes a connection event.
func ClientConnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ClientPayload, extra map[string]any) {
	publish(ctx, pub, EventClientConnected, logging.SeverityInfo, actor, payload, extra)
}

// ClientDisconnected publishes a disconnection event.
func ClientDisconnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ClientPayload, extra map[string]any) {
	publish(ctx, pub, EventClientDisconnected, logging.SeverityInfo, actor, payload, extra)
}

// MessageRejected publishes a warning for a dropped inbound message.
func MessageRejected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload MessageRejectedPayload, extra map[string]any) {
	publish(ctx, pub, EventMessageRejected, logging.SeverityWarn, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, sev logging.Severity, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Actor:    actor,
		Severity: sev,
		Category: "network",
		Payload:  payload,
		Extra:    extra,
	})
}
