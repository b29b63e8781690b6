// Package session terminates WebSocket connections and translates client
// subscriptions into filtered event streams from the state store.
package session

import (
	"encoding/json"

	"kube-liveview/pkg/gateway/store"
	"kube-liveview/pkg/k8s/resources"
)

// Inbound frame types.
const (
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
	framePing        = "ping"
	framePong        = "pong"
)

// Outbound frame types.
const (
	frameConnection      = "connection"
	frameResource        = "resource"
	frameInitialComplete = "initial_state_complete"
	frameSubscribed      = "subscribed"
	frameUnsubscribed    = "unsubscribed"
	frameError           = "error"
	frameWarning         = "warning"
)

// inboundFrame is the single decode target for client frames. The timestamp
// is kept raw so pong replies echo whatever representation the client sent.
type inboundFrame struct {
	Type         string          `json:"type"`
	ResourceType string          `json:"resourceType,omitempty"`
	Namespace    string          `json:"namespace,omitempty"`
	Timestamp    json.RawMessage `json:"timestamp,omitempty"`
}

// connectionFrame greets a freshly accepted client.
type connectionFrame struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// resourceFrame carries one normalized record to the client.
type resourceFrame struct {
	Type         string            `json:"type"`
	EventType    store.EventType   `json:"eventType"`
	ResourceType string            `json:"resourceType"`
	Resource     *resources.Record `json:"resource"`
}

// initialCompleteFrame closes a snapshot replay burst.
type initialCompleteFrame struct {
	Type         string `json:"type"`
	ResourceType string `json:"resourceType"`
	Count        int    `json:"count"`
	Namespace    string `json:"namespace"`
}

// ackFrame confirms a subscribe or unsubscribe.
type ackFrame struct {
	Type         string `json:"type"`
	ResourceType string `json:"resourceType"`
	Namespace    string `json:"namespace,omitempty"`
}

// keepaliveFrame is an application-level ping or pong.
type keepaliveFrame struct {
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// noticeFrame carries error and warning messages.
type noticeFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func errorFrame(message string) noticeFrame {
	return noticeFrame{Type: frameError, Message: message}
}

func warningFrame(message string) noticeFrame {
	return noticeFrame{Type: frameWarning, Message: message}
}
