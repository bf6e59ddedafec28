// Package protocol defines the event envelopes exchanged with the CMS
// real-time endpoint. Inbound events flow server -> client over a WebSocket
// connection; outbound control messages flow client -> server.
package protocol

import "encoding/json"

// Header carries only the type discriminator. Incoming frames are decoded
// into a Header first, then into the concrete event for that type.
type Header struct {
	Type string `json:"type"`
}

// Server -> client events

// JobUpdateEvent announces a job status transition.
type JobUpdateEvent struct {
	Type      string     `json:"type"`
	JobID     string     `json:"job_id"`
	Status    string     `json:"status"`
	Data      UpdateData `json:"data"`
	Timestamp float64    `json:"timestamp,omitempty"`
}

// UpdateData carries the optional payload attached to a status update.
type UpdateData struct {
	Error      string          `json:"error,omitempty"`
	OutputData json.RawMessage `json:"output_data,omitempty"`
}

// JobProgressEvent carries a progress sample for a running job.
type JobProgressEvent struct {
	Type      string  `json:"type"`
	JobID     string  `json:"job_id"`
	Progress  float64 `json:"progress"`
	Message   string  `json:"message,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// PongEvent acknowledges a client ping, echoing its timestamp.
type PongEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// ConnectionEvent is the server hello sent after a successful connect.
type ConnectionEvent struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// NotificationEvent is a user-facing message pushed by the server.
type NotificationEvent struct {
	Type             string          `json:"type"`
	NotificationType string          `json:"notification_type"`
	Title            string          `json:"title"`
	Message          string          `json:"message"`
	Data             json.RawMessage `json:"data,omitempty"`
}

// Client -> server control messages

// SubscribeMessage registers interest in a job's event channel.
type SubscribeMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// UnsubscribeMessage withdraws interest in a job's event channel.
type UnsubscribeMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// PingMessage is the application-level keep-alive.
type PingMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// Event type constants
const (
	TypeJobUpdate    = "job_update"
	TypeJobProgress  = "job_progress"
	TypeConnection   = "connection"
	TypeNotification = "notification"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeSubscribe    = "subscribe"
	TypeUnsubscribe  = "unsubscribe"
)

// MarshalSubscribe builds the subscribe control frame for a job channel.
func MarshalSubscribe(channel string) ([]byte, error) {
	return json.Marshal(SubscribeMessage{Type: TypeSubscribe, Channel: channel})
}

// MarshalUnsubscribe builds the unsubscribe control frame for a job channel.
func MarshalUnsubscribe(channel string) ([]byte, error) {
	return json.Marshal(UnsubscribeMessage{Type: TypeUnsubscribe, Channel: channel})
}

// MarshalPing builds a ping frame with the given timestamp in milliseconds.
func MarshalPing(timestampMs int64) ([]byte, error) {
	return json.Marshal(PingMessage{Type: TypePing, Timestamp: timestampMs})
}
