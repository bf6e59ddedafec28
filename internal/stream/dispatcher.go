// Package stream maintains the WebSocket connection to the CMS event
// endpoint and routes its frames. The Supervisor owns the connection
// lifecycle; the Dispatcher decodes frames and hands them to the lifecycle
// controller.
package stream

import (
	"encoding/json"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
	"github.com/lehrwerk/ai-authoring-sync/internal/protocol"
)

// Sink receives decoded job events. Implemented by lifecycle.Controller.
type Sink interface {
	HandleUpdate(jobID string, status domain.JobStatus, errMsg string, output []byte)
	HandleProgress(jobID string, percent float64, message string)
}

// Dispatcher decodes inbound frames and routes them by type. Malformed or
// unknown frames are dropped; a bad frame must never take the stream down.
type Dispatcher struct {
	sink Sink
	log  zerolog.Logger

	// Optional hooks.
	OnPong         func(protocol.PongEvent)
	OnNotification func(protocol.NotificationEvent)

	malformed atomic.Uint64
}

// NewDispatcher creates a Dispatcher routing job events into sink.
func NewDispatcher(sink Sink, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{sink: sink, log: log}
}

// Malformed returns how many undecodable frames have been dropped.
func (d *Dispatcher) Malformed() uint64 { return d.malformed.Load() }

// Dispatch routes one raw frame.
func (d *Dispatcher) Dispatch(raw []byte) {
	var header protocol.Header
	if err := json.Unmarshal(raw, &header); err != nil || header.Type == "" {
		d.drop(raw, "frame without type")
		return
	}

	switch header.Type {
	case protocol.TypeJobUpdate:
		var ev protocol.JobUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.JobID == "" {
			d.drop(raw, "invalid job_update")
			return
		}
		status := domain.JobStatus(ev.Status)
		if !status.Valid() {
			d.drop(raw, "job_update with unknown status")
			return
		}
		d.sink.HandleUpdate(ev.JobID, status, ev.Data.Error, ev.Data.OutputData)

	case protocol.TypeJobProgress:
		var ev protocol.JobProgressEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.JobID == "" {
			d.drop(raw, "invalid job_progress")
			return
		}
		d.sink.HandleProgress(ev.JobID, ev.Progress, ev.Message)

	case protocol.TypePong:
		var ev protocol.PongEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			d.drop(raw, "invalid pong")
			return
		}
		if d.OnPong != nil {
			d.OnPong(ev)
		}

	case protocol.TypeNotification:
		var ev protocol.NotificationEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			d.drop(raw, "invalid notification")
			return
		}
		if d.OnNotification != nil {
			d.OnNotification(ev)
		}

	case protocol.TypeConnection, protocol.TypeSubscribed, protocol.TypeUnsubscribed:
		// Acknowledgements carry no state we track.
		d.log.Debug().Str("type", header.Type).Msg("ack frame")

	default:
		d.log.Debug().Str("type", header.Type).Msg("unknown frame type dropped")
	}
}

func (d *Dispatcher) drop(raw []byte, reason string) {
	d.malformed.Add(1)
	d.log.Warn().Str("reason", reason).Int("bytes", len(raw)).Msg("malformed frame dropped")
}
