package types

import (
	"time"

	"don-provisioner/internal/jobspec"
)

type StreamEvent struct {
	EventType  string                   `json:"event_type"`
	StreamID   uint32                   `json:"stream_id"`
	StreamType jobspec.StreamType       `json:"stream_type"`
	Timestamp  time.Time                `json:"timestamp"`
	Spec       jobspec.StreamSpecConfig `json:"spec"`
}

const (
	EventStreamCreated = "stream_created"
	EventStreamUpdated = "stream_updated"
	EventStreamRemoved = "stream_removed"
)
