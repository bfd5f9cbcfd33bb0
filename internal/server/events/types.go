// Package events fans out editor activity to real-time transports.
//
// Handlers publish to a Broker; transports such as the SSE broadcaster
// subscribe through adapters.
package events

import "time"

// EventType names an event on the stream.
type EventType string

// Event types.
const (
	// RowsUpdated is published after a save wrote at least one row.
	RowsUpdated EventType = "rows.updated"

	// SessionCreated is published when a stakeholder signs in.
	SessionCreated EventType = "session.created"

	// ClientConnected is published by transports when a listener attaches.
	ClientConnected EventType = "client.connected"
)

// Event is one published occurrence.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// RowsUpdatedData is the payload of a RowsUpdated event. Ordinals identify
// rows in the full Master Data sheet.
type RowsUpdatedData struct {
	Agency    string `json:"agency"`
	Editor    string `json:"editor"`
	Ordinals  []int  `json:"ordinals"`
	Timestamp string `json:"timestamp"`
	Partial   bool   `json:"partial,omitempty"`
}

// SessionCreatedData is the payload of a SessionCreated event. It carries
// no personal data beyond the agency.
type SessionCreatedData struct {
	Agency string `json:"agency"`
}
