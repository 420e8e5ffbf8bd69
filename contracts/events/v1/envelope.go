package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the versioned event envelope carried by every assembly fact.
// Field names are part of the wire contract and must stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

const (
	EventTypeBallotAccepted    = "ballot.accepted"
	EventTypeSessionCreated    = "session.created"
	EventTypeAgendaItemCreated = "agenda_item.created"
	CurrentSchemaVersion       = 1
	PartitionKeyPathAgendaItem = "agenda_item_id"
	PartitionKeyPathSession    = "session_id"
)

// BallotAcceptedData is the payload of a ballot.accepted fact.
type BallotAcceptedData struct {
	BallotID      string    `json:"ballot_id"`
	AgendaItemID  string    `json:"agenda_item_id"`
	ParticipantID string    `json:"participant_id"`
	Choice        string    `json:"choice"`
	CastAt        time.Time `json:"cast_at"`
}

// SessionCreatedData is the payload of a session.created fact.
type SessionCreatedData struct {
	SessionID string    `json:"session_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

// AgendaItemCreatedData is the payload of an agenda_item.created fact.
type AgendaItemCreatedData struct {
	AgendaItemID string `json:"agenda_item_id"`
	SessionID    string `json:"session_id"`
	Title        string `json:"title"`
}
