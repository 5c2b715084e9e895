package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/aparate/handover/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventHandoverSubmitted EventType = "handover_submitted"
	EventHandoverQueued    EventType = "handover_queued"
	EventHandoverDelivered EventType = "handover_delivered"
	EventHandoverDecided   EventType = "handover_decided"
	EventReportWritten     EventType = "report_written"
)

// Event represents a handover lifecycle event emitted by the coordinator and
// the dialogs.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	CaseNumber string      `json:"case_number"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// New builds an event with a fresh id and timestamp.
func New(eventType EventType, caseNumber string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		CaseNumber: caseNumber,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// HandoverSubmittedPayload payload.
type HandoverSubmittedPayload struct {
	OriginID string `json:"origin_id"`
}

// HandoverQueuedPayload payload.
type HandoverQueuedPayload struct {
	OriginID string `json:"origin_id"`
	Reason   string `json:"reason"`
}

// HandoverDeliveredPayload payload.
type HandoverDeliveredPayload struct {
	OriginID         string `json:"origin_id"`
	TAConversationID string `json:"ta_conversation_id"`
}

// HandoverDecidedPayload payload.
type HandoverDecidedPayload struct {
	OriginID string          `json:"origin_id"`
	Decision domain.Decision `json:"decision"`
	Comments string          `json:"comments,omitempty"`
}

// ReportWrittenPayload payload.
type ReportWrittenPayload struct {
	ReportID string `json:"report_id"`
	Valid    bool   `json:"valid"`
	Path     string `json:"path,omitempty"`
}
