package dto

import (
	"time"

	"github.com/aparate/handover/internal/domain"
)

// HandoverSubmission is the user→TA process request body for POST
// /api/handover. ConversationRef is a serialized reply token.
type HandoverSubmission struct {
	Case            domain.Case `json:"case"`
	ConversationRef string      `json:"conversationRef"`
}

// HandoverAccepted is the response body for an accepted submission.
type HandoverAccepted struct {
	ConversationID string    `json:"conversationId"`
	CaseNumber     string    `json:"caseNumber"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// TAResponse is the TA→user process request body for POST /api/ta-response.
type TAResponse struct {
	ConversationRef string `json:"conversationRef"`
	Decision        string `json:"decision"`
	Comment         string `json:"comment"`
}

// TAResponseResult is the response body for a delivered decision.
type TAResponseResult struct {
	Status string `json:"status"`
}
