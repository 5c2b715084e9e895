// Package cards renders the adaptive card payloads used by both bots. The
// payloads are opaque to the coordination logic; only the submission values
// they produce are interpreted.
package cards

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aparate/handover/internal/domain"
)

const (
	schemaURL   = "http://adaptivecards.io/schemas/adaptive-card.json"
	cardVersion = "1.3"
)

// Submission actions produced by the TA-side cards.
const (
	ActionAcknowledge = "acknowledge"
	ActionApprove     = "approve"
	ActionReject      = "reject"
)

// CaseSelection builds the case picker shown when the user initiates a
// handover.
func CaseSelection(cases []domain.Case) fiber.Map {
	choices := make([]fiber.Map, 0, len(cases))
	for _, c := range cases {
		is247 := "No"
		if c.Is247 {
			is247 = "Yes"
		}
		choices = append(choices, fiber.Map{
			"title": fmt.Sprintf("Case %s | Sev: %s | 24/7: %s | %s", c.CaseNumber, c.Severity, is247, c.Title),
			"value": c.CaseNumber,
		})
	}
	return fiber.Map{
		"type":    "AdaptiveCard",
		"$schema": schemaURL,
		"version": cardVersion,
		"body": []fiber.Map{
			{"type": "TextBlock", "text": "Select a case for handover:", "weight": "Bolder", "size": "Medium"},
			{"type": "Input.ChoiceSet", "id": "caseNumber", "style": "expanded", "choices": choices},
		},
		"actions": []fiber.Map{
			{"type": "Action.Submit", "title": "Submit"},
		},
	}
}

// Confirmation builds the yes/no confirmation card echoing the selected case.
func Confirmation(c domain.Case) fiber.Map {
	return fiber.Map{
		"type":    "AdaptiveCard",
		"$schema": schemaURL,
		"version": cardVersion,
		"body": []fiber.Map{
			{"type": "TextBlock", "text": "Handover Confirmation", "weight": "Bolder", "size": "Medium"},
			{"type": "FactSet", "facts": caseFacts(c)},
			{"type": "TextBlock", "text": "Do you want to proceed with handover?", "weight": "Bolder", "size": "Small"},
			{"type": "Input.ChoiceSet", "id": "confirmation", "style": "expanded", "choices": []fiber.Map{
				{"title": "Yes", "value": "yes"},
				{"title": "No", "value": "no"},
			}},
		},
		"actions": []fiber.Map{
			{"type": "Action.Submit", "title": "Confirm"},
		},
	}
}

// TAHandover builds the acknowledgment prompt presented to the TA.
func TAHandover(c domain.Case) fiber.Map {
	return fiber.Map{
		"type":    "AdaptiveCard",
		"$schema": schemaURL,
		"version": cardVersion,
		"body": []fiber.Map{
			{"type": "TextBlock", "text": "A case is pending for handover:", "weight": "Bolder", "size": "Medium"},
			{"type": "FactSet", "facts": caseFacts(c)},
		},
		"actions": []fiber.Map{
			{"type": "Action.Submit", "title": "Acknowledge", "data": fiber.Map{"action": ActionAcknowledge}},
		},
	}
}

// TAApproval builds the approve/reject decision card.
func TAApproval() fiber.Map {
	return fiber.Map{
		"type":    "AdaptiveCard",
		"$schema": schemaURL,
		"version": cardVersion,
		"body": []fiber.Map{
			{"type": "TextBlock", "text": "Approve or Reject Handover:", "weight": "Bolder", "size": "Medium"},
			{"type": "Input.Text", "id": "comments", "placeholder": "Add your comments here...", "isMultiline": true},
		},
		"actions": []fiber.Map{
			{"type": "Action.Submit", "title": "Approve", "data": fiber.Map{"action": ActionApprove}, "style": "positive"},
			{"type": "Action.Submit", "title": "Reject", "data": fiber.Map{"action": ActionReject}, "style": "destructive"},
		},
	}
}

// Submission is the interpreted value of a card submit activity.
type Submission struct {
	CaseNumber   string
	Confirmation string
	Action       string
	Comments     string
}

// ParseSubmission extracts the known fields from a card submission value.
func ParseSubmission(value map[string]any) Submission {
	return Submission{
		CaseNumber:   stringField(value, "caseNumber"),
		Confirmation: stringField(value, "confirmation"),
		Action:       stringField(value, "action"),
		Comments:     stringField(value, "comments"),
	}
}

// Confirmed reports whether the confirmation value is affirmative. Any other
// value counts as a cancellation.
func (s Submission) Confirmed() bool {
	switch strings.ToLower(strings.TrimSpace(s.Confirmation)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}

func caseFacts(c domain.Case) []fiber.Map {
	is247 := "No"
	if c.Is247 {
		is247 = "Yes"
	}
	return []fiber.Map{
		{"title": "Case Number:", "value": c.CaseNumber},
		{"title": "Severity:", "value": c.Severity},
		{"title": "24/7 Support:", "value": is247},
		{"title": "Title:", "value": c.Title},
		{"title": "Description:", "value": c.Description},
	}
}

func stringField(value map[string]any, key string) string {
	if value == nil {
		return ""
	}
	if raw, ok := value[key].(string); ok {
		return raw
	}
	return ""
}
