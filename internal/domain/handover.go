package domain

import "time"

// Decision enumerates terminal TA verdicts.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision validates a wire decision value.
func ParseDecision(raw string) (Decision, bool) {
	switch Decision(raw) {
	case DecisionApprove, DecisionReject:
		return Decision(raw), true
	default:
		return "", false
	}
}

// HandoverRequest is the unit of cross-process coordination. The case is a
// snapshot taken at submission time; ReplyToken is an opaque serialized
// reference back to the originating user conversation.
type HandoverRequest struct {
	Case        Case      `json:"case"`
	ReplyToken  string    `json:"replyToken"`
	OriginID    string    `json:"originId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// HandoverReport is the write-once audit record produced for every terminal
// decision, including eligibility rejections that never reach a TA.
type HandoverReport struct {
	ID              string    `json:"id"`
	CaseNumber      string    `json:"caseNumber"`
	Severity        string    `json:"severity"`
	SendingEngineer string    `json:"sendingEngineer"`
	Vertical        string    `json:"vertical"`
	SAP             string    `json:"sap"`
	Valid           bool      `json:"valid"`
	RejectReason    string    `json:"rejectReason"`
	TAReviewer      string    `json:"taReviewer"`
	Comments        string    `json:"comments"`
	Timestamp       time.Time `json:"timestamp"`
}
