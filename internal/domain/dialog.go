package domain

// UserStep enumerates the user-side dialog states.
type UserStep string

const (
	UserStepNone          UserStep = ""
	UserStepCaseSelection UserStep = "caseSelection"
	UserStepConfirmation  UserStep = "confirmation"
	UserStepWaitingTA     UserStep = "waitingTA"
)

// UserDialogState is the per-conversation state for the user bot.
type UserDialogState struct {
	Step         UserStep `json:"step"`
	SelectedCase *Case    `json:"selectedCase,omitempty"`
}

// TAStep enumerates the TA-side dialog states.
type TAStep string

const (
	TAStepNone                  TAStep = ""
	TAStepWaitingAcknowledgment TAStep = "waitingAcknowledgment"
	TAStepWaitingApproval       TAStep = "waitingApproval"
	TAStepCompleted             TAStep = "completed"
)

// TADialogState is the per-conversation state for the TA bot. A TA session
// services at most one handover at a time; Reset clears it for the next one.
type TADialogState struct {
	Step     TAStep   `json:"step"`
	Handover *Case    `json:"handover,omitempty"`
	OriginID string   `json:"originId,omitempty"`
	Decision Decision `json:"decision,omitempty"`
	Comments string   `json:"comments,omitempty"`
}

// Reset returns the state to idle, retaining no memory of the resolved case.
func (s *TADialogState) Reset() {
	*s = TADialogState{}
}
