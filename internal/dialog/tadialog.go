package dialog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aparate/handover/internal/cards"
	"github.com/aparate/handover/internal/chat"
	"github.com/aparate/handover/internal/coordinator"
	"github.com/aparate/handover/internal/domain"
	"github.com/aparate/handover/internal/report"
)

// TA-facing messages.
const (
	TAWelcomeText        = "TA Bot active. Send \"status\" for a status report, \"clear\" to reset storage."
	AcknowledgedText     = "Handover acknowledged. Please review and approve/reject."
	ClearedText          = "All storage cleared for fresh start."
	DecisionFailedText   = "Failed to deliver the decision to the user bot. The requester was not notified."
	DefaultCommentsText  = "No comments provided"
	TARejectReasonPrefix = "TA rejected handover"
)

// TADialog drives the technical-approver conversation.
type TADialog struct {
	coord     *coordinator.Coordinator
	connector chat.Connector
	states    chat.StateStore
	reports   *report.Generator
	logger    *zap.Logger
}

// NewTADialog creates the dialog.
func NewTADialog(coord *coordinator.Coordinator, connector chat.Connector, states chat.StateStore, reports *report.Generator, logger *zap.Logger) *TADialog {
	return &TADialog{
		coord:     coord,
		connector: connector,
		states:    states,
		reports:   reports,
		logger:    logger,
	}
}

// OnTurn processes one inbound activity for one TA conversation.
func (d *TADialog) OnTurn(ctx context.Context, activity chat.Activity) error {
	convID := activity.ConversationID
	d.coord.NoteTASession(convID)

	if activity.Type == chat.ActivityConversationUpdate {
		if len(activity.MembersAdded) == 0 {
			return nil
		}
		if err := d.say(ctx, convID, TAWelcomeText); err != nil {
			return err
		}
		d.coord.FlushPendingIfAny(ctx, convID)
		return nil
	}
	if activity.Type != chat.ActivityMessage {
		return nil
	}

	if len(activity.Value) > 0 {
		return d.handleSubmission(ctx, convID, cards.ParseSubmission(activity.Value))
	}
	return d.handleText(ctx, convID, activity.Text)
}

func (d *TADialog) handleText(ctx context.Context, convID, text string) error {
	lower := strings.ToLower(strings.TrimSpace(text))

	var state domain.TADialogState
	if _, err := d.states.Get(ctx, convID, &state); err != nil {
		return err
	}

	switch {
	case strings.Contains(lower, "status"):
		return d.say(ctx, convID, d.statusReport(state))
	case strings.Contains(lower, "clear"):
		d.coord.Clear()
		if err := d.states.Clear(ctx, convID); err != nil {
			return err
		}
		return d.say(ctx, convID, ClearedText)
	}

	// An idle TA message doubles as a pull for queued requests.
	if state.Step == domain.TAStepNone && d.coord.PendingCount() > 0 {
		d.coord.FlushPendingIfAny(ctx, convID)
		return nil
	}

	return d.say(ctx, convID, TAWelcomeText)
}

func (d *TADialog) handleSubmission(ctx context.Context, convID string, submission cards.Submission) error {
	var state domain.TADialogState
	if _, err := d.states.Get(ctx, convID, &state); err != nil {
		return err
	}

	switch {
	case submission.Action == cards.ActionAcknowledge && state.Step == domain.TAStepWaitingAcknowledgment:
		return d.handleAcknowledge(ctx, convID, state)
	case (submission.Action == cards.ActionApprove || submission.Action == cards.ActionReject) && state.Step == domain.TAStepWaitingApproval:
		return d.handleDecision(ctx, convID, state, submission)
	default:
		return d.say(ctx, convID, fmt.Sprintf("Unknown action: %s", submission.Action))
	}
}

func (d *TADialog) handleAcknowledge(ctx context.Context, convID string, state domain.TADialogState) error {
	if err := d.connector.Send(ctx, convID, chat.NewCardMessage(convID, cards.TAApproval())); err != nil {
		return err
	}
	if err := d.say(ctx, convID, AcknowledgedText); err != nil {
		return err
	}

	state.Step = domain.TAStepWaitingApproval
	return d.states.Set(ctx, convID, state)
}

func (d *TADialog) handleDecision(ctx context.Context, convID string, state domain.TADialogState, submission cards.Submission) error {
	decision := domain.DecisionReject
	if submission.Action == cards.ActionApprove {
		decision = domain.DecisionApprove
	}
	comments := submission.Comments
	if strings.TrimSpace(comments) == "" {
		comments = DefaultCommentsText
	}

	state.Step = domain.TAStepCompleted
	state.Decision = decision
	state.Comments = comments

	deliveryErr := d.coord.DeliverDecision(ctx, state.OriginID, decision, comments)
	if deliveryErr != nil {
		d.logger.Error("deliver decision to user bot",
			zap.String("origin_id", state.OriginID),
			zap.Error(deliveryErr))
	}

	if state.Handover != nil {
		valid := decision == domain.DecisionApprove
		rejectReason := ""
		if !valid {
			rejectReason = fmt.Sprintf("%s: %s", TARejectReasonPrefix, comments)
		}
		d.reports.Generate(ctx, *state.Handover, valid, rejectReason, comments)
	} else {
		d.logger.Warn("decision without handover data", zap.String("conversation_id", convID))
	}

	statusText := "REJECTED: Handover rejected."
	if decision == domain.DecisionApprove {
		statusText = "APPROVED: Handover approved."
	}
	if err := d.say(ctx, convID, fmt.Sprintf("%s Comments: %s", statusText, comments)); err != nil {
		return err
	}
	if deliveryErr != nil {
		if err := d.say(ctx, convID, DecisionFailedText); err != nil {
			return err
		}
	}

	// Completed handovers immediately reset the session for the next one.
	state.Reset()
	return d.states.Set(ctx, convID, state)
}

func (d *TADialog) statusReport(state domain.TADialogState) string {
	step := string(state.Step)
	if step == "" {
		step = "none"
	}
	caseNumber := d.coord.CurrentCaseNumber()
	if caseNumber == "" {
		caseNumber = "none"
	}
	return fmt.Sprintf("Status: step=%s, pending=%d, current case=%s", step, d.coord.PendingCount(), caseNumber)
}

func (d *TADialog) say(ctx context.Context, convID, text string) error {
	return d.connector.Send(ctx, convID, chat.NewMessage(convID, text))
}
