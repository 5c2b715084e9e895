// Package dialog implements the per-conversation turn handlers for both
// bots. Each conversation's turns are processed strictly sequentially; all
// cross-conversation state lives in the coordinator.
package dialog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aparate/handover/internal/cards"
	"github.com/aparate/handover/internal/catalog"
	"github.com/aparate/handover/internal/chat"
	"github.com/aparate/handover/internal/domain"
	"github.com/aparate/handover/internal/peer"
	"github.com/aparate/handover/internal/report"
)

// User-facing messages.
const (
	WelcomeText         = "Welcome to Aparate Handover Bot. Please type handover to initiate handover process."
	CheckingText        = "Checking eligibility of handover"
	SentForApprovalText = "Case sent for TA approval. Waiting for TA response..."
	SubmitFailedText    = "Failed to send case to TA Bot. Please check TA Bot status."
	CancelledText       = "Handover cancelled."
	ApprovalFollowUp    = "Updated the Sharepoint with the case handover details, please send the case to queue and connect with the next engineer once assigned."
)

// HandoverCommand starts the case selection flow.
const HandoverCommand = "handover"

// UserDialog drives the engineer-facing handover conversation.
type UserDialog struct {
	catalog   *catalog.CaseCatalog
	connector chat.Connector
	states    chat.StateStore
	peers     *peer.Client
	tokens    *chat.TokenCodec
	reports   *report.Generator
	logger    *zap.Logger

	serviceURL string
	channelID  string
}

// UserDialogConfig bundles UserDialog dependencies.
type UserDialogConfig struct {
	Catalog    *catalog.CaseCatalog
	Connector  chat.Connector
	States     chat.StateStore
	Peers      *peer.Client
	Tokens     *chat.TokenCodec
	Reports    *report.Generator
	Logger     *zap.Logger
	ServiceURL string
	ChannelID  string
}

// NewUserDialog creates the dialog.
func NewUserDialog(cfg UserDialogConfig) *UserDialog {
	return &UserDialog{
		catalog:    cfg.Catalog,
		connector:  cfg.Connector,
		states:     cfg.States,
		peers:      cfg.Peers,
		tokens:     cfg.Tokens,
		reports:    cfg.Reports,
		logger:     cfg.Logger,
		serviceURL: cfg.ServiceURL,
		channelID:  cfg.ChannelID,
	}
}

// OnTurn processes one inbound activity for one conversation.
func (d *UserDialog) OnTurn(ctx context.Context, activity chat.Activity) error {
	convID := activity.ConversationID

	if activity.Type == chat.ActivityConversationUpdate {
		if len(activity.MembersAdded) == 0 {
			return nil
		}
		return d.say(ctx, convID, WelcomeText)
	}
	if activity.Type != chat.ActivityMessage {
		return nil
	}

	var state domain.UserDialogState
	if _, err := d.states.Get(ctx, convID, &state); err != nil {
		return err
	}

	submission := cards.ParseSubmission(activity.Value)

	switch state.Step {
	case domain.UserStepNone:
		return d.handleIdle(ctx, convID, activity)
	case domain.UserStepCaseSelection:
		if submission.CaseNumber != "" {
			return d.handleCaseSelection(ctx, convID, submission.CaseNumber)
		}
	case domain.UserStepConfirmation:
		if submission.Confirmation != "" {
			return d.handleConfirmation(ctx, convID, state, submission)
		}
	case domain.UserStepWaitingTA:
		// Waiting for the TA verdict; the ta-response endpoint resets us.
		return nil
	}
	return nil
}

// OnTAResponse delivers the terminal verdict into the originating
// conversation and resets its dialog state.
func (d *UserDialog) OnTAResponse(ctx context.Context, ref chat.ConversationRef, decision domain.Decision, comment string) error {
	convID := ref.ConversationID

	if decision == domain.DecisionApprove {
		if err := d.say(ctx, convID, fmt.Sprintf("The handover is approved with the following comment: %s", comment)); err != nil {
			return err
		}
		if err := d.say(ctx, convID, ApprovalFollowUp); err != nil {
			return err
		}
	} else {
		if err := d.say(ctx, convID, fmt.Sprintf("Handover rejected. TA comment: %s", comment)); err != nil {
			return err
		}
	}

	return d.states.Set(ctx, convID, domain.UserDialogState{Step: domain.UserStepNone})
}

func (d *UserDialog) handleIdle(ctx context.Context, convID string, activity chat.Activity) error {
	if strings.ToLower(strings.TrimSpace(activity.Text)) != HandoverCommand {
		return d.say(ctx, convID, WelcomeText)
	}

	card := cards.CaseSelection(d.catalog.List())
	if err := d.connector.Send(ctx, convID, chat.NewCardMessage(convID, card)); err != nil {
		return err
	}
	return d.states.Set(ctx, convID, domain.UserDialogState{Step: domain.UserStepCaseSelection})
}

func (d *UserDialog) handleCaseSelection(ctx context.Context, convID, caseNumber string) error {
	selected, found := d.catalog.FindByCaseNumber(caseNumber)
	if !found {
		// Unknown case numbers re-prompt instead of failing the dialog.
		if err := d.say(ctx, convID, fmt.Sprintf("Case %s is not in the handover catalog. Please select one of the listed cases.", caseNumber)); err != nil {
			return err
		}
		return d.connector.Send(ctx, convID, chat.NewCardMessage(convID, cards.CaseSelection(d.catalog.List())))
	}

	if err := d.connector.Send(ctx, convID, chat.NewCardMessage(convID, cards.Confirmation(selected))); err != nil {
		return err
	}
	return d.states.Set(ctx, convID, domain.UserDialogState{
		Step:         domain.UserStepConfirmation,
		SelectedCase: &selected,
	})
}

func (d *UserDialog) handleConfirmation(ctx context.Context, convID string, state domain.UserDialogState, submission cards.Submission) error {
	if !submission.Confirmed() {
		if err := d.say(ctx, convID, CancelledText); err != nil {
			return err
		}
		return d.states.Set(ctx, convID, domain.UserDialogState{Step: domain.UserStepNone})
	}

	if state.SelectedCase == nil {
		d.logger.Warn("confirmation without selected case", zap.String("conversation_id", convID))
		return d.states.Set(ctx, convID, domain.UserDialogState{Step: domain.UserStepNone})
	}
	selected := *state.SelectedCase

	if err := d.say(ctx, convID, CheckingText); err != nil {
		return err
	}

	if !selected.HandoverEligible() {
		reasons := selected.IneligibilityReasons()
		reason := strings.Join(reasons, "; ")
		if err := d.say(ctx, convID, fmt.Sprintf("The case does not match handover criteria: %s.", reason)); err != nil {
			return err
		}
		d.reports.Generate(ctx, selected, false, reason, "")
		return d.states.Set(ctx, convID, domain.UserDialogState{Step: domain.UserStepNone})
	}

	token, err := d.tokens.Issue(chat.ConversationRef{
		ConversationID: convID,
		ServiceURL:     d.serviceURL,
		ChannelID:      d.channelID,
	})
	if err != nil {
		return err
	}

	if _, err := d.peers.SubmitHandover(ctx, selected, token); err != nil {
		d.logger.Error("submit handover to TA bot",
			zap.String("case_number", selected.CaseNumber),
			zap.Error(err))
		if sendErr := d.say(ctx, convID, SubmitFailedText); sendErr != nil {
			return sendErr
		}
		return d.states.Set(ctx, convID, domain.UserDialogState{Step: domain.UserStepNone})
	}

	if err := d.say(ctx, convID, SentForApprovalText); err != nil {
		return err
	}
	return d.states.Set(ctx, convID, domain.UserDialogState{Step: domain.UserStepWaitingTA})
}

func (d *UserDialog) say(ctx context.Context, convID, text string) error {
	return d.connector.Send(ctx, convID, chat.NewMessage(convID, text))
}
