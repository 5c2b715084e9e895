package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aparate/handover/internal/api/dto"
	"github.com/aparate/handover/internal/catalog"
	"github.com/aparate/handover/internal/chat"
	"github.com/aparate/handover/internal/domain"
	"github.com/aparate/handover/internal/peer"
	"github.com/aparate/handover/internal/report"
)

type fakeConnector struct {
	mu   sync.Mutex
	sent []chat.Activity
	fail bool
}

func (f *fakeConnector) Send(_ context.Context, conversationID string, activity chat.Activity) error {
	if f.fail {
		return errors.New("channel unavailable")
	}
	activity.ConversationID = conversationID
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, activity)
	return nil
}

func (f *fakeConnector) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, a := range f.sent {
		if a.Text != "" {
			out = append(out, a.Text)
		}
	}
	return out
}

func (f *fakeConnector) cardCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.sent {
		if len(a.Attachments) > 0 {
			n++
		}
	}
	return n
}

type userFixture struct {
	dialog    *UserDialog
	connector *fakeConnector
	states    chat.StateStore
	reportDir string
	submitted *[]dto.HandoverSubmission
}

func newUserFixture(t *testing.T, peerStatus int) *userFixture {
	t.Helper()

	submitted := &[]dto.HandoverSubmission{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req dto.HandoverSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*submitted = append(*submitted, req)
		if peerStatus != http.StatusOK {
			w.WriteHeader(peerStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(dto.HandoverAccepted{
			CaseNumber: req.Case.CaseNumber,
			Status:     "pending",
			Timestamp:  time.Now().UTC(),
		})
	}))
	t.Cleanup(server.Close)

	connector := &fakeConnector{}
	states := chat.NewMemoryStateStore()
	reportDir := t.TempDir()

	d := NewUserDialog(UserDialogConfig{
		Catalog:    catalog.NewSeeded(),
		Connector:  connector,
		States:     states,
		Peers:      peer.NewClient(server.URL, time.Second),
		Tokens:     chat.NewTokenCodec("test-secret"),
		Reports:    report.NewGenerator(nil, zap.NewNop(), report.NewFileStore(reportDir)),
		Logger:     zap.NewNop(),
		ServiceURL: "http://localhost:3980",
		ChannelID:  "msteams",
	})

	return &userFixture{
		dialog:    d,
		connector: connector,
		states:    states,
		reportDir: reportDir,
		submitted: submitted,
	}
}

func (f *userFixture) userState(t *testing.T, convID string) domain.UserDialogState {
	t.Helper()
	var state domain.UserDialogState
	_, err := f.states.Get(context.Background(), convID, &state)
	require.NoError(t, err)
	return state
}

func message(convID, text string) chat.Activity {
	return chat.Activity{Type: chat.ActivityMessage, ConversationID: convID, Text: text}
}

func submission(convID string, value map[string]any) chat.Activity {
	return chat.Activity{Type: chat.ActivityMessage, ConversationID: convID, Value: value}
}

func TestWelcomeOnMembershipAdded(t *testing.T) {
	f := newUserFixture(t, http.StatusOK)

	err := f.dialog.OnTurn(context.Background(), chat.Activity{
		Type:           chat.ActivityConversationUpdate,
		ConversationID: "conv-1",
		MembersAdded:   []string{"user"},
	})
	require.NoError(t, err)
	assert.Contains(t, f.connector.texts(), WelcomeText)
}

func TestWelcomeOnUnknownMessage(t *testing.T) {
	f := newUserFixture(t, http.StatusOK)

	require.NoError(t, f.dialog.OnTurn(context.Background(), message("conv-1", "hello")))
	assert.Contains(t, f.connector.texts(), WelcomeText)
	assert.Equal(t, domain.UserStepNone, f.userState(t, "conv-1").Step)
}

func TestHandoverCommandStartsCaseSelection(t *testing.T) {
	f := newUserFixture(t, http.StatusOK)

	require.NoError(t, f.dialog.OnTurn(context.Background(), message("conv-1", " Handover ")))
	assert.Equal(t, 1, f.connector.cardCount())
	assert.Equal(t, domain.UserStepCaseSelection, f.userState(t, "conv-1").Step)
}

func TestCaseSelectionMovesToConfirmation(t *testing.T) {
	f := newUserFixture(t, http.StatusOK)
	ctx := context.Background()

	require.NoError(t, f.dialog.OnTurn(ctx, message("conv-1", "handover")))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"caseNumber": "123"})))

	state := f.userState(t, "conv-1")
	assert.Equal(t, domain.UserStepConfirmation, state.Step)
	require.NotNil(t, state.SelectedCase)
	assert.Equal(t, "123", state.SelectedCase.CaseNumber)
}

func TestUnknownCaseNumberReprompts(t *testing.T) {
	f := newUserFixture(t, http.StatusOK)
	ctx := context.Background()

	require.NoError(t, f.dialog.OnTurn(ctx, message("conv-1", "handover")))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"caseNumber": "000"})))

	state := f.userState(t, "conv-1")
	assert.Equal(t, domain.UserStepCaseSelection, state.Step)
	assert.Nil(t, state.SelectedCase)
	// Initial selection card plus the re-prompt.
	assert.Equal(t, 2, f.connector.cardCount())

	found := false
	for _, text := range f.connector.texts() {
		if strings.Contains(text, "not in the handover catalog") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEligibleCaseSubmitsAndWaits(t *testing.T) {
	f := newUserFixture(t, http.StatusOK)
	ctx := context.Background()

	require.NoError(t, f.dialog.OnTurn(ctx, message("conv-1", "handover")))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"caseNumber": "123"})))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"confirmation": "yes"})))

	require.Len(t, *f.submitted, 1)
	sub := (*f.submitted)[0]
	assert.Equal(t, "123", sub.Case.CaseNumber)

	ref, err := chat.NewTokenCodec("test-secret").Parse(sub.ConversationRef)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", ref.ConversationID)

	texts := f.connector.texts()
	assert.Contains(t, texts, CheckingText)
	assert.Contains(t, texts, SentForApprovalText)
	assert.Equal(t, domain.UserStepWaitingTA, f.userState(t, "conv-1").Step)
}

func TestIneligibleCaseRejectsWithReasonsAndReport(t *testing.T) {
	f := newUserFixture(t, http.StatusOK)
	ctx := context.Background()

	require.NoError(t, f.dialog.OnTurn(ctx, message("conv-1", "handover")))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"caseNumber": "789"})))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"confirmation": "yes"})))

	assert.Empty(t, *f.submitted)
	assert.Equal(t, domain.UserStepNone, f.userState(t, "conv-1").Step)

	var rejection string
	for _, text := range f.connector.texts() {
		if strings.Contains(text, "does not match handover criteria") {
			rejection = text
		}
	}
	require.NotEmpty(t, rejection)
	assert.Contains(t, rejection, "severity is not A")
	assert.Contains(t, rejection, "case is not 24/7")

	entries, err := os.ReadDir(f.reportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, err := os.ReadFile(f.reportDir + "/" + entries[0].Name())
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "Valid: false")
	assert.Contains(t, content, "severity is not A; case is not 24/7")
}

func TestConfirmationNoCancels(t *testing.T) {
	f := newUserFixture(t, http.StatusOK)
	ctx := context.Background()

	require.NoError(t, f.dialog.OnTurn(ctx, message("conv-1", "handover")))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"caseNumber": "123"})))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"confirmation": "no"})))

	assert.Contains(t, f.connector.texts(), CancelledText)
	assert.Equal(t, domain.UserStepNone, f.userState(t, "conv-1").Step)
	assert.Empty(t, *f.submitted)
}

func TestSubmitFailureResetsDialog(t *testing.T) {
	f := newUserFixture(t, http.StatusInternalServerError)
	ctx := context.Background()

	require.NoError(t, f.dialog.OnTurn(ctx, message("conv-1", "handover")))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"caseNumber": "123"})))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"confirmation": "yes"})))

	assert.Contains(t, f.connector.texts(), SubmitFailedText)
	assert.Equal(t, domain.UserStepNone, f.userState(t, "conv-1").Step)
}

func TestWaitingTAIgnoresMessages(t *testing.T) {
	f := newUserFixture(t, http.StatusOK)
	ctx := context.Background()

	require.NoError(t, f.dialog.OnTurn(ctx, message("conv-1", "handover")))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"caseNumber": "123"})))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"confirmation": "yes"})))

	before := len(f.connector.texts())
	require.NoError(t, f.dialog.OnTurn(ctx, message("conv-1", "any update?")))
	assert.Len(t, f.connector.texts(), before)
	assert.Equal(t, domain.UserStepWaitingTA, f.userState(t, "conv-1").Step)
}

func TestOnTAResponseRejectNotifiesAndResets(t *testing.T) {
	f := newUserFixture(t, http.StatusOK)
	ctx := context.Background()

	require.NoError(t, f.dialog.OnTurn(ctx, message("conv-1", "handover")))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"caseNumber": "123"})))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("conv-1", map[string]any{"confirmation": "yes"})))

	ref := chat.ConversationRef{ConversationID: "conv-1"}
	require.NoError(t, f.dialog.OnTAResponse(ctx, ref, domain.DecisionReject, "needs more info"))

	assert.Contains(t, f.connector.texts(), "Handover rejected. TA comment: needs more info")
	assert.Equal(t, domain.UserStepNone, f.userState(t, "conv-1").Step)
}

func TestOnTAResponseApproveSendsFollowUp(t *testing.T) {
	f := newUserFixture(t, http.StatusOK)

	ref := chat.ConversationRef{ConversationID: "conv-1"}
	require.NoError(t, f.dialog.OnTAResponse(context.Background(), ref, domain.DecisionApprove, "good handover"))

	texts := f.connector.texts()
	assert.Contains(t, texts, "The handover is approved with the following comment: good handover")
	assert.Contains(t, texts, ApprovalFollowUp)
}
