package dialog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aparate/handover/internal/api/dto"
	"github.com/aparate/handover/internal/cards"
	"github.com/aparate/handover/internal/chat"
	"github.com/aparate/handover/internal/coordinator"
	"github.com/aparate/handover/internal/domain"
	"github.com/aparate/handover/internal/peer"
	"github.com/aparate/handover/internal/report"
)

type taFixture struct {
	dialog    *TADialog
	coord     *coordinator.Coordinator
	connector *fakeConnector
	states    chat.StateStore
	reportDir string
	decisions *[]dto.TAResponse
}

func newTAFixture(t *testing.T, peerStatus int) *taFixture {
	t.Helper()

	decisions := &[]dto.TAResponse{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req dto.TAResponse
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*decisions = append(*decisions, req)
		if peerStatus != http.StatusOK {
			w.WriteHeader(peerStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(dto.TAResponseResult{Status: "delivered"})
	}))
	t.Cleanup(server.Close)

	connector := &fakeConnector{}
	states := chat.NewMemoryStateStore()
	reportDir := t.TempDir()

	coord := coordinator.New(connector, states, peer.NewClient(server.URL, time.Second), nil, zap.NewNop())
	d := NewTADialog(coord, connector, states, report.NewGenerator(nil, zap.NewNop(), report.NewFileStore(reportDir)), zap.NewNop())

	return &taFixture{
		dialog:    d,
		coord:     coord,
		connector: connector,
		states:    states,
		reportDir: reportDir,
		decisions: decisions,
	}
}

func (f *taFixture) taState(t *testing.T, convID string) domain.TADialogState {
	t.Helper()
	var state domain.TADialogState
	_, err := f.states.Get(context.Background(), convID, &state)
	require.NoError(t, err)
	return state
}

func (f *taFixture) submitHandover(caseNumber, originID string) {
	f.coord.Submit(context.Background(), domain.HandoverRequest{
		Case:        domain.Case{CaseNumber: caseNumber, Severity: "A", Is247: true, SendingEngineer: "Rajiv", TAReviewer: "N/A"},
		ReplyToken:  "token-" + originID,
		OriginID:    originID,
		SubmittedAt: time.Now().UTC(),
	})
}

func (f *taFixture) connect(t *testing.T, convID string) {
	t.Helper()
	require.NoError(t, f.dialog.OnTurn(context.Background(), chat.Activity{
		Type:           chat.ActivityConversationUpdate,
		ConversationID: convID,
		MembersAdded:   []string{"ta"},
	}))
}

func TestQueuedHandoverDeliveredOnConnect(t *testing.T) {
	f := newTAFixture(t, http.StatusOK)

	f.submitHandover("123", "user-1")
	require.Equal(t, 1, f.coord.PendingCount())

	f.connect(t, "ta-1")

	assert.Contains(t, f.connector.texts(), TAWelcomeText)
	assert.Equal(t, 1, f.connector.cardCount())
	assert.Zero(t, f.coord.PendingCount())

	state := f.taState(t, "ta-1")
	assert.Equal(t, domain.TAStepWaitingAcknowledgment, state.Step)
	require.NotNil(t, state.Handover)
	assert.Equal(t, "123", state.Handover.CaseNumber)
	assert.Equal(t, "user-1", state.OriginID)
}

func TestConnectWithEmptyQueueSendsNotice(t *testing.T) {
	f := newTAFixture(t, http.StatusOK)

	f.connect(t, "ta-1")

	assert.Contains(t, f.connector.texts(), coordinator.NoPendingNotice)
	assert.Zero(t, f.connector.cardCount())
}

func TestSubmitReachesActiveSessionDirectly(t *testing.T) {
	f := newTAFixture(t, http.StatusOK)

	f.connect(t, "ta-1")
	f.submitHandover("123", "user-1")

	assert.Zero(t, f.coord.PendingCount())
	assert.Equal(t, 1, f.connector.cardCount())
	assert.Equal(t, domain.TAStepWaitingAcknowledgment, f.taState(t, "ta-1").Step)
}

func TestAcknowledgeMovesToApproval(t *testing.T) {
	f := newTAFixture(t, http.StatusOK)
	ctx := context.Background()

	f.connect(t, "ta-1")
	f.submitHandover("123", "user-1")

	require.NoError(t, f.dialog.OnTurn(ctx, submission("ta-1", map[string]any{"action": cards.ActionAcknowledge})))

	assert.Contains(t, f.connector.texts(), AcknowledgedText)
	// Handover card plus the approval card.
	assert.Equal(t, 2, f.connector.cardCount())

	state := f.taState(t, "ta-1")
	assert.Equal(t, domain.TAStepWaitingApproval, state.Step)
	require.NotNil(t, state.Handover)
	assert.Equal(t, "123", state.Handover.CaseNumber)
}

func TestApproveDeliversDecisionAndResets(t *testing.T) {
	f := newTAFixture(t, http.StatusOK)
	ctx := context.Background()

	f.connect(t, "ta-1")
	f.submitHandover("123", "user-1")
	require.NoError(t, f.dialog.OnTurn(ctx, submission("ta-1", map[string]any{"action": cards.ActionAcknowledge})))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("ta-1", map[string]any{
		"action":   cards.ActionApprove,
		"comments": "ship it",
	})))

	require.Len(t, *f.decisions, 1)
	decision := (*f.decisions)[0]
	assert.Equal(t, "token-user-1", decision.ConversationRef)
	assert.Equal(t, "approve", decision.Decision)
	assert.Equal(t, "ship it", decision.Comment)

	assert.Contains(t, f.connector.texts(), "APPROVED: Handover approved. Comments: ship it")
	assert.Equal(t, domain.TAStepNone, f.taState(t, "ta-1").Step)

	entries, err := os.ReadDir(f.reportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, err := os.ReadFile(f.reportDir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Valid: true")
	assert.Contains(t, string(raw), "Comments: ship it")
}

func TestRejectWithoutCommentUsesDefault(t *testing.T) {
	f := newTAFixture(t, http.StatusOK)
	ctx := context.Background()

	f.connect(t, "ta-1")
	f.submitHandover("123", "user-1")
	require.NoError(t, f.dialog.OnTurn(ctx, submission("ta-1", map[string]any{"action": cards.ActionAcknowledge})))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("ta-1", map[string]any{"action": cards.ActionReject})))

	require.Len(t, *f.decisions, 1)
	assert.Equal(t, "reject", (*f.decisions)[0].Decision)
	assert.Equal(t, DefaultCommentsText, (*f.decisions)[0].Comment)

	assert.Contains(t, f.connector.texts(), "REJECTED: Handover rejected. Comments: "+DefaultCommentsText)

	entries, err := os.ReadDir(f.reportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, err := os.ReadFile(f.reportDir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Valid: false")
	assert.Contains(t, string(raw), TARejectReasonPrefix+": "+DefaultCommentsText)
}

func TestDecisionDeliveryFailureStillResets(t *testing.T) {
	f := newTAFixture(t, http.StatusInternalServerError)
	ctx := context.Background()

	f.connect(t, "ta-1")
	f.submitHandover("123", "user-1")
	require.NoError(t, f.dialog.OnTurn(ctx, submission("ta-1", map[string]any{"action": cards.ActionAcknowledge})))
	require.NoError(t, f.dialog.OnTurn(ctx, submission("ta-1", map[string]any{
		"action":   cards.ActionApprove,
		"comments": "ok",
	})))

	assert.Contains(t, f.connector.texts(), DecisionFailedText)
	assert.Equal(t, domain.TAStepNone, f.taState(t, "ta-1").Step)

	// The report is still written even when the user bot is unreachable.
	entries, err := os.ReadDir(f.reportDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUnexpectedActionIsRejected(t *testing.T) {
	f := newTAFixture(t, http.StatusOK)
	ctx := context.Background()

	f.connect(t, "ta-1")
	f.submitHandover("123", "user-1")

	// Approving before acknowledging is out of order.
	require.NoError(t, f.dialog.OnTurn(ctx, submission("ta-1", map[string]any{"action": cards.ActionApprove})))

	found := false
	for _, text := range f.connector.texts() {
		if strings.Contains(text, "Unknown action") {
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, domain.TAStepWaitingAcknowledgment, f.taState(t, "ta-1").Step)
}

func TestStatusCommand(t *testing.T) {
	f := newTAFixture(t, http.StatusOK)
	ctx := context.Background()

	f.connect(t, "ta-1")
	f.submitHandover("123", "user-1")

	require.NoError(t, f.dialog.OnTurn(ctx, message("ta-1", "status")))

	found := false
	for _, text := range f.connector.texts() {
		if strings.Contains(text, "pending=0") && strings.Contains(text, "current case=123") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestClearCommand(t *testing.T) {
	f := newTAFixture(t, http.StatusOK)
	ctx := context.Background()

	f.connect(t, "ta-1")
	f.submitHandover("123", "user-1")

	require.NoError(t, f.dialog.OnTurn(ctx, message("ta-1", "clear")))

	assert.Contains(t, f.connector.texts(), ClearedText)
	assert.Zero(t, f.coord.PendingCount())
	assert.Empty(t, f.coord.CurrentCaseNumber())
	assert.Equal(t, domain.TAStepNone, f.taState(t, "ta-1").Step)
}

func TestIdleTextPullsQueuedHandover(t *testing.T) {
	f := newTAFixture(t, http.StatusOK)
	ctx := context.Background()

	f.submitHandover("123", "user-1")

	require.NoError(t, f.dialog.OnTurn(ctx, message("ta-1", "hello")))

	assert.Zero(t, f.coord.PendingCount())
	assert.Equal(t, 1, f.connector.cardCount())
	assert.Equal(t, domain.TAStepWaitingAcknowledgment, f.taState(t, "ta-1").Step)
}
