// Package coordinator owns the cross-process handover lifecycle on the TA
// side: accepting submitted cases, delivering them into a TA session, queuing
// them when no TA is connected, and routing terminal decisions back to the
// originating user conversation.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/aparate/handover/internal/cards"
	"github.com/aparate/handover/internal/chat"
	"github.com/aparate/handover/internal/domain"
	"github.com/aparate/handover/internal/events"
	"github.com/aparate/handover/internal/peer"
)

// NoPendingNotice is sent to a TA session when a flush finds an empty queue.
const NoPendingNotice = "No pending handover requests. I'll notify you when a new handover request arrives."

// PendingPrompt accompanies an acknowledgment card delivered from the queue.
const PendingPrompt = `**PENDING HANDOVER REQUEST** - Please review the case details above and click "Acknowledge" to proceed.`

// ErrNoReplyChannel is returned by DeliverDecision when neither the origin id
// nor the current handover resolves to a reply channel.
var ErrNoReplyChannel = errors.New("no reply channel for decision")

// Coordinator serializes all handover coordination state behind one mutex.
// Callers never touch the pending queue or the current-handover slot
// directly.
type Coordinator struct {
	connector  chat.Connector
	states     chat.StateStore
	peers      *peer.Client
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu               sync.Mutex
	current          *domain.HandoverRequest
	pending          map[string]domain.HandoverRequest
	order            []string
	replyTokens      map[string]string
	taConversationID string
}

// New creates a coordinator.
func New(connector chat.Connector, states chat.StateStore, peers *peer.Client, dispatcher events.Dispatcher, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		connector:   connector,
		states:      states,
		peers:       peers,
		dispatcher:  dispatcher,
		logger:      logger,
		pending:     make(map[string]domain.HandoverRequest),
		replyTokens: make(map[string]string),
	}
}

// NoteTASession records the most recently seen TA conversation. Eager
// delivery targets this session.
func (c *Coordinator) NoteTASession(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.taConversationID = conversationID
}

// Submit records the request as the current handover and attempts immediate
// delivery to the known TA session. When no session is known or delivery
// fails, the request is queued, overwriting any earlier pending request from
// the same origin.
func (c *Coordinator) Submit(ctx context.Context, req domain.HandoverRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reqCopy := req
	c.current = &reqCopy
	c.replyTokens[req.OriginID] = req.ReplyToken

	c.publish(ctx, events.New(events.EventHandoverSubmitted, req.Case.CaseNumber,
		events.HandoverSubmittedPayload{OriginID: req.OriginID}))

	if c.taConversationID == "" {
		c.enqueueLocked(ctx, req, "no active TA session")
		return
	}

	if err := c.deliverLocked(ctx, c.taConversationID, req, ""); err != nil {
		c.logger.Warn("immediate handover delivery failed; queuing",
			zap.String("case_number", req.Case.CaseNumber),
			zap.Error(err))
		c.enqueueLocked(ctx, req, err.Error())
	}
}

// FlushPendingIfAny delivers the oldest pending request into the given TA
// session, or sends a no-pending notice when the queue is empty. A request is
// removed from the queue only after successful delivery, so a transport
// failure leaves it available for the next flush.
func (c *Coordinator) FlushPendingIfAny(ctx context.Context, taConversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.order) == 0 {
		if err := c.connector.Send(ctx, taConversationID, chat.NewMessage(taConversationID, NoPendingNotice)); err != nil {
			c.logger.Warn("send no-pending notice", zap.Error(err))
		}
		return
	}

	originID := c.order[0]
	req := c.pending[originID]

	if err := c.deliverLocked(ctx, taConversationID, req, PendingPrompt); err != nil {
		c.logger.Warn("pending handover delivery failed; request stays queued",
			zap.String("case_number", req.Case.CaseNumber),
			zap.Error(err))
		return
	}

	delete(c.pending, originID)
	c.order = c.order[1:]
}

// DeliverDecision routes a terminal decision back to the user process over
// HTTP. The reply channel resolves from the origin id, falling back to the
// current handover. Failures are returned to the caller; there is no retry.
func (c *Coordinator) DeliverDecision(ctx context.Context, originID string, decision domain.Decision, comment string) error {
	c.mu.Lock()
	token := c.replyTokens[originID]
	if token == "" && c.current != nil {
		token = c.current.ReplyToken
	}
	c.mu.Unlock()

	if token == "" {
		return ErrNoReplyChannel
	}

	if err := c.peers.SendTAResponse(ctx, token, decision, comment); err != nil {
		return fmt.Errorf("deliver decision: %w", err)
	}

	c.mu.Lock()
	delete(c.replyTokens, originID)
	var caseNumber string
	if c.current != nil {
		caseNumber = c.current.Case.CaseNumber
	}
	c.publish(ctx, events.New(events.EventHandoverDecided, caseNumber,
		events.HandoverDecidedPayload{OriginID: originID, Decision: decision, Comments: comment}))
	c.mu.Unlock()
	return nil
}

// PendingCount reports the queue depth.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// CurrentCaseNumber reports the case number of the in-flight handover, empty
// when none.
func (c *Coordinator) CurrentCaseNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.Case.CaseNumber
}

// Clear drops all coordination state. Used by the administrative clear
// command.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.pending = make(map[string]domain.HandoverRequest)
	c.order = nil
	c.replyTokens = make(map[string]string)
	c.taConversationID = ""
}

// deliverLocked pushes the acknowledgment card and the waiting-acknowledgment
// state into the TA session. The card is sent before the state is written so
// a failed send leaves the session untouched.
func (c *Coordinator) deliverLocked(ctx context.Context, taConversationID string, req domain.HandoverRequest, prompt string) error {
	card := cards.TAHandover(req.Case)
	if err := c.connector.Send(ctx, taConversationID, chat.NewCardMessage(taConversationID, card)); err != nil {
		return fmt.Errorf("send acknowledgment card: %w", err)
	}
	if prompt != "" {
		if err := c.connector.Send(ctx, taConversationID, chat.NewMessage(taConversationID, prompt)); err != nil {
			c.logger.Warn("send pending prompt", zap.Error(err))
		}
	}

	caseCopy := req.Case
	state := domain.TADialogState{
		Step:     domain.TAStepWaitingAcknowledgment,
		Handover: &caseCopy,
		OriginID: req.OriginID,
	}
	if err := c.states.Set(ctx, taConversationID, state); err != nil {
		return fmt.Errorf("write TA dialog state: %w", err)
	}

	c.publish(ctx, events.New(events.EventHandoverDelivered, req.Case.CaseNumber,
		events.HandoverDeliveredPayload{OriginID: req.OriginID, TAConversationID: taConversationID}))
	return nil
}

// enqueueLocked stores the request keyed by origin, preserving FIFO order
// across distinct origins while overwriting an earlier request from the same
// origin in place.
func (c *Coordinator) enqueueLocked(ctx context.Context, req domain.HandoverRequest, reason string) {
	if _, exists := c.pending[req.OriginID]; !exists {
		c.order = append(c.order, req.OriginID)
	}
	c.pending[req.OriginID] = req

	c.publish(ctx, events.New(events.EventHandoverQueued, req.Case.CaseNumber,
		events.HandoverQueuedPayload{OriginID: req.OriginID, Reason: reason}))
}

func (c *Coordinator) publish(ctx context.Context, event events.Event) {
	if c.dispatcher == nil {
		return
	}
	_ = c.dispatcher.Publish(ctx, event)
}
