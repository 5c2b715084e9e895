package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/aparate/handover/internal/api/dto"
	"github.com/aparate/handover/internal/chat"
	"github.com/aparate/handover/internal/coordinator"
	"github.com/aparate/handover/internal/dialog"
	"github.com/aparate/handover/internal/domain"
	apperrors "github.com/aparate/handover/pkg/util"
)

// TABotHandler exposes the TA bot's chat ingress and the handover submission
// endpoint the user process calls.
type TABotHandler struct {
	dialog *dialog.TADialog
	coord  *coordinator.Coordinator
	tokens *chat.TokenCodec
	logger *zap.Logger
}

// NewTABotHandler constructs handler.
func NewTABotHandler(taDialog *dialog.TADialog, coord *coordinator.Coordinator, tokens *chat.TokenCodec, logger *zap.Logger) *TABotHandler {
	return &TABotHandler{dialog: taDialog, coord: coord, tokens: tokens, logger: logger}
}

// Messages POST /api/messages. Chat activity ingress for TA conversations.
func (h *TABotHandler) Messages(c *fiber.Ctx) error {
	var activity chat.Activity
	if err := c.BodyParser(&activity); err != nil {
		return apperrors.NewValidationError("invalid activity payload", nil)
	}
	if activity.ConversationID == "" {
		return apperrors.NewValidationError("conversationId required", nil)
	}

	if err := h.dialog.OnTurn(c.UserContext(), activity); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"status": "accepted"})
}

// Handover POST /api/handover. Accepts a submitted case with its reply token
// from the user process.
func (h *TABotHandler) Handover(c *fiber.Ctx) error {
	var req dto.HandoverSubmission
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Case.CaseNumber == "" {
		return apperrors.NewValidationError("case required", nil)
	}

	ref, err := h.tokens.Parse(req.ConversationRef)
	if err != nil {
		return apperrors.NewValidationError("invalid conversation reference", nil)
	}

	now := time.Now().UTC()
	h.coord.Submit(c.UserContext(), domain.HandoverRequest{
		Case:        req.Case,
		ReplyToken:  req.ConversationRef,
		OriginID:    ref.ConversationID,
		SubmittedAt: now,
	})

	h.logger.Info("handover submission accepted",
		zap.String("case_number", req.Case.CaseNumber),
		zap.String("origin_id", ref.ConversationID))

	return c.JSON(dto.HandoverAccepted{
		ConversationID: ref.ConversationID,
		CaseNumber:     req.Case.CaseNumber,
		Status:         "pending",
		Timestamp:      now,
	})
}
