package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/aparate/handover/internal/api/dto"
	"github.com/aparate/handover/internal/chat"
	"github.com/aparate/handover/internal/dialog"
	"github.com/aparate/handover/internal/domain"
	apperrors "github.com/aparate/handover/pkg/util"
)

// UserBotHandler exposes the user bot's chat ingress and the TA-response
// endpoint the TA process calls back into.
type UserBotHandler struct {
	dialog *dialog.UserDialog
	tokens *chat.TokenCodec
	logger *zap.Logger
}

// NewUserBotHandler constructs handler.
func NewUserBotHandler(userDialog *dialog.UserDialog, tokens *chat.TokenCodec, logger *zap.Logger) *UserBotHandler {
	return &UserBotHandler{dialog: userDialog, tokens: tokens, logger: logger}
}

// Messages POST /api/messages. Chat activity ingress for user conversations.
func (h *UserBotHandler) Messages(c *fiber.Ctx) error {
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

// TAResponse POST /api/ta-response. Receives a terminal decision from the TA
// process and pushes it into the originating conversation.
func (h *UserBotHandler) TAResponse(c *fiber.Ctx) error {
	var req dto.TAResponse
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	decision, ok := domain.ParseDecision(req.Decision)
	if !ok {
		return apperrors.NewValidationError("decision must be approve or reject", nil)
	}

	ref, err := h.tokens.Parse(req.ConversationRef)
	if err != nil {
		return apperrors.NewValidationError("invalid conversation reference", nil)
	}

	if err := h.dialog.OnTAResponse(c.UserContext(), ref, decision, req.Comment); err != nil {
		h.logger.Error("deliver TA response to user conversation",
			zap.String("conversation_id", ref.ConversationID),
			zap.Error(err))
		return apperrors.NewDeliveryFailed(err)
	}

	return c.JSON(dto.TAResponseResult{Status: "delivered"})
}
