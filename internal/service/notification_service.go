package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/aparate/handover/internal/config"
	"github.com/aparate/handover/internal/events"
)

// NotificationService is the observability sidecar for handover lifecycle
// events. It logs every event and, when configured, notifies a webhook. It is
// not part of the coordination contract.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventHandoverSubmitted, n.handleEvent)
	n.dispatcher.Subscribe(events.EventHandoverQueued, n.handleEvent)
	n.dispatcher.Subscribe(events.EventHandoverDelivered, n.handleEvent)
	n.dispatcher.Subscribe(events.EventHandoverDecided, n.handleEvent)
	n.dispatcher.Subscribe(events.EventReportWritten, n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("case_number", event.CaseNumber),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("case_number", event.CaseNumber),
		zap.String("event_type", string(event.Type)))
}
