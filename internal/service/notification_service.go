package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-mesh/internal/config"
	"github.com/spec-kit/support-mesh/internal/events"
)

// EmailLookup resolves a user's address for ticket notifications.
type EmailLookup interface {
	EmailByUserID(ctx context.Context, userID string) (string, error)
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	emails     EmailLookup
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. emails may be nil, in which
// case ticket notifications go to the webhook only.
func NewNotificationService(dispatcher events.Dispatcher, emails EmailLookup, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		emails:     emails,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n == nil || n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventTokenRevoked, n.handleTokenRevoked)
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketEvent)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.UserRegisteredPayload)
	n.logger.Info("UserRegistered", zap.String("user_id", event.UserID), zap.String("username", payload.Username))
	n.sendEmailNotificationStub(ctx, event, payload.Email)
	return nil
}

func (n *NotificationService) handleTokenRevoked(_ context.Context, event events.Event) error {
	n.logger.Info("TokenRevoked", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)

	if n.emails == nil {
		return nil
	}
	email, err := n.emails.EmailByUserID(ctx, event.UserID)
	if err != nil {
		return err
	}
	n.sendEmailNotificationStub(ctx, event, email)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, to string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || to == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}
