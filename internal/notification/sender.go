package notification

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/jrjohn/tandem-cloud-go/internal/resilience"
)

// ErrNoCredentials is returned when FCM is selected without credentials.
var ErrNoCredentials = errors.New("fcm requires credentials_file or credentials_json")

// messagingClient is the subset of *messaging.Client used here.
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender delivers to Firebase Cloud Messaging topics.
type FCMSender struct {
	client messagingClient
	logger *zap.Logger
}

// NewFCMSender initializes a Firebase app from a credentials file or inline JSON.
func NewFCMSender(ctx context.Context, credentialsFile, credentialsJSON string, logger *zap.Logger) (*FCMSender, error) {
	var opt option.ClientOption
	switch {
	case credentialsFile != "":
		opt = option.WithCredentialsFile(credentialsFile)
	case credentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	default:
		return nil, ErrNoCredentials
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMSender{client: client, logger: logger.Named("fcm")}, nil
}

// Send publishes n to every target topic. Rejected payloads are permanent
// failures; anything else is returned for retry.
func (s *FCMSender) Send(ctx context.Context, n *Notification) error {
	data := make(map[string]string, len(n.Data)+2)
	for k, v := range n.Data {
		data[k] = v
	}
	data["kind"] = string(n.Kind)
	data["notification_id"] = n.ID

	var errs []error
	for _, topic := range n.Targets() {
		msg := &messaging.Message{
			Topic: topic,
			Notification: &messaging.Notification{
				Title: n.Title,
				Body:  n.Body,
			},
			Data: data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
			},
		}

		id, err := s.client.Send(ctx, msg)
		if err != nil {
			if messaging.IsInvalidArgument(err) || messaging.IsUnregistered(err) {
				err = resilience.Permanent(err)
			}
			errs = append(errs, fmt.Errorf("topic %s: %w", topic, err))
			continue
		}
		s.logger.Debug("Sent push notification", zap.String("topic", topic), zap.String("message_id", id))
	}
	return errors.Join(errs...)
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("notification")}
}

func (s *LogSender) Send(_ context.Context, n *Notification) error {
	s.logger.Info("Notification",
		zap.String("notification_id", n.ID),
		zap.String("kind", string(n.Kind)),
		zap.Strings("targets", n.Targets()),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
	)
	return nil
}
