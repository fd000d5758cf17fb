package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Sink delivers a notification to the user. A nil error means delivery was
// attempted and lastNotifiedAt may be advanced.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	Logger *logrus.Logger
}

func (s LogSink) Deliver(_ context.Context, n Notification) error {
	s.Logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"title":           n.Title,
		"date":            n.Date.Format("2006-01-02"),
	}).Info(n.Message)
	return nil
}
