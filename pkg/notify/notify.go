// Package notify delivers operator-facing notifications about mutation
// outcomes. The hierarchy controller reports exactly one notification per
// settled operation through a Sink.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Sink receives mutation outcome notifications.
type Sink interface {
	Notify(ctx context.Context, kind Kind, message string)
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger ectologger.Logger
}

// NewLogSink creates a sink backed by the given logger.
func NewLogSink(logger ectologger.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(ctx context.Context, kind Kind, message string) {
	entry := s.logger.WithContext(ctx).WithField("notification_kind", string(kind))
	if kind == KindError {
		entry.Error(message)
		return
	}
	entry.Info(message)
}

// Multi fans a notification out to every sink.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, kind Kind, message string) {
	for _, s := range m {
		s.Notify(ctx, kind, message)
	}
}

// KafkaSink publishes notifications as catalog events so other back-office
// surfaces can mirror them. Delivery is fire-and-forget: the engine never
// blocks on a notification, and publish failures only log.
type KafkaSink struct {
	producer *kafka.Producer
	storeKey string
	logger   ectologger.Logger
}

// NewKafkaSink creates a sink backed by the given producer.
func NewKafkaSink(producer *kafka.Producer, storeKey string, logger ectologger.Logger) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		storeKey: storeKey,
		logger:   logger,
	}
}

func (s *KafkaSink) Notify(ctx context.Context, kind Kind, message string) {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("failed to encode notification")
		return
	}

	go func() {
		publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		event := &kafka.CatalogEvent{
			EventType:  "notification." + string(kind),
			StoreKey:   s.storeKey,
			RecordType: "notification",
			Data:       payload,
			Timestamp:  time.Now(),
		}
		if err := s.producer.PublishCatalogEvent(publishCtx, event); err != nil {
			s.logger.WithError(err).Error("failed to publish notification")
		}
	}()
}

// Recorder captures notifications in memory for inspection in tests.
type Recorder struct {
	Notifications []Notification
}

// Notification is a single captured sink delivery.
type Notification struct {
	Kind    Kind
	Message string
}

func (r *Recorder) Notify(ctx context.Context, kind Kind, message string) {
	r.Notifications = append(r.Notifications, Notification{Kind: kind, Message: message})
}

// Errors returns only the error notifications.
func (r *Recorder) Errors() []Notification {
	out := make([]Notification, 0)
	for _, n := range r.Notifications {
		if n.Kind == KindError {
			out = append(out, n)
		}
	}
	return out
}
