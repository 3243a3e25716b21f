package notifications

import (
	"context"
	"fmt"

	"slotbook/internal/shared/config"
	"slotbook/pkg/logger"
	"slotbook/pkg/metrics"
)

// Dispatcher publishes notifications after a booking transaction has
// committed. A broker failure is logged, counted and returned; it never
// undoes the booking operation.
type Dispatcher struct {
	publisher Publisher
	log       *logger.Logger
}

func NewDispatcher(publisher Publisher, log *logger.Logger) *Dispatcher {
	if publisher == nil {
		publisher = NewLogPublisher(log)
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Dispatcher{publisher: publisher, log: log}
}

// Dispatch builds and publishes a notification of type t for b.
func (d *Dispatcher) Dispatch(ctx context.Context, t NotificationType, b BookingContext, data map[string]interface{}) error {
	builder := NewNotificationBuilder().WithType(t).WithBooking(b)
	for k, v := range data {
		builder.WithTemplateData(k, v)
	}
	n := builder.Build()

	if err := d.publisher.Publish(ctx, n); err != nil {
		metrics.RecordNotification(string(t), metrics.StatusPublishError)
		d.log.ErrorWithContext(ctx, "Failed to publish notification", err, map[string]interface{}{
			"type":       string(t),
			"booking_id": b.BookingID,
		})
		return err
	}
	metrics.RecordNotification(string(t), metrics.StatusPublished)
	return nil
}

func (d *Dispatcher) Close() error {
	return d.publisher.Close()
}

// LogPublisher writes notifications to the log instead of a broker. Used
// when no broker is configured.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.GetDefault()
	}
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, n *Notification) error {
	p.log.InfoWithContext(ctx, "Notification", map[string]interface{}{
		"notification_id": n.ID,
		"type":            string(n.Type),
		"booking_id":      n.Booking.BookingID,
		"recipient":       n.RecipientEmail,
	})
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// NewPublisher connects to the broker selected in cfg.
func NewPublisher(cfg config.NotificationConfig, log *logger.Logger) (Publisher, error) {
	switch cfg.Broker {
	case config.BrokerKafka:
		kafkaCfg := DefaultKafkaProducerConfig()
		kafkaCfg.Brokers = cfg.KafkaBrokers
		kafkaCfg.NotificationTopic = cfg.KafkaTopic
		return NewKafkaPublisher(kafkaCfg)
	case config.BrokerAMQP:
		return NewAMQPPublisher(&AMQPConfig{URL: cfg.AMQPURL, Queue: cfg.AMQPQueue})
	case config.BrokerLog, "":
		return NewLogPublisher(log), nil
	default:
		return nil, fmt.Errorf("unknown notification broker %q", cfg.Broker)
	}
}
