package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/internal/notifications"
	"slotbook/internal/shared/config"
	"slotbook/pkg/logger"
)

func sampleBooking() notifications.BookingContext {
	return notifications.BookingContext{
		BookingID:    "b-1",
		VenueID:      "v-1",
		SlotKey:      "2024-11-23T10:00",
		SlotDate:     "2024-11-23",
		SlotTime:     "10:00",
		Weekday:      "Sat",
		SeatCount:    3,
		ContactName:  "Ana",
		ContactEmail: "ana@example.com",
		ContactPhone: "+15550100",
	}
}

func TestBuilder_DerivesRecipientAndChannels(t *testing.T) {
	n := notifications.NewNotificationBuilder().
		WithType(notifications.NotificationTypeReminderOneHour).
		WithBooking(sampleBooking()).
		WithTemplateData("venue_name", "Harbour Hall").
		Build()

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, notifications.NotificationPriorityHigh, n.Priority)
	assert.Equal(t, "ana@example.com", n.RecipientEmail)
	assert.Equal(t, []notifications.NotificationChannel{
		notifications.NotificationChannelEmail, notifications.NotificationChannelSMS,
	}, n.Channels)
	assert.Equal(t, "b-1", n.GetPartitionKey())
	assert.Equal(t, "Harbour Hall", n.TemplateData["venue_name"])
}

func TestKafkaPublisher_SendsJSONPayload(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got notifications.Notification
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.Type != notifications.NotificationTypeBookingConfirmed {
			return errors.New("unexpected notification type " + string(got.Type))
		}
		if got.Booking.SeatCount != 3 {
			return errors.New("seat count lost in payload")
		}
		return nil
	})

	cfg := notifications.DefaultKafkaProducerConfig()
	publisher := notifications.NewKafkaPublisherWithProducer(producer, cfg)

	n := notifications.NewNotificationBuilder().
		WithType(notifications.NotificationTypeBookingConfirmed).
		WithBooking(sampleBooking()).
		Build()
	require.NoError(t, publisher.Publish(context.Background(), n))
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisher_SurfacesBrokerError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	publisher := notifications.NewKafkaPublisherWithProducer(producer, nil)
	err := publisher.Publish(context.Background(), notifications.NewNotificationBuilder().
		WithType(notifications.NotificationTypeBookingCancelled).
		WithBooking(sampleBooking()).
		Build())

	assert.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
	require.NoError(t, publisher.Close())
}

type recordingPublisher struct {
	sent []*notifications.Notification
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, n *notifications.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func TestDispatcher_ReturnsPublishFailures(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("broker down")}
	d := notifications.NewDispatcher(failing, logger.Discard())

	err := d.Dispatch(context.Background(), notifications.NotificationTypeBookingConfirmed, sampleBooking(), nil)
	assert.EqualError(t, err, "broker down")
}

func TestDispatcher_PublishesWithTemplateData(t *testing.T) {
	rec := &recordingPublisher{}
	d := notifications.NewDispatcher(rec, logger.Discard())

	err := d.Dispatch(context.Background(), notifications.NotificationTypeBookingTransferred, sampleBooking(),
		map[string]interface{}{"previous_slot": "2024-11-23T09:00"})
	require.NoError(t, err)

	require.Len(t, rec.sent, 1)
	assert.Equal(t, notifications.NotificationTypeBookingTransferred, rec.sent[0].Type)
	assert.Equal(t, "2024-11-23T09:00", rec.sent[0].TemplateData["previous_slot"])
}

func TestNewPublisher_SelectsBroker(t *testing.T) {
	p, err := notifications.NewPublisher(config.NotificationConfig{Broker: config.BrokerLog}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &notifications.LogPublisher{}, p)

	_, err = notifications.NewPublisher(config.NotificationConfig{Broker: "carrier-pigeon"}, logger.Discard())
	assert.Error(t, err)
}
