package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/shopmart/internal/config"
	"github.com/polkiloo/shopmart/internal/domain/model"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestKafkaPublisherOrderEvent(t *testing.T) {
	writer := new(MockWriter)
	var sent []kafka.Message
	writer.On("WriteMessages", mock.Anything, mock.AnythingOfType("[]kafka.Message")).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
		Return(nil).Once()

	p := &KafkaPublisher{writer: writer, topic: "shopmart.events", logger: testLogger()}
	err := p.PublishOrderEvent(context.Background(), model.OrderEvent{
		Type:          model.EventOrderPaid,
		OrderID:       10,
		UserID:        7,
		Status:        model.OrderStatusPaid,
		TransactionID: "T1",
		TotalPrice:    3000,
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.Equal(t, "order-10", string(sent[0].Key))
	require.Equal(t, "event-type", sent[0].Headers[0].Key)
	require.Equal(t, "order.paid", string(sent[0].Headers[0].Value))

	var decoded model.OrderEvent
	require.NoError(t, json.Unmarshal(sent[0].Value, &decoded))
	require.Equal(t, int64(10), decoded.OrderID)
	require.Equal(t, "T1", decoded.TransactionID)
	require.False(t, decoded.OccurredAt.IsZero())

	writer.AssertExpectations(t)
}

func TestKafkaPublisherUserEventError(t *testing.T) {
	writer := new(MockWriter)
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	p := &KafkaPublisher{writer: writer, topic: "shopmart.events", logger: testLogger()}
	err := p.PublishUserEvent(context.Background(), model.UserEvent{
		Type:       model.EventUserRegistered,
		UserID:     3,
		OccurredAt: time.Now(),
	})
	require.EqualError(t, err, "broker down")
	writer.AssertExpectations(t)
}

func TestKafkaPublisherClose(t *testing.T) {
	writer := new(MockWriter)
	writer.On("Close").Return(nil).Once()
	p := &KafkaPublisher{writer: writer, topic: "t", logger: testLogger()}
	require.NoError(t, p.Close())
	writer.AssertExpectations(t)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, p.PublishUserEvent(context.Background(), model.UserEvent{
		Type:             model.EventUserRegistered,
		UserID:           1,
		VerificationLink: "http://localhost:3000/auth/verify?token=abc",
	}))
	require.Contains(t, buf.String(), "verify?token=abc")

	require.NoError(t, p.PublishOrderEvent(context.Background(), model.OrderEvent{Type: model.EventOrderCancelled, OrderID: 4}))
	require.Contains(t, buf.String(), `"order_id":4`)
}

func TestNewPublisherSelectsBackend(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	p := newPublisher(publisherParams{Lifecycle: lc, Config: &config.Config{}, Logger: testLogger()})
	require.IsType(t, &LogPublisher{}, p)

	p = newPublisher(publisherParams{
		Lifecycle: lc,
		Config:    &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "t"},
		Logger:    testLogger(),
	})
	require.IsType(t, &KafkaPublisher{}, p)

	require.NoError(t, lc.Start(context.Background()))
	require.NoError(t, lc.Stop(context.Background()))
}
