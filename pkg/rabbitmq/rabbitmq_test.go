package rabbitmq

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"showroom/internal/models"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	a := m.Called(name, durable)
	return amqp.Queue{Name: name}, a.Error(0)
}

func (m *mockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, msg).Error(0)
}

func (m *mockChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	a := m.Called(queue, autoAck)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(chan amqp.Delivery), a.Error(1)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

// recordingAcker captures ack/nack calls made on deliveries.
type recordingAcker struct {
	mu     sync.Mutex
	acked  []uint64
	nacked map[uint64]bool // tag -> requeue
}

func (r *recordingAcker) Ack(tag uint64, multiple bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acked = append(r.acked, tag)
	return nil
}

func (r *recordingAcker) Nack(tag uint64, multiple, requeue bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nacked == nil {
		r.nacked = map[uint64]bool{}
	}
	r.nacked[tag] = requeue
	return nil
}

func (r *recordingAcker) Reject(tag uint64, requeue bool) error { return nil }

func TestNewClientDeclaresQueue(t *testing.T) {
	ch := new(mockChannel)
	ch.On("QueueDeclare", DefaultQueue, true).Return(nil).Once()

	c, err := newClient(ch, "", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultQueue, c.queue)

	ch.On("QueueDeclare", "other", true).Return(errors.New("access refused")).Once()
	_, err = newClient(ch, "other", zap.NewNop())
	assert.ErrorContains(t, err, "access refused")
	ch.AssertExpectations(t)
}

func TestPublishCarEvent(t *testing.T) {
	ch := new(mockChannel)
	ch.On("QueueDeclare", DefaultQueue, true).Return(nil)
	c, err := newClient(ch, DefaultQueue, zap.NewNop())
	require.NoError(t, err)

	event := models.CarEvent{Type: models.CarCreated, CarID: 3, UserID: "user-1", Title: "Civic"}
	ch.On("Publish", "", DefaultQueue, mock.MatchedBy(func(msg amqp.Publishing) bool {
		var got models.CarEvent
		if err := json.Unmarshal(msg.Body, &got); err != nil {
			return false
		}
		return msg.Type == models.CarCreated &&
			msg.DeliveryMode == amqp.Persistent &&
			got.CarID == 3 && got.Title == "Civic"
	})).Return(nil).Once()

	require.NoError(t, c.PublishCarEvent(event))
	ch.AssertExpectations(t)
}

func TestConsumeCarEventsAcksAndNacks(t *testing.T) {
	ch := new(mockChannel)
	ch.On("QueueDeclare", DefaultQueue, true).Return(nil)
	c, err := newClient(ch, DefaultQueue, zap.NewNop())
	require.NoError(t, err)

	deliveries := make(chan amqp.Delivery, 3)
	ch.On("Consume", DefaultQueue, false).Return(deliveries, nil).Once()

	handled := make(chan uint, 3)
	require.NoError(t, c.ConsumeCarEvents(func(e models.CarEvent) error {
		handled <- e.CarID
		if e.CarID == 2 {
			return errors.New("downstream unavailable")
		}
		return nil
	}))

	acker := &recordingAcker{}
	ok, _ := json.Marshal(models.CarEvent{Type: models.CarDeleted, CarID: 1})
	failing, _ := json.Marshal(models.CarEvent{Type: models.CarDeleted, CarID: 2})
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: ok}
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: failing}
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 3, Body: []byte("{not json")}
	close(deliveries)

	assert.Equal(t, uint(1), <-handled)
	assert.Equal(t, uint(2), <-handled)
	assert.Eventually(t, func() bool {
		acker.mu.Lock()
		defer acker.mu.Unlock()
		return len(acker.acked) == 1 && len(acker.nacked) == 2
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []uint64{1}, acker.acked)
	assert.True(t, acker.nacked[2])
	assert.False(t, acker.nacked[3])
}
