package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startConsumer(t *testing.T, m *Memory, topic, group string, handler Handler) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Consume(ctx, topic, handler, WithGroup(group), WithAutoAck(true)) }()

	require.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		g := m.topics[topic][group]
		if g == nil {
			return false
		}
		g.mu.Lock()
		defer g.mu.Unlock()
		return len(g.members) > 0
	}, time.Second, 5*time.Millisecond)

	return cancel, done
}

func TestMemory_PublishConsume(t *testing.T) {
	m := NewMemory()
	got := make(chan Message, 4)

	cancel, done := startConsumer(t, m, "otp_verification_events", "audit", func(_ context.Context, msg Message) error {
		got <- msg
		return nil
	})

	res, err := m.Publish(context.Background(), "otp_verification_events", OutgoingMessage{
		Body:    []byte(`{"kind":"issued"}`),
		Headers: []Header{{Key: "cID", Value: []byte("cid-9")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "otp_verification_events/1", res.MessageID)

	select {
	case msg := <-got:
		assert.Equal(t, `{"kind":"issued"}`, string(msg.Body()))
		assert.Equal(t, "cid-9", msg.Header("cID"))
		assert.Equal(t, "otp_verification_events", msg.Topic())
		assert.Equal(t, res.MessageID, msg.ID())
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestMemory_NackRedelivers(t *testing.T) {
	m := NewMemory()

	var mu sync.Mutex
	calls := 0
	acked := make(chan struct{})

	cancel, _ := startConsumer(t, m, "t", "g", func(_ context.Context, _ Message) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		close(acked)
		return nil
	})
	defer cancel()

	_, err := m.Publish(context.Background(), "t", OutgoingMessage{Body: []byte("x")})
	require.NoError(t, err)

	select {
	case <-acked:
	case <-time.After(time.Second):
		t.Fatal("message not redelivered")
	}
}

func TestMemory_Validation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Publish(ctx, "", OutgoingMessage{})
	assert.ErrorIs(t, err, ErrDestinationRequired)

	err = m.Consume(ctx, "t", nil)
	assert.ErrorIs(t, err, ErrHandlerRequired)

	res, err := m.Publish(ctx, "nobody-listens", OutgoingMessage{Body: []byte("x")})
	require.NoError(t, err)
	assert.NotEmpty(t, res.MessageID)

	require.NoError(t, m.Close())
	_, err = m.Publish(ctx, "t", OutgoingMessage{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDispatch_RecoversPanic(t *testing.T) {
	var acked, nacked bool
	d := &delivery{
		ack:  func(context.Context) error { acked = true; return nil },
		nack: func(context.Context) error { nacked = true; return nil },
	}

	err := dispatch(context.Background(), "test", func(context.Context, Message) error {
		panic("boom")
	}, d, true)

	require.NoError(t, err)
	assert.False(t, acked)
	assert.True(t, nacked)
}

func TestDelivery_SettlesOnce(t *testing.T) {
	n := 0
	d := &delivery{ack: func(context.Context) error { n++; return nil }}

	require.NoError(t, d.Ack(context.Background()))
	require.NoError(t, d.Ack(context.Background()))
	require.NoError(t, d.Nack(context.Background()))
	assert.Equal(t, 1, n)
}

func TestNewFromDriver(t *testing.T) {
	ctx := context.Background()

	m, err := NewFromDriver(ctx, "memory", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)

	_, err = NewFromDriver(ctx, "sqs", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)
	assert.ErrorContains(t, err, "kafka, memory, nats, nsq, pubsub")
	assert.Equal(t, []string{"kafka", "memory", "nats", "nsq", "pubsub"}, Drivers())

	_, err = NewFromDriver(ctx, "kafka", FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(ctx, "nats", FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)

	_, err = NewFromDriver(ctx, "pubsub", FactoryOptions{})
	assert.ErrorIs(t, err, ErrPubSubProjectIDRequired)
}

func TestNSQ_RequiresAddresses(t *testing.T) {
	ctx := context.Background()

	m, err := NewFromDriver(ctx, " NSQ ", FactoryOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	_, err = m.Publish(ctx, "otp_verification_events", OutgoingMessage{Body: []byte("{}")})
	assert.ErrorIs(t, err, ErrNSQProducerAddrRequired)

	err = m.Consume(ctx, "otp_verification_events", func(context.Context, Message) error { return nil }, WithGroup("audit"))
	assert.ErrorIs(t, err, ErrNSQConsumerAddrsRequired)
}

func TestJSON(t *testing.T) {
	msg, err := JSON(map[string]string{"kind": "issued"}, "owner@example.com", "cid-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"issued"}`, string(msg.Body))
	assert.Equal(t, []byte("owner@example.com"), msg.Key)
	assert.Equal(t, "cid-1", HeaderValue(msg.Headers, HeaderCorrelationID))

	msg, err = JSON(struct{}{}, "k", "")
	require.NoError(t, err)
	assert.Empty(t, msg.Headers)
	assert.Empty(t, HeaderValue(msg.Headers, HeaderCorrelationID))

	_, err = JSON(make(chan int), "k", "cid")
	assert.Error(t, err)
}

func TestConsumeOptions(t *testing.T) {
	co := newConsumeOptions(WithConcurrency(-2), nil, WithParam("start_offset", "last"), WithParam("", "x"), WithParam("empty", ""))

	assert.Equal(t, 1, co.concurrency)
	assert.Equal(t, "last", co.param("start_offset", "first"))
	assert.Equal(t, "d", co.param("empty", "d"))
	assert.Len(t, co.params, 1)
}
