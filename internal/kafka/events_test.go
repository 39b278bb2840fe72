package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(EventPaymentOutcome, PaymentOutcomeEvent{TransactionID: "tx-1", Outcome: "COMPLETED"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.False(t, env.OccurredAt.IsZero())

	data, err := json.Marshal(env)
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)

	payload, err := UnwrapPayload[PaymentOutcomeEvent](decoded)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", payload.TransactionID)
	assert.Equal(t, "COMPLETED", payload.Outcome)
}

func TestDecodeEnvelope_Invalid(t *testing.T) {
	_, err := DecodeEnvelope([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte(`{"event_type":"payment.outcome"}`))
	assert.Error(t, err)
}

func TestNewConsumerAndProducer(t *testing.T) {
	c := NewConsumer([]string{"localhost:9092"}, "group", "topic")
	assert.NotNil(t, c)
	assert.NoError(t, c.Close())

	var nilConsumer *Consumer
	assert.NoError(t, nilConsumer.Close())
}

func TestNewMessage_EnvelopeHeaders(t *testing.T) {
	env, err := NewEnvelope(EventBookingCreated, BookingEvent{BookingID: "b1", Status: "PENDING"})
	require.NoError(t, err)

	msg, err := newMessage("booking-events", "b1", env)
	require.NoError(t, err)
	assert.Equal(t, "booking-events", msg.Topic)
	assert.Equal(t, []byte("b1"), msg.Key)
	assert.Equal(t, env.OccurredAt, msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, HeaderEventID, msg.Headers[0].Key)
	assert.Equal(t, env.EventID, string(msg.Headers[0].Value))
	assert.Equal(t, EventBookingCreated, string(msg.Headers[1].Value))

	decoded, err := DecodeEnvelope(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)
}

func TestNewMessage_PlainPayload(t *testing.T) {
	msg, err := newMessage("t", "k", map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Empty(t, msg.Headers)
	assert.JSONEq(t, `{"n":1}`, string(msg.Value))

	_, err = newMessage("t", "k", make(chan int))
	assert.Error(t, err)
}
