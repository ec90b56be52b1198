package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/colib/colib-backend/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestPublishShipmentEvent(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaProducerWithWriter(fw)

	e := &models.ShipmentEvent{
		ID:         "E1",
		ShipmentID: "S1",
		ActorID:    "driver",
		Type:       models.EventStatusUpdated,
		Payload:    map[string]interface{}{"from": "created", "to": "pickup_scheduled"},
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), e.ShipmentID, FromEvent(e)))

	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "S1", string(fw.msgs[0].Key))

	var got ShipmentMessage
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &got))
	assert.Equal(t, models.EventStatusUpdated, got.Type)
	assert.Equal(t, "pickup_scheduled", got.Payload["to"])
}

func TestPublishWriteError(t *testing.T) {
	p := NewKafkaProducerWithWriter(&fakeWriter{err: errors.New("broker down")})
	assert.Error(t, p.Publish(context.Background(), "k", map[string]string{"a": "b"}))
}

func TestPublishUnmarshalableValue(t *testing.T) {
	p := NewKafkaProducerWithWriter(&fakeWriter{})
	assert.Error(t, p.Publish(context.Background(), "k", make(chan int)))
}
