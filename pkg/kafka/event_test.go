package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "storerating.rating.submitted", Topic("rating", "submitted"))
	assert.Equal(t, "storerating.store.aggregate_updated", Topic("store", "aggregate_updated"))
}

func TestNewEvent_Fields(t *testing.T) {
	ev, err := NewEvent("rating.submitted", "r-1", "rating", "store-rating", map[string]int{"value": 4})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "rating.submitted", ev.EventType)
	assert.Equal(t, "r-1", ev.AggregateID)
	assert.Equal(t, "rating", ev.AggregateType)
	assert.Equal(t, 1, ev.Version)
	assert.Equal(t, "store-rating", ev.Source)
	assert.False(t, ev.Timestamp.IsZero())
	assert.JSONEq(t, `{"value":4}`, string(ev.Data))
}

func TestNewEvent_UnencodableData(t *testing.T) {
	_, err := NewEvent("x", "id", "t", "s", make(chan int))
	assert.Error(t, err)
}

func TestEvent_Message(t *testing.T) {
	ev, err := NewEvent("storerating.store.updated", "s-1", "store", "store-rating", map[string]string{"name": "Cafe"})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1")

	msg, err := ev.message("storerating.store.updated")
	require.NoError(t, err)

	assert.Equal(t, "storerating.store.updated", msg.Topic)
	assert.Equal(t, "s-1", string(msg.Key))
	c := headerCarrier{headers: &msg.Headers}
	assert.Equal(t, "storerating.store.updated", c.Get(HeaderEventType))
	assert.Equal(t, "store-rating", c.Get(HeaderSource))
	assert.Equal(t, "corr-1", c.Get(HeaderCorrelationID))

	decoded, err := UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, decoded.EventID)
}

func TestEvent_MessageWithoutCorrelationID(t *testing.T) {
	msg, err := (&Event{EventType: "x", AggregateID: "a"}).message("t")
	require.NoError(t, err)

	assert.Len(t, msg.Headers, 2)
}

func TestUnmarshalEvent(t *testing.T) {
	ev, err := UnmarshalEvent([]byte(`{"event_id":"e1","event_type":"store.created","data":{"name":"Cafe"}}`))
	require.NoError(t, err)
	assert.Equal(t, "e1", ev.EventID)

	var payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, ev.UnmarshalData(&payload))
	assert.Equal(t, "Cafe", payload.Name)
}

func TestUnmarshalEvent_Invalid(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{"))
	assert.ErrorContains(t, err, "decode event")

	_, err = UnmarshalEvent([]byte(`{"event_id":"e1"}`))
	assert.ErrorContains(t, err, "event_type")
}
