package eventbus

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinSubject(t *testing.T) {
	assert.Equal(t, "marketplace.event.approved", joinSubject("marketplace", "event.approved"))
	assert.Equal(t, "marketplace.event.approved", joinSubject("marketplace.", "event.approved"))
	assert.Equal(t, "event.approved", joinSubject("", "event.approved"))
}

func TestChangeJSONShape(t *testing.T) {
	raw, err := json.Marshal(NewChange(KindIdea, "idea-1", "voted"))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "idea", decoded["kind"])
	assert.Equal(t, "idea-1", decoded["id"])
	assert.Equal(t, "voted", decoded["action"])
	assert.Contains(t, decoded, "at")
}

func TestMemoryRecordsInOrder(t *testing.T) {
	bus := NewMemory()
	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, NewChange(KindEvent, "e1", "approved")))
	require.NoError(t, bus.Publish(ctx, NewChange(KindEvent, "e2", "rejected")))

	assert.Equal(t, []string{"event.approved", "event.rejected"}, bus.Subjects())
	assert.Len(t, bus.Changes(), 2)
}

func TestConnectNATSFailsFast(t *testing.T) {
	_, err := ConnectNATS("nats://127.0.0.1:1", "marketplace", nil)
	assert.Error(t, err)
}
