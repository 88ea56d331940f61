package consumer

import (
	"MoirServer/apps/connect/internal/svc"
	pkgkafka "MoirServer/pkg/kafka"
	"MoirServer/pkg/logger"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePusher struct {
	mu     sync.Mutex
	online map[string]int
	frames map[string][][]byte
}

func (f *fakePusher) SendToUser(userUUID string, frame []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.online[userUUID]
	if n > 0 {
		f.frames[userUUID] = append(f.frames[userUUID], frame)
	}
	return n
}

func newFakePusher(online map[string]int) *fakePusher {
	return &fakePusher{online: online, frames: make(map[string][][]byte)}
}

func TestNotificationConsumer_Handle(t *testing.T) {
	logger.ReplaceGlobal(zap.NewNop())

	pusher := newFakePusher(map[string]int{"u_bob": 2})
	c := NewNotificationConsumer(pusher)

	value := `{"userUuid":"u_bob","notification":{"id":"1","type":"FRIEND_REQUEST","content":"alice sent you a friend request"},"traceId":"t-1"}`
	err := c.Handle(context.Background(), pkgkafka.Message{Key: []byte("u_bob"), Value: []byte(value)})
	require.NoError(t, err)

	require.Len(t, pusher.frames["u_bob"], 1)
	var frame svc.Frame
	require.NoError(t, json.Unmarshal(pusher.frames["u_bob"][0], &frame))
	assert.Equal(t, svc.FrameNotification, frame.Type)
	assert.JSONEq(t, `{"id":"1","type":"FRIEND_REQUEST","content":"alice sent you a friend request"}`, string(frame.Data))
}

func TestNotificationConsumer_OfflineDropped(t *testing.T) {
	logger.ReplaceGlobal(zap.NewNop())

	pusher := newFakePusher(nil)
	c := NewNotificationConsumer(pusher)

	err := c.Handle(context.Background(), pkgkafka.Message{
		Value: []byte(`{"userUuid":"u_carol","notification":{"id":"2"}}`),
	})
	assert.NoError(t, err)
	assert.Empty(t, pusher.frames)
}

func TestNotificationConsumer_Invalid(t *testing.T) {
	logger.ReplaceGlobal(zap.NewNop())
	c := NewNotificationConsumer(newFakePusher(map[string]int{"u_bob": 1}))

	tests := []struct {
		name  string
		value string
	}{
		{name: "not json", value: "{"},
		{name: "missing user", value: `{"notification":{"id":"1"}}`},
		{name: "missing notification", value: `{"userUuid":"u_bob"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Handle(context.Background(), pkgkafka.Message{Value: []byte(tt.value)})
			assert.ErrorIs(t, err, ErrInvalidPushMessage)
		})
	}
}

func TestInstanceGroupID(t *testing.T) {
	first := InstanceGroupID("moir-connect", "connect-0")
	second := InstanceGroupID("moir-connect", "connect-0")

	assert.True(t, strings.HasPrefix(first, "moir-connect-connect-0-"), first)
	// 同一主机重启后使用新的消费组，不会从上次提交的位点补推
	assert.NotEqual(t, first, second)

	noHost := InstanceGroupID("moir-connect", "")
	assert.True(t, strings.HasPrefix(noHost, "moir-connect-"), noHost)
	assert.NotContains(t, noHost, "--")
}
