package push

import (
	"context"
	"testing"
	"time"

	"github.com/YasiruR/didcomm-envelope/log"
	zmq "github.com/pebbe/zmq4"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	zmqCtx, err := zmq.NewContext()
	require.NoError(t, err)

	pub, err := NewPublisher(zmqCtx, `inproc://relay-feed`)
	require.NoError(t, err)
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := NewSubscriber(zmqCtx, `inproc://relay-feed`, log.NewLogger(false, ``))
	msgs, err := sub.Subscribe(ctx, `mb-A`)
	require.NoError(t, err)

	// subscriptions propagate asynchronously so publish until one arrives
	deadline := time.After(10 * time.Second)
	for {
		require.NoError(t, pub.Publish(`mb-AB`, []byte(`other mailbox`)))
		require.NoError(t, pub.Publish(`mb-A`, []byte(`{"protected":"x"}`)))

		select {
		case msg := <-msgs:
			require.Equal(t, `{"protected":"x"}`, string(msg.Data))
			cancel()
			for range msgs {
			}
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal(`no message received from the feed`)
		}
	}
}
