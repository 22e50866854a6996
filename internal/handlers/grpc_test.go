package handlers

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func newTestStream(t *testing.T) (*ECGStreamServer, *StreamClient) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	streamer := NewECGStreamServer()

	gs := grpc.NewServer()
	streamer.Register(gs)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(func() {
		streamer.Stop()
		gs.Stop()
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return streamer, NewStreamClient(conn)
}

func TestECGStreamSubscribe(t *testing.T) {
	streamer, client := newTestStream(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Subscribe(ctx, &SubscribeRequest{DeviceIDs: []string{"strap-01"}, Kinds: []string{UpdateSummary}})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return streamer.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	streamer.Broadcast(&LiveUpdate{Kind: UpdateSamples, DeviceID: "strap-01"})
	streamer.Broadcast(&LiveUpdate{Kind: UpdateSummary, DeviceID: "other"})
	streamer.Broadcast(&LiveUpdate{Kind: UpdateSummary, DeviceID: "strap-01", SessionID: "s-1"})

	got, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, UpdateSummary, got.Kind)
	assert.Equal(t, "strap-01", got.DeviceID)
	assert.Equal(t, "s-1", got.SessionID)

	cancel()
	assert.Eventually(t, func() bool { return streamer.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestECGStreamRejectsUnknownKind(t *testing.T) {
	_, client := newTestStream(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Subscribe(ctx, &SubscribeRequest{Kinds: []string{"waveform"}})
	require.NoError(t, err)

	_, err = stream.Recv()
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestECGStreamStop(t *testing.T) {
	streamer, client := newTestStream(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Subscribe(ctx, &SubscribeRequest{})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return streamer.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	streamer.Stop()
	_, err = stream.Recv()
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestSubscribeRequestMatches(t *testing.T) {
	all := &SubscribeRequest{}
	assert.True(t, all.matches(&LiveUpdate{Kind: UpdateSamples, DeviceID: "x"}))

	req := &SubscribeRequest{DeviceIDs: []string{"a", "b"}}
	assert.True(t, req.matches(&LiveUpdate{Kind: UpdateSession, DeviceID: "b"}))
	assert.False(t, req.matches(&LiveUpdate{Kind: UpdateSession, DeviceID: "c"}))
}
