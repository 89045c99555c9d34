package storage

import (
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()
	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	s := test.RunServer(&opts)
	t.Cleanup(s.Shutdown)
	return s
}

func TestNatsBucket(t *testing.T) {
	s := runJetStreamServer(t)

	nc, err := nats.Connect(s.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := nc.JetStream()
	require.NoError(t, err)

	b, err := NewNats(js, "results")
	require.NoError(t, err)
	runBucketContract(t, b)

	// binding to an existing bucket sees the same objects
	again, err := NewNats(js, "results")
	require.NoError(t, err)
	data, err := again.Get(t.Context(), "a.json")
	require.NoError(t, err)
	require.Equal(t, `{"id":"a"}`, string(data))
}
