package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"bert-gateway/services"
)

type echoWorker struct {
	err        error
	lastInv    services.Invocation
	lastLimits services.Limits
}

func (w *echoWorker) Execute(ctx context.Context, inv services.Invocation, limits services.Limits) (*services.WorkerOutput, error) {
	w.lastInv, w.lastLimits = inv, limits
	if w.err != nil {
		return nil, w.err
	}
	return &services.WorkerOutput{
		Payload: []byte(`{"success":true,"result":15}`),
		Logs:    []string{"[1] hello"},
	}, nil
}

func startServer(t *testing.T, worker services.Worker) *RemoteWorker {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(NewServer("r", worker, nil))
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	remote, err := Dial("bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { remote.Close() })
	return remote
}

func TestRemoteExecute(t *testing.T) {
	worker := &echoWorker{}
	remote := startServer(t, worker)

	inv := services.Invocation{Tag: "call-1", Language: "r", Expression: "sum(1L, 2L)"}
	out, err := remote.Execute(context.Background(), inv, services.Limits{Timeout: 3 * time.Second, MemoryBytes: 1 << 20})
	require.NoError(t, err)

	assert.JSONEq(t, `{"success":true,"result":15}`, string(out.Payload))
	assert.Equal(t, []string{"[1] hello"}, out.Logs)
	assert.Equal(t, inv, worker.lastInv)
	assert.Equal(t, services.Limits{Timeout: 3 * time.Second, MemoryBytes: 1 << 20}, worker.lastLimits)
}

func TestRemoteErrorKinds(t *testing.T) {
	kinds := []services.ErrorKind{
		services.KindWorkerTimeout,
		services.KindWorkerCrashed,
		services.KindMalformedOutput,
		services.KindValidation,
		services.KindInternal,
	}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			remote := startServer(t, &echoWorker{err: &services.Error{Kind: kind, Message: "boom"}})

			_, err := remote.Execute(context.Background(), services.Invocation{Tag: "x"}, services.Limits{})
			require.Error(t, err)
			assert.Equal(t, kind, services.KindOf(err))
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestRemoteHealth(t *testing.T) {
	remote := startServer(t, &echoWorker{})

	resp, err := remote.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r", resp.Language)
	assert.Equal(t, healthyStatus, resp.Status)
}

func TestRemoteUnavailable(t *testing.T) {
	lis := bufconn.Listen(1024)
	lis.Close()

	remote, err := Dial("bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	defer remote.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = remote.Execute(ctx, services.Invocation{Tag: "x"}, services.Limits{})
	require.Error(t, err)

	var e *services.Error
	assert.True(t, errors.As(err, &e))
}
