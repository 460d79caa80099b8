package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"bert-gateway/services"
)

// deadlineGrace gives the remote host time to report its own timeout before
// the client deadline fires
const deadlineGrace = 2 * time.Second

// RemoteWorker is a services.Worker that forwards invocations to a worker
// host over gRPC
type RemoteWorker struct {
	conn   *grpc.ClientConn
	target string
}

// Dial connects lazily to target. Extra options are appended to the defaults
// (insecure transport, JSON codec).
func Dial(target string, opts ...grpc.DialOption) (*RemoteWorker, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	}, opts...)

	conn, err := grpc.Dial(target, opts...)
	if err != nil {
		return nil, err
	}
	return &RemoteWorker{conn: conn, target: target}, nil
}

func (w *RemoteWorker) Execute(ctx context.Context, inv services.Invocation, limits services.Limits) (*services.WorkerOutput, error) {
	if limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.Timeout+deadlineGrace)
		defer cancel()
	}

	req := &ExecuteRequest{
		Invocation:  inv,
		TimeoutMs:   limits.Timeout.Milliseconds(),
		MemoryBytes: limits.MemoryBytes,
	}
	resp := new(ExecuteResponse)
	if err := w.conn.Invoke(ctx, executeMethod, req, resp); err != nil {
		return nil, fromStatus(err)
	}
	if resp.Output == nil {
		return nil, &services.Error{Kind: services.KindMalformedOutput, Message: "remote worker returned no output"}
	}
	return resp.Output, nil
}

// Health asks the host which language it serves
func (w *RemoteWorker) Health(ctx context.Context) (*HealthResponse, error) {
	resp := new(HealthResponse)
	if err := w.conn.Invoke(ctx, healthMethod, &HealthRequest{}, resp); err != nil {
		return nil, fromStatus(err)
	}
	return resp, nil
}

func (w *RemoteWorker) Target() string {
	return w.target
}

func (w *RemoteWorker) Close() error {
	return w.conn.Close()
}
