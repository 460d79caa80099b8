package rpc

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bert-gateway/services"
)

// Server exposes one local worker over gRPC
type Server struct {
	language string
	worker   services.Worker
	logger   *logrus.Entry
}

func NewServer(language string, worker services.Worker, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		language: language,
		worker:   worker,
		logger:   logger.WithFields(logrus.Fields{"component": "rpc", "language": language}),
	}
}

func (s *Server) Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error) {
	limits := services.Limits{
		Timeout:     time.Duration(req.TimeoutMs) * time.Millisecond,
		MemoryBytes: req.MemoryBytes,
	}

	started := time.Now()
	out, err := s.worker.Execute(ctx, req.Invocation, limits)
	log := s.logger.WithFields(logrus.Fields{
		"tag":         req.Invocation.Tag,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	if err != nil {
		log.WithError(err).Warn("remote execution failed")
		return nil, toStatus(err)
	}
	log.Debug("remote execution finished")
	return &ExecuteResponse{Output: out}, nil
}

func (s *Server) Health(ctx context.Context, req *HealthRequest) (*HealthResponse, error) {
	return &HealthResponse{Language: s.language, Status: healthyStatus}, nil
}

// NewGRPCServer returns a grpc.Server with the JSON codec and srv registered
func NewGRPCServer(srv *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ForceServerCodec(jsonCodec{})}, opts...)
	gs := grpc.NewServer(opts...)
	RegisterLanguageServiceServer(gs, srv)
	return gs
}

// Listen opens the TCP listener for a worker host
func Listen(addr string) (net.Listener, error) {
	return net.Listen(defaultNetwork, addr)
}

// toStatus carries the error kind across the wire as a gRPC status code
func toStatus(err error) error {
	code := codes.Internal
	switch services.KindOf(err) {
	case services.KindWorkerTimeout:
		code = codes.DeadlineExceeded
	case services.KindWorkerCrashed:
		code = codes.Aborted
	case services.KindMalformedOutput:
		code = codes.DataLoss
	case services.KindValidation:
		code = codes.InvalidArgument
	case services.KindUnsupportedLanguage:
		code = codes.Unimplemented
	}
	return status.Error(code, err.Error())
}

// fromStatus turns a gRPC error back into a classified worker error
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &services.Error{Kind: services.KindWorkerCrashed, Message: "remote worker call failed", Err: err}
	}

	kind := services.KindInternal
	msg := st.Message()
	switch st.Code() {
	case codes.DeadlineExceeded:
		kind = services.KindWorkerTimeout
	case codes.Aborted:
		kind = services.KindWorkerCrashed
	case codes.Unavailable:
		kind = services.KindWorkerCrashed
		msg = "remote worker unavailable: " + msg
	case codes.DataLoss:
		kind = services.KindMalformedOutput
	case codes.InvalidArgument:
		kind = services.KindValidation
	case codes.Unimplemented:
		kind = services.KindUnsupportedLanguage
	}
	return &services.Error{Kind: kind, Message: msg}
}
