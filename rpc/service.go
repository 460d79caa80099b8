package rpc

import (
	"context"

	"google.golang.org/grpc"

	"bert-gateway/services"
)

const (
	serviceName    = "bert.ipc.LanguageService"
	executeMethod  = "/" + serviceName + "/Execute"
	healthMethod   = "/" + serviceName + "/Health"
	healthyStatus  = "SERVING"
	defaultNetwork = "tcp"
)

type ExecuteRequest struct {
	Invocation  services.Invocation `json:"invocation"`
	TimeoutMs   int64               `json:"timeout_ms"`
	MemoryBytes int64               `json:"memory_bytes"`
}

type ExecuteResponse struct {
	Output *services.WorkerOutput `json:"output"`
}

type HealthRequest struct{}

type HealthResponse struct {
	Language string `json:"language"`
	Status   string `json:"status"`
}

// LanguageServiceServer is implemented by a host running one language worker
type LanguageServiceServer interface {
	Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error)
	Health(ctx context.Context, req *HealthRequest) (*HealthResponse, error)
}

var languageServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LanguageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
		{MethodName: "Health", Handler: healthHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bert/ipc/language.proto",
}

// RegisterLanguageServiceServer registers srv on s
func RegisterLanguageServiceServer(s grpc.ServiceRegistrar, srv LanguageServiceServer) {
	s.RegisterService(&languageServiceDesc, srv)
}

func executeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ExecuteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LanguageServiceServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: executeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LanguageServiceServer).Execute(ctx, req.(*ExecuteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func healthHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HealthRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LanguageServiceServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: healthMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LanguageServiceServer).Health(ctx, req.(*HealthRequest))
	}
	return interceptor(ctx, in, info, handler)
}
