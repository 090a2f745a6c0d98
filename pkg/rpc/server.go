package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// DispatchServer is the RPC contract (spec §6). pkg/dispatch.Service
// implements it; pkg/rpc only owns the transport wiring.
type DispatchServer interface {
	ListTaskTypes(ctx context.Context, req *ListTaskTypesRequest) (*ListTaskTypesResponse, error)
	AcquireTask(ctx context.Context, req *AcquireTaskRequest) (*Task, error)
	PublishTask(ctx context.Context, req *Task) (*Empty, error)
	CreateTask(ctx context.Context, req *Task) (*Task, error)
	DeleteTask(ctx context.Context, req *DeleteTaskRequest) (*Empty, error)
	GetTasks(ctx context.Context, req *GetTasksRequest) (*GetTasksResponse, error)
	CheckAuth(ctx context.Context, req *Empty) (*Empty, error)
	Cgrpc(ctx context.Context, req *CgrpcRequest) (*CgrpcResponse, error)
	ListModules(ctx context.Context, req *ListModulesRequest) (*ListModulesResponse, error)
}

// AuthHeaders extracts the "authorization" and "uid" metadata headers,
// defaulting both to the empty string when absent (spec §4.5 step 1).
func AuthHeaders(ctx context.Context) (authorization, uid string) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", ""
	}
	return firstOrEmpty(md, "authorization"), firstOrEmpty(md, "uid")
}

func firstOrEmpty(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// RegisterDispatchServer registers srv on s under the hand-written
// ServiceDesc, the way a generated _grpc.pb.go's RegisterXServer
// function would.
func RegisterDispatchServer(s *grpc.Server, srv DispatchServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "taskdispatch.DispatchService",
	HandlerType: (*DispatchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListTaskTypes", Handler: listTaskTypesHandler},
		{MethodName: "AcquireTask", Handler: acquireTaskHandler},
		{MethodName: "PublishTask", Handler: publishTaskHandler},
		{MethodName: "CreateTask", Handler: createTaskHandler},
		{MethodName: "DeleteTask", Handler: deleteTaskHandler},
		{MethodName: "GetTasks", Handler: getTasksHandler},
		{MethodName: "CheckAuth", Handler: checkAuthHandler},
		{MethodName: "Cgrpc", Handler: cgrpcHandler},
		{MethodName: "ListModules", Handler: listModulesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dispatch.proto",
}

func listTaskTypesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ListTaskTypesRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServer).ListTaskTypes(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/taskdispatch.DispatchService/ListTaskTypes"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServer).ListTaskTypes(ctx, req.(*ListTaskTypesRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func acquireTaskHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(AcquireTaskRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServer).AcquireTask(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/taskdispatch.DispatchService/AcquireTask"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServer).AcquireTask(ctx, req.(*AcquireTaskRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func publishTaskHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(Task)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServer).PublishTask(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/taskdispatch.DispatchService/PublishTask"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServer).PublishTask(ctx, req.(*Task))
	}
	return interceptor(ctx, req, info, handler)
}

func createTaskHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(Task)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServer).CreateTask(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/taskdispatch.DispatchService/CreateTask"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServer).CreateTask(ctx, req.(*Task))
	}
	return interceptor(ctx, req, info, handler)
}

func deleteTaskHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(DeleteTaskRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServer).DeleteTask(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/taskdispatch.DispatchService/DeleteTask"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServer).DeleteTask(ctx, req.(*DeleteTaskRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func getTasksHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetTasksRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServer).GetTasks(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/taskdispatch.DispatchService/GetTasks"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServer).GetTasks(ctx, req.(*GetTasksRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func checkAuthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(Empty)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServer).CheckAuth(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/taskdispatch.DispatchService/CheckAuth"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServer).CheckAuth(ctx, req.(*Empty))
	}
	return interceptor(ctx, req, info, handler)
}

func cgrpcHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(CgrpcRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServer).Cgrpc(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/taskdispatch.DispatchService/Cgrpc"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServer).Cgrpc(ctx, req.(*CgrpcRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func listModulesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ListModulesRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServer).ListModules(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/taskdispatch.DispatchService/ListModules"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServer).ListModules(ctx, req.(*ListModulesRequest))
	}
	return interceptor(ctx, req, info, handler)
}
