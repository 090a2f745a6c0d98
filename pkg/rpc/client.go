package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Dial opens a client connection to a dispatch server at target,
// forcing the same gob codec the server forces (see ServerCodecOption)
// since no generated protobuf stub exists in this environment to
// negotiate a content-subtype the usual way.
func Dial(target string) (*grpc.ClientConn, error) {
	return grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		ClientCodecOption(),
	)
}

// CallListModules invokes the ListModules admin extension RPC over conn.
func CallListModules(ctx context.Context, conn *grpc.ClientConn, req *ListModulesRequest) (*ListModulesResponse, error) {
	resp := new(ListModulesResponse)
	if err := conn.Invoke(ctx, "/taskdispatch.DispatchService/ListModules", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
