// Package rpc carries the wire types and gRPC service registration for
// the Dispatch Service (C5). No protoc/buf toolchain is available in
// this environment to generate stubs from api/dispatch.proto, so the
// messages are plain Go structs and the service is registered with a
// hand-written grpc.ServiceDesc under a gob-based custom codec. A real
// build can regenerate protobuf stubs from the reference .proto file
// and drop this package's codec in favor of the standard one.
package rpc
