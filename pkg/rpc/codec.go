package rpc

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// codecName is the content-subtype this codec registers under.
const codecName = "task-dispatch"

// gobCodec implements grpc/encoding.Codec over encoding/gob, standing
// in for the protobuf codec a generated-stub build would use.
type gobCodec struct{}

func (gobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(gobCodec{})
}

// ServerCodecOption forces the server to use the gob codec regardless
// of the incoming content-subtype header, so a plain grpc.Dial client
// that also applies ClientCodecOption interoperates without further
// negotiation.
func ServerCodecOption() grpc.ServerOption {
	return grpc.ForceServerCodec(gobCodec{})
}

// ClientCodecOption is the matching dial option for a Go client of this
// service.
func ClientCodecOption() grpc.DialOption {
	return grpc.WithDefaultCallOptions(grpc.ForceCodec(gobCodec{}))
}
