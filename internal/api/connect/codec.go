// Package connect provides Connect RPC service implementations.
package connect

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// CodecName is the codec name negotiated on the wire.
const CodecName = "json"

// Codec marshals plain Go messages as JSON.
type Codec struct{}

var _ connect.Codec = Codec{}

// Name returns the codec name.
func (Codec) Name() string { return CodecName }

// Marshal encodes msg as JSON.
func (Codec) Marshal(msg any) ([]byte, error) { return json.Marshal(msg) }

// Unmarshal decodes JSON data into msg.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// WithJSON registers the JSON codec on a handler or client.
func WithJSON() connect.Option {
	return connect.WithCodec(Codec{})
}
