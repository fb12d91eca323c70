package codec

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"

	"google.golang.org/protobuf/proto"
)

// protoMarshal and protoUnmarshal are variables so tests can replace them.
var (
	protoMarshal   = proto.Marshal
	protoUnmarshal = proto.Unmarshal
)

// ProtoCodec encodes handler results as Protocol Buffers.
// Only values implementing proto.Message can be encoded.
type ProtoCodec struct{}

// NewProtoCodec creates a new ProtoCodec instance.
func NewProtoCodec() *ProtoCodec {
	return &ProtoCodec{}
}

// ContentType implements Codec.
func (c *ProtoCodec) ContentType() string {
	return "application/x-protobuf"
}

// Encode marshals v, which must be a proto.Message, and writes it.
func (c *ProtoCodec) Encode(w http.ResponseWriter, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("codec: %T does not implement proto.Message", v)
	}

	body, err := protoMarshal(msg)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", c.ContentType())
	_, err = w.Write(body)
	return err
}

// IsProto reports whether the request declares a Protocol Buffers body.
func IsProto(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	switch mt {
	case "application/x-protobuf", "application/protobuf", "application/vnd.google.protobuf":
		return true
	}
	return false
}

// DecodeMessage reads the request body into msg. The body is restored after
// reading so later readers see the same bytes.
func DecodeMessage(r *http.Request, msg proto.Message) error {
	if r.Body == nil || r.Body == http.NoBody {
		return protoUnmarshal(nil, msg)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return protoUnmarshal(body, msg)
}
