package args

import (
	"errors"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"

	"github.com/Suhaibinator/SRouterTools/pkg/codec"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// defaultMaxMemory bounds the in-memory part of a parsed multipart body.
const defaultMaxMemory = 32 << 20

// Source supplies one layer of request values. A source that does not apply
// to the request returns a nil map and no error.
type Source interface {
	// Name identifies the source in errors and logs.
	Name() string

	// Values extracts the source's key/value pairs from r.
	Values(r *http.Request) (map[string]any, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc struct {
	SourceName string
	Fn         func(r *http.Request) (map[string]any, error)
}

// Name implements Source.
func (s SourceFunc) Name() string { return s.SourceName }

// Values implements Source.
func (s SourceFunc) Values(r *http.Request) (map[string]any, error) { return s.Fn(r) }

// QuerySource reads the URL query string. Values are strings; for repeated
// keys the first value is used.
type QuerySource struct{}

// Name implements Source.
func (QuerySource) Name() string { return "query" }

// Values implements Source.
func (QuerySource) Values(r *http.Request) (map[string]any, error) {
	return firstValues(r.URL.Query()), nil
}

// FormSource reads URL-encoded and multipart body fields. Uploaded files are
// not included.
type FormSource struct {
	// MaxMemory bounds the in-memory part of a multipart body. Zero means 32 MB.
	MaxMemory int64
}

// Name implements Source.
func (FormSource) Name() string { return "form" }

// Values implements Source.
func (s FormSource) Values(r *http.Request) (map[string]any, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "multipart/form-data":
		maxMemory := s.MaxMemory
		if maxMemory <= 0 {
			maxMemory = defaultMaxMemory
		}
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, err
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}
	return firstValues(r.PostForm), nil
}

// JSONSource reads the fields of a JSON object body. Integral numbers decode
// to int64 and all other numbers to float64.
type JSONSource struct{}

// Name implements Source.
func (JSONSource) Name() string { return "json" }

// Values implements Source.
func (JSONSource) Values(r *http.Request) (map[string]any, error) {
	obj, err := codec.DecodeObject(r)
	switch {
	case errors.Is(err, codec.ErrNotJSON), errors.Is(err, io.EOF):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return obj, nil
}

// ProtoSource reads the singular scalar fields of a Protocol Buffers body.
// Fields are keyed by their proto name. Integers become int64, floating
// point numbers float64 and enums their value name. Fields with explicit
// presence are only included when set. Repeated, map, message and bytes
// fields are skipped.
type ProtoSource struct {
	// New returns an empty message of the body's type.
	New func() proto.Message
}

// Name implements Source.
func (ProtoSource) Name() string { return "proto" }

// Values implements Source.
func (s ProtoSource) Values(r *http.Request) (map[string]any, error) {
	if s.New == nil || !codec.IsProto(r) {
		return nil, nil
	}

	msg := s.New()
	if err := codec.DecodeMessage(r, msg); err != nil {
		return nil, err
	}

	m := msg.ProtoReflect()
	fields := m.Descriptor().Fields()
	out := make(map[string]any, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if fd.IsList() || fd.IsMap() {
			continue
		}
		if fd.HasPresence() && !m.Has(fd) {
			continue
		}
		if v, ok := protoScalar(fd, m.Get(fd)); ok {
			out[string(fd.Name())] = v
		}
	}
	return out, nil
}

func protoScalar(fd protoreflect.FieldDescriptor, v protoreflect.Value) (any, bool) {
	switch fd.Kind() {
	case protoreflect.StringKind:
		return v.String(), true
	case protoreflect.BoolKind:
		return v.Bool(), true
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return v.Int(), true
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, false
		}
		return int64(u), true
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return v.Float(), true
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return string(ev.Name()), true
		}
		return int64(v.Enum()), true
	default:
		return nil, false
	}
}

// DefaultSources returns the sources in increasing precedence: query, then
// form body, then JSON body.
func DefaultSources() []Source {
	return []Source{QuerySource{}, FormSource{}, JSONSource{}}
}

func firstValues(v url.Values) map[string]any {
	out := make(map[string]any, len(v))
	for k, vs := range v {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}
