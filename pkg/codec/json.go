package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

// ErrNotJSON is returned by DecodeObject when the request does not declare a
// JSON content type.
var ErrNotJSON = errors.New("request body is not JSON")

// ErrTrailingData is returned by DecodeObject when the body holds more than
// one JSON value.
var ErrTrailingData = errors.New("JSON body has data after the top-level value")

// ErrNotObject is returned by DecodeObject when the body is valid JSON but not
// a JSON object.
var ErrNotObject = errors.New("JSON body is not an object")

// JSONCodec encodes handler results as JSON.
type JSONCodec struct{}

// NewJSONCodec creates a new JSONCodec instance.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// ContentType implements Codec.
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Encode marshals v to JSON and writes it with the JSON content type.
func (c *JSONCodec) Encode(w http.ResponseWriter, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", c.ContentType())
	_, err = w.Write(body)
	return err
}

// IsJSON reports whether the request declares a JSON body, either
// application/json or a +json structured syntax suffix.
func IsJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// DecodeObject reads a JSON object body into a map.
//
// Numbers keep their JSON shape: integral numbers decode to int64 and all
// other numbers to float64. Strings, booleans and null decode to string, bool
// and nil; nested arrays and objects are kept as []any and map[string]any.
// The body is restored after reading so later readers see the same bytes.
func DecodeObject(r *http.Request) (map[string]any, error) {
	if !IsJSON(r) {
		return nil, ErrNotJSON
	}
	if r.Body == nil || r.Body == http.NoBody {
		return nil, io.EOF
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
		return nil, ErrTrailingData
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}

	for k, v := range obj {
		obj[k] = normalizeNumbers(v)
	}
	return obj, nil
}

// normalizeNumbers converts json.Number values into int64 or float64.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return f
	case []any:
		for i := range val {
			val[i] = normalizeNumbers(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalizeNumbers(val[k])
		}
		return val
	default:
		return v
	}
}
