// Package codec provides the encoders used to write handler results and the
// decoders used to read structured request bodies.
package codec

import (
	"net/http"
)

// Codec writes a handler result to an HTTP response.
// Implementations set the Content-Type header before writing the body.
type Codec interface {
	// ContentType is the media type written by Encode.
	ContentType() string

	// Encode serializes v and writes it to w.
	Encode(w http.ResponseWriter, v any) error
}
