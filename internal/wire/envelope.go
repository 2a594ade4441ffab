// Package wire holds the response envelope shared by the server handlers and
// the API client, and the jsoniter-backed codec for it.
package wire

import (
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// strictJSON additionally rejects fields the target type does not declare.
var strictJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// Envelope wraps every successful response body.
type Envelope[T any] struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      *T        `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorBody is the failure shape. Error carries the category label, e.g.
// "Not Found" or "Bad Request".
type ErrorBody struct {
	Message    string `json:"message"`
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

// Success builds a populated success envelope stamped with the current time.
func Success[T any](message string, data T) Envelope[T] {
	return Envelope[T]{
		Success:   true,
		Message:   message,
		Data:      &data,
		Timestamp: time.Now(),
	}
}

// SuccessEmpty builds a success envelope with no payload, used for deletes.
func SuccessEmpty(message string) Envelope[struct{}] {
	return Envelope[struct{}]{
		Success:   true,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Payload resolves the envelope to its data. success=false and absent data
// both resolve to "no data" regardless of what the data field literally held.
func (e Envelope[T]) Payload() (T, bool) {
	var zero T
	if !e.Success || e.Data == nil {
		return zero, false
	}
	return *e.Data, true
}

// DecodeEnvelope reads one envelope from r directly into its typed form.
func DecodeEnvelope[T any](r io.Reader) (Envelope[T], error) {
	var e Envelope[T]
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return Envelope[T]{}, fmt.Errorf("decode envelope: %w", err)
	}
	return e, nil
}

// DecodeError reads an ErrorBody from r.
func DecodeError(r io.Reader) (ErrorBody, error) {
	var b ErrorBody
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return ErrorBody{}, fmt.Errorf("decode error body: %w", err)
	}
	return b, nil
}

// WriteJSON writes v with the given status and a JSON content type.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorBody for the given status and category label.
func WriteError(w http.ResponseWriter, status int, category, message string) {
	_ = WriteJSON(w, status, ErrorBody{
		Message:    message,
		Error:      category,
		StatusCode: status,
	})
}

// Marshal and Unmarshal expose the configured codec so both tiers encode
// identically.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// UnmarshalStrict is Unmarshal with unknown fields treated as errors. The
// server uses it for inbound request bodies.
func UnmarshalStrict(data []byte, v any) error {
	return strictJSON.Unmarshal(data, v)
}
