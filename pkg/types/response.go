// Package types holds the JSON envelopes shared by every API response.
package types

// SuccessEnvelope wraps successful payloads under a "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire shape of a failed request: a stable machine-readable
// code, a human-readable message, and optional structured details such as
// field-level validation errors.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
