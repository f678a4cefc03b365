// Package httpx provides the JSON request/response plumbing shared by every
// handler: the success/failure envelope, error-to-status mapping and
// decode-with-validation helpers.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Envelope is the uniform response body. Success responses carry data and an
// optional message; failures carry only the message.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// JSON writes an arbitrary payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, data any, message string) {
	JSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// Fail writes a failure envelope with an explicit status.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode reads the JSON body into target and runs struct validation.
func Decode(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return ErrBadRequest
	}
	if err := validate.Struct(target); err != nil {
		return err
	}
	return nil
}
