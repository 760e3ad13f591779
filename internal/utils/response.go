package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type ErrorBody struct {
	Error  string            `json:"error"`
	Reason string            `json:"reason,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Error: message})
}

// ErrUnexpectedFields is returned by DecodeStrict when the body carries keys
// the target struct does not declare.
var ErrUnexpectedFields = errors.New("unexpected fields")

// DecodeStrict decodes a single JSON object into v, rejecting unknown fields
// and trailing data.
func DecodeStrict(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			return fmt.Errorf("%w: %s", ErrUnexpectedFields, strings.TrimPrefix(err.Error(), "json: unknown field "))
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}
