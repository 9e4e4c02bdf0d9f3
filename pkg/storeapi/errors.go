package storeapi

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
)

// RequestError is the cause carried by every failed API call. Status is 0 when
// the request never produced a response.
type RequestError struct {
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// AsRequestError extracts the RequestError from an error chain.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if !stdErrors.As(err, &reqErr) {
		return nil, false
	}
	return reqErr, true
}

func newRequestError(status int, message string, fields map[string]string, cause error) error {
	if strings.TrimSpace(message) == "" {
		message = GenericMessage
	}
	reqErr := &RequestError{Status: status, Message: message, Fields: fields, Err: cause}
	wrapped := pkgerrors.Wrap(codeForStatus(status), reqErr, message)
	if len(fields) > 0 {
		wrapped = wrapped.WithDetails(fields)
	}
	return wrapped
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	default:
		return pkgerrors.CodeDependency
	}
}

// parseErrorBody pulls a human-readable reason out of an API error body.
// Precedence: detail, error, message, then the first field-level error.
func parseErrorBody(raw []byte) (string, map[string]string) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", nil
	}

	for _, key := range []string{"detail", "error", "message"} {
		if text := stringValue(body[key]); text != "" {
			return text, nil
		}
	}

	fields := map[string]string{}
	for key, value := range body {
		if text := firstMessage(value); text != "" {
			fields[key] = text
		}
	}
	if len(fields) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return fields[keys[0]], fields
}

func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func firstMessage(raw json.RawMessage) string {
	if text := stringValue(raw); text != "" {
		return text
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return ""
	}
	for _, text := range list {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
