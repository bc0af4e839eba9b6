package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

const (
	msgRequired  = "This field is required."
	msgNull      = "This field may not be null."
	msgNotString = "Not a valid string."
	msgNotNumber = "A valid number is required."
)

// errMalformedBody marks a body that is not a JSON object.
var errMalformedBody = fmt.Errorf("%w: malformed request body", core.ErrValidation)

// decodeObject reads the body as a JSON object, keeping each member raw so
// fields can be validated one at a time. An empty body is an empty object.
func decodeObject(r *http.Request) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: %s", errMalformedBody, err)
	}
	if obj == nil {
		return nil, errMalformedBody
	}
	return obj, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// stringField decodes an optional string member.
func stringField(obj map[string]json.RawMessage, key string, verr *core.ValidationError) *string {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	if isNull(raw) {
		verr.Add(key, msgNull)
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		verr.Add(key, msgNotString)
		return nil
	}
	s = sanitizeInput(s)
	return &s
}

// numberField accepts a JSON number or a numeric string.
func numberField(obj map[string]json.RawMessage, key string, verr *core.ValidationError) *float64 {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	if isNull(raw) {
		verr.Add(key, msgNull)
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	verr.Add(key, msgNotNumber)
	return nil
}

// categoryField reads the category reference, given either as
// {"name": "..."} or as the bare name.
func categoryField(obj map[string]json.RawMessage, verr *core.ValidationError) *string {
	raw, ok := obj["category"]
	if !ok {
		return nil
	}
	if isNull(raw) {
		verr.Add("category", msgNull)
		return nil
	}
	var ref struct {
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(raw, &ref); err == nil {
		if ref.Name == nil {
			verr.Add("category", "Category name is required.")
			return nil
		}
		name := sanitizeInput(*ref.Name)
		return &name
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		name = sanitizeInput(name)
		return &name
	}
	verr.Add("category", "Expected an object with a name.")
	return nil
}

func decodeCategoryInput(r *http.Request) (services.CategoryInput, error) {
	obj, err := decodeObject(r)
	if err != nil {
		return services.CategoryInput{}, err
	}
	verr := core.NewValidationError()
	name := stringField(obj, "name", verr)
	if name == nil && len(verr.Fields) == 0 {
		verr.Add("name", msgRequired)
	}
	if err := verr.OrNil(); err != nil {
		return services.CategoryInput{}, err
	}
	return services.CategoryInput{Name: *name}, nil
}

// decodeTransactionInput reads the writable transaction fields. Missing
// fields stay nil; required-ness is decided by the service.
func decodeTransactionInput(r *http.Request) (services.TransactionInput, error) {
	obj, err := decodeObject(r)
	if err != nil {
		return services.TransactionInput{}, err
	}
	verr := core.NewValidationError()
	in := services.TransactionInput{
		Title:       stringField(obj, "title", verr),
		Amount:      numberField(obj, "amount", verr),
		Type:        stringField(obj, "transaction_type", verr),
		Description: stringField(obj, "description", verr),
		Category:    categoryField(obj, verr),
	}
	return in, verr.OrNil()
}

// pathID parses a numeric path parameter. Anything else is a missing resource.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", name, r.PathValue(name), core.ErrNotFound)
	}
	return id, nil
}

// sanitizeInput trims s and removes control characters except tab, newline
// and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
