package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

var errMissingKind = errors.New("change message has no kind")

// EncodeChange renders c as the JSON message body.
func EncodeChange(c core.Change) ([]byte, error) {
	if c.Kind == "" {
		return nil, errMissingKind
	}
	return json.Marshal(c)
}

// DecodeChange parses a message body produced by EncodeChange.
func DecodeChange(data []byte) (core.Change, error) {
	var c core.Change
	if err := json.Unmarshal(data, &c); err != nil {
		return core.Change{}, fmt.Errorf("decode change: %w", err)
	}
	if c.Kind == "" {
		return core.Change{}, errMissingKind
	}
	return c, nil
}
