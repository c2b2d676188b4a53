package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// The wire form is externally tagged: {"transfer_failed": {"transfer_id": ...}}.
// Canonical field names are snake_case; camelCase variants from older payload
// producers are accepted on decode. Malformed payloads are rejected here so
// nothing downstream has to null-check.

// Marshal encodes an event in the canonical wire form.
func Marshal(ev Event) ([]byte, error) {
	return json.Marshal(map[string]Event{string(ev.Type()): ev})
}

// Unmarshal decodes a wire payload into a typed event.
func Unmarshal(data []byte) (Event, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("event envelope: %w", err)
	}
	if len(envelope) != 1 {
		return nil, fmt.Errorf("event envelope: expected exactly one tag, got %d", len(envelope))
	}

	for tag, payload := range envelope {
		return decodePayload(Type(normalizeKey(tag)), payload)
	}
	return nil, fmt.Errorf("event envelope: empty")
}

func decodePayload(tag Type, payload json.RawMessage) (Event, error) {
	normalized, err := normalizeObjectKeys(payload)
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", tag, err)
	}

	switch tag {
	case TypeTransferRequest:
		var ev TransferRequest
		if err := json.Unmarshal(normalized, &ev); err != nil {
			return nil, fmt.Errorf("event %q: %w", tag, err)
		}
		if ev.Transfer.ID == "" {
			return nil, fmt.Errorf("event %q: missing transfer id", tag)
		}
		return ev, nil
	case TypeTransferProgress:
		var ev TransferProgress
		if err := json.Unmarshal(normalized, &ev); err != nil {
			return nil, fmt.Errorf("event %q: %w", tag, err)
		}
		if ev.Progress.TransferID == "" {
			return nil, fmt.Errorf("event %q: missing transfer id", tag)
		}
		return ev, nil
	case TypeTransferComplete:
		var ev TransferComplete
		if err := json.Unmarshal(normalized, &ev); err != nil {
			return nil, fmt.Errorf("event %q: %w", tag, err)
		}
		if ev.ID == "" {
			return nil, fmt.Errorf("event %q: missing transfer id", tag)
		}
		return ev, nil
	case TypeTransferFailed:
		var ev TransferFailed
		if err := json.Unmarshal(normalized, &ev); err != nil {
			return nil, fmt.Errorf("event %q: %w", tag, err)
		}
		if ev.ID == "" {
			return nil, fmt.Errorf("event %q: missing transfer id", tag)
		}
		return ev, nil
	case TypeTransferRetry:
		var ev TransferRetry
		if err := json.Unmarshal(normalized, &ev); err != nil {
			return nil, fmt.Errorf("event %q: %w", tag, err)
		}
		if ev.ID == "" {
			return nil, fmt.Errorf("event %q: missing transfer id", tag)
		}
		return ev, nil
	case TypeServerStarted:
		var ev ServerStarted
		if err := json.Unmarshal(normalized, &ev); err != nil {
			return nil, fmt.Errorf("event %q: %w", tag, err)
		}
		return ev, nil
	case TypeServerStopped:
		return ServerStopped{}, nil
	case TypePortChanged:
		var ev PortChanged
		if err := json.Unmarshal(normalized, &ev); err != nil {
			return nil, fmt.Errorf("event %q: %w", tag, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("event envelope: unknown tag %q", tag)
	}
}

// normalizeObjectKeys rewrites all object keys in payload to snake_case,
// recursively, so camelCase producers decode into the canonical structs.
func normalizeObjectKeys(payload json.RawMessage) (json.RawMessage, error) {
	var v interface{}
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeValue(v))
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[normalizeKey(k)] = normalizeValue(inner)
		}
		return out
	case []interface{}:
		for i, inner := range val {
			val[i] = normalizeValue(inner)
		}
		return val
	default:
		return v
	}
}

// normalizeKey converts camelCase or PascalCase to snake_case; snake_case
// keys pass through unchanged.
func normalizeKey(key string) string {
	if !strings.ContainsFunc(key, unicode.IsUpper) {
		return key
	}
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 && key[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
