package mcpserver

import (
	"encoding/json"
	"fmt"
	"math"

	"blockpad/internal/domain"
)

// argString returns args[key] when it is a string, or "".
func argString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// argNumber returns args[key] as a float64. JSON numbers arrive as float64;
// numeric strings are accepted too.
func argNumber(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func argInt(args map[string]any, key string) (int, error) {
	f, ok := argNumber(args, key)
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int(f), nil
}

func argBool(args map[string]any, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// argContent parses the content argument, given either as a JSON object or
// as a JSON-encoded string. It returns nil when the argument is absent.
func argContent(args map[string]any) (*domain.Content, error) {
	raw, ok := args["content"]
	if !ok || raw == nil {
		return nil, nil
	}
	var data []byte
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil, nil
		}
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return nil, fmt.Errorf("encode content: %w", err)
		}
	}
	var c domain.Content
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &domain.ValidationError{Field: "content", Err: err}
	}
	return &c, nil
}
