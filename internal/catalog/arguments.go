package catalog

import (
	"encoding/json"
	"fmt"
	"math/big"
)

func numberArg(args map[string]any, key string) (float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("missing required argument %s", key)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("argument %s must be a number: %w", key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("argument %s must be a number, got %T", key, raw)
	}
}

// integerArg returns the argument as an exact integer when it was sent as
// one. Fractions, exponents and floats report false.
func integerArg(args map[string]any, key string) (*big.Int, bool) {
	switch v := args[key].(type) {
	case json.Number:
		return new(big.Int).SetString(v.String(), 10)
	case int:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	default:
		return nil, false
	}
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("missing required argument %s", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %s must be a string, got %T", key, raw)
	}
	return s, nil
}
