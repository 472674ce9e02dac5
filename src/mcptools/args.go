package mcptools

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

type arguments map[string]interface{}

func (a arguments) has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// id returns the raw instrument id. Callers pass it through
// eventmodels.NewStockCode so 2330 and "2330" resolve alike.
func (a arguments) id(key string) (interface{}, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("missing argument %s: %w", key, eventmodels.ErrValidation)
	}

	return v, nil
}

// ids accepts a JSON array or a comma separated string.
func (a arguments) ids(key string) ([]interface{}, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("missing argument %s: %w", key, eventmodels.ErrValidation)
	}

	switch val := v.(type) {
	case []interface{}:
		return val, nil
	case []string:
		out := make([]interface{}, 0, len(val))
		for _, s := range val {
			out = append(out, s)
		}
		return out, nil
	case string:
		var out []interface{}
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return []interface{}{val}, nil
	}
}

func (a arguments) requiredString(key string) (string, error) {
	s, err := a.getString(key)
	if err != nil {
		return "", err
	}

	if s == "" {
		return "", fmt.Errorf("missing argument %s: %w", key, eventmodels.ErrValidation)
	}

	return s, nil
}

func (a arguments) getString(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", nil
	}

	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case json.Number:
		return val.String(), nil
	case float64:
		return decimal.NewFromFloat(val).String(), nil
	default:
		return "", fmt.Errorf("argument %s must be a string, got %T: %w", key, v, eventmodels.ErrValidation)
	}
}

func (a arguments) getBool(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}

	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no", "":
			return false, nil
		}
	}

	return false, fmt.Errorf("argument %s must be a boolean, got %v: %w", key, v, eventmodels.ErrValidation)
}

func (a arguments) getInt(key string, def int64) (int64, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}

	d, err := toDecimal(v)
	if err != nil || !d.IsInteger() {
		return 0, fmt.Errorf("argument %s must be an integer, got %v: %w", key, v, eventmodels.ErrValidation)
	}

	if d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || d.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("argument %s out of range: %w", key, eventmodels.ErrValidation)
	}

	return d.IntPart(), nil
}

// getDecimal accepts numbers and numeric strings. Prices arrive as JSON numbers
// from most clients, which decimal.NewFromFloat turns into their shortest
// representation.
func (a arguments) getDecimal(key string) (decimal.Decimal, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return decimal.Zero, nil
	}

	d, err := toDecimal(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("argument %s must be a number, got %v: %w", key, v, eventmodels.ErrValidation)
	}

	return d, nil
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case json.Number:
		return decimal.NewFromString(val.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(val))
	default:
		return decimal.Zero, fmt.Errorf("unsupported type %T", v)
	}
}
