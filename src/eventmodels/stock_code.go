package eventmodels

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StockCode is the canonical string form of an instrument id, e.g. "2330".
type StockCode string

func (c StockCode) String() string {
	return string(c)
}

func (c StockCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// NewStockCode normalizes an instrument id supplied either as a string or as a
// number. Callers of the tool surface send both, so 2330, 2330.0, "2330" and
// " 2330 " all map to StockCode("2330").
func NewStockCode(v interface{}) (StockCode, error) {
	switch id := v.(type) {
	case StockCode:
		return NewStockCode(string(id))
	case string:
		s := strings.TrimSpace(id)
		if s == "" {
			return "", fmt.Errorf("NewStockCode: empty instrument id: %w", ErrValidation)
		}

		if f, err := strconv.ParseFloat(s, 64); isNumeric(s) && (err == nil || errors.Is(err, strconv.ErrRange)) {
			return numericStockCode(s, f)
		}

		return StockCode(strings.ToUpper(s)), nil
	case json.Number:
		return NewStockCode(string(id))
	case int:
		return NewStockCode(int64(id))
	case int32:
		return NewStockCode(int64(id))
	case int64:
		if id < 0 {
			return "", fmt.Errorf("NewStockCode: negative instrument id %d: %w", id, ErrValidation)
		}
		return StockCode(strconv.FormatInt(id, 10)), nil
	case uint:
		return StockCode(strconv.FormatUint(uint64(id), 10)), nil
	case uint64:
		return StockCode(strconv.FormatUint(id, 10)), nil
	case float32:
		return NewStockCode(float64(id))
	case float64:
		if math.IsNaN(id) || math.IsInf(id, 0) || id != math.Trunc(id) {
			return "", fmt.Errorf("NewStockCode: instrument id %v is not an integer: %w", id, ErrValidation)
		}
		if math.Signbit(id) {
			return "", fmt.Errorf("NewStockCode: negative instrument id %v: %w", id, ErrValidation)
		}
		if id >= maxInt64Float {
			return "", fmt.Errorf("NewStockCode: instrument id %v is out of range: %w", id, ErrValidation)
		}
		return NewStockCode(int64(id))
	case nil:
		return "", fmt.Errorf("NewStockCode: missing instrument id: %w", ErrValidation)
	default:
		return "", fmt.Errorf("NewStockCode: unsupported instrument id type %T: %w", v, ErrValidation)
	}
}

// 2^63, the first float64 that no longer fits in an int64
const maxInt64Float = float64(1 << 63)

// isNumeric reports whether s is a plain decimal number, optionally signed,
// with an optional fraction or exponent. Words such as "inf" do not count.
func isNumeric(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if s == "" {
		return false
	}

	digits := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case r == '.' || r == 'e' || r == 'E' || r == '+' || r == '-':
		default:
			return false
		}
	}

	return digits
}

// numericStockCode applies the same sign, range and integer checks as a
// numeric id. A plain digit string keeps its leading zeros, and a zero
// fraction is dropped without touching them, so "0050.0" stays "0050".
func numericStockCode(s string, f float64) (StockCode, error) {
	if f < 0 || strings.HasPrefix(s, "-") {
		return "", fmt.Errorf("NewStockCode: negative instrument id %s: %w", s, ErrValidation)
	}

	if f >= maxInt64Float {
		return "", fmt.Errorf("NewStockCode: instrument id %s is out of range: %w", s, ErrValidation)
	}

	s = strings.TrimPrefix(s, "+")
	if strings.ContainsAny(s, "eE") {
		return NewStockCode(f)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if strings.Trim(frac, "0") != "" {
		return "", fmt.Errorf("NewStockCode: instrument id %s is not an integer: %w", s, ErrValidation)
	}

	if whole == "" {
		whole = "0"
	}

	return StockCode(whole), nil
}

// NewStockCodes normalizes a list of ids, failing on the first bad one.
func NewStockCodes(values []interface{}) ([]StockCode, error) {
	codes := make([]StockCode, 0, len(values))
	for _, v := range values {
		code, err := NewStockCode(v)
		if err != nil {
			return nil, err
		}

		codes = append(codes, code)
	}

	return codes, nil
}
