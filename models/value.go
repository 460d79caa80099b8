package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a TypedValue
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindDouble
	KindInteger
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindDouble:
		return "double"
	case KindInteger:
		return "integer"
	default:
		return "null"
	}
}

// TypedValue is the only value shape that crosses the worker boundary.
// On the wire it is encoded as the bare JSON value (15, "abc", null).
type TypedValue struct {
	Kind    ValueKind
	String  string
	Double  float64
	Integer int64
}

func NullValue() TypedValue { return TypedValue{Kind: KindNull} }

func StringValue(s string) TypedValue { return TypedValue{Kind: KindString, String: s} }

func DoubleValue(f float64) TypedValue { return TypedValue{Kind: KindDouble, Double: f} }

func IntegerValue(i int64) TypedValue { return TypedValue{Kind: KindInteger, Integer: i} }

func (v TypedValue) IsNull() bool { return v.Kind == KindNull }

func (v TypedValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.String)
	case KindDouble:
		// JSON has no NaN/Inf literal
		switch {
		case math.IsNaN(v.Double):
			return []byte(`"NaN"`), nil
		case math.IsInf(v.Double, 1):
			return []byte(`"Inf"`), nil
		case math.IsInf(v.Double, -1):
			return []byte(`"-Inf"`), nil
		}
		return []byte(strconv.FormatFloat(v.Double, 'g', -1, 64)), nil
	case KindInteger:
		return []byte(strconv.FormatInt(v.Integer, 10)), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts strings, numbers and null. Numbers written without a
// fraction or exponent decode as integers, everything else as doubles.
func (v *TypedValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = NullValue()
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		parsed, err := ParseNumber(string(data))
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	default:
		return fmt.Errorf("unsupported argument type: %s", truncate(string(data), 32))
	}
}

// ParseNumber converts a JSON number literal into an integer or double TypedValue.
func ParseNumber(raw string) (TypedValue, error) {
	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return IntegerValue(i), nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return TypedValue{}, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return DoubleValue(f), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
