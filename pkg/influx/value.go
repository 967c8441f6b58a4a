package influx

import (
	"fmt"
	"math"
	"strconv"
)

type ValueType string

const (
	ValueTypeInteger ValueType = "integer"
	ValueTypeFloat   ValueType = "float"
	ValueTypeString  ValueType = "string"
	ValueTypeBoolean ValueType = "boolean"
)

// Value is a typed field value. The line protocol representation is computed
// when the value is created and never changes.
type Value struct {
	Type ValueType

	encoded string
}

func IntValue(i int64) Value {
	return Value{
		Type:    ValueTypeInteger,
		encoded: strconv.FormatInt(i, 10) + "i",
	}
}

// FloatValue returns a float value. NaN and infinite values have no line
// protocol representation: measurements containing them fail validation.
func FloatValue(f float64) Value {
	return Value{
		Type:    ValueTypeFloat,
		encoded: strconv.FormatFloat(f, 'f', -1, 64),
	}
}

func StringValue(s string) Value {
	return Value{
		Type:    ValueTypeString,
		encoded: `"` + Escape(s, '"') + `"`,
	}
}

func BoolValue(b bool) Value {
	return Value{
		Type:    ValueTypeBoolean,
		encoded: strconv.FormatBool(b),
	}
}

// ParseValue builds a value of type t from its textual representation.
func ParseValue(t ValueType, s string) (Value, error) {
	switch t {
	case ValueTypeInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid integer %q: %w", s, err)
		}
		return IntValue(i), nil

	case ValueTypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float %q: %w", s, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("%w: non-finite float %q",
				ErrInvalidValue, s)
		}
		return FloatValue(f), nil

	case ValueTypeString:
		return StringValue(s), nil

	case ValueTypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("invalid boolean %q: %w", s, err)
		}
		return BoolValue(b), nil
	}

	return Value{}, fmt.Errorf("%w %q", ErrInvalidValueType, t)
}

// String returns the line protocol representation of the value, including
// its type suffix or quotes.
func (v Value) String() string {
	return v.encoded
}

// validateEncodedValue checks an encoded field value. FormatFloat encodes
// non-finite floats as "NaN", "+Inf" and "-Inf", which servers reject.
func validateEncodedValue(s string) error {
	switch s {
	case "":
		return fmt.Errorf("%w: empty value", ErrInvalidValue)
	case "NaN", "+Inf", "-Inf":
		return fmt.Errorf("%w: non-finite float %s", ErrInvalidValue, s)
	}

	return nil
}
