package influx

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"
)

// The field key used by single value constructors.
const DefaultValueKey = "value"

type Tags map[string]string

// Values maps field keys to encoded field values, i.e. values which already
// carry their type marker (see Value).
type Values map[string]string

// Measurement is a single sample. Measurements are not safe for concurrent
// mutation: create one measurement per sample and do not share it.
type Measurement struct {
	name      string
	tags      Tags
	values    Values
	timestamp int64
	precision Precision
}

type Measurements []*Measurement

var settablePrecisions = []Precision{
	PrecisionSeconds,
	PrecisionMilliseconds,
	PrecisionMicroseconds,
}

// NewMeasurement creates a measurement. Tags and values are copied. A zero
// precision means DefaultPrecision.
func NewMeasurement(name string, tags Tags, values Values, timestamp int64, precision Precision) (*Measurement, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	if precision == 0 {
		precision = DefaultPrecision
	}

	m := Measurement{
		name:      name,
		tags:      make(Tags, len(tags)),
		values:    make(Values, len(values)),
		timestamp: timestamp,
		precision: precision,
	}

	for k, v := range tags {
		m.tags[k] = v
	}

	for k, v := range values {
		m.values[k] = v
	}

	return &m, nil
}

// NewValueMeasurement creates a measurement with a single value stored with
// the "value" key, timestamped with the current time using the default
// precision.
func NewValueMeasurement(name string, tags Tags, value Value) (*Measurement, error) {
	timestamp, _ := DefaultPrecision.FromTime(time.Now())
	return NewValueMeasurementWithTimestamp(name, tags, value, timestamp)
}

// NewValueMeasurementWithTimestamp is similar to NewValueMeasurement but uses
// an explicit timestamp expressed in the default precision.
func NewValueMeasurementWithTimestamp(name string, tags Tags, value Value, timestamp int64) (*Measurement, error) {
	values := Values{DefaultValueKey: value.String()}
	return NewMeasurement(name, tags, values, timestamp, DefaultPrecision)
}

func NewIntMeasurement(name string, tags Tags, i int64) (*Measurement, error) {
	return NewValueMeasurement(name, tags, IntValue(i))
}

func NewFloatMeasurement(name string, tags Tags, f float64) (*Measurement, error) {
	return NewValueMeasurement(name, tags, FloatValue(f))
}

func NewStringMeasurement(name string, tags Tags, s string) (*Measurement, error) {
	return NewValueMeasurement(name, tags, StringValue(s))
}

func NewBoolMeasurement(name string, tags Tags, b bool) (*Measurement, error) {
	return NewValueMeasurement(name, tags, BoolValue(b))
}

func (m *Measurement) Name() string {
	return m.name
}

// Tags returns a copy of the tags of the measurement.
func (m *Measurement) Tags() Tags {
	tags := make(Tags, len(m.tags))
	for k, v := range m.tags {
		tags[k] = v
	}

	return tags
}

func (m *Measurement) Tag(key string) (string, bool) {
	value, found := m.tags[key]
	return value, found
}

// Values returns a copy of the encoded values of the measurement.
func (m *Measurement) Values() Values {
	values := make(Values, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}

	return values
}

func (m *Measurement) Value(key string) (string, bool) {
	value, found := m.values[key]
	return value, found
}

func (m *Measurement) Timestamp() int64 {
	return m.timestamp
}

func (m *Measurement) Precision() Precision {
	return m.precision
}

// Validate reports whether the measurement can be encoded.
func (m *Measurement) Validate() error {
	if m.name == "" {
		return ErrInvalidName
	}

	if err := validateToken(m.name); err != nil {
		return fmt.Errorf("invalid name %q: %w", m.name, err)
	}

	if len(m.values) == 0 {
		return ErrEmptyFieldSet
	}

	for key, value := range m.tags {
		if err := validateToken(key); err != nil {
			return fmt.Errorf("invalid tag key %q: %w", key, err)
		}

		if err := validateToken(value); err != nil {
			return fmt.Errorf("invalid value for tag %q: %w", key, err)
		}
	}

	for key, value := range m.values {
		if err := validateToken(key); err != nil {
			return fmt.Errorf("invalid field key %q: %w", key, err)
		}

		if err := validateEncodedValue(value); err != nil {
			return fmt.Errorf("invalid value for field %q: %w", key, err)
		}
	}

	return nil
}

func (m *Measurement) SetName(name string) *Measurement {
	m.name = name
	return m
}

// SetTags replaces all tags of the measurement.
func (m *Measurement) SetTags(tags Tags) *Measurement {
	m.tags = make(Tags, len(tags))
	return m.AddTags(tags)
}

// SetValues replaces all values of the measurement. Values must already be
// encoded.
func (m *Measurement) SetValues(values Values) *Measurement {
	m.values = make(Values, len(values))
	for k, v := range values {
		m.values[k] = v
	}

	return m
}

// SetTimestamp sets the timestamp of the measurement. The timestamp is
// expressed in the precision of the measurement.
func (m *Measurement) SetTimestamp(timestamp int64) *Measurement {
	m.timestamp = timestamp
	return m
}

func (m *Measurement) SetTime(t time.Time) (*Measurement, error) {
	timestamp, err := m.precision.FromTime(t)
	if err != nil {
		return m, err
	}

	m.timestamp = timestamp
	return m, nil
}

func (m *Measurement) AddTag(key, value string) *Measurement {
	m.tags[key] = value
	return m
}

func (m *Measurement) AddTags(tags Tags) *Measurement {
	for k, v := range tags {
		m.tags[k] = v
	}

	return m
}

func (m *Measurement) AddValue(key string, value Value) *Measurement {
	m.values[key] = value.String()
	return m
}

func (m *Measurement) AddInt(key string, i int64) *Measurement {
	return m.AddValue(key, IntValue(i))
}

func (m *Measurement) AddFloat(key string, f float64) *Measurement {
	return m.AddValue(key, FloatValue(f))
}

func (m *Measurement) AddString(key string, s string) *Measurement {
	return m.AddValue(key, StringValue(s))
}

func (m *Measurement) AddBool(key string, b bool) *Measurement {
	return m.AddValue(key, BoolValue(b))
}

// WithPrecision changes the precision of the measurement; the timestamp is
// not converted. Only seconds, milliseconds and microseconds are accepted;
// other precisions leave the measurement unchanged and ErrPrecisionRejected
// is returned along with the measurement.
func (m *Measurement) WithPrecision(precision Precision) (*Measurement, error) {
	if !slices.Contains(settablePrecisions, precision) {
		return m, fmt.Errorf("%w (precision: %v)", ErrPrecisionRejected,
			precision)
	}

	m.precision = precision
	return m, nil
}

// RebaseTimestamp sets the timestamp of the measurement from a number of
// milliseconds since the epoch, converted to the precision of the
// measurement. Measurements whose precision is neither seconds, milliseconds
// nor microseconds are rebased in DefaultPrecision. The measurement is left
// unchanged if the timestamp cannot be converted.
func (m *Measurement) RebaseTimestamp(ms int64) (*Measurement, error) {
	precision := m.precision
	if !slices.Contains(settablePrecisions, precision) {
		precision = DefaultPrecision
	}

	timestamp, err := precision.FromMillis(ms)
	if err != nil {
		return m, err
	}

	m.timestamp = timestamp

	return m, nil
}
