package influx

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Precision is the unit of measurement timestamps. Only four units are
// supported by the line protocol; any other duration is representable but
// rejected by every operation which needs a precision code.
type Precision time.Duration

const (
	PrecisionSeconds      = Precision(time.Second)
	PrecisionMilliseconds = Precision(time.Millisecond)
	PrecisionMicroseconds = Precision(time.Microsecond)
	PrecisionNanoseconds  = Precision(time.Nanosecond)
)

// DefaultPrecision is used by convenience constructors and by timestamp
// rebasing when no other supported precision applies. Nanoseconds match the
// behaviour of InfluxDB 0.9 which only accepted nanosecond timestamps.
const DefaultPrecision = PrecisionNanoseconds

var precisionCodes = map[Precision]string{
	PrecisionSeconds:      "s",
	PrecisionMilliseconds: "ms",
	PrecisionMicroseconds: "u",
	PrecisionNanoseconds:  "ns",
}

func ParsePrecision(code string) (Precision, error) {
	for p, c := range precisionCodes {
		if c == code {
			return p, nil
		}
	}

	return 0, fmt.Errorf("%w %q", ErrUnsupportedPrecision, code)
}

func (p Precision) Duration() time.Duration {
	return time.Duration(p)
}

func (p Precision) IsSupported() bool {
	_, found := precisionCodes[p]
	return found
}

// Code returns the precision code expected by the write endpoint.
func (p Precision) Code() (string, error) {
	code, found := precisionCodes[p]
	if !found {
		return "", fmt.Errorf("%w %v", ErrUnsupportedPrecision,
			time.Duration(p))
	}

	return code, nil
}

func (p Precision) String() string {
	if code, found := precisionCodes[p]; found {
		return code
	}

	return time.Duration(p).String()
}

// Convert converts a timestamp expressed in the from precision to the p
// precision. Conversions to a coarser unit truncate toward zero; conversions
// to a finer unit fail with ErrTimestampOutOfRange if the result does not fit
// in 64 bits.
func (p Precision) Convert(timestamp int64, from Precision) (int64, error) {
	if !p.IsSupported() {
		return 0, fmt.Errorf("%w %v", ErrUnsupportedPrecision,
			time.Duration(p))
	}

	if !from.IsSupported() {
		return 0, fmt.Errorf("%w %v", ErrUnsupportedPrecision,
			time.Duration(from))
	}

	switch {
	case from == p:
		return timestamp, nil
	case from > p:
		factor := int64(from / p)
		if timestamp > math.MaxInt64/factor || timestamp < math.MinInt64/factor {
			return 0, fmt.Errorf("%w: %d%s cannot be represented in %s",
				ErrTimestampOutOfRange, timestamp, from, p)
		}

		return timestamp * factor, nil
	default:
		return timestamp / int64(p/from), nil
	}
}

// FromMillis converts a number of milliseconds since the epoch.
func (p Precision) FromMillis(ms int64) (int64, error) {
	return p.Convert(ms, PrecisionMilliseconds)
}

func (p Precision) FromTime(t time.Time) (int64, error) {
	return p.Convert(t.UnixNano(), PrecisionNanoseconds)
}

func (p Precision) MarshalJSON() ([]byte, error) {
	code, err := p.Code()
	if err != nil {
		return nil, err
	}

	return json.Marshal(code)
}

func (p *Precision) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("invalid precision: %w", err)
	}

	p2, err := ParsePrecision(code)
	if err != nil {
		return err
	}

	*p = p2
	return nil
}
