package influx

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrecisionCode(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		p    Precision
		code string
	}{
		{PrecisionSeconds, "s"},
		{PrecisionMilliseconds, "ms"},
		{PrecisionMicroseconds, "u"},
		{PrecisionNanoseconds, "ns"},
	}

	for _, test := range tests {
		code, err := test.p.Code()
		if assert.NoError(err, test.code) {
			assert.Equal(test.code, code)
		}

		p, err := ParsePrecision(test.code)
		if assert.NoError(err, test.code) {
			assert.Equal(test.p, p)
		}
	}
}

func TestPrecisionCodeUnsupported(t *testing.T) {
	assert := assert.New(t)

	for _, p := range []Precision{
		Precision(time.Minute),
		Precision(time.Hour),
		Precision(10 * time.Millisecond),
		0,
	} {
		code, err := p.Code()
		assert.ErrorIs(err, ErrUnsupportedPrecision, p.String())
		assert.Equal("", code)
	}

	_, err := ParsePrecision("m")
	assert.ErrorIs(err, ErrUnsupportedPrecision)
}

func TestPrecisionConvert(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		timestamp int64
		from      Precision
		to        Precision
		result    int64
	}{
		{1000, PrecisionMilliseconds, PrecisionSeconds, 1},
		{1999, PrecisionMilliseconds, PrecisionSeconds, 1},
		{-1500, PrecisionMilliseconds, PrecisionSeconds, -1},
		{1000, PrecisionMilliseconds, PrecisionMilliseconds, 1000},
		{1000, PrecisionMilliseconds, PrecisionMicroseconds, 1_000_000},
		{1000, PrecisionMilliseconds, PrecisionNanoseconds, 1_000_000_000},
		{1_500_000_000, PrecisionSeconds, PrecisionNanoseconds,
			1_500_000_000_000_000_000},
		{1_500_000_000_123_456_789, PrecisionNanoseconds, PrecisionMicroseconds,
			1_500_000_000_123_456},
		{math.MaxInt64 / 1_000_000, PrecisionMilliseconds, PrecisionNanoseconds,
			math.MaxInt64 / 1_000_000 * 1_000_000},
		{math.MinInt64 / 1000, PrecisionSeconds, PrecisionMilliseconds,
			math.MinInt64 / 1000 * 1000},
		{math.MaxInt64, PrecisionNanoseconds, PrecisionSeconds,
			math.MaxInt64 / 1_000_000_000},
	}

	for _, test := range tests {
		result, err := test.to.Convert(test.timestamp, test.from)
		if assert.NoError(err) {
			assert.Equal(test.result, result,
				"%d %v -> %v", test.timestamp, test.from, test.to)
		}
	}

	_, err := Precision(time.Minute).Convert(1, PrecisionSeconds)
	assert.ErrorIs(err, ErrUnsupportedPrecision)

	_, err = PrecisionSeconds.Convert(1, Precision(time.Minute))
	assert.ErrorIs(err, ErrUnsupportedPrecision)

	overflows := []struct {
		timestamp int64
		from      Precision
		to        Precision
	}{
		{math.MaxInt64 / 1000, PrecisionMilliseconds, PrecisionNanoseconds},
		{math.MaxInt64/1_000_000 + 1, PrecisionMilliseconds, PrecisionNanoseconds},
		{math.MinInt64/1000 - 1, PrecisionSeconds, PrecisionMilliseconds},
		{math.MaxInt64, PrecisionMicroseconds, PrecisionNanoseconds},
	}

	for _, test := range overflows {
		_, err := test.to.Convert(test.timestamp, test.from)
		assert.ErrorIs(err, ErrTimestampOutOfRange,
			"%d %v -> %v", test.timestamp, test.from, test.to)
	}
}

func TestPrecisionFromMillis(t *testing.T) {
	assert := assert.New(t)

	ts, err := PrecisionMicroseconds.FromMillis(1000)
	if assert.NoError(err) {
		assert.Equal(int64(1_000_000), ts)
	}

	_, err = Precision(time.Hour).FromMillis(1000)
	assert.ErrorIs(err, ErrUnsupportedPrecision)
}

func TestPrecisionFromTime(t *testing.T) {
	assert := assert.New(t)

	tm := time.Date(2017, 7, 14, 2, 40, 0, 123_456_789, time.UTC)

	ts, err := PrecisionSeconds.FromTime(tm)
	if assert.NoError(err) {
		assert.Equal(tm.Unix(), ts)
	}

	ts, err = PrecisionMilliseconds.FromTime(tm)
	if assert.NoError(err) {
		assert.Equal(tm.UnixMilli(), ts)
	}

	ts, err = PrecisionNanoseconds.FromTime(tm)
	if assert.NoError(err) {
		assert.Equal(tm.UnixNano(), ts)
	}
}

func TestPrecisionJSON(t *testing.T) {
	assert := assert.New(t)

	var value struct {
		Precision Precision `json:"precision"`
	}

	err := json.Unmarshal([]byte(`{"precision": "u"}`), &value)
	if assert.NoError(err) {
		assert.Equal(PrecisionMicroseconds, value.Precision)
	}

	err = json.Unmarshal([]byte(`{"precision": "h"}`), &value)
	assert.ErrorIs(err, ErrUnsupportedPrecision)

	err = json.Unmarshal([]byte(`{"precision": 42}`), &value)
	assert.Error(err)

	data, err := json.Marshal(PrecisionSeconds)
	if assert.NoError(err) {
		assert.Equal(`"s"`, string(data))
	}

	_, err = json.Marshal(Precision(time.Minute))
	assert.Error(err)
}
