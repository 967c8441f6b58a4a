package influx

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTargetDefaults(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	target, err := NewTarget(TargetCfg{})
	require.NoError(err)

	assert.Equal("127.0.0.1", target.Host())
	assert.Equal(8086, target.Port())
	assert.False(target.TLS())
	assert.False(target.Secured())
	assert.Equal("metrics", target.Database())
	assert.Equal(PrecisionMilliseconds, target.Precision())
	assert.Equal("ms", target.PrecisionCode())
	assert.Equal(AuthModeQuery, target.AuthMode())
	assert.Equal("127.0.0.1:8086", target.Address())

	assert.Equal("http://127.0.0.1:8086/write?db=metrics&precision=ms",
		target.WriteURL().String())
}

func TestTargetWriteURL(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		cfg     TargetCfg
		secured bool
		uri     string
	}{
		{TargetCfg{Host: "influx.example.com", Database: "telegraf",
			Precision: PrecisionSeconds},
			false,
			"http://influx.example.com:8086/write?db=telegraf&precision=s"},
		{TargetCfg{Host: "influx.example.com", Port: 9000,
			User: "bob", Password: "secret"},
			true,
			"http://influx.example.com:9000/write" +
				"?db=metrics&p=secret&precision=ms&u=bob"},
		{TargetCfg{User: "bob"},
			false,
			"http://127.0.0.1:8086/write?db=metrics&precision=ms"},
		{TargetCfg{Password: "secret"},
			false,
			"http://127.0.0.1:8086/write?db=metrics&precision=ms"},
		{TargetCfg{TLS: true, Precision: PrecisionMicroseconds},
			false,
			"https://127.0.0.1:8086/write?db=metrics&precision=u"},
		{TargetCfg{Precision: PrecisionNanoseconds, RetentionPolicy: "autogen"},
			false,
			"http://127.0.0.1:8086/write?db=metrics&precision=ns&rp=autogen"},
		{TargetCfg{Host: "::1", Database: "a b"},
			false,
			"http://[::1]:8086/write?db=a+b&precision=ms"},
		{TargetCfg{User: "bob", Password: "secret", Auth: AuthModeBasic},
			true,
			"http://127.0.0.1:8086/write?db=metrics&precision=ms"},
	}

	for _, test := range tests {
		target, err := NewTarget(test.cfg)
		if assert.NoError(err, test.uri) {
			assert.Equal(test.secured, target.Secured(), test.uri)
			assert.Equal(test.uri, target.WriteURL().String())
		}
	}
}

func TestNewTargetErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := NewTarget(TargetCfg{Precision: Precision(time.Minute)})
	assert.ErrorIs(err, ErrUnsupportedPrecision)

	_, err = NewTarget(TargetCfg{Auth: "digest"})
	assert.ErrorIs(err, ErrInvalidAuthMode)
}

func TestTargetNewWriteRequest(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	target, err := NewTarget(TargetCfg{Database: "db"})
	require.NoError(err)

	m1 := testMeasurement(t, "cpu", Tags{"host": "a"}, Values{"value": "42i"},
		1_500_000_000_000_000_000, PrecisionNanoseconds)
	m2 := testMeasurement(t, "mem", nil, Values{"free": "12i"},
		1_500_000_000, PrecisionSeconds)

	req, err := target.NewWriteRequest(Measurements{m1, m2})
	require.NoError(err)

	assert.Equal(http.MethodPost, req.Method)
	assert.Equal("http://127.0.0.1:8086/write?db=db&precision=ms",
		req.URL.String())
	assert.Equal("text/plain; charset=utf-8", req.Header.Get("Content-Type"))
	assert.Equal("", req.Header.Get("Authorization"))
	assert.Equal(2, req.NbMeasurements)
	assert.Equal("cpu,host=a value=42i 1500000000000\n"+
		"mem free=12i 1500000000000\n", string(req.Body))

	m3 := testMeasurement(t, "empty", nil, nil, 1, PrecisionSeconds)
	_, err = target.NewWriteRequest(Measurements{m1, m3})
	assert.ErrorIs(err, ErrEmptyFieldSet)
}

func TestTargetNewWriteRequestBasicAuth(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	target, err := NewTarget(TargetCfg{
		User:     "bob",
		Password: "secret",
		Auth:     AuthModeBasic,
	})
	require.NoError(err)

	m := testMeasurement(t, "m", nil, Values{"v": "1i"}, 1, PrecisionSeconds)

	req, err := target.NewWriteRequest(Measurements{m})
	require.NoError(err)

	assert.Equal("Basic Ym9iOnNlY3JldA==", req.Header.Get("Authorization"))
	assert.False(req.URL.Query().Has("p"))
}
