package influx

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/galdor/go-ejson"
	"golang.org/x/exp/slices"
)

const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8086
	DefaultDatabase        = "metrics"
	DefaultTargetPrecision = PrecisionMilliseconds
)

type AuthMode string

const (
	// Credentials are sent as the u and p query parameters.
	AuthModeQuery AuthMode = "query"

	// Credentials are sent with HTTP basic authentication.
	AuthModeBasic AuthMode = "basic"
)

var authModes = []AuthMode{AuthModeQuery, AuthModeBasic}

type TargetCfg struct {
	Host            string    `json:"host,omitempty"`
	Port            int       `json:"port,omitempty"`
	TLS             bool      `json:"tls,omitempty"`
	User            string    `json:"user,omitempty"`
	Password        string    `json:"password,omitempty"`
	Database        string    `json:"database,omitempty"`
	RetentionPolicy string    `json:"retention_policy,omitempty"`
	Precision       Precision `json:"precision,omitempty"`
	Auth            AuthMode  `json:"auth,omitempty"`
}

// Target describes the write endpoint of an InfluxDB server. Targets are
// immutable and can be shared between goroutines.
type Target struct {
	host            string
	port            int
	tls             bool
	user            string
	password        string
	secured         bool
	database        string
	retentionPolicy string
	precision       Precision
	precisionCode   string
	auth            AuthMode
}

func (cfg *TargetCfg) ValidateJSON(v *ejson.Validator) {
	v.Check("port", cfg.Port >= 0 && cfg.Port <= 65535, "invalidPort",
		"port must be between 0 and 65535")

	if cfg.Auth != "" {
		v.Check("auth", slices.Contains(authModes, cfg.Auth),
			"invalidAuthMode", "authentication mode must be %q or %q",
			AuthModeQuery, AuthModeBasic)
	}

	if cfg.Password != "" {
		v.CheckStringNotEmpty("user", cfg.User)
	}
}

func NewTarget(cfg TargetCfg) (*Target, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}

	if cfg.Precision == 0 {
		cfg.Precision = DefaultTargetPrecision
	}

	if cfg.Auth == "" {
		cfg.Auth = AuthModeQuery
	}

	precisionCode, err := cfg.Precision.Code()
	if err != nil {
		return nil, err
	}

	if !slices.Contains(authModes, cfg.Auth) {
		return nil, fmt.Errorf("%w %q", ErrInvalidAuthMode, cfg.Auth)
	}

	t := Target{
		host:            cfg.Host,
		port:            cfg.Port,
		tls:             cfg.TLS,
		user:            cfg.User,
		password:        cfg.Password,
		secured:         cfg.User != "" && cfg.Password != "",
		database:        cfg.Database,
		retentionPolicy: cfg.RetentionPolicy,
		precision:       cfg.Precision,
		precisionCode:   precisionCode,
		auth:            cfg.Auth,
	}

	return &t, nil
}

func (t *Target) Host() string {
	return t.host
}

func (t *Target) Port() int {
	return t.port
}

func (t *Target) TLS() bool {
	return t.tls
}

// Secured reports whether both a user and a password were provided.
func (t *Target) Secured() bool {
	return t.secured
}

func (t *Target) User() string {
	return t.user
}

func (t *Target) Database() string {
	return t.database
}

func (t *Target) RetentionPolicy() string {
	return t.retentionPolicy
}

func (t *Target) Precision() Precision {
	return t.precision
}

func (t *Target) PrecisionCode() string {
	return t.precisionCode
}

func (t *Target) AuthMode() AuthMode {
	return t.auth
}

func (t *Target) Address() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

func (t *Target) WriteURL() *url.URL {
	scheme := "http"
	if t.tls {
		scheme = "https"
	}

	query := url.Values{}
	query.Set("db", t.database)
	query.Set("precision", t.precisionCode)

	if t.retentionPolicy != "" {
		query.Set("rp", t.retentionPolicy)
	}

	if t.secured && t.auth == AuthModeQuery {
		query.Set("u", t.user)
		query.Set("p", t.password)
	}

	uri := url.URL{
		Scheme:   scheme,
		Host:     t.Address(),
		Path:     "/write",
		RawQuery: query.Encode(),
	}

	return &uri
}

// WriteRequest is everything a sink needs to send measurements.
type WriteRequest struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte

	NbMeasurements int
}

// NewWriteRequest encodes measurements at the precision of the target and
// builds the request used to send them.
func (t *Target) NewWriteRequest(ms Measurements) (*WriteRequest, error) {
	var body bytes.Buffer
	if err := EncodeMeasurements(ms, t.precision, &body); err != nil {
		return nil, err
	}

	header := make(http.Header)
	header.Set("Content-Type", "text/plain; charset=utf-8")

	if t.secured && t.auth == AuthModeBasic {
		credentials := t.user + ":" + t.password
		header.Set("Authorization", "Basic "+
			base64.StdEncoding.EncodeToString([]byte(credentials)))
	}

	req := WriteRequest{
		Method: http.MethodPost,
		URL:    t.WriteURL(),
		Header: header,
		Body:   body.Bytes(),

		NbMeasurements: len(ms),
	}

	return &req, nil
}
