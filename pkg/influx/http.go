package influx

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"math"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/galdor/go-ejson"
	"github.com/galdor/go-log"
)

type HTTPClientCfg struct {
	Log *log.Logger `json:"-"`

	Timeout        int      `json:"timeout,omitempty"` // seconds
	CACertificates []string `json:"ca_certificates,omitempty"`
	LogRequests    bool     `json:"log_requests,omitempty"`
}

func (cfg *HTTPClientCfg) ValidateJSON(v *ejson.Validator) {
	v.Check("timeout", cfg.Timeout >= 0, "invalidTimeout",
		"timeout must be a positive number of seconds")

	v.Push("ca_certificates")
	for i, path := range cfg.CACertificates {
		v.CheckStringNotEmpty(i, path)
	}
	v.Pop()
}

func NewHTTPClient(cfg HTTPClientCfg) (*http.Client, error) {
	if cfg.Log == nil {
		cfg.Log = log.DefaultLogger("influx_http")
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,

		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		MaxIdleConns: 100,

		IdleConnTimeout:       60 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if len(cfg.CACertificates) > 0 {
		pool, err := loadCertificates(cfg.CACertificates)
		if err != nil {
			return nil, err
		}

		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	client := &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
		Transport: &roundTripper{
			RoundTripper: transport,
			log:          cfg.Log,
			logRequests:  cfg.LogRequests,
		},
	}

	return client, nil
}

func loadCertificates(paths []string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %q: %w", path, err)
		}

		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("cannot load certificates from %q", path)
		}
	}

	return pool, nil
}

type roundTripper struct {
	http.RoundTripper

	log         *log.Logger
	logRequests bool
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	res, err := rt.RoundTripper.RoundTrip(req)

	if err == nil && rt.logRequests {
		// Never log the query string, it may contain credentials.
		rt.log.Info("%s %s %s %s", req.Method, req.URL.Path,
			strconv.Itoa(res.StatusCode), formatSeconds(time.Since(start)))
	}

	return res, err
}

func formatSeconds(d time.Duration) string {
	s := d.Seconds()

	switch {
	case s < 0.001:
		return fmt.Sprintf("%dµs", int(math.Ceil(s*1e6)))
	case s < 1.0:
		return fmt.Sprintf("%dms", int(math.Ceil(s*1e3)))
	default:
		return fmt.Sprintf("%.1fs", s)
	}
}
