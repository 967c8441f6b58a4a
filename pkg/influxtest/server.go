// Package influxtest provides a fake InfluxDB 1.x server which records the
// write requests it receives.
package influxtest

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/julienschmidt/httprouter"
)

type Request struct {
	Query  url.Values
	Header http.Header
	Body   string
}

type Server struct {
	*httptest.Server

	// Status is the status code returned by the write endpoint.
	Status int
	// ErrorBody is sent along with non-2xx statuses.
	ErrorBody string

	requests []Request
	lock     sync.Mutex
}

func NewServer(t *testing.T) *Server {
	s := Server{
		Status: http.StatusNoContent,
	}

	router := httprouter.New()
	router.GET("/ping", s.hPing)
	router.POST("/write", s.hWrite)

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Server.Close)

	return &s
}

// HostPort returns the host and port the server listens on.
func (s *Server) HostPort(t *testing.T) (string, int) {
	uri, err := url.Parse(s.URL)
	if err != nil {
		t.Fatalf("cannot parse server url: %v", err)
	}

	host, portString, err := net.SplitHostPort(uri.Host)
	if err != nil {
		t.Fatalf("cannot parse server address: %v", err)
	}

	port, err := strconv.Atoi(portString)
	if err != nil {
		t.Fatalf("invalid server port %q: %v", portString, err)
	}

	return host, port
}

func (s *Server) SetStatus(status int, body string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.Status = status
	s.ErrorBody = body
}

func (s *Server) Requests() []Request {
	s.lock.Lock()
	defer s.lock.Unlock()

	requests := make([]Request, len(s.requests))
	copy(requests, s.requests)

	return requests
}

func (s *Server) hPing(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) hWrite(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.requests = append(s.requests, Request{
		Query:  req.URL.Query(),
		Header: req.Header.Clone(),
		Body:   string(body),
	})

	w.WriteHeader(s.Status)
	if s.Status >= 300 && s.ErrorBody != "" {
		io.WriteString(w, s.ErrorBody)
	}
}
