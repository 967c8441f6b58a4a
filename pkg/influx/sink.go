package influx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/galdor/go-uuid"
)

// Sink sends write requests. A nil error means the write succeeded; the
// status code is zero when no response was received.
type Sink interface {
	Send(context.Context, *WriteRequest) (int, error)
}

type HTTPSink struct {
	Client *http.Client
}

func NewHTTPSink(client *http.Client) *HTTPSink {
	return &HTTPSink{Client: client}
}

func (s *HTTPSink) Send(ctx context.Context, wreq *WriteRequest) (int, error) {
	req, err := http.NewRequestWithContext(ctx, wreq.Method, wreq.URL.String(),
		bytes.NewReader(wreq.Body))
	if err != nil {
		return 0, fmt.Errorf("cannot create request: %w", err)
	}

	for name, values := range wreq.Header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	requestId := uuid.MustGenerate(uuid.V7).String()
	req.Header.Set("X-Request-Id", requestId)

	res, err := s.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("cannot send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return res.StatusCode, nil
	}

	bodyData, _ := io.ReadAll(res.Body)

	bodyString := ""
	if len(bodyData) > 0 {
		// Influx can send incredibly long error messages, sometimes
		// including the entire payload received.
		if len(bodyData) > 200 {
			bodyData = append(bodyData[:200], []byte(" [truncated]")...)
		}

		bodyString = " (" + string(bodyData) + ")"
	}

	return res.StatusCode, fmt.Errorf("%w: request %s failed with status %d%s",
		ErrWriteFailed, requestId, res.StatusCode, bodyString)
}
