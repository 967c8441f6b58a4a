package influx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/galdor/go-ejson"
	"github.com/galdor/go-log"
)

type ClientCfg struct {
	Log      *log.Logger `json:"-"`
	Sink     Sink        `json:"-"`
	Hostname string      `json:"-"`

	Target        TargetCfg     `json:"target"`
	HTTP          HTTPClientCfg `json:"http"`
	BatchSize     int           `json:"batch_size,omitempty"`
	FlushInterval int           `json:"flush_interval,omitempty"` // seconds
	Tags          Tags          `json:"tags,omitempty"`
	GoProbe       bool          `json:"go_probe,omitempty"`
}

// Client buffers measurements and sends them in batches. Measurements can
// also be sent synchronously with SendMeasurements.
type Client struct {
	Cfg    ClientCfg
	Log    *log.Logger
	Target *Target
	Sink   Sink

	tags Tags

	measurementsChan chan Measurements
	measurements     Measurements

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func (cfg *ClientCfg) ValidateJSON(v *ejson.Validator) {
	v.CheckOptionalObject("target", &cfg.Target)
	v.CheckOptionalObject("http", &cfg.HTTP)

	v.Check("batch_size", cfg.BatchSize >= 0, "invalidBatchSize",
		"batch size must be a positive integer")
	v.Check("flush_interval", cfg.FlushInterval >= 0, "invalidFlushInterval",
		"flush interval must be a positive number of seconds")

	v.Push("tags")
	for name, value := range cfg.Tags {
		v.CheckStringNotEmpty(name, value)
	}
	v.Pop()
}

func NewClient(cfg ClientCfg) (*Client, error) {
	if cfg.Log == nil {
		cfg.Log = log.DefaultLogger("influx")
	}

	target, err := NewTarget(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid target: %w", err)
	}

	if cfg.Sink == nil {
		httpCfg := cfg.HTTP
		httpCfg.Log = cfg.Log.Child("http", log.Data{})

		httpClient, err := NewHTTPClient(httpCfg)
		if err != nil {
			return nil, fmt.Errorf("cannot create http client: %w", err)
		}

		cfg.Sink = NewHTTPSink(httpClient)
	}

	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10_000
	}

	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 1
	}

	tags := make(Tags)
	if cfg.Hostname != "" {
		tags["host"] = cfg.Hostname
	}
	for name, value := range cfg.Tags {
		tags[name] = value
	}

	for name, value := range tags {
		if err := validateToken(name); err != nil {
			return nil, fmt.Errorf("invalid tag key %q: %w", name, err)
		}

		if err := validateToken(value); err != nil {
			return nil, fmt.Errorf("invalid value for tag %q: %w", name, err)
		}
	}

	c := &Client{
		Cfg:    cfg,
		Log:    cfg.Log,
		Target: target,
		Sink:   cfg.Sink,

		tags: tags,

		measurementsChan: make(chan Measurements),

		stopChan: make(chan struct{}),
	}

	return c, nil
}

func (c *Client) Start() {
	c.wg.Add(1)
	go c.main()

	if c.Cfg.GoProbe {
		c.wg.Add(1)
		go c.goProbeMain()
	}
}

// Stop flushes pending measurements and waits for background goroutines.
func (c *Client) Stop() {
	close(c.stopChan)
	c.wg.Wait()

	if httpSink, ok := c.Sink.(*HTTPSink); ok {
		httpSink.Client.CloseIdleConnections()
	}
}

func (c *Client) main() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Duration(c.Cfg.FlushInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			c.flush()
			return

		case ms := <-c.measurementsChan:
			c.enqueueMeasurements(ms)

		case <-ticker.C:
			c.flush()
		}
	}
}

func (c *Client) EnqueueMeasurement(m *Measurement) {
	c.EnqueueMeasurements(Measurements{m})
}

func (c *Client) EnqueueMeasurements(ms Measurements) {
	// Do not block forever if the client is stopping.

	select {
	case <-c.stopChan:
		return

	case c.measurementsChan <- ms:
	}
}

// SendMeasurements sends measurements immediately, bypassing the batch. It
// can be called from any goroutine.
func (c *Client) SendMeasurements(ctx context.Context, ms Measurements) error {
	if len(ms) == 0 {
		return nil
	}

	req, err := c.NewWriteRequest(ms)
	if err != nil {
		return err
	}

	_, err = c.Sink.Send(ctx, req)
	return err
}

// NewWriteRequest returns the request SendMeasurements would send, with
// client tags added to each measurement.
func (c *Client) NewWriteRequest(ms Measurements) (*WriteRequest, error) {
	ms2 := make(Measurements, 0, len(ms))
	for _, m := range ms {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("invalid measurement %q: %w", m.Name(), err)
		}

		ms2 = append(ms2, c.finalizeMeasurement(m))
	}

	return c.Target.NewWriteRequest(ms2)
}

func (c *Client) enqueueMeasurements(ms Measurements) {
	for _, m := range ms {
		if err := m.Validate(); err != nil {
			c.Log.Error("ignoring measurement %q: %v", m.Name(), err)
			continue
		}

		c.measurements = append(c.measurements, c.finalizeMeasurement(m))
	}

	if len(c.measurements) >= c.Cfg.BatchSize {
		c.flush()
	}
}

// finalizeMeasurement adds client tags to the measurement; non-empty tags of
// the measurement itself take precedence.
func (c *Client) finalizeMeasurement(m *Measurement) *Measurement {
	if len(c.tags) == 0 {
		return m
	}

	tags := make(Tags, len(c.tags)+len(m.tags))
	for key, value := range c.tags {
		if value != "" {
			tags[key] = value
		}
	}
	for key, value := range m.tags {
		if value != "" {
			tags[key] = value
		}
	}

	return m.SetTags(tags)
}

func (c *Client) flush() {
	if len(c.measurements) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Failed batches are dropped: retrying is left to the caller, who can
	// use SendMeasurements.
	if err := c.send(ctx, c.measurements); err != nil {
		c.Log.Error("cannot send %d measurements: %v",
			len(c.measurements), err)
	}

	c.measurements = nil
}

func (c *Client) send(ctx context.Context, ms Measurements) error {
	if len(ms) == 0 {
		return nil
	}

	req, err := c.Target.NewWriteRequest(ms)
	if err != nil {
		return err
	}

	if _, err := c.Sink.Send(ctx, req); err != nil {
		return err
	}

	return nil
}
