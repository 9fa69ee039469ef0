// Package sdk is the Go client for shipping error events to a SpectraOps
// server. Events are queued in memory and delivered in batches, either when
// the queue reaches BatchSize or on a fixed flush interval.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// Defaults applied by New.
const (
	DefaultBatchSize     = 10
	DefaultFlushInterval = 5 * time.Second
	DefaultHTTPTimeout   = 10 * time.Second
)

// maxEventsPerSend is the server's batch cap. A queue that grew past it,
// through a large BatchSize or requeued failures, is delivered in chunks
// so no single request exceeds what the server accepts.
const maxEventsPerSend = 100

// Event is a single error occurrence to report.
type Event struct {
	Message   string `json:"message"`
	Stack     string `json:"stack,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Config configures a Client.
type Config struct {
	// Endpoint is the base URL of the SpectraOps API. Required.
	Endpoint string
	// APIKey authenticates ingestion. Sent as the x-api-key header.
	APIKey string
	// BatchSize is the queue length that forces an immediate flush.
	BatchSize int
	// FlushInterval is the cadence of the background flush.
	FlushInterval time.Duration
	// Debug enables client-side logging of captures and delivery failures.
	Debug bool
	// HTTPClient overrides the transport. Defaults to a client with a
	// 10 second timeout.
	HTTPClient *http.Client
	// Signals optionally feeds host events (crashes, shutdown) into the
	// client.
	Signals SignalSource
}

// Client buffers and delivers error events. Safe for concurrent use.
type Client struct {
	endpoint      string
	apiKey        string
	batchSize     int
	flushInterval time.Duration
	debug         bool
	httpClient    *http.Client

	mu     sync.Mutex
	queue  []Event
	closed bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	signals     SignalSource
	unsubscribe func()
}

// New creates a Client and starts its background flush loop.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("sdk: endpoint is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	c := &Client{
		endpoint:      cfg.Endpoint,
		apiKey:        cfg.APIKey,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		debug:         cfg.Debug,
		httpClient:    cfg.HTTPClient,
		stopCh:        make(chan struct{}),
		signals:       cfg.Signals,
	}

	c.wg.Add(1)
	go c.flushLoop()

	if c.signals != nil {
		c.unsubscribe = c.signals.Subscribe(c.handleHostEvent)
	}

	return c, nil
}

// Capture queues an error for delivery.
func (c *Client) Capture(err error) {
	if err == nil {
		return
	}
	c.CaptureEvent(Event{Message: err.Error()})
}

// CaptureEvent queues an event for delivery, stamping the capture time when
// the caller did not. Reaching BatchSize triggers an immediate flush.
func (c *Client) CaptureEvent(event Event) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		log.Printf("[spectraops] capture on closed client dropped")
		return
	}
	c.queue = append(c.queue, event)
	full := len(c.queue) >= c.batchSize
	c.mu.Unlock()

	if c.debug {
		log.Printf("[spectraops] captured: %s", event.Message)
	}

	if full {
		c.flush(context.Background())
	}
}

// Flush sends every queued event now. Delivery failures re-queue the batch
// and are reported to the caller.
func (c *Client) Flush(ctx context.Context) error {
	return c.flush(ctx)
}

// Close stops the flush loop and signal subscription, discards the queue,
// and marks the client closed. Idempotent.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		close(c.stopCh)
		c.wg.Wait()

		c.mu.Lock()
		c.closed = true
		c.queue = nil
		c.mu.Unlock()
	})
}

func (c *Client) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.flush(context.Background())
		}
	}
}

// handleHostEvent maps host signals onto the client: errors are captured,
// shutdown triggers a last fire-and-forget flush. The process is going
// away, so delivery errors are ignored.
func (c *Client) handleHostEvent(ev HostEvent) {
	switch ev.Kind {
	case HostError:
		c.Capture(ev.Err)
	case HostShutdown:
		_ = c.flush(context.Background())
	}
}

// flush drains the queue under the mutex, then delivers the drained batch
// outside it in chunks of at most maxEventsPerSend. On failure everything
// not yet delivered is re-appended so no event is lost and none is
// duplicated.
func (c *Client) flush(ctx context.Context) error {
	c.mu.Lock()
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return nil
	}
	batch := c.queue
	c.queue = nil
	c.mu.Unlock()

	for len(batch) > 0 {
		n := len(batch)
		if n > maxEventsPerSend {
			n = maxEventsPerSend
		}

		if err := c.send(ctx, batch[:n]); err != nil {
			c.mu.Lock()
			if !c.closed {
				c.queue = append(batch, c.queue...)
			}
			c.mu.Unlock()

			if c.debug {
				log.Printf("[spectraops] failed to send %d errors: %v", n, err)
			}
			return err
		}

		if c.debug {
			log.Printf("[spectraops] sent batch of %d errors", n)
		}
		batch = batch[n:]
	}
	return nil
}

type batchRequest struct {
	Errors []Event `json:"errors"`
}

func (c *Client) send(ctx context.Context, batch []Event) error {
	body, err := json.Marshal(batchRequest{Errors: batch})
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/api/errors/batch", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}
