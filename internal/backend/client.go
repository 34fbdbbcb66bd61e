package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/pkg/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	maxBody      = 1 << 20
	maxErrorBody = 64 << 10
)

type Recorder interface {
	ObserveBackend(endpoint, status string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveBackend(string, string, time.Duration) {}

type response struct {
	status int
	body   []byte
}

// Client is a JSON-over-HTTP client for one backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker[response]
	metrics    Recorder
	log        *zap.Logger
}

func NewClient(name, baseURL string, timeout time.Duration, metrics Recorder, log *zap.Logger) *Client {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	settings := circuitbreaker.DefaultSettings(name)
	settings.Ignore = func(err error) bool {
		return errors.Is(err, context.Canceled)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[response](settings, log),
		metrics: metrics,
		log:     log,
	}
}

// do sends in as JSON (if non-nil) and decodes a 2xx body into out (if non-nil).
// Non-2xx answers become *APIError. 5xx answers and transport errors count against the breaker.
func (c *Client) do(ctx context.Context, endpoint, method, path string, header http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (response, error) {
		res, err := c.httpClient.Do(req)
		if err != nil {
			return response{}, err
		}
		defer res.Body.Close()

		data, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
		if err != nil {
			return response{}, fmt.Errorf("read body: %w", err)
		}
		r := response{status: res.StatusCode, body: data}
		if res.StatusCode >= http.StatusInternalServerError {
			return r, apiError(r)
		}
		return r, nil
	})

	status := "error"
	if resp.status != 0 {
		status = strconv.Itoa(resp.status)
	}
	c.metrics.ObserveBackend(endpoint, status, time.Since(start))

	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	if resp.status < 200 || resp.status > 299 {
		return apiError(resp)
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func apiError(r response) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	body := r.body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	_ = json.Unmarshal(body, &payload)
	return &APIError{Status: r.status, Message: payload.Error}
}
