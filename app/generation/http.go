package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds one synchronous generation call.
const DefaultTimeout = 120 * time.Second

type httpError struct {
	Status int
	Body   string
}

func (e httpError) Error() string { return fmt.Sprintf("http %d: %s", e.Status, e.Body) }

// HTTPDispatcher posts requests to the generation function and waits for the
// result. Calls are not retried: a retry could charge the user twice.
type HTTPDispatcher struct {
	url   string
	key   string
	httpc *http.Client
}

// NewHTTPDispatcher builds a dispatcher for url. A nil client gets one with
// DefaultTimeout.
func NewHTTPDispatcher(url, key string, httpc *http.Client) *HTTPDispatcher {
	if httpc == nil {
		httpc = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPDispatcher{url: url, key: key, httpc: httpc}
}

func (d *HTTPDispatcher) Transport() string { return TransportHTTP }

func (d *HTTPDispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if d.key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+d.key)
	}

	res, err := d.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		// keep a bounded slice of the body for the log line
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, httpError{Status: res.StatusCode, Body: string(snippet)})
	}

	var out Result
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if out.Title == "" && out.Content == "" {
		return nil, fmt.Errorf("%w: empty result", ErrUpstream)
	}
	return &out, nil
}
