package deploy

import (
	"context"
	"io"
	"net/http"
	"time"
)

// probeTimeout bounds a single health request.
const probeTimeout = 5 * time.Second

func newProbeClient() *http.Client {
	// A server that accepts the connection but stalls on headers (model
	// still loading) must not eat the whole poll interval.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = probeTimeout

	return &http.Client{
		Transport: transport,
		Timeout:   probeTimeout,
	}
}

// probe reports whether GET url answered 200. Any other outcome, including
// connection errors, means "not yet healthy".
func (m *Manager) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}
