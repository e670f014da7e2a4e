package models

import (
	"io"
	"net/http"
	"strings"
)

// checkedTransport turns error statuses and non-JSON bodies into
// ErrModelUnavailable. Reverse proxies in front of local backends tend to
// answer with plain text ("no available server") which the SDK decoders
// would otherwise report as a parse failure.
type checkedTransport struct {
	inner    http.RoundTripper
	provider string
}

func newCheckedTransport(provider string, inner http.RoundTripper) *checkedTransport {
	if inner == nil {
		inner = http.DefaultTransport
	}
	return &checkedTransport{inner: inner, provider: provider}
}

func (t *checkedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, &ErrModelUnavailable{Provider: t.provider, Cause: err}
	}

	if resp.StatusCode >= 400 || !jsonContent(resp.Header.Get("Content-Type")) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &ErrModelUnavailable{
			Provider: t.provider,
			Body:     strings.TrimSpace(string(body)),
		}
	}

	return resp, nil
}

// jsonContent accepts json and ndjson. An empty content type passes.
func jsonContent(ct string) bool {
	return ct == "" || strings.Contains(ct, "json")
}
