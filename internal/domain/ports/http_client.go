package ports

import "net/http"

// HTTPClient is the subset of *http.Client the upstream adapters use.
// Tests swap it for an httptest-backed client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
