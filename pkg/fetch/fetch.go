// Package fetch issues the HTTP request described by a test case and turns
// the outcome into a response document.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ormasoftchile/jsontest/pkg/document"
)

// Response document keys.
const (
	KeyBody   = "body"
	KeyStatus = "status"
	KeyError  = "error"
)

// Client performs GET requests for request-mode tests.
type Client struct {
	HTTP *http.Client
}

// New returns a Client whose requests time out after timeout. Zero means no
// timeout.
func New(timeout time.Duration) *Client {
	return &Client{HTTP: &http.Client{Timeout: timeout}}
}

// URL extracts request.url.
func URL(request document.Value) (string, error) {
	if request.Kind() != document.KindMap {
		return "", errors.New("request must be a mapping with a url")
	}
	u, ok := request.Get("url")
	if !ok {
		return "", errors.New("request.url is required")
	}
	if u.Kind() != document.KindString {
		return "", fmt.Errorf("request.url must be a string, got %s", u.Kind())
	}
	return u.Text(), nil
}

// Fetch issues a GET for request.url. A 2xx response yields {body: ...} (or
// {} for a blank body); any other status yields {status: "<code>"} with the
// body attached when it is JSON. Transport failures and undecodable 2xx
// bodies are returned as errors; see Failure.
func (c *Client) Fetch(ctx context.Context, request document.Value) (document.Value, error) {
	url, err := URL(request)
	if err != nil {
		return document.Value{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return document.Value{}, fmt.Errorf("build request: %w", err)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return document.Value{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return document.Value{}, fmt.Errorf("read response body: %w", err)
	}

	out := document.NewMap()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Set(KeyStatus, document.String(strconv.Itoa(resp.StatusCode)))
		if body, err := document.ParseJSON(data); err == nil {
			out.Set(KeyBody, body)
		}
		return document.FromMap(out), nil
	}

	body, err := document.ParseJSON(data)
	if errors.Is(err, document.ErrNoDocument) {
		return document.FromMap(out), nil
	}
	if err != nil {
		return document.Value{}, fmt.Errorf("decode response body: %w", err)
	}
	out.Set(KeyBody, body)
	return document.FromMap(out), nil
}

// Failure converts an execution error into the response document compared
// against the expectation.
func Failure(err error) document.Value {
	return document.Object(document.P(KeyError, document.String(err.Error())))
}
