// Package netx is the retrieval client: one blocking GET of one remote
// archive to one local path, with the outcome classified for the
// synchronization engine.
package netx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrNotFound is matched by an *HTTPError carrying 404. It is the signal
	// to fall back to the historical endpoint.
	ErrNotFound = errors.New("remote resource not found")

	// ErrEmptyArchive means the transfer succeeded but produced zero bytes.
	// The empty file has already been removed.
	ErrEmptyArchive = errors.New("zero-byte download")
)

// HTTPError is returned for every non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Outcome classifies the result of one Fetch.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotFound
	OutcomeEmpty
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeEmpty:
		return "empty"
	default:
		return "transient"
	}
}

// Classify maps a Fetch error to its outcome. Anything that is neither a
// 404 nor an empty body is transient.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrEmptyArchive):
		return OutcomeEmpty
	default:
		return OutcomeTransient
	}
}

// Fetcher retrieves url into dst and returns the number of bytes written.
type Fetcher interface {
	Fetch(ctx context.Context, url, dst string) (int64, error)
}

// DefaultTimeout bounds a single attempt.
const DefaultTimeout = 60 * time.Second

const userAgent = "raddo (+https://opendata.dwd.de)"

// Client is the HTTP Fetcher.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient returns a client using httpClient (http.DefaultClient when nil)
// and the per-attempt timeout (DefaultTimeout when not positive).
func NewClient(httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{httpClient: httpClient, timeout: timeout}
}

// Fetch downloads url to dst. The body goes to a temporary file next to dst
// which is renamed into place only after a complete, non-empty transfer, so
// a failed attempt never leaves a partial or empty archive behind.
func (c *Client) Fetch(ctx context.Context, url, dst string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return 0, &HTTPError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return writeFileAtomic(dst, resp.Body)
}

func writeFileAtomic(path string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return n, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), ErrEmptyArchive)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return n, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return n, err
	}
	committed = true
	return n, nil
}
