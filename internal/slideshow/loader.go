package slideshow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Loader preloads one photo fully before the hidden layer may arm. A Load
// error still counts as "ready" to the caller so a broken image cannot stall
// the rotation; the error is only worth logging.
type Loader interface {
	Load(ctx context.Context, src string) error
}

// HTTPLoader fetches photo sources over HTTP, falling back to the local
// filesystem for plain paths.
type HTTPLoader struct {
	httpClient *http.Client
}

// NewHTTPLoader creates a loader with the given request timeout
// (0 = 10 seconds).
func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPLoader{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Load reads the photo to completion and discards it, warming any cache
// along the way.
func (l *HTTPLoader) Load(ctx context.Context, src string) error {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return loadFile(src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("failed to build preload request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("preload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("preload returned status %d", resp.StatusCode)
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("preload read failed: %w", err)
	}

	return nil
}

func loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("preload open failed: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(io.Discard, f); err != nil {
		return fmt.Errorf("preload read failed: %w", err)
	}
	return nil
}
