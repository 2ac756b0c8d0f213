package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/jonathan/transcript-pipeline/internal/job"
)

// maxDownloadBytes bounds a single source download.
const maxDownloadBytes = 2 << 30

// HTTPLoader downloads job sources of kind remote-url.
type HTTPLoader struct {
	client *http.Client
}

// NewHTTPLoader creates a loader with a bounded request timeout.
func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	return &HTTPLoader{client: &http.Client{Timeout: timeout}}
}

// Load downloads the source URL. The filename is taken from the
// Content-Disposition header when present, falling back to the URL path.
func (l *HTTPLoader) Load(ctx context.Context, src job.Source) ([]byte, string, error) {
	if src.Kind != job.SourceRemoteURL {
		return nil, "", fmt.Errorf("http loader cannot handle source kind %q", src.Kind)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Value, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request for %s: %w", src.Value, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s: %w", src.Value, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download %s: unexpected status %s", src.Value, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body of %s: %w", src.Value, err)
	}
	return data, downloadFilename(resp, src.Value), nil
}

// downloadFilename picks a filename for a downloaded source.
func downloadFilename(resp *http.Response, rawURL string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return path.Base(name)
			}
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if name := path.Base(u.Path); name != "" && name != "." && name != "/" {
			return name
		}
	}
	return ""
}

// KindLoader dispatches to one loader per source kind.
type KindLoader map[job.SourceKind]FileLoader

// Load delegates to the loader registered for the source's kind.
func (k KindLoader) Load(ctx context.Context, src job.Source) ([]byte, string, error) {
	loader, ok := k[src.Kind]
	if !ok {
		return nil, "", fmt.Errorf("no loader registered for source kind %q", src.Kind)
	}
	return loader.Load(ctx, src)
}
