package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// ErrNoLocalSource is returned when a relative location is fetched without a
// local file system configured.
var ErrNoLocalSource = errors.New("no local asset source configured")

// Fetcher retrieves the raw bytes stored at a resolved location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, location string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

// SourceFetcher reads http(s) locations over the network and everything
// else from Local.
type SourceFetcher struct {
	Client *http.Client
	Local  fs.FS
}

// Fetch implements Fetcher.
func (f *SourceFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if isAbsoluteURL(location) {
		return f.fetchHTTP(ctx, location)
	}
	if f.Local == nil {
		return nil, fmt.Errorf("fetch %s: %w", location, ErrNoLocalSource)
	}
	name := strings.TrimPrefix(path.Clean("/"+location), "/")
	data, err := fs.ReadFile(f.Local, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	return data, nil
}

func (f *SourceFetcher) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", location, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	return data, nil
}

func isAbsoluteURL(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// resolveSibling resolves ref against the directory of location, the way a
// font descriptor or atlas refers to its page images.
func resolveSibling(location, ref string) string {
	if isAbsoluteURL(ref) {
		return ref
	}
	if isAbsoluteURL(location) {
		base, err := url.Parse(location)
		if err == nil {
			if r, err := url.Parse(ref); err == nil {
				return base.ResolveReference(r).String()
			}
		}
	}
	return path.Join(path.Dir(location), ref)
}
