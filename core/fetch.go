package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// UserAgent is sent with every request made by the launcher
const UserAgent = "packwiz/launchwiz"

// Fetcher retrieves a remote file, starting from a byte offset
type Fetcher interface {
	// Fetch returns the body of url starting at offset. A server that ignores the
	// requested range returns the whole file, which is reported as Offset 0.
	Fetch(ctx context.Context, url string, offset int64) (*FetchResponse, error)
}

// FetchResponse is the body returned by a Fetcher
type FetchResponse struct {
	Body io.ReadCloser
	// Offset is the position in the file that Body starts at
	Offset int64
	// Size is the total size of the file, or -1 if unknown
	Size int64
}

// HTTPFetcher is a Fetcher using net/http and Range requests
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher creates an HTTPFetcher using the given client (http.DefaultClient if nil)
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{Client: client, UserAgent: UserAgent}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, offset int64) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &permanentError{err}
	}
	req.Header.Set("User-Agent", f.UserAgent)
	if offset > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return &FetchResponse{Body: resp.Body, Offset: 0, Size: resp.ContentLength}, nil
	case http.StatusPartialContent:
		size := int64(-1)
		if cr := resp.Header.Get("Content-Range"); cr != "" {
			if i := strings.LastIndex(cr, "/"); i >= 0 {
				if n, err := strconv.ParseInt(cr[i+1:], 10, 64); err == nil {
					size = n
				}
			}
		}
		return &FetchResponse{Body: resp.Body, Offset: offset, Size: size}, nil
	}

	_ = resp.Body.Close()
	err = fmt.Errorf("invalid response status: %v", resp.Status)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
		resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests &&
		resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		return nil, &permanentError{err}
	}
	return nil, err
}

// fetchAll reads a whole remote file into memory
func fetchAll(ctx context.Context, f Fetcher, url string) ([]byte, error) {
	resp, err := f.Fetch(ctx, url, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
