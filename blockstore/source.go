package blockstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Source serves raw byte ranges of a compressed alignment file.
//
// ReadRange returns the bytes in [start, start+length). A range running past
// the end of the file returns the available prefix without error; a range
// starting at or beyond the end returns an empty slice.
type Source interface {
	ReadRange(ctx context.Context, start, length uint64) ([]byte, error)
}

// ReaderAtSource serves ranges from an io.ReaderAt such as *os.File or *bytes.Reader.
type ReaderAtSource struct {
	r io.ReaderAt
}

var _ Source = (*ReaderAtSource)(nil)

// NewReaderAtSource wraps r.
func NewReaderAtSource(r io.ReaderAt) *ReaderAtSource {
	return &ReaderAtSource{r: r}
}

// ReadRange implements Source.
func (s *ReaderAtSource) ReadRange(ctx context.Context, start, length uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if start > uint64(1<<63-1) || length > uint64(1<<31) {
		return nil, fmt.Errorf("range %d+%d out of bounds", start, length)
	}

	buf := make([]byte, length)
	n, err := s.r.ReadAt(buf, int64(start)) //nolint: gosec
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return buf[:n], nil
}

// FileSource is a ReaderAtSource over an open file.
type FileSource struct {
	ReaderAtSource
	f *os.File
}

// OpenFile opens path for range reads.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return &FileSource{ReaderAtSource: ReaderAtSource{r: f}, f: f}, nil
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}

// HTTPSource serves ranges with HTTP Range requests.
type HTTPSource struct {
	url    string
	client *http.Client
}

var _ Source = (*HTTPSource)(nil)

// NewHTTPSource creates a source for url. A nil client uses http.DefaultClient.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPSource{url: url, client: client}
}

// ReadRange implements Source.
func (s *HTTPSource) ReadRange(ctx context.Context, start, length uint64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, start+length-1))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		return io.ReadAll(io.LimitReader(resp.Body, int64(length))) //nolint: gosec
	case http.StatusRequestedRangeNotSatisfiable:
		return nil, nil
	case http.StatusOK:
		// server ignored the Range header
		if _, err := io.CopyN(io.Discard, resp.Body, int64(start)); err != nil { //nolint: gosec
			if errors.Is(err, io.EOF) {
				return nil, nil
			}

			return nil, err
		}

		return io.ReadAll(io.LimitReader(resp.Body, int64(length))) //nolint: gosec
	default:
		return nil, fmt.Errorf("GET %s: unexpected status %s", s.url, resp.Status)
	}
}

// ReadAll fetches a whole small file such as a .tai index from a local path
// or an http(s) URL.
func ReadAll(ctx context.Context, location string, client *http.Client) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return os.ReadFile(location)
	}

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", location, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// Open returns a Source for a local path or an http(s) URL, plus a closer
// releasing it.
func Open(location string, client *http.Client) (Source, io.Closer, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, client), io.NopCloser(nil), nil
	}

	fs, err := OpenFile(location)
	if err != nil {
		return nil, nil, err
	}

	return fs, fs, nil
}
