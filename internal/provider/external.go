package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/cartomix/cwp/internal/cwperrors"
)

// Fetcher retrieves the bytes at a URL. Narrow on purpose: FromURL only
// needs "give me the bytes", not a full HTTP client surface.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is the default Fetcher, backed by net/http.
type HTTPFetcher struct {
	Client *http.Client
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("provider: fetch %q: %w", url, err)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider: fetch %q: %w: %v", url, cwperrors.ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider: fetch %q: %w: status %s", url, cwperrors.ErrFetchFailed, resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider: fetch %q: %w: %v", url, cwperrors.ErrFetchFailed, err)
	}
	return b, nil
}

// FilesystemReader retrieves the bytes at a resolved local path.
type FilesystemReader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// OSFilesystemReader is the default FilesystemReader, backed by os.ReadFile.
type OSFilesystemReader struct{}

func (OSFilesystemReader) Read(_ context.Context, path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("provider: read %q: %w", path, err)
	}
	return b, nil
}

// OggDecoder decodes Ogg-Vorbis bytes into PCM frames, sample rate, and
// channel count. The codec proper does not need audio samples; this
// exists so a FilesystemReader/Fetcher-backed MusicProvider can be
// previewed or re-encoded by a caller that does.
type OggDecoder interface {
	Decode(data []byte) (samples [][]float32, sampleRate int, err error)
}

// PngDecoder decodes PNG bytes into raw RGBA pixels and dimensions, for
// callers that need to inspect or re-render cover art.
type PngDecoder interface {
	Decode(data []byte) (pixels []byte, width, height int, err error)
}
