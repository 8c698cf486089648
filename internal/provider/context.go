package provider

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/cartomix/cwp/internal/cwperrors"
)

// Context carries the collaborators a FileProvider needs to resolve
// itself into bytes: a base location for relative paths, and the
// fetch/read/decode implementations to use. The source system keeps
// these as process-wide mutable globals (a configured base directory, a
// singleton Ogg-Vorbis decoder); here they are passed explicitly through
// every read entry point instead, so a process can serve more than one
// library root or decoder configuration concurrently.
type Context struct {
	Base    string
	Fetcher Fetcher
	FS      FilesystemReader
	Ogg     OggDecoder
	Png     PngDecoder
}

// NewContext returns a Context with stdlib-backed Fetcher and
// FilesystemReader defaults. Ogg and Png are left nil; callers that need
// audio/image decoding must supply their own.
func NewContext(base string) *Context {
	return &Context{
		Base:    base,
		Fetcher: &HTTPFetcher{},
		FS:      OSFilesystemReader{},
	}
}

// Resolve turns a FileProvider into usable bytes, fetching or reading as
// needed. Embedded providers never need ctx at all.
func (ctx *Context) Resolve(goCtx context.Context, f FileProvider) ([]byte, error) {
	switch p := f.(type) {
	case *Embedded:
		return p.ArrayBuffer()
	case *FromURL:
		resolved, isURL, err := ctx.resolvePath(p.URL)
		if err != nil {
			return nil, err
		}
		if !isURL {
			return nil, fmt.Errorf("provider: from-url: %w: %q is not a URL", cwperrors.ErrInvalidTag, p.URL)
		}
		raw, err := ctx.Fetcher.Fetch(goCtx, resolved)
		if err != nil {
			return nil, err
		}
		return maybeGunzip(raw, p.Compressed)
	case *FromPath:
		resolved, isURL, err := ctx.resolvePath(p.Path)
		if err != nil {
			return nil, err
		}
		var raw []byte
		if isURL {
			raw, err = ctx.Fetcher.Fetch(goCtx, resolved)
		} else {
			if ctx.FS == nil {
				return nil, fmt.Errorf("provider: from-path: %w", cwperrors.ErrUnsupportedEnvironment)
			}
			raw, err = ctx.FS.Read(goCtx, resolved)
		}
		if err != nil {
			return nil, err
		}
		return maybeGunzip(raw, p.Compressed)
	default:
		return nil, fmt.Errorf("provider: resolve: unknown FileProvider type %T", f)
	}
}

// resolvePath joins rel against ctx.Base, reporting whether the result is
// a fetchable URL (http/https scheme) or a native filesystem path. A
// file:// rel or base is joined using URL semantics (so "../" and
// percent-encoding resolve the way they would in a browser), but the
// result is always reported as a filesystem path: net/http has no
// file:// transport, so these are read through ctx.FS like any other
// local path, not fetched.
func (ctx *Context) resolvePath(rel string) (resolved string, isURL bool, err error) {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") {
		return rel, true, nil
	}
	if strings.HasPrefix(rel, "file://") {
		relURL, err := url.Parse(rel)
		if err != nil {
			return "", false, fmt.Errorf("provider: parse %q: %w", rel, err)
		}
		return relURL.Path, false, nil
	}
	if ctx.Base == "" {
		return "", false, fmt.Errorf("provider: resolve %q: %w", rel, cwperrors.ErrBaseNotSet)
	}
	if strings.HasPrefix(ctx.Base, "http://") || strings.HasPrefix(ctx.Base, "https://") {
		baseURL, err := url.Parse(ctx.Base)
		if err != nil {
			return "", false, fmt.Errorf("provider: resolve %q against base %q: %w", rel, ctx.Base, err)
		}
		relURL, err := url.Parse(rel)
		if err != nil {
			return "", false, fmt.Errorf("provider: resolve %q against base %q: %w", rel, ctx.Base, err)
		}
		return baseURL.ResolveReference(relURL).String(), true, nil
	}
	if strings.HasPrefix(ctx.Base, "file://") {
		baseURL, err := url.Parse(ctx.Base)
		if err != nil {
			return "", false, fmt.Errorf("provider: resolve %q against base %q: %w", rel, ctx.Base, err)
		}
		relURL, err := url.Parse(rel)
		if err != nil {
			return "", false, fmt.Errorf("provider: resolve %q against base %q: %w", rel, ctx.Base, err)
		}
		return baseURL.ResolveReference(relURL).Path, false, nil
	}
	return filepath.Join(ctx.Base, rel), false, nil
}

func maybeGunzip(raw []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return raw, nil
	}
	e := &Embedded{Compressed: true, Raw: raw}
	return e.ArrayBuffer()
}
