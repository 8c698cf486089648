// Package provider implements the abstract data-source descriptors
// (FileProvider/Provider) and the deferred embedded-payload mechanism that
// lets an encoder interleave a fixed-size header with variable-size blobs
// whose offsets get back-patched once the header region is finalized.
package provider

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/cwperrors"
)

// FileProvider abstracts where a blob of bytes comes from: embedded in the
// same file, fetched over HTTP, or read from a path relative to the base
// carried by a caller-supplied Context.
type FileProvider interface {
	// EncodedLength is the size, in bytes, of this provider's header.
	EncodedLength() int
	// TotalEncodedLength is the header plus any blob bytes that will be
	// appended later. Equal to EncodedLength for non-embedded providers.
	TotalEncodedLength() int
	// Encode appends the header to w and returns any EmbedRequests it
	// generated (non-nil only for Embedded).
	Encode(w *beat.Writer) ([]EmbedRequest, error)
}

// EmbedRequest is a deferred writer for one variable-size payload. It
// back-patches its (offset, length) placeholder once the payload's final
// position in the output is known.
type EmbedRequest struct {
	Blob              []byte
	PlaceholderOffset int
}

// Write performs the three steps described in the format spec: stamp the
// absolute cursor and length into the placeholder, then append the blob,
// returning the cursor advanced past it.
func (e EmbedRequest) Write(output []byte, cursor int) int {
	putUint64(output[e.PlaceholderOffset:], uint64(cursor))
	putUint64(output[e.PlaceholderOffset+8:], uint64(len(e.Blob)))
	copy(output[cursor:], e.Blob)
	return cursor + len(e.Blob)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}

// Embedded is a FileProvider whose bytes live inside the same encoded
// file, at an offset back-patched after the header region is written.
type Embedded struct {
	Compressed bool
	// Raw is exactly what is/was stored on the wire: gzip-compressed bytes
	// if Compressed, the plain bytes otherwise.
	Raw []byte
}

// NewEmbedded wraps plain bytes for embedding, gzip-compressing them now
// if requested (the only point at which FileEmbedded.set() in the source
// system may compress).
func NewEmbedded(plain []byte, compressed bool) (*Embedded, error) {
	raw := plain
	if compressed {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(plain); err != nil {
			return nil, fmt.Errorf("provider: gzip compress: %w", err)
		}
		if err := gw.Close(); err != nil {
			return nil, fmt.Errorf("provider: gzip compress: %w", err)
		}
		raw = buf.Bytes()
	}
	return &Embedded{Compressed: compressed, Raw: raw}, nil
}

// OriginalArrayBuffer returns the bytes exactly as stored on the wire
// (still gzip-compressed if Compressed).
func (e *Embedded) OriginalArrayBuffer() ([]byte, error) {
	return e.Raw, nil
}

// ArrayBuffer returns the usable (decompressed) bytes.
func (e *Embedded) ArrayBuffer() ([]byte, error) {
	if !e.Compressed {
		return e.Raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(e.Raw))
	if err != nil {
		return nil, fmt.Errorf("provider: %w: gzip: %v", cwperrors.ErrDecoder, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("provider: %w: gzip: %v", cwperrors.ErrDecoder, err)
	}
	return out, nil
}

// EncodedLength is always 17: 1 tag byte + 8-byte offset placeholder +
// 8-byte length placeholder.
func (e *Embedded) EncodedLength() int { return 17 }

// TotalEncodedLength is the header plus the blob that will be appended.
func (e *Embedded) TotalEncodedLength() int { return 17 + len(e.Raw) }

// Encode writes the 17-byte header (tag + zeroed placeholders) and returns
// an EmbedRequest to back-patch the placeholders once the blob's final
// position is known.
func (e *Embedded) Encode(w *beat.Writer) ([]EmbedRequest, error) {
	tag := int8(1)
	if e.Compressed {
		tag = -1
	}
	w.WriteInt8(tag)
	placeholder := w.Len()
	w.WriteUint64(0)
	w.WriteUint64(0)
	return []EmbedRequest{{Blob: e.Raw, PlaceholderOffset: placeholder}}, nil
}

// FromURL is a FileProvider that fetches bytes over HTTP at read time.
type FromURL struct {
	Compressed bool
	URL        string
}

func (f *FromURL) EncodedLength() int      { return 1 + beat.EncodedStringLength(f.URL) }
func (f *FromURL) TotalEncodedLength() int { return f.EncodedLength() }

func (f *FromURL) Encode(w *beat.Writer) ([]EmbedRequest, error) {
	tag := int8(2)
	if f.Compressed {
		tag = -2
	}
	w.WriteInt8(tag)
	if err := w.WriteString(f.URL); err != nil {
		return nil, fmt.Errorf("provider: url: %w", err)
	}
	return nil, nil
}

// FromPath is a FileProvider that reads bytes from a path resolved at read
// time against a caller-supplied base.
type FromPath struct {
	Compressed bool
	Path       string
}

func (f *FromPath) EncodedLength() int      { return 1 + beat.EncodedStringLength(f.Path) }
func (f *FromPath) TotalEncodedLength() int { return f.EncodedLength() }

func (f *FromPath) Encode(w *beat.Writer) ([]EmbedRequest, error) {
	tag := int8(3)
	if f.Compressed {
		tag = -3
	}
	w.WriteInt8(tag)
	if err := w.WriteString(f.Path); err != nil {
		return nil, fmt.Errorf("provider: path: %w", err)
	}
	return nil, nil
}

// DecodeFileProvider dispatches on the next byte's absolute tag value.
func DecodeFileProvider(r *beat.Reader) (FileProvider, error) {
	tag, err := r.ReadInt8()
	if err != nil {
		return nil, err
	}
	compressed := tag < 0
	abs := tag
	if abs < 0 {
		abs = -abs
	}

	switch abs {
	case 1:
		blobOffset, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}
		blobLength, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}
		raw, err := r.Slice(int(blobOffset), int(blobLength))
		if err != nil {
			return nil, fmt.Errorf("provider: embedded blob: %w", err)
		}
		return &Embedded{Compressed: compressed, Raw: raw}, nil
	case 2:
		url, err := r.ReadString()
		if err != nil {
			return nil, fmt.Errorf("provider: url: %w", err)
		}
		return &FromURL{Compressed: compressed, URL: url}, nil
	case 3:
		path, err := r.ReadString()
		if err != nil {
			return nil, fmt.Errorf("provider: path: %w", err)
		}
		return &FromPath{Compressed: compressed, Path: path}, nil
	default:
		return nil, fmt.Errorf("provider: tag %d: %w", tag, cwperrors.ErrInvalidTag)
	}
}
