// Package cwperrors defines the sentinel error kinds shared by the codec
// packages. Raise sites wrap one of these with fmt.Errorf("...: %w", Kind)
// so callers can still errors.Is against the kind after the wrap.
package cwperrors

import "errors"

var (
	// ErrUnsupportedVersion is raised when a decoded Chart or Music version
	// byte is not 1.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrBadMagic is raised when a decoded magic number doesn't match the
	// expected four-byte constant for the container being decoded.
	ErrBadMagic = errors.New("bad magic number")

	// ErrInvalidTag is raised when a FileProvider tag is outside {-3,-2,-1,1,2,3}.
	ErrInvalidTag = errors.New("invalid file provider tag")

	// ErrFetchFailed is raised when an HTTP fetch reports a failing status.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrBaseNotSet is raised when a relative FileFromPath read is attempted
	// before a base has been configured.
	ErrBaseNotSet = errors.New("file base not set")

	// ErrUnsupportedEnvironment is raised when a relative-path read is
	// attempted where native filesystem access isn't available.
	ErrUnsupportedEnvironment = errors.New("unsupported environment for path read")

	// ErrDecoder is raised when an external audio/image/gzip decoder fails.
	ErrDecoder = errors.New("decoder error")

	// ErrStringNotTerminated is raised when the end of a buffer is reached
	// before a NUL terminator is found while decoding a string.
	ErrStringNotTerminated = errors.New("string not NUL-terminated")
)
