package sktp

import "errors"

var (
	ErrInvalidLength        = errors.New("sktp: declared length exceeds buffer")
	ErrResponseTooLarge     = errors.New("sktp: response too large")
	ErrTruncated            = errors.New("sktp: truncated data")
	ErrSchemeMarker         = errors.New("sktp: unknown url scheme marker")
	ErrEmptyHost            = errors.New("sktp: empty host in download url")
	ErrInvalidPort          = errors.New("sktp: invalid port in download url")
	ErrMissingPath          = errors.New("sktp: download url has no path")
	ErrUnsupportedExtension = errors.New("sktp: unsupported file extension")
	ErrUnknownChunk         = errors.New("sktp: unknown chunk kind")
	ErrSessionID            = errors.New("sktp: invalid session id")
	ErrUnknownVariant       = errors.New("sktp: unknown hardware variant")
)
