package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the network core.
type ErrorKind int

const (
	// KindConnectivity: no network, no cable or WLAN unreachable.
	KindConnectivity ErrorKind = iota + 1
	// KindResolution: DNS lookup failed.
	KindResolution
	// KindTransport: a request failed. NetError.Secure tells the tier.
	KindTransport
	// KindDecode: a malformed SKTP response.
	KindDecode
	// KindPersistence: mount or write failure.
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindResolution:
		return "resolution"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// NetError is the structured error returned by the network core.
// Use errors.As to extract it, or IsKind to test the category.
type NetError struct {
	// Kind is the failure category.
	Kind ErrorKind
	// Op is the operation that failed (e.g., "resolve", "get", "write").
	Op string
	// Cause is the underlying error.
	Cause error
	// Secure is set for transport failures against the TLS port.
	Secure bool
}

// Error implements the error interface.
// Format: "kind op: cause"
func (e *NetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Op, e.Cause.Error())
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Op)
}

// Unwrap returns the underlying cause.
func (e *NetError) Unwrap() error {
	return e.Cause
}

// NewNetError creates a NetError of the given kind.
func NewNetError(kind ErrorKind, op string, cause error) *NetError {
	return &NetError{Kind: kind, Op: op, Cause: cause}
}

// NewTransportError creates a transport NetError for a target on the given port.
func NewTransportError(op string, port uint16, cause error) *NetError {
	return &NetError{Kind: KindTransport, Op: op, Cause: cause, Secure: port == 443}
}

// IsKind reports whether err carries a NetError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ne *NetError
	if errors.As(err, &ne) {
		return ne.Kind == kind
	}
	return false
}
