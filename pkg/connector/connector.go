// Package connector defines the transport used to carry request envelopes to
// a Certificate Authority and bring response envelopes back.
package connector

import (
	"context"
	"time"
)

// MaxResponseLength caps the byte-length of CA responses that connectors
// must support.
const MaxResponseLength = 100000

// Connector carries opaque envelopes between a device and a CA.
type Connector interface {
	// RoundTrip delivers one request envelope and returns the CA's response
	// envelope. The transport does not interpret either buffer; framing and
	// decryption happen in the protocol layer.
	//
	// Implementations must be thread safe.
	RoundTrip(ctx context.Context, request []byte) ([]byte, error)

	// RetryInterval returns the recommended wait time between attempts when
	// a RoundTrip failure is temporary.
	RetryInterval() time.Duration

	// Close releases the transport. Repeated calls to Close() must be
	// idempotent, but the behavior of the interface is otherwise undefined
	// after calling this method.
	Close()
}

// Temporary reports whether err is worth retrying after RetryInterval.
func Temporary(err error) bool {
	type temporary interface {
		Temporary() bool
	}
	if t, ok := err.(temporary); ok {
		return t.Temporary()
	}
	return false
}
