package provision

import "fmt"

// Kind classifies protocol failures.
type Kind int

const (
	// KindInvalidArgument indicates a caller-supplied buffer size, curve, or
	// algorithm selector was rejected before any work was attempted.
	KindInvalidArgument Kind = iota + 1
	// KindCrypto indicates a primitive operation failed: key generation,
	// ECDH, AEAD seal/open, or HKDF output overflow. AEAD open failures are
	// reported uniformly under this kind; callers cannot distinguish a tag
	// mismatch from any other decryption error.
	KindCrypto
	// KindIO indicates the entropy source could not be read.
	KindIO
	// KindMalformedMessage indicates a length field or buffer size mismatch
	// detected while decoding a message.
	KindMalformedMessage
	// KindUnsupportedOperation indicates the capability or peer requested a
	// feature this implementation does not provide.
	KindUnsupportedOperation
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindCrypto:
		return "CryptoError"
	case KindIO:
		return "IoError"
	case KindMalformedMessage:
		return "MalformedMessage"
	case KindUnsupportedOperation:
		return "UnsupportedOperation"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a protocol failure tagged with a Kind. Failures are surfaced
// synchronously to the immediate caller; nothing in this package retries.
type Error struct {
	Kind Kind
	Info string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Info != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Info, e.Err)
	case e.Info != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Info)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality, so errors.Is(err, ErrCrypto) matches any Error
// with KindCrypto.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Info == "" && t.Err == nil
}

// Sentinels for use with errors.Is.
var (
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
	ErrCrypto               = &Error{Kind: KindCrypto}
	ErrIO                   = &Error{Kind: KindIO}
	ErrMalformedMessage     = &Error{Kind: KindMalformedMessage}
	ErrUnsupportedOperation = &Error{Kind: KindUnsupportedOperation}
)

func newError(kind Kind, format string, a ...interface{}) error {
	return &Error{Kind: kind, Info: fmt.Sprintf(format, a...)}
}

func wrapError(kind Kind, info string, err error) error {
	return &Error{Kind: kind, Info: info, Err: err}
}
