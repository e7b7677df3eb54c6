package protocol

import "github.com/attestation-tools/provision-command/internal/provision"

// Error carries a failure Kind alongside the usual message and cause. Use
// errors.Is with the sentinels below to branch on the kind.
type (
	Error = provision.Error
	Kind  = provision.Kind
)

const (
	KindInvalidArgument      = provision.KindInvalidArgument
	KindCrypto               = provision.KindCrypto
	KindIO                   = provision.KindIO
	KindMalformedMessage     = provision.KindMalformedMessage
	KindUnsupportedOperation = provision.KindUnsupportedOperation
)

var (
	ErrInvalidArgument      = provision.ErrInvalidArgument
	ErrCrypto               = provision.ErrCrypto
	ErrIO                   = provision.ErrIO
	ErrMalformedMessage     = provision.ErrMalformedMessage
	ErrUnsupportedOperation = provision.ErrUnsupportedOperation
)
