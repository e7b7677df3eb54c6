package protocol

import (
	"fmt"

	"github.com/attestation-tools/provision-command/internal/provision"
)

// AuthProvider supplies the optional third-party authentication attached to
// an Issue request. Attachment receives the challenge derived from the
// exchange's shared secret, so the signature it returns is bound to this
// session and cannot be replayed into another.
type AuthProvider interface {
	Attachment(challenge []byte) (*AuthAttachment, error)
}

// StaticAuth returns an AuthProvider that ignores the challenge and attaches
// fixed material. It exists for CAs that accept signatures computed out of
// band; most callers want GroupAuth.
func StaticAuth(attachment *AuthAttachment) AuthProvider {
	return staticAuth{attachment}
}

type staticAuth struct {
	attachment *AuthAttachment
}

func (s staticAuth) Attachment([]byte) (*AuthAttachment, error) {
	return s.attachment, nil
}

type exchangeState int

const (
	stateIdle exchangeState = iota
	stateRequestBuilt
	stateDone
	stateFailed
)

func (s exchangeState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRequestBuilt:
		return "request built"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Exchange drives one provisioning conversation with a CA: build exactly one
// request, then open exactly one response. The session key derived while
// building the request never leaves the Exchange. Any failure is terminal
// for the conversation; start a new Exchange to retry.
//
// An Exchange is not safe for concurrent use.
type Exchange struct {
	suite      Suite
	curve      Curve
	operation  Operation
	caPublic   []byte
	sessionKey []byte
	state      exchangeState
}

// NewExchange opens an exchange from a decoded Operation Start descriptor.
// If suite is nil the platform suite is used.
func NewExchange(suite Suite, start *OperationStart) (*Exchange, error) {
	if start == nil {
		return nil, &Error{Kind: KindInvalidArgument, Info: "nil operation descriptor"}
	}
	return newExchange(suite, start.Curve, start.Operation, start.CAPublicKey)
}

func newExchange(suite Suite, curve Curve, op Operation, caPublic []byte) (*Exchange, error) {
	switch op {
	case OperationIssue, OperationIssueSOMKey:
	case OperationCertify, OperationIssueEncrypted:
		return nil, &Error{Kind: KindUnsupportedOperation, Info: fmt.Sprintf("operation %s has no request codec", op)}
	default:
		return nil, &Error{Kind: KindInvalidArgument, Info: fmt.Sprintf("unknown operation %d", byte(op))}
	}
	if len(caPublic) != ECDHKeyLen {
		return nil, &Error{Kind: KindInvalidArgument, Info: fmt.Sprintf("CA public key is %d bytes, want %d", len(caPublic), ECDHKeyLen)}
	}
	if suite == nil {
		suite = NewSuite()
	}
	return &Exchange{
		suite:     suite,
		curve:     curve,
		operation: op,
		caPublic:  append([]byte(nil), caPublic...),
	}, nil
}

// Operation reports which provisioning operation this exchange performs.
func (x *Exchange) Operation() Operation {
	return x.operation
}

// BuildRequest encrypts the operation's inner payload into a CA request
// envelope. For Issue, idHash is the SHA-256 of the product ID and auth
// optionally attaches third-party authentication. For IssueSOMKey, idHash is
// the SHA-256 of the SOM ID and auth must be nil.
func (x *Exchange) BuildRequest(idHash []byte, auth AuthProvider) ([]byte, error) {
	if x.state != stateIdle {
		return nil, &Error{Kind: KindInvalidArgument, Info: fmt.Sprintf("request already built (exchange is %s)", x.state)}
	}
	fn, err := x.plaintextFunc(idHash, auth)
	if err != nil {
		return nil, err
	}
	request, sessionKey, err := provision.BuildRequestFunc(x.suite, x.curve, x.caPublic, fn)
	if err != nil {
		x.state = stateFailed
		return nil, err
	}
	x.sessionKey = sessionKey
	x.state = stateRequestBuilt
	return request, nil
}

func (x *Exchange) plaintextFunc(idHash []byte, auth AuthProvider) (provision.PlaintextFunc, error) {
	switch x.operation {
	case OperationIssue:
		return func(challenge []byte) ([]byte, error) {
			var attachment *AuthAttachment
			if auth != nil {
				var err error
				if attachment, err = auth.Attachment(challenge); err != nil {
					return nil, err
				}
			}
			return provision.EncodeIssue(idHash, attachment)
		}, nil
	case OperationIssueSOMKey:
		if auth != nil {
			return nil, &Error{Kind: KindInvalidArgument, Info: "SOM key issuance does not take authentication"}
		}
		return func([]byte) ([]byte, error) {
			return provision.EncodeIssueSOMKey(idHash)
		}, nil
	}
	return nil, &Error{Kind: KindUnsupportedOperation, Info: fmt.Sprintf("operation %s has no request codec", x.operation)}
}

// OpenResponse decrypts the CA's response envelope with this exchange's
// session key and returns the inner payload. It may be called once, after
// BuildRequest succeeded.
func (x *Exchange) OpenResponse(envelope []byte) ([]byte, error) {
	if x.state != stateRequestBuilt {
		return nil, &Error{Kind: KindInvalidArgument, Info: fmt.Sprintf("no request outstanding (exchange is %s)", x.state)}
	}
	inner, err := provision.OpenResponse(x.suite, envelope, x.sessionKey)
	if err != nil {
		x.state = stateFailed
		return nil, err
	}
	x.state = stateDone
	return inner, nil
}
