// Package protocol is the public interface to the attestation-key
// provisioning channel. It exposes the envelope and payload codecs from the
// otherwise internal provision package and adds the per-exchange state
// machine devices drive.
package protocol

import (
	"github.com/attestation-tools/provision-command/internal/provision"
)

// Re-exported protocol types. See the provision package for wire details.
type (
	Curve          = provision.Curve
	Operation      = provision.Operation
	KeyType        = provision.KeyType
	KeyPair        = provision.KeyPair
	Suite          = provision.Suite
	AuthAttachment = provision.AuthAttachment
	OperationStart = provision.OperationStart
)

const (
	CurveP256   = provision.CurveP256
	CurveX25519 = provision.CurveX25519

	OperationCertify        = provision.OperationCertify
	OperationIssue          = provision.OperationIssue
	OperationIssueEncrypted = provision.OperationIssueEncrypted
	OperationIssueSOMKey    = provision.OperationIssueSOMKey

	KeyTypeNone  = provision.KeyTypeNone
	KeyTypeRSA   = provision.KeyTypeRSA
	KeyTypeECDSA = provision.KeyTypeECDSA
	KeyTypeEdDSA = provision.KeyTypeEdDSA
	KeyTypeEPID  = provision.KeyTypeEPID
)

const (
	ECDHKeyLen      = provision.ECDHKeyLen
	SHA256DigestLen = provision.SHA256DigestLen
)

// NewSuite returns the platform-crypto implementation of Suite.
func NewSuite(opts ...provision.SuiteOption) Suite {
	return provision.NewNativeSuite(opts...)
}

// WithTestKey pins the suite's ECDH private key for deterministic tests.
var WithTestKey = provision.WithTestKey

// DecodeOperationStart parses the message a CA stages to open an exchange.
func DecodeOperationStart(msg []byte) (*OperationStart, error) {
	return provision.DecodeOperationStart(msg)
}

// EncodeOperationStart builds an Operation Start message for CA-side tools.
func EncodeOperationStart(curve Curve, op Operation, caPublic []byte) ([]byte, error) {
	return provision.EncodeOperationStart(curve, op, caPublic)
}
