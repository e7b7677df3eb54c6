// Package provision implements the secure envelope protocol used to obtain
// attestation keys from a Certificate Authority. A device and the CA agree on
// an ephemeral shared secret over ECDH, derive an AES-128 session key with
// HKDF, and exchange AES-GCM protected, length-prefixed request/response
// envelopes whose inner payloads vary by operation.
package provision

// Wire-format lengths, in bytes. Both curves serialize public keys into the
// same fixed-width field: P-256 uses the compressed point encoding, X25519
// uses its raw 32-byte encoding padded with a trailing zero byte.
const (
	HeaderLen           = 8
	ECDHKeyLen          = 33
	ECDHSharedSecretLen = 32
	AES128KeyLen        = 16
	GCMIVLen            = 12
	GCMTagLen           = 16
	SHA256DigestLen     = 32
)

// Message versions. Version 2 adds SOM key issuance but is otherwise
// compatible with version 1.
const (
	MessageVersion    = 1
	MaxMessageVersion = 2
)

// Curve identifies an ECDH curve family. The values are the algorithm
// identifiers carried in the Operation Start message.
type Curve byte

const (
	CurveP256   Curve = 1
	CurveX25519 Curve = 2
)

func (c Curve) String() string {
	switch c {
	case CurveP256:
		return "P-256"
	case CurveX25519:
		return "X25519"
	}
	return "unknown curve"
}

// Operation identifies the provisioning operation requested from the CA. The
// values are the operation identifiers carried in the Operation Start
// message. Certify and IssueEncrypted are recognized on the wire but have no
// inner payload codec in this package.
type Operation byte

const (
	OperationCertify        Operation = 1
	OperationIssue          Operation = 2
	OperationIssueEncrypted Operation = 3
	OperationIssueSOMKey    Operation = 4
)

func (op Operation) String() string {
	switch op {
	case OperationCertify:
		return "Certify"
	case OperationIssue:
		return "Issue"
	case OperationIssueEncrypted:
		return "IssueEncrypted"
	case OperationIssueSOMKey:
		return "IssueSOMKey"
	}
	return "unknown operation"
}

// KeyType identifies the algorithm of a device authentication key.
type KeyType int32

const (
	KeyTypeNone KeyType = iota
	KeyTypeRSA
	KeyTypeECDSA
	KeyTypeEdDSA
	KeyTypeEPID
)

// KeyPair holds an ECDH key pair for a single exchange. The private key is
// never serialized: X25519 private keys are the raw 32-byte scalar, P-256
// private keys are SEC1 DER. Public keys are in the ECDHKeyLen wire form.
type KeyPair struct {
	Curve   Curve
	Private []byte
	Public  []byte
}
