package provision

// Suite is the set of cryptographic operations the protocol is built on.
// Backends implement it so the protocol logic stays independent of the
// primitive library underneath. All operations return an error rather than
// partially mutating an output, and none retry internally: callers treat any
// failure as terminal for the exchange.
//
// Implementations must be safe for use by concurrent exchanges once
// constructed. Configuration such as a test key override is fixed at
// construction time and never mutated afterwards.
type Suite interface {
	// RandomBytes returns n bytes from the entropy source. Fails with an
	// IoError if the source cannot be read.
	RandomBytes(n int) ([]byte, error)

	// GenerateKeyPair returns an ECDH key pair on the given curve. When the
	// suite was constructed with a test key for the curve, the pair is
	// derived deterministically from it; otherwise the pair is a fresh
	// ephemeral one.
	GenerateKeyPair(curve Curve) (*KeyPair, error)

	// Agree generates (or derives, see GenerateKeyPair) a device key pair
	// and computes the shared secret with the peer's public key. It returns
	// the device public key in wire form and the ECDHSharedSecretLen-byte
	// secret. Malformed peer keys fail with a CryptoError; unsupported
	// curves with UnsupportedOperation.
	Agree(curve Curve, peerPublic []byte) (devicePublic, sharedSecret []byte, err error)

	// Seal encrypts plaintext under an AES128KeyLen-byte key and a
	// GCMIVLen-byte IV with AES-128-GCM and no associated data, returning
	// the ciphertext and the GCMTagLen-byte tag separately.
	Seal(plaintext, key, iv []byte) (ciphertext, tag []byte, err error)

	// Open authenticates and decrypts ciphertext. Any failure, including a
	// tag mismatch, is reported as the same CryptoError so the result cannot
	// be used as a decryption oracle.
	Open(ciphertext, tag, key, iv []byte) ([]byte, error)

	// SHA256 returns the SHA-256 digest of data.
	SHA256(data []byte) []byte

	// HKDFSHA256 derives length bytes of key material with HKDF-SHA256.
	// Fails with a CryptoError if length exceeds the HKDF output limit.
	HKDFSHA256(salt, ikm, info []byte, length int) ([]byte, error)
}
