package provision

// Why not crypto/ecdh?
//
// The CA serializes public keys in compressed point form, which crypto/ecdh
// does not accept, and test builds need to inject a fixed private scalar,
// which crypto/ecdh deliberately prevents. The P-256 arithmetic below
// therefore uses crypto/elliptic directly, mirroring what the CA does.

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const x25519KeyLen = 32

// hkdfMaxOutput is the RFC 5869 limit of 255 blocks of the hash length.
const hkdfMaxOutput = 255 * sha256.Size

// NativeSuite implements Suite with the Go standard library and
// golang.org/x/crypto. The zero value is ready to use; options configure
// test behavior.
type NativeSuite struct {
	testKey []byte
}

// SuiteOption configures a NativeSuite at construction time.
type SuiteOption func(*NativeSuite)

// WithTestKey pins the ECDH private key instead of generating a fresh one
// per exchange. A 32-byte key drives the X25519 path; a DER-encoded EC
// private key drives the P-256 path. The override is per-instance state set
// before the suite is shared, never mutated afterwards.
func WithTestKey(key []byte) SuiteOption {
	return func(s *NativeSuite) {
		s.testKey = append([]byte(nil), key...)
	}
}

// NewNativeSuite returns a Suite backed by the platform crypto libraries.
func NewNativeSuite(opts ...SuiteOption) *NativeSuite {
	s := &NativeSuite{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NativeSuite) RandomBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, newError(KindInvalidArgument, "negative byte count %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, wrapError(KindIO, "entropy source unavailable", err)
	}
	return buf, nil
}

func (s *NativeSuite) GenerateKeyPair(curve Curve) (*KeyPair, error) {
	switch curve {
	case CurveX25519:
		return s.generateX25519KeyPair()
	case CurveP256:
		key, err := s.p256PrivateKey()
		if err != nil {
			return nil, err
		}
		der, err := x509.MarshalECPrivateKey(key)
		if err != nil {
			return nil, wrapError(KindCrypto, "encoding P-256 private key", err)
		}
		return &KeyPair{
			Curve:   CurveP256,
			Private: der,
			Public:  elliptic.MarshalCompressed(elliptic.P256(), key.X, key.Y),
		}, nil
	}
	return nil, newError(KindUnsupportedOperation, "unsupported ECDH curve %d", curve)
}

func (s *NativeSuite) generateX25519KeyPair() (*KeyPair, error) {
	var private []byte
	if len(s.testKey) == x25519KeyLen {
		private = append([]byte(nil), s.testKey...)
	} else {
		var err error
		if private, err = s.RandomBytes(x25519KeyLen); err != nil {
			return nil, err
		}
	}
	public, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return nil, wrapError(KindCrypto, "deriving X25519 public key", err)
	}
	// Pad the 32-byte key into the fixed-width wire field.
	wire := make([]byte, ECDHKeyLen)
	copy(wire, public)
	return &KeyPair{Curve: CurveX25519, Private: private, Public: wire}, nil
}

func (s *NativeSuite) p256PrivateKey() (*ecdsa.PrivateKey, error) {
	if len(s.testKey) > 0 {
		key, err := x509.ParseECPrivateKey(s.testKey)
		if err != nil {
			return nil, wrapError(KindCrypto, "parsing test private key", err)
		}
		if key.Curve != elliptic.P256() {
			return nil, newError(KindCrypto, "test private key is not on P-256")
		}
		return key, nil
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, wrapError(KindCrypto, "generating P-256 key", err)
	}
	return key, nil
}

func (s *NativeSuite) Agree(curve Curve, peerPublic []byte) ([]byte, []byte, error) {
	if len(peerPublic) != ECDHKeyLen {
		return nil, nil, newError(KindInvalidArgument, "peer public key is %d bytes, want %d", len(peerPublic), ECDHKeyLen)
	}
	pair, err := s.GenerateKeyPair(curve)
	if err != nil {
		return nil, nil, err
	}
	var secret []byte
	switch curve {
	case CurveX25519:
		secret, err = curve25519.X25519(pair.Private, peerPublic[:x25519KeyLen])
		if err != nil {
			return nil, nil, wrapError(KindCrypto, "X25519 agreement", err)
		}
	case CurveP256:
		secret, err = p256SharedSecret(pair.Private, peerPublic)
		if err != nil {
			return nil, nil, err
		}
	}
	return pair.Public, secret, nil
}

func p256SharedSecret(privateDER, peerPublic []byte) ([]byte, error) {
	key, err := x509.ParseECPrivateKey(privateDER)
	if err != nil {
		return nil, wrapError(KindCrypto, "parsing P-256 private key", err)
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), peerPublic)
	if x == nil {
		return nil, newError(KindCrypto, "malformed peer public key")
	}
	sharedX, sharedY := elliptic.P256().ScalarMult(x, y, key.D.Bytes())
	if sharedX.Sign() == 0 && sharedY.Sign() == 0 {
		return nil, newError(KindCrypto, "ECDH produced the point at infinity")
	}
	// The shared secret is the x-coordinate, left-padded to the field width.
	secret := make([]byte, ECDHSharedSecretLen)
	sharedX.FillBytes(secret)
	return secret, nil
}

func newGCM(key, iv []byte) (cipher.AEAD, error) {
	if len(key) != AES128KeyLen {
		return nil, newError(KindInvalidArgument, "key is %d bytes, want %d", len(key), AES128KeyLen)
	}
	if len(iv) != GCMIVLen {
		return nil, newError(KindInvalidArgument, "IV is %d bytes, want %d", len(iv), GCMIVLen)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, wrapError(KindCrypto, "initializing AES", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, wrapError(KindCrypto, "initializing GCM", err)
	}
	return gcm, nil
}

func (s *NativeSuite) Seal(plaintext, key, iv []byte) ([]byte, []byte, error) {
	gcm, err := newGCM(key, iv)
	if err != nil {
		return nil, nil, err
	}
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	return sealed[:len(plaintext)], sealed[len(plaintext):], nil
}

func (s *NativeSuite) Open(ciphertext, tag, key, iv []byte) ([]byte, error) {
	gcm, err := newGCM(key, iv)
	if err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		// Deliberately uniform: a tag mismatch must be indistinguishable
		// from any other decryption failure.
		return nil, newError(KindCrypto, "decryption failed")
	}
	return plaintext, nil
}

func (s *NativeSuite) SHA256(data []byte) []byte {
	digest := sha256.Sum256(data)
	return digest[:]
}

func (s *NativeSuite) HKDFSHA256(salt, ikm, info []byte, length int) ([]byte, error) {
	if length < 0 {
		return nil, newError(KindInvalidArgument, "negative output length %d", length)
	}
	if length > hkdfMaxOutput {
		return nil, newError(KindCrypto, "HKDF output length %d exceeds limit %d", length, hkdfMaxOutput)
	}
	okm := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, info), okm); err != nil {
		return nil, wrapError(KindCrypto, "HKDF expand", err)
	}
	return okm, nil
}
