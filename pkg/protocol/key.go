package protocol

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
)

// LoadCAPublicKey loads a CA public key from a file and returns it in the
// 33-byte wire form an Exchange expects.
//
// The function is flexible about input formats. For P-256 it accepts (note
// that this list includes private key files, for convenience):
//   - PKIX PEM ("BEGIN PUBLIC KEY")
//   - Non-password protected PKCS8 PEM ("BEGIN PRIVATE KEY")
//   - SEC1 ("BEGIN EC PRIVATE KEY")
//   - Binary compressed curve point (33 bytes)
//   - Binary uncompressed curve point (0x04, ..., 65 bytes)
//   - Hex-encoded compressed or uncompressed curve point
//
// For X25519 it accepts the raw 32-byte point, the zero-padded 33-byte wire
// form, or either hex-encoded.
func LoadCAPublicKey(filename string, curve Curve) ([]byte, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	switch curve {
	case CurveX25519:
		return x25519PublicKeyBytes(raw)
	case CurveP256:
		return p256PublicKeyBytes(raw)
	}
	return nil, &Error{Kind: KindUnsupportedOperation, Info: fmt.Sprintf("cannot load a key for %s", curve)}
}

func x25519PublicKeyBytes(raw []byte) ([]byte, error) {
	raw = decodeHexKey(raw)
	switch len(raw) {
	case ECDHKeyLen - 1:
		return append(append([]byte(nil), raw...), 0), nil
	case ECDHKeyLen:
		if raw[ECDHKeyLen-1] != 0 {
			return nil, &Error{Kind: KindInvalidArgument, Info: "padded X25519 key with nonzero padding byte"}
		}
		return append([]byte(nil), raw...), nil
	}
	return nil, &Error{Kind: KindInvalidArgument, Info: fmt.Sprintf("X25519 public key is %d bytes, want 32", len(raw))}
}

func p256PublicKeyBytes(raw []byte) ([]byte, error) {
	point := decodeHexKey(raw)
	switch len(point) {
	case ECDHKeyLen:
		if x, _ := elliptic.UnmarshalCompressed(elliptic.P256(), point); x == nil {
			return nil, &Error{Kind: KindInvalidArgument, Info: "compressed point is not on P-256"}
		}
		return append([]byte(nil), point...), nil
	case 65:
		x, y := elliptic.Unmarshal(elliptic.P256(), point)
		if x == nil {
			return nil, &Error{Kind: KindInvalidArgument, Info: "uncompressed point is not on P-256"}
		}
		return elliptic.MarshalCompressed(elliptic.P256(), x, y), nil
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, &Error{Kind: KindInvalidArgument, Info: "file is neither a curve point nor PEM"}
	}
	var pub *ecdsa.PublicKey
	switch block.Type {
	case "EC PRIVATE KEY":
		skey, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		pub = &skey.PublicKey
	case "PRIVATE KEY":
		skey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		ecdsaKey, ok := skey.(*ecdsa.PrivateKey)
		if !ok {
			return nil, &Error{Kind: KindInvalidArgument, Info: "PKCS8 key is not an EC key"}
		}
		pub = &ecdsaKey.PublicKey
	case "PUBLIC KEY":
		pkey, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		ecdsaPub, ok := pkey.(*ecdsa.PublicKey)
		if !ok {
			return nil, &Error{Kind: KindInvalidArgument, Info: "PKIX key is not an EC key"}
		}
		pub = ecdsaPub
	default:
		return nil, &Error{Kind: KindInvalidArgument, Info: fmt.Sprintf("unrecognized PEM block type %s", block.Type)}
	}
	if pub.Curve != elliptic.P256() {
		return nil, &Error{Kind: KindInvalidArgument, Info: "EC key is not on P-256"}
	}
	return elliptic.MarshalCompressed(elliptic.P256(), pub.X, pub.Y), nil
}

// decodeHexKey undoes optional hex encoding. Raw input passes through
// untouched; a trailing newline after the hex is tolerated.
func decodeHexKey(raw []byte) []byte {
	trimmed := raw
	for len(trimmed) > 0 && (trimmed[len(trimmed)-1] == '\n' || trimmed[len(trimmed)-1] == '\r') {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if len(trimmed)%2 == 0 {
		decoded := make([]byte, len(trimmed)/2)
		if _, err := hex.Decode(decoded, trimmed); err == nil {
			return decoded
		}
	}
	return raw
}

// LoadPrivateKey loads an ECDH private key from a file in the form
// WithTestKey accepts: the raw 32-byte X25519 scalar or a SEC1 DER P-256
// key. PEM wrapping of the P-256 key is unwrapped; X25519 keys may be hex.
func LoadPrivateKey(filename string, curve Curve) ([]byte, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	switch curve {
	case CurveX25519:
		scalar := decodeHexKey(raw)
		if len(scalar) != 32 {
			return nil, &Error{Kind: KindInvalidArgument, Info: fmt.Sprintf("X25519 private key is %d bytes, want 32", len(scalar))}
		}
		return append([]byte(nil), scalar...), nil
	case CurveP256:
		if block, _ := pem.Decode(raw); block != nil {
			if block.Type != "EC PRIVATE KEY" {
				return nil, &Error{Kind: KindInvalidArgument, Info: fmt.Sprintf("unrecognized PEM block type %s", block.Type)}
			}
			raw = block.Bytes
		}
		if _, err := x509.ParseECPrivateKey(raw); err != nil {
			return nil, err
		}
		return append([]byte(nil), raw...), nil
	}
	return nil, &Error{Kind: KindUnsupportedOperation, Info: fmt.Sprintf("cannot load a key for %s", curve)}
}

// SavePrivateKey writes a key pair's private half to a file, PEM-encoded for
// P-256 and raw for X25519. The companion public key in wire form is
// returned so callers can stage it with the CA.
func SavePrivateKey(pair *KeyPair, filename string) ([]byte, error) {
	if pair == nil {
		return nil, &Error{Kind: KindInvalidArgument, Info: "nil key pair"}
	}
	var encoded []byte
	switch pair.Curve {
	case CurveX25519:
		encoded = pair.Private
	case CurveP256:
		encoded = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: pair.Private})
	default:
		return nil, &Error{Kind: KindUnsupportedOperation, Info: fmt.Sprintf("cannot save a key for %s", pair.Curve)}
	}
	if err := os.WriteFile(filename, encoded, 0600); err != nil {
		return nil, err
	}
	return append([]byte(nil), pair.Public...), nil
}
