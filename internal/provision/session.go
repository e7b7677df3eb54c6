package provision

// HKDF context labels. The CA derives the same values, so these are fixed by
// the protocol.
const (
	// SessionKeyLabel derives the AES-128 session key.
	SessionKeyLabel = "KEY"
	// AuthChallengeLabel derives the challenge a device signs when it
	// attaches third-party authentication to an Issue request.
	AuthChallengeLabel = "SIGN"
)

// DeriveSessionKey turns an ECDH shared secret and both parties' public keys
// into AES128KeyLen bytes of symmetric key material. Both sides must derive
// byte-identical output from the same inputs; the channel depends on it. The
// salt is devicePublic followed by caPublic, in that order, on both sides.
func DeriveSessionKey(s Suite, devicePublic, caPublic, sharedSecret []byte, label string) ([]byte, error) {
	if len(devicePublic) != ECDHKeyLen {
		return nil, newError(KindInvalidArgument, "device public key is %d bytes, want %d", len(devicePublic), ECDHKeyLen)
	}
	if len(caPublic) != ECDHKeyLen {
		return nil, newError(KindInvalidArgument, "CA public key is %d bytes, want %d", len(caPublic), ECDHKeyLen)
	}
	if len(sharedSecret) == 0 {
		return nil, newError(KindInvalidArgument, "empty shared secret")
	}
	salt := make([]byte, 0, 2*ECDHKeyLen)
	salt = append(salt, devicePublic...)
	salt = append(salt, caPublic...)
	return s.HKDFSHA256(salt, sharedSecret, []byte(label), AES128KeyLen)
}
