package provision

// CA request and response envelopes share one layout:
//
//	header            8   version byte, 3 reserved zero bytes,
//	                      uint32 LE length of everything that follows
//	public key        33  sender's ephemeral ECDH public key
//	IV                12
//	ciphertext length 4
//	ciphertext        variable
//	tag               16
//
// The ciphertext is the AES-128-GCM encryption of an inner payload that
// starts with the same 8-byte header shape.

// envelopeOverhead is every fixed-size field after the outer header.
const envelopeOverhead = ECDHKeyLen + GCMIVLen + 4 + GCMTagLen

func appendHeader(w *writer, version byte, length uint32) {
	w.byte(version)
	w.bytes([]byte{0, 0, 0})
	w.uint32(length)
}

// readHeader consumes and validates the 8-byte message header, returning the
// version and the declared length of the remainder.
func readHeader(r *reader) (byte, uint32, error) {
	version, err := r.byte()
	if err != nil {
		return 0, 0, err
	}
	if version == 0 || version > MaxMessageVersion {
		return 0, 0, newError(KindMalformedMessage, "unsupported message version %d", version)
	}
	reserved, err := r.bytes(3)
	if err != nil {
		return 0, 0, err
	}
	if reserved[0] != 0 || reserved[1] != 0 || reserved[2] != 0 {
		return 0, 0, newError(KindMalformedMessage, "reserved header bytes set")
	}
	length, err := r.uint32()
	if err != nil {
		return 0, 0, err
	}
	return version, length, nil
}

// PlaintextFunc builds the inner request plaintext for BuildRequestFunc. The
// authChallenge argument is derived from the exchange's shared secret before
// encryption, so payloads can embed a signature over it.
type PlaintextFunc func(authChallenge []byte) ([]byte, error)

// BuildRequest encrypts plaintext into a CA request envelope. It generates
// the device ECDH key pair, derives the session key from the shared secret
// with caPublic, seals the plaintext under a fresh random IV, and frames the
// result. The device key pair is discarded; the caller observes it only
// through the returned session key, which it needs to open the CA's
// response.
func BuildRequest(s Suite, curve Curve, caPublic, plaintext []byte) (request, sessionKey []byte, err error) {
	return BuildRequestFunc(s, curve, caPublic, func([]byte) ([]byte, error) {
		return plaintext, nil
	})
}

// BuildRequestFunc is BuildRequest with a deferred plaintext: fn runs after
// key agreement and receives the derived authentication challenge.
func BuildRequestFunc(s Suite, curve Curve, caPublic []byte, fn PlaintextFunc) (request, sessionKey []byte, err error) {
	devicePublic, sharedSecret, err := s.Agree(curve, caPublic)
	if err != nil {
		return nil, nil, err
	}
	sessionKey, err = DeriveSessionKey(s, devicePublic, caPublic, sharedSecret, SessionKeyLabel)
	if err != nil {
		return nil, nil, err
	}
	challenge, err := DeriveSessionKey(s, devicePublic, caPublic, sharedSecret, AuthChallengeLabel)
	if err != nil {
		return nil, nil, err
	}
	plaintext, err := fn(challenge)
	if err != nil {
		return nil, nil, err
	}
	request, err = SealResponse(s, plaintext, sessionKey, devicePublic)
	if err != nil {
		return nil, nil, err
	}
	return request, sessionKey, nil
}

// SealResponse encrypts plaintext into an envelope under an existing session
// key. CA-side tools use it to answer a request whose session key they
// recovered from the embedded device public key; senderPublic fills the
// envelope's public key field.
func SealResponse(s Suite, plaintext, sessionKey, senderPublic []byte) ([]byte, error) {
	if len(senderPublic) != ECDHKeyLen {
		return nil, newError(KindInvalidArgument, "sender public key is %d bytes, want %d", len(senderPublic), ECDHKeyLen)
	}
	iv, err := s.RandomBytes(GCMIVLen)
	if err != nil {
		return nil, err
	}
	ciphertext, tag, err := s.Seal(plaintext, sessionKey, iv)
	if err != nil {
		return nil, err
	}

	total := envelopeOverhead + len(ciphertext)
	w := newWriter(HeaderLen + total)
	appendHeader(w, MessageVersion, uint32(total))
	w.bytes(senderPublic)
	w.bytes(iv)
	w.uint32(uint32(len(ciphertext)))
	w.bytes(ciphertext)
	w.bytes(tag)
	return w.buf, nil
}

// OpenResponse validates a CA response envelope against its header and
// decrypts the ciphertext with the session key derived when the request was
// built. The returned bytes are the inner payload, still carrying its own
// header. Length validation happens before any decryption is attempted: a
// header that disagrees with the buffer fails with MalformedMessage, and a
// ciphertext length field inconsistent with the envelope layout fails with a
// CryptoError.
func OpenResponse(s Suite, envelope, sessionKey []byte) ([]byte, error) {
	r := newReader(envelope)
	_, length, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if int(length) != r.remaining() {
		return nil, newError(KindMalformedMessage, "header declares %d bytes, %d remain", length, r.remaining())
	}
	// The CA's public key is already bound into the session key; the copy
	// embedded in the envelope is skipped.
	if _, err := r.bytes(ECDHKeyLen); err != nil {
		return nil, err
	}
	iv, err := r.bytes(GCMIVLen)
	if err != nil {
		return nil, err
	}
	ciphertextLen, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if int(length) != envelopeOverhead+int(ciphertextLen) {
		return nil, newError(KindCrypto, "ciphertext length %d inconsistent with envelope length %d", ciphertextLen, length)
	}
	ciphertext, err := r.bytes(int(ciphertextLen))
	if err != nil {
		return nil, err
	}
	tag, err := r.bytes(GCMTagLen)
	if err != nil {
		return nil, err
	}
	return s.Open(ciphertext, tag, sessionKey, iv)
}
