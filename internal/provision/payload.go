package provision

// AuthAttachment is the optional third-party authentication a caller adds to
// an Issue request: a certificate for the device's authentication key and a
// signature produced with it. Absence is represented by a nil attachment (or
// KeyTypeNone with empty certificate and signature). The attachment is
// caller-owned configuration; it persists across requests until the caller
// clears it.
type AuthAttachment struct {
	KeyType     KeyType
	Certificate []byte
	Signature   []byte
}

// Present reports whether the attachment carries authentication material.
// The key type is not serialized; the CA infers it from the certificate.
func (a *AuthAttachment) Present() bool {
	return a != nil && len(a.Signature) > 0
}

// EncodeIssue builds the inner plaintext of an Issue request:
//
//	header                8   same shape as the outer header
//	auth cert chain size  4   0 when unauthenticated
//	 certificate length   4   present only when the chain size is nonzero
//	 certificate          variable
//	auth signature size   4   0 when unauthenticated
//	 signature            variable
//	product ID hash       32  SHA-256
//	RSA pubkey length     4   reserved, zero
//	ECDSA pubkey length   4   reserved, zero
//	EdDSA pubkey length   4   reserved, zero
//
// The three trailing length fields are reserved for attestation key types no
// CA currently issues inline; they are always written as zero.
func EncodeIssue(productIDHash []byte, auth *AuthAttachment) ([]byte, error) {
	if len(productIDHash) != SHA256DigestLen {
		return nil, newError(KindInvalidArgument, "product ID hash is %d bytes, want %d", len(productIDHash), SHA256DigestLen)
	}
	if auth.Present() && len(auth.Certificate) == 0 {
		return nil, newError(KindInvalidArgument, "authentication signature without a certificate")
	}

	body := newWriter(0)
	if auth.Present() {
		body.int32(int32(4 + len(auth.Certificate)))
		body.int32(int32(len(auth.Certificate)))
		body.bytes(auth.Certificate)
		body.int32(int32(len(auth.Signature)))
		body.bytes(auth.Signature)
	} else {
		body.int32(0)
		body.int32(0)
	}
	body.bytes(productIDHash)
	body.int32(0)
	body.int32(0)
	body.int32(0)

	return prependInnerHeader(body.buf), nil
}

// DecodeIssue is the inverse of EncodeIssue. It returns nil for the
// attachment when the request is unauthenticated. Nonzero reserved key
// length fields fail with UnsupportedOperation; every other structural
// problem is a MalformedMessage.
func DecodeIssue(payload []byte) (*AuthAttachment, []byte, error) {
	r, err := openInnerPayload(payload)
	if err != nil {
		return nil, nil, err
	}

	var auth *AuthAttachment
	chainSize, err := r.int32()
	if err != nil {
		return nil, nil, err
	}
	if chainSize > 0 {
		certLen, err := r.int32()
		if err != nil {
			return nil, nil, err
		}
		if int32(4)+certLen != chainSize {
			return nil, nil, newError(KindMalformedMessage, "certificate chain size %d does not match entry length %d", chainSize, certLen)
		}
		cert, err := r.bytes(int(certLen))
		if err != nil {
			return nil, nil, err
		}
		sigSize, err := r.int32()
		if err != nil {
			return nil, nil, err
		}
		if sigSize == 0 {
			return nil, nil, newError(KindMalformedMessage, "certificate present without a signature")
		}
		sig, err := r.bytes(int(sigSize))
		if err != nil {
			return nil, nil, err
		}
		auth = &AuthAttachment{
			Certificate: append([]byte(nil), cert...),
			Signature:   append([]byte(nil), sig...),
		}
	} else {
		sigSize, err := r.int32()
		if err != nil {
			return nil, nil, err
		}
		if sigSize != 0 {
			return nil, nil, newError(KindMalformedMessage, "signature present without a certificate")
		}
	}

	hash, err := r.bytes(SHA256DigestLen)
	if err != nil {
		return nil, nil, err
	}
	for _, name := range []string{"RSA", "ECDSA", "EdDSA"} {
		keyLen, err := r.int32()
		if err != nil {
			return nil, nil, err
		}
		if keyLen != 0 {
			return nil, nil, newError(KindUnsupportedOperation, "inline %s key certification is not supported", name)
		}
	}
	if r.remaining() != 0 {
		return nil, nil, newError(KindMalformedMessage, "%d trailing bytes after payload", r.remaining())
	}
	return auth, append([]byte(nil), hash...), nil
}

// EncodeIssueSOMKey builds the inner plaintext of an IssueSOMKey request:
// the inner header followed by the 32-byte SOM ID hash.
func EncodeIssueSOMKey(somIDHash []byte) ([]byte, error) {
	if len(somIDHash) != SHA256DigestLen {
		return nil, newError(KindInvalidArgument, "SOM ID hash is %d bytes, want %d", len(somIDHash), SHA256DigestLen)
	}
	return prependInnerHeader(somIDHash), nil
}

// DecodeIssueSOMKey is the inverse of EncodeIssueSOMKey.
func DecodeIssueSOMKey(payload []byte) ([]byte, error) {
	r, err := openInnerPayload(payload)
	if err != nil {
		return nil, err
	}
	hash, err := r.bytes(SHA256DigestLen)
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, newError(KindMalformedMessage, "%d trailing bytes after payload", r.remaining())
	}
	return append([]byte(nil), hash...), nil
}

func prependInnerHeader(body []byte) []byte {
	w := newWriter(HeaderLen + len(body))
	appendHeader(w, MessageVersion, uint32(len(body)))
	w.bytes(body)
	return w.buf
}

// openInnerPayload validates the inner header and requires the declared
// length to equal the remaining byte count exactly.
func openInnerPayload(payload []byte) (*reader, error) {
	r := newReader(payload)
	_, length, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if int(length) != r.remaining() {
		return nil, newError(KindMalformedMessage, "inner header declares %d bytes, %d remain", length, r.remaining())
	}
	return r, nil
}
