package provision

// OperationStart is the message a CA stages on a device to open an exchange:
//
//	header      8   version byte, 3 reserved zero bytes, uint32 LE length
//	algorithm   1   Curve value
//	operation   1   Operation value
//	public key  33  CA's ephemeral ECDH public key
type OperationStart struct {
	Version     byte
	Curve       Curve
	Operation   Operation
	CAPublicKey []byte
}

const startBodyLen = 2 + ECDHKeyLen

// EncodeOperationStart builds an Operation Start message. It exists for
// CA-side tooling and tests; devices only decode.
func EncodeOperationStart(curve Curve, op Operation, caPublic []byte) ([]byte, error) {
	if curve != CurveP256 && curve != CurveX25519 {
		return nil, newError(KindUnsupportedOperation, "unsupported ECDH curve %d", curve)
	}
	if op < OperationCertify || op > OperationIssueSOMKey {
		return nil, newError(KindInvalidArgument, "unknown operation %d", op)
	}
	if len(caPublic) != ECDHKeyLen {
		return nil, newError(KindInvalidArgument, "CA public key is %d bytes, want %d", len(caPublic), ECDHKeyLen)
	}
	version := byte(MessageVersion)
	if op == OperationIssueSOMKey {
		version = MaxMessageVersion
	}
	w := newWriter(HeaderLen + startBodyLen)
	appendHeader(w, version, startBodyLen)
	w.byte(byte(curve))
	w.byte(byte(op))
	w.bytes(caPublic)
	return w.buf, nil
}

// DecodeOperationStart parses and validates an Operation Start message.
func DecodeOperationStart(msg []byte) (*OperationStart, error) {
	r := newReader(msg)
	version, length, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if int(length) != r.remaining() {
		return nil, newError(KindMalformedMessage, "header declares %d bytes, %d remain", length, r.remaining())
	}
	if length != startBodyLen {
		return nil, newError(KindMalformedMessage, "operation start body is %d bytes, want %d", length, startBodyLen)
	}
	algorithm, err := r.byte()
	if err != nil {
		return nil, err
	}
	curve := Curve(algorithm)
	if curve != CurveP256 && curve != CurveX25519 {
		return nil, newError(KindUnsupportedOperation, "unsupported ECDH curve %d", algorithm)
	}
	opByte, err := r.byte()
	if err != nil {
		return nil, err
	}
	op := Operation(opByte)
	if op < OperationCertify || op > OperationIssueSOMKey {
		return nil, newError(KindInvalidArgument, "unknown operation %d", opByte)
	}
	if op == OperationIssueSOMKey && version < MaxMessageVersion {
		return nil, newError(KindMalformedMessage, "SOM key issuance requires message version %d", MaxMessageVersion)
	}
	caPublic, err := r.bytes(ECDHKeyLen)
	if err != nil {
		return nil, err
	}
	return &OperationStart{
		Version:     version,
		Curve:       curve,
		Operation:   op,
		CAPublicKey: append([]byte(nil), caPublic...),
	}, nil
}
