package protocol

import "fmt"

// GroupSignatureLen is the size of an anonymous group signature blob. The
// protocol treats the signature as opaque; only its length is checked.
const GroupSignatureLen = 360

// HashAlg selects the digest a group signer hashes the message with.
type HashAlg int

const (
	HashSHA256 HashAlg = iota + 1
	HashSHA384
	HashSHA512
	HashSHA512_256
)

func (h HashAlg) String() string {
	switch h {
	case HashSHA256:
		return "SHA-256"
	case HashSHA384:
		return "SHA-384"
	case HashSHA512:
		return "SHA-512"
	case HashSHA512_256:
		return "SHA-512/256"
	}
	return fmt.Sprintf("HashAlg(%d)", int(h))
}

func (h HashAlg) valid() bool {
	switch h {
	case HashSHA256, HashSHA384, HashSHA512, HashSHA512_256:
		return true
	}
	return false
}

// GroupSigner produces anonymous group signatures over a message. Signing is
// usually backed by hardware or a vendor library; implementations receive
// the key material as an opaque blob and must return exactly
// GroupSignatureLen bytes. The basename, when non-empty, links signatures
// from the same key without identifying it; an empty basename requests a
// fully unlinkable signature.
type GroupSigner interface {
	Sign(message, basename, key []byte, alg HashAlg) ([]byte, error)
}

// GroupAuth adapts a GroupSigner into the AuthProvider an Exchange consumes.
// The session challenge is the signed message, so the attachment cannot be
// replayed into another exchange.
type GroupAuth struct {
	Signer      GroupSigner
	Key         []byte
	Certificate []byte
	Basename    []byte
	Alg         HashAlg
}

// Attachment signs the challenge and packages the result with the group
// membership certificate. The hash selector is validated before the signer
// is invoked; a signer returning the wrong signature length is reported as a
// crypto failure.
func (g *GroupAuth) Attachment(challenge []byte) (*AuthAttachment, error) {
	if g.Signer == nil {
		return nil, &Error{Kind: KindInvalidArgument, Info: "no group signer configured"}
	}
	if !g.Alg.valid() {
		return nil, &Error{Kind: KindInvalidArgument, Info: fmt.Sprintf("unknown hash selector %d", int(g.Alg))}
	}
	if len(g.Certificate) == 0 {
		return nil, &Error{Kind: KindInvalidArgument, Info: "group authentication requires a certificate"}
	}
	signature, err := g.Signer.Sign(challenge, g.Basename, g.Key, g.Alg)
	if err != nil {
		return nil, &Error{Kind: KindCrypto, Info: "group signing failed", Err: err}
	}
	if len(signature) != GroupSignatureLen {
		return nil, &Error{Kind: KindCrypto, Info: fmt.Sprintf("group signature is %d bytes, want %d", len(signature), GroupSignatureLen)}
	}
	return &AuthAttachment{
		KeyType:     KeyTypeEPID,
		Certificate: append([]byte(nil), g.Certificate...),
		Signature:   signature,
	}, nil
}
