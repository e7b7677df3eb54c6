package protocol_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/attestation-tools/provision-command/pkg/protocol"
)

var _ = Describe("GroupAuth", func() {
	var (
		signer *recordingSigner
		auth   *protocol.GroupAuth
	)

	BeforeEach(func() {
		signer = &recordingSigner{}
		auth = &protocol.GroupAuth{
			Signer:      signer,
			Key:         []byte("opaque key blob"),
			Certificate: []byte("membership certificate"),
			Basename:    []byte("basename"),
			Alg:         protocol.HashSHA384,
		}
	})

	It("packages the signature with the certificate", func() {
		attachment, err := auth.Attachment([]byte("challenge"))
		Expect(err).NotTo(HaveOccurred())
		Expect(attachment.KeyType).To(Equal(protocol.KeyTypeEPID))
		Expect(attachment.Certificate).To(Equal([]byte("membership certificate")))
		Expect(attachment.Signature).To(HaveLen(protocol.GroupSignatureLen))
		Expect(attachment.Present()).To(BeTrue())

		Expect(signer.message).To(Equal([]byte("challenge")))
		Expect(signer.key).To(Equal([]byte("opaque key blob")))
		Expect(signer.alg).To(Equal(protocol.HashSHA384))
	})

	It("validates the hash selector before invoking the signer", func() {
		auth.Alg = protocol.HashAlg(0)
		_, err := auth.Attachment([]byte("challenge"))
		Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		Expect(signer.calls).To(BeZero())
	})

	It("accepts every defined hash selector", func() {
		for _, alg := range []protocol.HashAlg{
			protocol.HashSHA256, protocol.HashSHA384, protocol.HashSHA512, protocol.HashSHA512_256,
		} {
			auth.Alg = alg
			_, err := auth.Attachment([]byte("challenge"))
			Expect(err).NotTo(HaveOccurred(), "selector %s", alg)
			Expect(signer.alg).To(Equal(alg))
		}
	})

	It("requires a signer", func() {
		auth.Signer = nil
		_, err := auth.Attachment([]byte("challenge"))
		Expect(err).To(MatchError(protocol.ErrInvalidArgument))
	})

	It("requires a certificate", func() {
		auth.Certificate = nil
		_, err := auth.Attachment([]byte("challenge"))
		Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		Expect(signer.calls).To(BeZero())
	})

	It("reports signer failures as crypto errors", func() {
		cause := errors.New("enclave unavailable")
		signer.err = cause
		_, err := auth.Attachment([]byte("challenge"))
		Expect(err).To(MatchError(protocol.ErrCrypto))
		Expect(errors.Is(err, cause)).To(BeTrue())
	})

	It("rejects signatures of the wrong length", func() {
		signer.signature = bytes.Repeat([]byte{1}, protocol.GroupSignatureLen-1)
		_, err := auth.Attachment([]byte("challenge"))
		Expect(err).To(MatchError(protocol.ErrCrypto))
	})
})
