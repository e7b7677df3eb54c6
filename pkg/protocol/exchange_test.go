package protocol_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/attestation-tools/provision-command/internal/provision"
	"github.com/attestation-tools/provision-command/mocks"
	"github.com/attestation-tools/provision-command/pkg/protocol"
)

// caSimulator plays the CA's half of a conversation: it decodes the device's
// request with its own private key and seals responses under the recovered
// session key.
type caSimulator struct {
	suite      provision.Suite
	pair       *provision.KeyPair
	curve      protocol.Curve
	sessionKey []byte
	challenge  []byte
}

func newCASimulator(curve protocol.Curve) *caSimulator {
	pair, err := provision.NewNativeSuite().GenerateKeyPair(curve)
	Expect(err).NotTo(HaveOccurred())
	return &caSimulator{
		suite: provision.NewNativeSuite(provision.WithTestKey(pair.Private)),
		pair:  pair,
		curve: curve,
	}
}

func (ca *caSimulator) start(op protocol.Operation) *protocol.OperationStart {
	msg, err := protocol.EncodeOperationStart(ca.curve, op, ca.pair.Public)
	Expect(err).NotTo(HaveOccurred())
	start, err := protocol.DecodeOperationStart(msg)
	Expect(err).NotTo(HaveOccurred())
	return start
}

func (ca *caSimulator) openRequest(request []byte) []byte {
	Expect(len(request)).To(BeNumerically(">=", provision.HeaderLen+provision.ECDHKeyLen))
	devicePublic := request[provision.HeaderLen : provision.HeaderLen+provision.ECDHKeyLen]
	caPublic, secret, err := ca.suite.Agree(ca.curve, devicePublic)
	Expect(err).NotTo(HaveOccurred())
	ca.sessionKey, err = provision.DeriveSessionKey(ca.suite, devicePublic, caPublic, secret, provision.SessionKeyLabel)
	Expect(err).NotTo(HaveOccurred())
	ca.challenge, err = provision.DeriveSessionKey(ca.suite, devicePublic, caPublic, secret, provision.AuthChallengeLabel)
	Expect(err).NotTo(HaveOccurred())
	inner, err := provision.OpenResponse(ca.suite, request, ca.sessionKey)
	Expect(err).NotTo(HaveOccurred())
	return inner
}

func (ca *caSimulator) respond(plaintext []byte) []byte {
	envelope, err := provision.SealResponse(ca.suite, plaintext, ca.sessionKey, ca.pair.Public)
	Expect(err).NotTo(HaveOccurred())
	return envelope
}

// recordingSigner is a GroupSigner that captures its inputs and returns a
// canned signature.
type recordingSigner struct {
	message   []byte
	basename  []byte
	key       []byte
	alg       protocol.HashAlg
	signature []byte
	err       error
	calls     int
}

func (r *recordingSigner) Sign(message, basename, key []byte, alg protocol.HashAlg) ([]byte, error) {
	r.calls++
	r.message = append([]byte(nil), message...)
	r.basename = append([]byte(nil), basename...)
	r.key = append([]byte(nil), key...)
	r.alg = alg
	if r.err != nil {
		return nil, r.err
	}
	if r.signature != nil {
		return r.signature, nil
	}
	return bytes.Repeat([]byte{0x5a}, protocol.GroupSignatureLen), nil
}

var _ = Describe("Exchange", func() {
	var (
		suite  protocol.Suite
		idHash []byte
	)

	BeforeEach(func() {
		suite = protocol.NewSuite()
		idHash = suite.SHA256([]byte("product:widget-4"))
	})

	for _, curve := range []protocol.Curve{protocol.CurveX25519, protocol.CurveP256} {
		Context("on "+curve.String(), func() {
			It("completes an Issue conversation", func() {
				ca := newCASimulator(curve)
				x, err := protocol.NewExchange(suite, ca.start(protocol.OperationIssue))
				Expect(err).NotTo(HaveOccurred())
				Expect(x.Operation()).To(Equal(protocol.OperationIssue))

				request, err := x.BuildRequest(idHash, nil)
				Expect(err).NotTo(HaveOccurred())

				auth, hash, err := provision.DecodeIssue(ca.openRequest(request))
				Expect(err).NotTo(HaveOccurred())
				Expect(auth.Present()).To(BeFalse())
				Expect(hash).To(Equal(idHash))

				issued := []byte("issued certificate bundle")
				inner, err := x.OpenResponse(ca.respond(issued))
				Expect(err).NotTo(HaveOccurred())
				Expect(inner).To(Equal(issued))
			})

			It("completes a SOM key conversation", func() {
				ca := newCASimulator(curve)
				start := ca.start(protocol.OperationIssueSOMKey)
				Expect(start.Version).To(BeEquivalentTo(2))

				x, err := protocol.NewExchange(suite, start)
				Expect(err).NotTo(HaveOccurred())

				somHash := suite.SHA256([]byte("som:board-7"))
				request, err := x.BuildRequest(somHash, nil)
				Expect(err).NotTo(HaveOccurred())

				hash, err := provision.DecodeIssueSOMKey(ca.openRequest(request))
				Expect(err).NotTo(HaveOccurred())
				Expect(hash).To(Equal(somHash))

				inner, err := x.OpenResponse(ca.respond([]byte("som key material")))
				Expect(err).NotTo(HaveOccurred())
				Expect(inner).To(Equal([]byte("som key material")))
			})
		})
	}

	It("binds group authentication to the session challenge", func() {
		ca := newCASimulator(protocol.CurveX25519)
		x, err := protocol.NewExchange(suite, ca.start(protocol.OperationIssue))
		Expect(err).NotTo(HaveOccurred())

		signer := &recordingSigner{}
		request, err := x.BuildRequest(idHash, &protocol.GroupAuth{
			Signer:      signer,
			Key:         []byte("group private key blob"),
			Certificate: []byte("group membership certificate"),
			Basename:    []byte("factory-7"),
			Alg:         protocol.HashSHA256,
		})
		Expect(err).NotTo(HaveOccurred())

		auth, hash, err := provision.DecodeIssue(ca.openRequest(request))
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).To(Equal(idHash))
		Expect(auth.Present()).To(BeTrue())
		Expect(auth.Certificate).To(Equal([]byte("group membership certificate")))
		Expect(auth.Signature).To(HaveLen(protocol.GroupSignatureLen))

		// The signer saw the challenge the CA derives from the shared
		// secret, not the request plaintext.
		Expect(signer.calls).To(Equal(1))
		Expect(signer.message).To(Equal(ca.challenge))
		Expect(signer.basename).To(Equal([]byte("factory-7")))
	})

	It("attaches static authentication material verbatim", func() {
		ca := newCASimulator(protocol.CurveX25519)
		x, err := protocol.NewExchange(suite, ca.start(protocol.OperationIssue))
		Expect(err).NotTo(HaveOccurred())

		attachment := &protocol.AuthAttachment{
			Certificate: []byte("cert"),
			Signature:   []byte("precomputed signature"),
		}
		request, err := x.BuildRequest(idHash, protocol.StaticAuth(attachment))
		Expect(err).NotTo(HaveOccurred())

		auth, _, err := provision.DecodeIssue(ca.openRequest(request))
		Expect(err).NotTo(HaveOccurred())
		Expect(auth.Signature).To(Equal([]byte("precomputed signature")))
	})

	It("rejects authentication on SOM key issuance", func() {
		ca := newCASimulator(protocol.CurveX25519)
		x, err := protocol.NewExchange(suite, ca.start(protocol.OperationIssueSOMKey))
		Expect(err).NotTo(HaveOccurred())

		_, err = x.BuildRequest(idHash, protocol.StaticAuth(&protocol.AuthAttachment{Signature: []byte("sig")}))
		Expect(err).To(MatchError(protocol.ErrInvalidArgument))

		// The rejection happened before any keys were generated, so the
		// exchange is still usable.
		_, err = x.BuildRequest(idHash, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("state machine", func() {
		var ca *caSimulator
		var x *protocol.Exchange

		BeforeEach(func() {
			ca = newCASimulator(protocol.CurveX25519)
			var err error
			x, err = protocol.NewExchange(suite, ca.start(protocol.OperationIssue))
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses to open a response before a request exists", func() {
			_, err := x.OpenResponse([]byte("anything"))
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})

		It("refuses to build a second request", func() {
			_, err := x.BuildRequest(idHash, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = x.BuildRequest(idHash, nil)
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})

		It("refuses to open a second response", func() {
			request, err := x.BuildRequest(idHash, nil)
			Expect(err).NotTo(HaveOccurred())
			ca.openRequest(request)
			response := ca.respond([]byte("issued"))
			_, err = x.OpenResponse(response)
			Expect(err).NotTo(HaveOccurred())
			_, err = x.OpenResponse(response)
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})

		It("is terminal after a tampered response", func() {
			request, err := x.BuildRequest(idHash, nil)
			Expect(err).NotTo(HaveOccurred())
			ca.openRequest(request)
			response := ca.respond([]byte("issued"))

			corrupt := append([]byte(nil), response...)
			corrupt[len(corrupt)-1] ^= 1
			_, err = x.OpenResponse(corrupt)
			Expect(err).To(MatchError(protocol.ErrCrypto))

			// Even the untampered response is refused now.
			_, err = x.OpenResponse(response)
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})

		It("is terminal after a failed signer", func() {
			signer := &recordingSigner{err: provision.ErrCrypto}
			_, err := x.BuildRequest(idHash, &protocol.GroupAuth{
				Signer:      signer,
				Certificate: []byte("cert"),
				Alg:         protocol.HashSHA256,
			})
			Expect(err).To(MatchError(protocol.ErrCrypto))
			_, err = x.BuildRequest(idHash, nil)
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})
	})

	Describe("construction", func() {
		caPublic := bytes.Repeat([]byte{7}, protocol.ECDHKeyLen)

		It("rejects a nil descriptor", func() {
			_, err := protocol.NewExchange(suite, nil)
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})

		It("rejects operations without a request codec", func() {
			for _, op := range []protocol.Operation{protocol.OperationCertify, protocol.OperationIssueEncrypted} {
				_, err := protocol.NewExchange(suite, &protocol.OperationStart{
					Curve: protocol.CurveP256, Operation: op, CAPublicKey: caPublic,
				})
				Expect(err).To(MatchError(protocol.ErrUnsupportedOperation))
			}
		})

		It("rejects unknown operations", func() {
			_, err := protocol.NewExchange(suite, &protocol.OperationStart{
				Curve: protocol.CurveP256, Operation: protocol.Operation(9), CAPublicKey: caPublic,
			})
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})

		It("rejects a short CA public key", func() {
			_, err := protocol.NewExchange(suite, &protocol.OperationStart{
				Curve: protocol.CurveP256, Operation: protocol.OperationIssue, CAPublicKey: caPublic[:16],
			})
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})
	})

	Describe("failure injection", func() {
		It("fails the exchange when the entropy source is down", func() {
			ctrl := gomock.NewController(GinkgoT())
			mockSuite := mocks.NewMockSuite(ctrl)
			real := provision.NewNativeSuite()

			mockSuite.EXPECT().Agree(gomock.Any(), gomock.Any()).DoAndReturn(real.Agree)
			mockSuite.EXPECT().HKDFSHA256(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(real.HKDFSHA256).Times(2)
			mockSuite.EXPECT().RandomBytes(provision.GCMIVLen).Return(nil, provision.ErrIO)

			ca := newCASimulator(protocol.CurveX25519)
			x, err := protocol.NewExchange(mockSuite, ca.start(protocol.OperationIssue))
			Expect(err).NotTo(HaveOccurred())

			_, err = x.BuildRequest(idHash, nil)
			Expect(err).To(MatchError(protocol.ErrIO))

			// The failure is terminal.
			_, err = x.BuildRequest(idHash, nil)
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})
	})
})
