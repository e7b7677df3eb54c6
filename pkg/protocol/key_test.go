package protocol_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/attestation-tools/provision-command/pkg/protocol"
)

// A fixed SEC1 DER-encoded P-256 private key and a fixed X25519 scalar, used
// to derive deterministic public keys.
var (
	p256KeyDER = mustHex("3031020101" +
		"04201f2e3d4c5b6a798897a6b5c4d3e2f1000f1e2d3c4b5a69788796a5b4c3d2e1f0" +
		"a00a06082a8648ce3d030107")
	x25519Key = mustHex("77076d0a7318a57d3c16c17251b26645df4c2f87ebc0992ab177fba51db92c2a")
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func writeKeyFile(name string, contents []byte) string {
	path := filepath.Join(GinkgoT().TempDir(), name)
	Expect(os.WriteFile(path, contents, 0600)).To(Succeed())
	return path
}

var _ = Describe("LoadCAPublicKey", func() {
	Context("P-256", func() {
		var (
			compressed   []byte
			uncompressed []byte
		)

		BeforeEach(func() {
			pair, err := protocol.NewSuite(protocol.WithTestKey(p256KeyDER)).GenerateKeyPair(protocol.CurveP256)
			Expect(err).NotTo(HaveOccurred())
			compressed = pair.Public
			x, y := elliptic.UnmarshalCompressed(elliptic.P256(), compressed)
			Expect(x).NotTo(BeNil())
			uncompressed = elliptic.Marshal(elliptic.P256(), x, y)
		})

		It("loads a SEC1 PEM private key", func() {
			pemKey := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: p256KeyDER})
			key, err := protocol.LoadCAPublicKey(writeKeyFile("ca.pem", pemKey), protocol.CurveP256)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal(compressed))
		})

		It("loads a PKIX PEM public key", func() {
			x, y := elliptic.UnmarshalCompressed(elliptic.P256(), compressed)
			der, err := x509.MarshalPKIXPublicKey(&ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y})
			Expect(err).NotTo(HaveOccurred())
			pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
			key, err := protocol.LoadCAPublicKey(writeKeyFile("ca.pub", pemKey), protocol.CurveP256)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal(compressed))
		})

		It("loads a binary compressed point", func() {
			key, err := protocol.LoadCAPublicKey(writeKeyFile("ca.bin", compressed), protocol.CurveP256)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal(compressed))
		})

		It("compresses a binary uncompressed point", func() {
			key, err := protocol.LoadCAPublicKey(writeKeyFile("ca.bin", uncompressed), protocol.CurveP256)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal(compressed))
		})

		It("accepts a hex-encoded point with a trailing newline", func() {
			contents := append([]byte(hex.EncodeToString(uncompressed)), '\n')
			key, err := protocol.LoadCAPublicKey(writeKeyFile("ca.hex", contents), protocol.CurveP256)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal(compressed))
		})

		It("rejects a point that is not on the curve", func() {
			bad := append([]byte(nil), compressed...)
			bad[0] = 5
			_, err := protocol.LoadCAPublicKey(writeKeyFile("ca.bin", bad), protocol.CurveP256)
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})

		It("rejects unparseable files", func() {
			_, err := protocol.LoadCAPublicKey(writeKeyFile("ca.txt", []byte("not a key")), protocol.CurveP256)
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})
	})

	Context("X25519", func() {
		It("pads a raw 32-byte key to wire form", func() {
			key, err := protocol.LoadCAPublicKey(writeKeyFile("ca.bin", x25519Key), protocol.CurveX25519)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(HaveLen(protocol.ECDHKeyLen))
			Expect(key[:32]).To(Equal(x25519Key))
			Expect(key[32]).To(BeZero())
		})

		It("accepts the padded wire form", func() {
			padded := append(append([]byte(nil), x25519Key...), 0)
			key, err := protocol.LoadCAPublicKey(writeKeyFile("ca.bin", padded), protocol.CurveX25519)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal(padded))
		})

		It("rejects nonzero padding", func() {
			padded := append(append([]byte(nil), x25519Key...), 1)
			_, err := protocol.LoadCAPublicKey(writeKeyFile("ca.bin", padded), protocol.CurveX25519)
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})

		It("accepts a hex-encoded key", func() {
			contents := []byte(hex.EncodeToString(x25519Key))
			key, err := protocol.LoadCAPublicKey(writeKeyFile("ca.hex", contents), protocol.CurveX25519)
			Expect(err).NotTo(HaveOccurred())
			Expect(key[:32]).To(Equal(x25519Key))
		})

		It("rejects keys of the wrong size", func() {
			_, err := protocol.LoadCAPublicKey(writeKeyFile("ca.bin", x25519Key[:16]), protocol.CurveX25519)
			Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		})
	})

	It("rejects unknown curves", func() {
		_, err := protocol.LoadCAPublicKey(writeKeyFile("ca.bin", x25519Key), protocol.Curve(9))
		Expect(err).To(MatchError(protocol.ErrUnsupportedOperation))
	})

	It("propagates file errors", func() {
		_, err := protocol.LoadCAPublicKey(filepath.Join(GinkgoT().TempDir(), "missing"), protocol.CurveP256)
		Expect(err).To(MatchError(os.ErrNotExist))
	})
})

var _ = Describe("private key files", func() {
	It("round-trips through save and load", func() {
		for _, curve := range []protocol.Curve{protocol.CurveX25519, protocol.CurveP256} {
			pair, err := protocol.NewSuite().GenerateKeyPair(curve)
			Expect(err).NotTo(HaveOccurred())

			path := filepath.Join(GinkgoT().TempDir(), "device.key")
			public, err := protocol.SavePrivateKey(pair, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(public).To(Equal(pair.Public))

			loaded, err := protocol.LoadPrivateKey(path, curve)
			Expect(err).NotTo(HaveOccurred())

			// The loaded key reproduces the original public key.
			reloaded, err := protocol.NewSuite(protocol.WithTestKey(loaded)).GenerateKeyPair(curve)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Public).To(Equal(pair.Public), curve.String())
		}
	})

	It("rejects malformed private keys", func() {
		path := writeKeyFile("bad.key", []byte("garbage"))
		_, err := protocol.LoadPrivateKey(path, protocol.CurveX25519)
		Expect(err).To(MatchError(protocol.ErrInvalidArgument))
		_, err = protocol.LoadPrivateKey(path, protocol.CurveP256)
		Expect(err).To(HaveOccurred())
	})
})
