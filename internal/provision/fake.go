package provision

// Fake implements Suite for tests. Each operation delegates to Base unless
// the corresponding func field is set, so a test can override a single
// operation while the rest keep their real behavior. Override fields must be
// configured before the Fake is handed to code under test.
type Fake struct {
	// Base handles any operation without an override. Defaults to a
	// NativeSuite when nil.
	Base Suite

	RandomBytesFunc     func(n int) ([]byte, error)
	GenerateKeyPairFunc func(curve Curve) (*KeyPair, error)
	AgreeFunc           func(curve Curve, peerPublic []byte) ([]byte, []byte, error)
	SealFunc            func(plaintext, key, iv []byte) ([]byte, []byte, error)
	OpenFunc            func(ciphertext, tag, key, iv []byte) ([]byte, error)
	SHA256Func          func(data []byte) []byte
	HKDFSHA256Func      func(salt, ikm, info []byte, length int) ([]byte, error)
}

func (f *Fake) base() Suite {
	if f.Base == nil {
		f.Base = NewNativeSuite()
	}
	return f.Base
}

func (f *Fake) RandomBytes(n int) ([]byte, error) {
	if f.RandomBytesFunc != nil {
		return f.RandomBytesFunc(n)
	}
	return f.base().RandomBytes(n)
}

func (f *Fake) GenerateKeyPair(curve Curve) (*KeyPair, error) {
	if f.GenerateKeyPairFunc != nil {
		return f.GenerateKeyPairFunc(curve)
	}
	return f.base().GenerateKeyPair(curve)
}

func (f *Fake) Agree(curve Curve, peerPublic []byte) ([]byte, []byte, error) {
	if f.AgreeFunc != nil {
		return f.AgreeFunc(curve, peerPublic)
	}
	return f.base().Agree(curve, peerPublic)
}

func (f *Fake) Seal(plaintext, key, iv []byte) ([]byte, []byte, error) {
	if f.SealFunc != nil {
		return f.SealFunc(plaintext, key, iv)
	}
	return f.base().Seal(plaintext, key, iv)
}

func (f *Fake) Open(ciphertext, tag, key, iv []byte) ([]byte, error) {
	if f.OpenFunc != nil {
		return f.OpenFunc(ciphertext, tag, key, iv)
	}
	return f.base().Open(ciphertext, tag, key, iv)
}

func (f *Fake) SHA256(data []byte) []byte {
	if f.SHA256Func != nil {
		return f.SHA256Func(data)
	}
	return f.base().SHA256(data)
}

func (f *Fake) HKDFSHA256(salt, ikm, info []byte, length int) ([]byte, error) {
	if f.HKDFSHA256Func != nil {
		return f.HKDFSHA256Func(salt, ikm, info, length)
	}
	return f.base().HKDFSHA256(salt, ikm, info, length)
}
