package policy

import (
	"crypto"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/pkg/errors"
)

// s2kCount is the iteration count encoded as 0x90 in a secret key's S2K specifier.
const s2kCount = 524288

// Default returns the policy used unless configured otherwise.
//
// Accepted ciphers have at least 128 bit keys. SHA-256 is still accepted
// on signatures for compatibility with other implementations, but keys
// created by us only advertise SHA-512.
// Compression defaults to ZIP; ZLIB brings nothing over it and is more malleable.
func Default() *Policy {
	return New(DefaultCustom())
}

// DefaultCustom returns the configuration of Default, to be tweaked
// before building a derived Policy.
func DefaultCustom() Custom {
	return Custom{
		Name: "default",
		SymmetricWhitelist: []packet.CipherFunction{
			packet.CipherAES256,
			packet.CipherAES192,
			packet.CipherAES128,
			CipherTwofish,
		},
		HashWhitelist: []crypto.Hash{
			crypto.SHA512,
			crypto.SHA384,
			crypto.SHA256,
		},
		CurveWhitelist: []string{
			OIDNistP256,
			OIDNistP384,
			OIDNistP521,
		},
		MinKeyBits: map[KeyFamily]uint16{
			FamilyRSA:     1024,
			FamilyElGamal: 1024,
			FamilyDSA:     1024,
		},
		DefaultCipher:      packet.CipherAES256,
		DefaultHash:        crypto.SHA512,
		DefaultCompression: packet.CompressionZIP,
		PreferredCiphers: []packet.CipherFunction{
			packet.CipherAES256,
			packet.CipherAES192,
			packet.CipherAES128,
		},
		PreferredHashes:      []crypto.Hash{crypto.SHA512},
		PreferredCompression: []packet.CompressionAlgo{packet.CompressionZIP},
		CertifyHash:          crypto.SHA512,
		S2KCount:             s2kCount,
	}
}

// Strict returns a tightened policy: no Twofish, no SHA-256 and
// 2048 bit finite-field keys.
func Strict() *Policy {
	c := DefaultCustom()
	c.Name = "strict"
	c.SymmetricWhitelist = []packet.CipherFunction{
		packet.CipherAES256,
		packet.CipherAES192,
		packet.CipherAES128,
	}
	c.HashWhitelist = []crypto.Hash{crypto.SHA512, crypto.SHA384}
	c.MinKeyBits = map[KeyFamily]uint16{
		FamilyRSA:     2048,
		FamilyElGamal: 2048,
		FamilyDSA:     2048,
	}
	return New(c)
}

// ByName returns the preset with the given name.
func ByName(name string) (*Policy, error) {
	switch name {
	case "", "default":
		return Default(), nil
	case "strict":
		return Strict(), nil
	}
	return nil, errors.New("gopenpgp: unknown policy: " + name)
}
