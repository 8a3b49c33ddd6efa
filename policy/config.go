package policy

import (
	"crypto"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ProtonMail/go-crypto/openpgp/s2k"
)

// Policy derives the go-crypto configurations used by the crypto layer,
// so that go-crypto rejects what the policy rejects.

// knownHashes are the hashes OpenPGP can express.
var knownHashes = []crypto.Hash{
	crypto.MD5,
	crypto.SHA1,
	crypto.RIPEMD160,
	crypto.SHA224,
	crypto.SHA256,
	crypto.SHA384,
	crypto.SHA512,
	crypto.SHA3_256,
	crypto.SHA3_512,
}

var knownPublicKeyAlgorithms = []packet.PublicKeyAlgorithm{
	packet.PubKeyAlgoRSA,
	packet.PubKeyAlgoRSAEncryptOnly,
	packet.PubKeyAlgoRSASignOnly,
	packet.PubKeyAlgoElGamal,
	packet.PubKeyAlgoDSA,
	packet.PubKeyAlgoECDH,
	packet.PubKeyAlgoECDSA,
	packet.PubKeyAlgoEdDSA,
	packet.PubKeyAlgoX25519,
	packet.PubKeyAlgoX448,
	packet.PubKeyAlgoEd25519,
	packet.PubKeyAlgoEd448,
}

// KeyGenerationConfig returns the configuration for creating a key
// with the given algorithm. ECDSA and ECDH keys use curve, RSA keys
// use bits.
func (p *Policy) KeyGenerationConfig(algo packet.PublicKeyAlgorithm, curve packet.Curve, bits int) *packet.Config {
	cfg := &packet.Config{
		Algorithm:              algo,
		DefaultHash:            p.defaultHash,
		DefaultCipher:          p.defaultCipher,
		DefaultCompressionAlgo: p.defaultCompression,
	}
	switch FamilyOf(algo) {
	case FamilyRSA:
		cfg.RSABits = bits
	case FamilyECDH, FamilyECDSA:
		cfg.Curve = curve
	}
	return cfg
}

// SignConfig returns the configuration for signing and verifying.
func (p *Policy) SignConfig() *packet.Config {
	return &packet.Config{
		DefaultHash:               p.defaultHash,
		MinRSABits:                p.minKeyBits[FamilyRSA],
		RejectHashAlgorithms:      p.rejectedHashes(),
		RejectCurves:              p.rejectedCurves(),
		RejectPublicKeyAlgorithms: p.rejectedPublicKeyAlgorithms(),
	}
}

// EncryptionConfig returns the configuration for encrypting and decrypting messages.
func (p *Policy) EncryptionConfig() *packet.Config {
	config := p.SignConfig()
	config.DefaultCipher = p.defaultCipher
	return config
}

// KeyEncryptionConfig returns the configuration for locking secret keys.
func (p *Policy) KeyEncryptionConfig() *packet.Config {
	return &packet.Config{
		DefaultHash:   p.defaultHash,
		DefaultCipher: p.defaultCipher,
		S2KConfig: &s2k.Config{
			S2KMode:  s2k.IteratedSaltedS2K,
			Hash:     p.defaultHash,
			S2KCount: p.s2kCount,
		},
	}
}

// CompressionConfig returns the configuration used when compression is enabled.
func (p *Policy) CompressionConfig() *packet.Config {
	return &packet.Config{
		DefaultCompressionAlgo: p.defaultCompression,
	}
}

func (p *Policy) rejectedHashes() map[crypto.Hash]bool {
	rejected := make(map[crypto.Hash]bool)
	for _, h := range knownHashes {
		if !p.IsSecureHash(h) {
			rejected[h] = true
		}
	}
	return rejected
}

func (p *Policy) rejectedPublicKeyAlgorithms() map[packet.PublicKeyAlgorithm]bool {
	rejected := make(map[packet.PublicKeyAlgorithm]bool)
	for _, algo := range knownPublicKeyAlgorithms {
		switch family := FamilyOf(algo); family {
		case FamilyRSA, FamilyElGamal, FamilyDSA:
			if _, ok := p.minKeyBits[family]; ok {
				continue
			}
		case FamilyECDH, FamilyECDSA:
			if len(p.curves) > 0 {
				continue
			}
		}
		rejected[algo] = true
	}
	return rejected
}
