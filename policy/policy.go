// Package policy decides which OpenPGP algorithms are acceptable and which
// algorithms are used by default.
//
// A Policy is built once from a Custom configuration value and never changes
// afterwards, so a single Policy can be shared by any number of goroutines.
// Use one of the presets if possible, i.e. policy.Default() or policy.Strict().
package policy

import (
	"crypto"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	openpgp "github.com/ProtonMail/go-crypto/openpgp/v2"
)

// KeyFamily groups public key algorithms that share a strength rule.
type KeyFamily int8

const (
	FamilyUnknown KeyFamily = iota
	FamilyRSA
	FamilyElGamal
	FamilyDSA
	FamilyECDH
	FamilyECDSA
)

// FamilyOf returns the family of an OpenPGP public key algorithm.
// Algorithms without a rule in this package map to FamilyUnknown.
func FamilyOf(algo packet.PublicKeyAlgorithm) KeyFamily {
	switch algo {
	case packet.PubKeyAlgoRSA, packet.PubKeyAlgoRSAEncryptOnly, packet.PubKeyAlgoRSASignOnly:
		return FamilyRSA
	case packet.PubKeyAlgoElGamal:
		return FamilyElGamal
	case packet.PubKeyAlgoDSA:
		return FamilyDSA
	case packet.PubKeyAlgoECDH:
		return FamilyECDH
	case packet.PubKeyAlgoECDSA:
		return FamilyECDSA
	default:
		return FamilyUnknown
	}
}

// KeyDescriptor is the read-only view of a public key needed to
// evaluate the policy.
type KeyDescriptor struct {
	KeyID       uint64
	Algorithm   packet.PublicKeyAlgorithm
	BitStrength uint16
	// CurveOID is the dotted OID of the key's curve, empty for non-EC keys.
	CurveOID string
}

// Custom is the configuration a Policy is built from.
type Custom struct {
	// Name identifies the policy in logs.
	Name string
	// SymmetricWhitelist lists the only ciphers accepted on decryption.
	SymmetricWhitelist []packet.CipherFunction
	// HashWhitelist lists the only hashes accepted on signatures.
	HashWhitelist []crypto.Hash
	// CurveWhitelist lists the dotted OIDs of accepted ECDH and ECDSA curves.
	CurveWhitelist []string
	// MinKeyBits is the minimum bit strength per finite-field key family.
	// Families without an entry are rejected.
	MinKeyBits map[KeyFamily]uint16
	// DefaultCipher, DefaultHash and DefaultCompression are always used,
	// whatever the recipient's key advertises.
	DefaultCipher      packet.CipherFunction
	DefaultHash        crypto.Hash
	DefaultCompression packet.CompressionAlgo
	// Preferred lists are written into keys created by us, most preferred first.
	PreferredCiphers     []packet.CipherFunction
	PreferredHashes      []crypto.Hash
	PreferredCompression []packet.CompressionAlgo
	// CertifyHash is the hash used for certifications.
	CertifyHash crypto.Hash
	// S2KCount is the decoded iteration count for secret key encryption.
	S2KCount int
}

// Policy is an immutable algorithm policy.
type Policy struct {
	name               string
	symmetric          map[packet.CipherFunction]struct{}
	hashes             map[crypto.Hash]struct{}
	curves             map[string]struct{}
	minKeyBits         map[KeyFamily]uint16
	defaultCipher      packet.CipherFunction
	defaultHash        crypto.Hash
	defaultCompression packet.CompressionAlgo
	preferredCiphers   []packet.CipherFunction
	preferredHashes    []crypto.Hash
	preferredComp      []packet.CompressionAlgo
	certifyHash        crypto.Hash
	s2kCount           int
}

// New builds a Policy from c. Later changes to c do not affect the Policy.
func New(c Custom) *Policy {
	p := &Policy{
		name:               c.Name,
		symmetric:          make(map[packet.CipherFunction]struct{}, len(c.SymmetricWhitelist)),
		hashes:             make(map[crypto.Hash]struct{}, len(c.HashWhitelist)),
		curves:             make(map[string]struct{}, len(c.CurveWhitelist)),
		minKeyBits:         make(map[KeyFamily]uint16, len(c.MinKeyBits)),
		defaultCipher:      c.DefaultCipher,
		defaultHash:        c.DefaultHash,
		defaultCompression: c.DefaultCompression,
		preferredCiphers:   append([]packet.CipherFunction(nil), c.PreferredCiphers...),
		preferredHashes:    append([]crypto.Hash(nil), c.PreferredHashes...),
		preferredComp:      append([]packet.CompressionAlgo(nil), c.PreferredCompression...),
		certifyHash:        c.CertifyHash,
		s2kCount:           c.S2KCount,
	}
	for _, cf := range c.SymmetricWhitelist {
		p.symmetric[cf] = struct{}{}
	}
	for _, h := range c.HashWhitelist {
		p.hashes[h] = struct{}{}
	}
	for _, oid := range c.CurveWhitelist {
		p.curves[oid] = struct{}{}
	}
	for family, bits := range c.MinKeyBits {
		p.minKeyBits[family] = bits
	}
	return p
}

// Name returns the configured policy name.
func (p *Policy) Name() string {
	return p.name
}

// IsSecureSymmetric reports whether the cipher is whitelisted.
func (p *Policy) IsSecureSymmetric(cipher packet.CipherFunction) bool {
	_, ok := p.symmetric[cipher]
	return ok
}

// IsSecureHash reports whether the hash is whitelisted.
func (p *Policy) IsSecureHash(hash crypto.Hash) bool {
	_, ok := p.hashes[hash]
	return ok
}

// IsSecureHashID is IsSecureHash for an OpenPGP hash algorithm id.
// Ids unknown to OpenPGP are insecure.
func (p *Policy) IsSecureHashID(id uint8) bool {
	hash, ok := openpgp.HashIdToHash(id)
	if !ok {
		return false
	}
	return p.IsSecureHash(hash)
}

// IsSecureCurve reports whether the curve OID is whitelisted.
func (p *Policy) IsSecureCurve(oid string) bool {
	_, ok := p.curves[oid]
	return ok
}

// IsSecureKey evaluates a public key against the policy.
// RSA, ElGamal and DSA keys need the family's minimum bit strength,
// ECDH and ECDSA keys a whitelisted curve. Every other algorithm is insecure.
func (p *Policy) IsSecureKey(key KeyDescriptor) bool {
	switch family := FamilyOf(key.Algorithm); family {
	case FamilyRSA, FamilyElGamal, FamilyDSA:
		min, ok := p.minKeyBits[family]
		return ok && key.BitStrength >= min
	case FamilyECDH, FamilyECDSA:
		return p.IsSecureCurve(key.CurveOID)
	default:
		return false
	}
}

// MinKeyBits returns the minimum bit strength of a key family,
// and false if the family has no bit strength rule.
func (p *Policy) MinKeyBits(family KeyFamily) (uint16, bool) {
	bits, ok := p.minKeyBits[family]
	return bits, ok
}

// ChosenSymmetric returns the cipher used for encryption.
// Peer preferences are ignored; the default is always returned.
func (p *Policy) ChosenSymmetric(peerPreferences ...packet.CipherFunction) packet.CipherFunction {
	return p.defaultCipher
}

// ChosenHash returns the hash used for signing.
// Peer preferences are ignored; the default is always returned.
func (p *Policy) ChosenHash(peerPreferences ...crypto.Hash) crypto.Hash {
	return p.defaultHash
}

// ChosenCompression returns the compression used when compression is enabled.
func (p *Policy) ChosenCompression() packet.CompressionAlgo {
	return p.defaultCompression
}

// CertifyHash returns the hash used for key certifications.
func (p *Policy) CertifyHash() crypto.Hash {
	return p.certifyHash
}

// PreferredCiphers returns a copy of the cipher preferences advertised on our keys.
func (p *Policy) PreferredCiphers() []packet.CipherFunction {
	return append([]packet.CipherFunction(nil), p.preferredCiphers...)
}

// PreferredHashes returns a copy of the hash preferences advertised on our keys.
func (p *Policy) PreferredHashes() []crypto.Hash {
	return append([]crypto.Hash(nil), p.preferredHashes...)
}

// PreferredCompression returns a copy of the compression preferences advertised on our keys.
func (p *Policy) PreferredCompression() []packet.CompressionAlgo {
	return append([]packet.CompressionAlgo(nil), p.preferredComp...)
}
