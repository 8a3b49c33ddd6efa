// Package key exposes the key storage view the operation layer needs:
// public key descriptors for policy checks and the kind of secret
// material behind a key.
package key

import (
	"bytes"
	"io"
	"strconv"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	openpgp "github.com/ProtonMail/go-crypto/openpgp/v2"
	"github.com/ProtonMail/go-pgp-input/armor"
	"github.com/ProtonMail/go-pgp-input/policy"
	"github.com/pkg/errors"
)

var (
	// ErrKeyNotFound is returned for key ids that are not in the ring.
	ErrKeyNotFound = errors.New("gopenpgp: key not found")
	// ErrIncorrectPassphrase is returned when a passphrase does not unlock a key.
	ErrIncorrectPassphrase = errors.New("gopenpgp: incorrect passphrase")
)

// SecretKeyType describes what is needed to use a secret key.
type SecretKeyType int8

const (
	// Unavailable means only the public key is stored.
	Unavailable SecretKeyType = iota
	// Passphrase means the secret key is locked with a passphrase.
	Passphrase
	// PassphraseEmpty means the secret key can be used right away.
	PassphraseEmpty
	// DivertToCard means the secret key lives on a smartcard and only a stub is stored.
	DivertToCard
)

func (t SecretKeyType) String() string {
	switch t {
	case Unavailable:
		return "unavailable"
	case Passphrase:
		return "passphrase"
	case PassphraseEmpty:
		return "passphrase-empty"
	case DivertToCard:
		return "divert-to-card"
	}
	return "unknown"
}

// Ring is a read-only key store over a list of go-crypto entities.
type Ring struct {
	entities openpgp.EntityList
}

type located struct {
	entity  *openpgp.Entity
	public  *packet.PublicKey
	private *packet.PrivateKey
}

// NewRing creates a ring from already parsed entities.
func NewRing(entities openpgp.EntityList) *Ring {
	return &Ring{entities: entities}
}

// ReadRing reads binary or armored key material into a ring.
func ReadRing(r io.Reader, armored bool) (*Ring, error) {
	if armored {
		body, err := armor.KeyReader(r)
		if err != nil {
			return nil, err
		}
		r = body
	}
	entities, err := openpgp.ReadKeyRing(r)
	if err != nil {
		return nil, errors.Wrap(err, "gopenpgp: error in reading key ring")
	}
	return NewRing(entities), nil
}

// Descriptor returns the policy view of the primary key or subkey with the given id.
func (r *Ring) Descriptor(keyID uint64) (policy.KeyDescriptor, error) {
	loc, err := r.find(keyID)
	if err != nil {
		return policy.KeyDescriptor{}, err
	}
	return Describe(loc.public)
}

// MasterKeyID returns the primary key id of the entity holding keyID.
func (r *Ring) MasterKeyID(keyID uint64) (uint64, error) {
	loc, err := r.find(keyID)
	if err != nil {
		return 0, err
	}
	return loc.entity.PrimaryKey.KeyId, nil
}

// SecretKeyType reports what is needed to use the secret part of keyID.
func (r *Ring) SecretKeyType(keyID uint64) (SecretKeyType, error) {
	loc, err := r.find(keyID)
	if err != nil {
		return Unavailable, err
	}
	return secretKeyType(loc.private), nil
}

// CheckPassphrase unlocks a copy of the secret part of keyID with
// passphrase; the key in the ring stays locked. Keys without passphrase and
// card stubs accept any passphrase.
func (r *Ring) CheckPassphrase(keyID uint64, passphrase []byte) error {
	loc, err := r.find(keyID)
	if err != nil {
		return err
	}
	switch secretKeyType(loc.private) {
	case Unavailable:
		return errors.Errorf("gopenpgp: no secret key for %s", keyIDToHex(keyID))
	case Passphrase:
	default:
		return nil
	}

	unlocked, err := copyPrivateKey(loc.private)
	if err != nil {
		return err
	}
	if err := unlocked.Decrypt(passphrase); err != nil {
		return errors.Wrapf(ErrIncorrectPassphrase, "gopenpgp: key %s", keyIDToHex(keyID))
	}
	return nil
}

func copyPrivateKey(pk *packet.PrivateKey) (*packet.PrivateKey, error) {
	var buf bytes.Buffer
	if err := pk.Serialize(&buf); err != nil {
		return nil, errors.Wrap(err, "gopenpgp: unable to copy private key")
	}
	p, err := packet.Read(&buf)
	if err != nil {
		return nil, errors.Wrap(err, "gopenpgp: unable to copy private key")
	}
	copied, ok := p.(*packet.PrivateKey)
	if !ok {
		return nil, errors.New("gopenpgp: unable to copy private key")
	}
	return copied, nil
}

// KeyIDs returns the ids of all primary keys and subkeys.
func (r *Ring) KeyIDs() []uint64 {
	var ids []uint64
	for _, e := range r.entities {
		ids = append(ids, e.PrimaryKey.KeyId)
		for _, sub := range e.Subkeys {
			ids = append(ids, sub.PublicKey.KeyId)
		}
	}
	return ids
}

// Describe builds the policy view of a public key.
func Describe(pk *packet.PublicKey) (policy.KeyDescriptor, error) {
	desc := policy.KeyDescriptor{
		KeyID:     pk.KeyId,
		Algorithm: pk.PubKeyAlgo,
	}
	switch policy.FamilyOf(pk.PubKeyAlgo) {
	case policy.FamilyECDH, policy.FamilyECDSA:
		curve, err := pk.Curve()
		if err != nil {
			return desc, errors.Wrap(err, "gopenpgp: unable to read key curve")
		}
		// Curves without a known OID stay empty and fail the policy.
		desc.CurveOID, _ = policy.CurveOID(curve)
		// BitLength of an EC key is the length of the encoded point.
		desc.BitStrength, _ = policy.CurveBits(curve)
		return desc, nil
	}
	bits, err := pk.BitLength()
	if err != nil {
		return desc, errors.Wrap(err, "gopenpgp: unable to read key bit length")
	}
	desc.BitStrength = bits
	return desc, nil
}

func secretKeyType(pk *packet.PrivateKey) SecretKeyType {
	switch {
	case pk == nil:
		return Unavailable
	case pk.Dummy():
		return DivertToCard
	case pk.Encrypted:
		return Passphrase
	default:
		return PassphraseEmpty
	}
}

func (r *Ring) find(keyID uint64) (*located, error) {
	for _, e := range r.entities {
		if e.PrimaryKey.KeyId == keyID {
			return &located{entity: e, public: e.PrimaryKey, private: e.PrivateKey}, nil
		}
		for _, sub := range e.Subkeys {
			if sub.PublicKey.KeyId == keyID {
				return &located{entity: e, public: sub.PublicKey, private: sub.PrivateKey}, nil
			}
		}
	}
	return nil, errors.Wrapf(ErrKeyNotFound, "gopenpgp: no key with id %s", keyIDToHex(keyID))
}

// keyIDToHex casts a keyID to hex with the correct padding.
func keyIDToHex(keyID uint64) string {
	hex := strconv.FormatUint(keyID, 16)
	for len(hex) < 16 {
		hex = "0" + hex
	}
	return hex
}
