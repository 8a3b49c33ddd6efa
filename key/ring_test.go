package key

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	openpgp "github.com/ProtonMail/go-crypto/openpgp/v2"
	"github.com/ProtonMail/go-pgp-input/armor"
	"github.com/ProtonMail/go-pgp-input/policy"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = policy.Default()

func generateEntity(t *testing.T, algo packet.PublicKeyAlgorithm, curve packet.Curve, bits int) *openpgp.Entity {
	t.Helper()
	config := testPolicy.KeyGenerationConfig(algo, curve, bits)
	entity, err := openpgp.NewEntity("richard.stallman", "", "richard.stallman@protonmail.ch", config)
	require.NoError(t, err, "Cannot generate key")
	require.NotEmpty(t, entity.Subkeys)
	return entity
}

func TestDescriptorECDSA(t *testing.T) {
	entity := generateEntity(t, packet.PubKeyAlgoECDSA, packet.CurveNistP256, 0)
	ring := NewRing(openpgp.EntityList{entity})

	desc, err := ring.Descriptor(entity.PrimaryKey.KeyId)
	require.NoError(t, err)
	assert.Equal(t, entity.PrimaryKey.KeyId, desc.KeyID)
	assert.Equal(t, packet.PubKeyAlgoECDSA, desc.Algorithm)
	assert.Equal(t, policy.OIDNistP256, desc.CurveOID)
	assert.EqualValues(t, 256, desc.BitStrength)
	assert.True(t, testPolicy.IsSecureKey(desc))

	subKeyID := entity.Subkeys[0].PublicKey.KeyId
	desc, err = ring.Descriptor(subKeyID)
	require.NoError(t, err)
	assert.Equal(t, packet.PubKeyAlgoECDH, desc.Algorithm)
	assert.EqualValues(t, 256, desc.BitStrength)
	assert.True(t, testPolicy.IsSecureKey(desc))

	master, err := ring.MasterKeyID(subKeyID)
	require.NoError(t, err)
	assert.Equal(t, entity.PrimaryKey.KeyId, master)
	assert.ElementsMatch(t, []uint64{entity.PrimaryKey.KeyId, subKeyID}, ring.KeyIDs())
}

func TestDescriptorRSA(t *testing.T) {
	entity := generateEntity(t, packet.PubKeyAlgoRSA, "", 2048)
	ring := NewRing(openpgp.EntityList{entity})

	desc, err := ring.Descriptor(entity.PrimaryKey.KeyId)
	require.NoError(t, err)
	assert.Equal(t, policy.FamilyRSA, policy.FamilyOf(desc.Algorithm))
	assert.EqualValues(t, 2048, desc.BitStrength)
	assert.Empty(t, desc.CurveOID)
	assert.True(t, policy.Strict().IsSecureKey(desc))
}

func TestDescriptorEdDSAIsInsecure(t *testing.T) {
	entity := generateEntity(t, packet.PubKeyAlgoEdDSA, packet.Curve25519, 0)
	desc, err := Describe(entity.PrimaryKey)
	require.NoError(t, err)
	assert.False(t, testPolicy.IsSecureKey(desc))
}

func TestSecretKeyType(t *testing.T) {
	entity := generateEntity(t, packet.PubKeyAlgoECDSA, packet.CurveNistP256, 0)
	keyID := entity.PrimaryKey.KeyId
	ring := NewRing(openpgp.EntityList{entity})

	kind, err := ring.SecretKeyType(keyID)
	require.NoError(t, err)
	assert.Equal(t, PassphraseEmpty, kind)

	require.NoError(t, entity.EncryptPrivateKeys([]byte("I love GNU"), testPolicy.KeyEncryptionConfig()))
	kind, err = ring.SecretKeyType(keyID)
	require.NoError(t, err)
	assert.Equal(t, Passphrase, kind)

	var public bytes.Buffer
	require.NoError(t, entity.Serialize(&public))
	publicRing, err := ReadRing(bytes.NewReader(public.Bytes()), false)
	require.NoError(t, err)

	kind, err = publicRing.SecretKeyType(keyID)
	require.NoError(t, err)
	assert.Equal(t, Unavailable, kind)
	assert.Equal(t, "unavailable", kind.String())

	armored, err := armor.ArmorKey(public.Bytes())
	require.NoError(t, err)
	armoredRing, err := ReadRing(strings.NewReader(armored), true)
	require.NoError(t, err)
	assert.Contains(t, armoredRing.KeyIDs(), keyID)
}

func TestCheckPassphrase(t *testing.T) {
	entity := generateEntity(t, packet.PubKeyAlgoECDSA, packet.CurveNistP256, 0)
	subKeyID := entity.Subkeys[0].PublicKey.KeyId
	ring := NewRing(openpgp.EntityList{entity})
	assert.NoError(t, ring.CheckPassphrase(subKeyID, nil), "unlocked keys accept any passphrase")

	require.NoError(t, entity.EncryptPrivateKeys([]byte("I love GNU"), testPolicy.KeyEncryptionConfig()))
	for _, keyID := range []uint64{entity.PrimaryKey.KeyId, subKeyID} {
		assert.NoError(t, ring.CheckPassphrase(keyID, []byte("I love GNU")))
		err := ring.CheckPassphrase(keyID, []byte("I love Windows"))
		assert.True(t, errors.Is(err, ErrIncorrectPassphrase))
	}

	kind, err := ring.SecretKeyType(subKeyID)
	require.NoError(t, err)
	assert.Equal(t, Passphrase, kind, "the ring keeps the key locked")
}

func TestUnknownKey(t *testing.T) {
	ring := NewRing(nil)
	_, err := ring.Descriptor(42)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
	_, err = ring.SecretKeyType(42)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
	_, err = ring.MasterKeyID(42)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
	assert.True(t, errors.Is(ring.CheckPassphrase(42, nil), ErrKeyNotFound))
}

func TestReadRingRejectsGarbage(t *testing.T) {
	_, err := ReadRing(bytes.NewReader([]byte("not a key")), true)
	assert.Error(t, err)
}
