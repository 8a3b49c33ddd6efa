package policy

import (
	"crypto"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ProtonMail/go-crypto/openpgp/s2k"
	openpgp "github.com/ProtonMail/go-crypto/openpgp/v2"
	"github.com/ProtonMail/go-pgp-input/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = Default()

func TestSymmetricWhitelistExhaustive(t *testing.T) {
	secure := map[packet.CipherFunction]bool{
		packet.CipherAES128: true,
		packet.CipherAES192: true,
		packet.CipherAES256: true,
		CipherTwofish:       true,
	}
	for id := 0; id < 256; id++ {
		cf := packet.CipherFunction(id)
		assert.Equal(t, secure[cf], testPolicy.IsSecureSymmetric(cf), "cipher id %d", id)
	}
}

func TestHashWhitelistExhaustive(t *testing.T) {
	secure := map[crypto.Hash]bool{
		crypto.SHA256: true,
		crypto.SHA384: true,
		crypto.SHA512: true,
	}
	for id := 0; id < 256; id++ {
		hash, known := openpgp.HashIdToHash(uint8(id))
		expected := known && secure[hash]
		assert.Equal(t, expected, testPolicy.IsSecureHashID(uint8(id)), "hash id %d", id)
		if known {
			assert.Equal(t, secure[hash], testPolicy.IsSecureHash(hash), "hash %v", hash)
		}
	}
}

func TestIsSecureKeyRSAThreshold(t *testing.T) {
	for _, algo := range []packet.PublicKeyAlgorithm{
		packet.PubKeyAlgoRSA,
		packet.PubKeyAlgoRSAEncryptOnly,
		packet.PubKeyAlgoRSASignOnly,
		packet.PubKeyAlgoElGamal,
		packet.PubKeyAlgoDSA,
	} {
		assert.False(t, testPolicy.IsSecureKey(KeyDescriptor{Algorithm: algo, BitStrength: 1023}))
		assert.True(t, testPolicy.IsSecureKey(KeyDescriptor{Algorithm: algo, BitStrength: 1024}))
	}
}

func TestIsSecureKeyCurves(t *testing.T) {
	for _, algo := range []packet.PublicKeyAlgorithm{packet.PubKeyAlgoECDSA, packet.PubKeyAlgoECDH} {
		for _, oid := range []string{OIDNistP256, OIDNistP384, OIDNistP521} {
			assert.True(t, testPolicy.IsSecureKey(KeyDescriptor{Algorithm: algo, CurveOID: oid}), oid)
		}
		for _, curve := range []packet.Curve{packet.CurveSecP256k1, packet.CurveBrainpoolP256, packet.Curve25519} {
			oid, ok := CurveOID(curve)
			require.True(t, ok)
			assert.False(t, testPolicy.IsSecureKey(KeyDescriptor{Algorithm: algo, CurveOID: oid}), oid)
		}
		assert.False(t, testPolicy.IsSecureKey(KeyDescriptor{Algorithm: algo}))
	}
}

func TestCurveBits(t *testing.T) {
	for curve, expected := range map[packet.Curve]uint16{
		packet.CurveNistP256: 256,
		packet.CurveNistP384: 384,
		packet.CurveNistP521: 521,
	} {
		bits, ok := CurveBits(curve)
		require.True(t, ok, curve)
		assert.Equal(t, expected, bits, curve)
	}
	_, ok := CurveBits("unknown")
	assert.False(t, ok)
}

func TestIsSecureKeyDefaultDeny(t *testing.T) {
	for _, algo := range []packet.PublicKeyAlgorithm{
		packet.PubKeyAlgoEdDSA,
		packet.PubKeyAlgoEd25519,
		packet.PubKeyAlgoX25519,
		packet.PublicKeyAlgorithm(20),
		packet.PublicKeyAlgorithm(99),
	} {
		assert.False(t, testPolicy.IsSecureKey(KeyDescriptor{Algorithm: algo, BitStrength: 4096, CurveOID: OIDNistP256}))
	}
}

func TestChosenIgnoresPeerPreferences(t *testing.T) {
	assert.Equal(t, packet.CipherAES256, testPolicy.ChosenSymmetric())
	assert.Equal(t, packet.CipherAES256, testPolicy.ChosenSymmetric(packet.Cipher3DES, packet.CipherCAST5))
	assert.Equal(t, packet.CipherAES256, testPolicy.ChosenSymmetric(packet.CipherAES128))

	assert.Equal(t, crypto.SHA512, testPolicy.ChosenHash())
	assert.Equal(t, crypto.SHA512, testPolicy.ChosenHash(crypto.MD5, crypto.SHA1))
	assert.Equal(t, crypto.SHA512, testPolicy.ChosenHash(crypto.SHA256))

	assert.Equal(t, packet.CompressionZIP, testPolicy.ChosenCompression())
}

func TestPolicyIsSnapshot(t *testing.T) {
	custom := DefaultCustom()
	p := New(custom)

	custom.HashWhitelist[0] = crypto.MD5
	custom.MinKeyBits[FamilyRSA] = 8192
	custom.CurveWhitelist = nil

	assert.True(t, p.IsSecureHash(crypto.SHA512))
	assert.False(t, p.IsSecureHash(crypto.MD5))
	assert.True(t, p.IsSecureKey(KeyDescriptor{Algorithm: packet.PubKeyAlgoRSA, BitStrength: 2048}))
	assert.True(t, p.IsSecureCurve(OIDNistP256))

	preferred := p.PreferredHashes()
	preferred[0] = crypto.MD5
	assert.Equal(t, []crypto.Hash{crypto.SHA512}, p.PreferredHashes())
}

func TestStrictPolicy(t *testing.T) {
	strict := Strict()
	assert.Equal(t, "strict", strict.Name())
	assert.False(t, strict.IsSecureSymmetric(CipherTwofish))
	assert.False(t, strict.IsSecureHash(crypto.SHA256))
	assert.False(t, strict.IsSecureKey(KeyDescriptor{Algorithm: packet.PubKeyAlgoRSA, BitStrength: 2047}))
	assert.True(t, strict.IsSecureKey(KeyDescriptor{Algorithm: packet.PubKeyAlgoRSA, BitStrength: 2048}))

	bits, ok := strict.MinKeyBits(FamilyDSA)
	assert.True(t, ok)
	assert.EqualValues(t, 2048, bits)
	_, ok = strict.MinKeyBits(FamilyECDSA)
	assert.False(t, ok)
}

func TestByName(t *testing.T) {
	p, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, "default", p.Name())

	p, err = ByName("strict")
	require.NoError(t, err)
	assert.Equal(t, "strict", p.Name())

	_, err = ByName("lax")
	assert.Error(t, err)
}

func TestParseNames(t *testing.T) {
	cf, err := ParseCipher(constants.AES256)
	require.NoError(t, err)
	assert.Equal(t, packet.CipherAES256, cf)

	_, err = ParseCipher("rot13")
	assert.Error(t, err)

	assert.True(t, testPolicy.IsSecureCipherName(constants.Twofish))
	assert.False(t, testPolicy.IsSecureCipherName(constants.TripleDES))
	assert.False(t, testPolicy.IsSecureCipherName("rot13"))

	h, err := ParseHash(constants.SHA384)
	require.NoError(t, err)
	assert.Equal(t, crypto.SHA384, h)

	c, err := ParseCompression(constants.ZLIBCompression)
	require.NoError(t, err)
	assert.Equal(t, packet.CompressionZLIB, c)
}

func TestDerivedConfigs(t *testing.T) {
	sign := testPolicy.SignConfig()
	assert.Equal(t, crypto.SHA512, sign.DefaultHash)
	assert.EqualValues(t, 1024, sign.MinRSABits)
	assert.True(t, sign.RejectHashAlgorithms[crypto.SHA1])
	assert.True(t, sign.RejectHashAlgorithms[crypto.MD5])
	assert.False(t, sign.RejectHashAlgorithms[crypto.SHA256])
	assert.True(t, sign.RejectCurves[packet.CurveBrainpoolP256])
	assert.False(t, sign.RejectCurves[packet.CurveNistP256])
	assert.True(t, sign.RejectPublicKeyAlgorithms[packet.PubKeyAlgoEdDSA])
	assert.False(t, sign.RejectPublicKeyAlgorithms[packet.PubKeyAlgoRSA])

	enc := testPolicy.EncryptionConfig()
	assert.Equal(t, packet.CipherAES256, enc.DefaultCipher)

	keyEnc := testPolicy.KeyEncryptionConfig()
	require.NotNil(t, keyEnc.S2KConfig)
	assert.Equal(t, s2k.IteratedSaltedS2K, keyEnc.S2KConfig.S2KMode)
	assert.Equal(t, 524288, keyEnc.S2KConfig.S2KCount)

	gen := testPolicy.KeyGenerationConfig(packet.PubKeyAlgoECDSA, packet.CurveNistP384, 0)
	assert.Equal(t, packet.CurveNistP384, gen.Curve)
	assert.Equal(t, 0, gen.RSABits)

	gen = testPolicy.KeyGenerationConfig(packet.PubKeyAlgoRSA, "", 3072)
	assert.Equal(t, 3072, gen.RSABits)

	assert.Equal(t, packet.CompressionZIP, testPolicy.CompressionConfig().DefaultCompressionAlgo)
}
