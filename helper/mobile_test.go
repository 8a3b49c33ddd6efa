package helper

import (
	"bytes"
	"crypto"
	"encoding/json"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	openpgp "github.com/ProtonMail/go-crypto/openpgp/v2"
	"github.com/ProtonMail/go-pgp-input/armor"
	"github.com/ProtonMail/go-pgp-input/constants"
	"github.com/ProtonMail/go-pgp-input/input"
	"github.com/ProtonMail/go-pgp-input/operation"
	"github.com/ProtonMail/go-pgp-input/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func armoredTestKey(t *testing.T, passphrase []byte) (string, uint64) {
	t.Helper()
	testPolicy := policy.Default()
	config := testPolicy.KeyGenerationConfig(packet.PubKeyAlgoECDSA, packet.CurveNistP256, 0)
	entity, err := openpgp.NewEntity("richard.stallman", "", "richard.stallman@protonmail.ch", config)
	require.NoError(t, err, "Cannot generate key")
	if passphrase != nil {
		require.NoError(t, entity.EncryptPrivateKeys(passphrase, testPolicy.KeyEncryptionConfig()))
	}

	var buf bytes.Buffer
	w, err := armor.ArmorWriterWithType(&buf, constants.PrivateKeyHeader)
	require.NoError(t, err)
	require.NoError(t, entity.SerializePrivateWithoutSigning(w, nil))
	require.NoError(t, w.Close())
	return buf.String(), entity.PrimaryKey.KeyId
}

func mobileSignSpec(t *testing.T, keyID uint64) []byte {
	spec := operation.Spec{
		Kind:          operation.KindSign,
		KeyID:         keyID,
		SignatureTime: testTime,
		Requests:      []input.SignRequest{{Hash: crypto.SHA512, Digest: []byte("H1")}},
	}
	data, err := json.Marshal(spec)
	require.NoError(t, err)
	return data
}

func TestStartOperationCompleted(t *testing.T) {
	armored, keyID := armoredTestKey(t, nil)

	outcome, err := StartOperation("default", armored, mobileSignSpec(t, keyID))
	require.NoError(t, err)
	assert.Equal(t, "completed", outcome.Status)
	assert.NotEmpty(t, outcome.Result)
	assert.Empty(t, outcome.Pending)
	assert.Empty(t, outcome.Error)
}

func TestStartAndResumeOperation(t *testing.T) {
	passphrase := []byte("I love GNU")
	armored, keyID := armoredTestKey(t, passphrase)

	outcome, err := StartOperation("", armored, mobileSignSpec(t, keyID))
	require.NoError(t, err)
	require.Equal(t, "suspended", outcome.Status)
	assert.False(t, outcome.ProxyRequired)

	var p input.Precondition
	require.NoError(t, json.Unmarshal(outcome.Precondition, &p))
	assert.Equal(t, input.KindPassphrase, p.Kind())
	assert.Equal(t, keyID, p.SubKeyID())

	wrong, err := json.Marshal(input.ResolvePassphrase(p, []byte("I love Windows")))
	require.NoError(t, err)
	outcome, err = ResumeOperation("", armored, outcome.Pending, wrong)
	require.NoError(t, err)
	require.Equal(t, "suspended", outcome.Status)
	assert.True(t, outcome.IncorrectPassphrase)

	resolution, err := json.Marshal(input.ResolvePassphrase(p, passphrase))
	require.NoError(t, err)
	outcome, err = ResumeOperation("", armored, outcome.Pending, resolution)
	require.NoError(t, err)
	require.Equal(t, "completed", outcome.Status)

	var result operation.Result
	require.NoError(t, json.Unmarshal(outcome.Result, &result))
	assert.True(t, result.HasPassphrase)
	assert.Equal(t, passphrase, result.Passphrase)
}

func TestStartOperationFailed(t *testing.T) {
	armored, keyID := armoredTestKey(t, nil)
	spec := mobileSignSpec(t, keyID)

	outcome, err := StartOperation("strict", armored, bytes.Replace(spec, []byte(`"hash":10`), []byte(`"hash":8`), 1))
	require.NoError(t, err)
	assert.Equal(t, "failed", outcome.Status)
	assert.Contains(t, outcome.Error, "insecure algorithm")

	_, err = StartOperation("lax", armored, spec)
	assert.Error(t, err)
}
