package armor

import (
	"strings"
	"testing"

	"github.com/ProtonMail/go-pgp-input/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArmorRoundTrip(t *testing.T) {
	armored, err := ArmorKey([]byte("key material"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(armored, "-----BEGIN "+constants.PublicKeyHeader+"-----"))

	armorType, data, err := Unarmor(armored)
	require.NoError(t, err)
	assert.Equal(t, constants.PublicKeyHeader, armorType)
	assert.Equal(t, []byte("key material"), data)
}

func TestKeyReaderRejectsOtherBlocks(t *testing.T) {
	armored, err := ArmorPrivateKey([]byte("key material"))
	require.NoError(t, err)
	_, err = KeyReader(strings.NewReader(armored))
	assert.NoError(t, err)

	message, err := ArmorWithType([]byte("message"), "PGP MESSAGE")
	require.NoError(t, err)
	_, err = KeyReader(strings.NewReader(message))
	assert.Error(t, err)

	_, err = KeyReader(strings.NewReader("not armored"))
	assert.Error(t, err)
}
