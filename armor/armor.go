// Package armor contains a set of helper methods for armoring and unarmoring
// key material.
package armor

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-pgp-input/constants"
	"github.com/pkg/errors"
)

// ArmorKey armors input as a public key.
func ArmorKey(input []byte) (string, error) {
	return ArmorWithType(input, constants.PublicKeyHeader)
}

// ArmorPrivateKey armors input as a private key.
func ArmorPrivateKey(input []byte) (string, error) {
	return ArmorWithType(input, constants.PrivateKeyHeader)
}

// ArmorWriterWithType returns a io.WriteCloser which, when written to, writes
// armored data to w with the given armorType.
func ArmorWriterWithType(w io.Writer, armorType string) (io.WriteCloser, error) {
	return armor.Encode(w, armorType, nil)
}

// ArmorWithType armors input with the given armorType.
func ArmorWithType(input []byte, armorType string) (string, error) {
	var b bytes.Buffer

	w, err := armor.Encode(&b, armorType, nil)
	if err != nil {
		return "", errors.Wrap(err, "gopenpgp: unable to encode armoring")
	}
	if _, err = w.Write(input); err != nil {
		return "", errors.Wrap(err, "gopenpgp: unable to write armored to buffer")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "gopenpgp: unable to close armor buffer")
	}
	return b.String(), nil
}

// KeyReader returns a io.Reader which, when read, reads the unarmored key
// material from in. Blocks that do not hold keys are rejected.
func KeyReader(in io.Reader) (io.Reader, error) {
	block, err := armor.Decode(in)
	if err != nil {
		return nil, errors.Wrap(err, "gopenpgp: unable to unarmor")
	}
	if block.Type != constants.PublicKeyHeader && block.Type != constants.PrivateKeyHeader {
		return nil, errors.Errorf("gopenpgp: armored block of type %q holds no key", block.Type)
	}
	return block.Body, nil
}

// Unarmor unarmors an armored input into its block type and a byte array.
func Unarmor(input string) (string, []byte, error) {
	block, err := armor.Decode(bytes.NewReader([]byte(input)))
	if err != nil {
		return "", nil, errors.Wrap(err, "gopenpgp: unable to unarmor")
	}
	data, err := ioutil.ReadAll(block.Body)
	if err != nil {
		return "", nil, errors.Wrap(err, "gopenpgp: unable to read armored body")
	}
	return block.Type, data, nil
}
