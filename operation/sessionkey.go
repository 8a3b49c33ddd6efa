package operation

import (
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ProtonMail/go-pgp-input/internal"
	"github.com/pkg/errors"
)

// parseSessionKey splits a session key decrypted by a hardware token:
// one octet cipher id, the key, and a two octet checksum of the key.
// The cipher is not checked against the policy here.
func parseSessionKey(data []byte) (*SessionKey, error) {
	if len(data) < 4 {
		return nil, errors.Wrap(ErrResolutionMismatch, "gopenpgp: session key too short")
	}
	cipher := packet.CipherFunction(data[0])
	keyBytes := data[1 : len(data)-2]
	expected := uint16(data[len(data)-2])<<8 | uint16(data[len(data)-1])

	var sum uint16
	for _, b := range keyBytes {
		sum += uint16(b)
	}
	if sum != expected {
		return nil, errors.Wrap(ErrResolutionMismatch, "gopenpgp: session key checksum mismatch")
	}
	return &SessionKey{Cipher: cipher, Key: internal.Clone(keyBytes)}, nil
}

// checkKeySize rejects keys whose length does not fit a cipher go-crypto knows.
func (sk *SessionKey) checkKeySize() error {
	if size := sk.Cipher.KeySize(); size > 0 && size != len(sk.Key) {
		return errors.Wrapf(ErrResolutionMismatch, "gopenpgp: %d byte session key for a %d byte cipher", len(sk.Key), size)
	}
	return nil
}

// Encode returns the session key in the form a hardware token returns it.
func (sk *SessionKey) Encode() []byte {
	out := make([]byte, 0, len(sk.Key)+3)
	out = append(out, byte(sk.Cipher))
	out = append(out, sk.Key...)
	var sum uint16
	for _, b := range sk.Key {
		sum += uint16(b)
	}
	return append(out, byte(sum>>8), byte(sum))
}
