package policy

import (
	"crypto"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ProtonMail/go-pgp-input/constants"
	"github.com/pkg/errors"
)

var cipherNames = map[string]packet.CipherFunction{
	constants.ThreeDES:  packet.Cipher3DES,
	constants.TripleDES: packet.Cipher3DES,
	constants.CAST5:     packet.CipherCAST5,
	constants.AES128:    packet.CipherAES128,
	constants.AES192:    packet.CipherAES192,
	constants.AES256:    packet.CipherAES256,
	constants.Twofish:   CipherTwofish,
}

var hashNames = map[string]crypto.Hash{
	constants.MD5:       crypto.MD5,
	constants.SHA1:      crypto.SHA1,
	constants.RIPEMD160: crypto.RIPEMD160,
	constants.SHA224:    crypto.SHA224,
	constants.SHA256:    crypto.SHA256,
	constants.SHA384:    crypto.SHA384,
	constants.SHA512:    crypto.SHA512,
	constants.SHA3_256:  crypto.SHA3_256,
	constants.SHA3_512:  crypto.SHA3_512,
}

var compressionNames = map[string]packet.CompressionAlgo{
	constants.NoCompression:   packet.CompressionNone,
	constants.ZIPCompression:  packet.CompressionZIP,
	constants.ZLIBCompression: packet.CompressionZLIB,
}

// CipherTwofish is the OpenPGP id of Twofish-256, which go-crypto does not name.
const CipherTwofish packet.CipherFunction = 10

// ParseCipher returns the cipher for a configuration name such as "aes256".
func ParseCipher(name string) (packet.CipherFunction, error) {
	cf, ok := cipherNames[name]
	if !ok {
		return 0, errors.New("gopenpgp: unsupported cipher function: " + name)
	}
	return cf, nil
}

// ParseHash returns the hash for a configuration name such as "sha512".
func ParseHash(name string) (crypto.Hash, error) {
	h, ok := hashNames[name]
	if !ok {
		return 0, errors.New("gopenpgp: unsupported hash function: " + name)
	}
	return h, nil
}

// ParseCompression returns the compression algorithm for a configuration name.
func ParseCompression(name string) (packet.CompressionAlgo, error) {
	c, ok := compressionNames[name]
	if !ok {
		return 0, errors.New("gopenpgp: unsupported compression: " + name)
	}
	return c, nil
}

// IsSecureCipherName is IsSecureSymmetric for a configuration name.
func (p *Policy) IsSecureCipherName(name string) bool {
	cf, err := ParseCipher(name)
	return err == nil && p.IsSecureSymmetric(cf)
}
