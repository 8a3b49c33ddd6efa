// Package constants provides a set of common OpenPGP constants.
package constants

// Cipher suite names.
const (
	ThreeDES  = "3des"
	TripleDES = "tripledes" // Both "3des" and "tripledes" refer to 3DES.
	CAST5     = "cast5"
	AES128    = "aes128"
	AES192    = "aes192"
	AES256    = "aes256"
	Twofish   = "twofish"
)

// Hash algorithm names.
const (
	MD5       = "md5"
	SHA1      = "sha1"
	RIPEMD160 = "ripemd160"
	SHA224    = "sha224"
	SHA256    = "sha256"
	SHA384    = "sha384"
	SHA512    = "sha512"
	SHA3_256  = "sha3-256"
	SHA3_512  = "sha3-512"
)
