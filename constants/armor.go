package constants

// Armor block types of key material.
const (
	PublicKeyHeader  = "PGP PUBLIC KEY BLOCK"
	PrivateKeyHeader = "PGP PRIVATE KEY BLOCK"
)
