package constants

// Compression names accepted in policy configuration.
const (
	// No compression. Compressed plaintext length can leak content.
	NoCompression = "none"
	// ZIP (raw deflate) compression.
	ZIPCompression = "zip"
	// ZLIB compression, more malleable than ZIP.
	ZLIBCompression = "zlib"
)
