package constants

// WireVersion is the version written into serialized preconditions,
// resolutions and pending operations.
const WireVersion = 1

// Kinds of required input a suspended operation can ask for.
const (
	InputPassphrase      = "passphrase"
	InputHardwareSign    = "hardware-sign"
	InputHardwareDecrypt = "hardware-decrypt"
	InputProxy           = "proxy"
)

// LinkedIdentitySubpacketType is the user attribute subpacket type
// carrying a linked identity URI.
const LinkedIdentitySubpacketType uint8 = 101
