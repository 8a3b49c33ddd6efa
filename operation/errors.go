package operation

import (
	"crypto"
	"fmt"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ProtonMail/go-pgp-input/input"
	"github.com/ProtonMail/go-pgp-input/key"
	"github.com/ProtonMail/go-pgp-input/policy"
	"github.com/ProtonMail/go-pgp-input/proxy"
	"github.com/pkg/errors"
)

var (
	// ErrInsecureAlgorithm is returned when the policy rejects an algorithm.
	// The operation is not retried with weaker settings.
	ErrInsecureAlgorithm = errors.New("gopenpgp: insecure algorithm")
	// ErrUserCancelled is returned when the user declined to give input.
	ErrUserCancelled = errors.New("gopenpgp: cancelled by user")
	// ErrSecretKeyUnavailable is returned when only the public key is stored.
	ErrSecretKeyUnavailable = errors.New("gopenpgp: secret key unavailable")

	ErrResolutionMismatch = input.ErrResolutionMismatch
	ErrContractViolation  = input.ErrContractViolation
	ErrProxyRequired      = proxy.ErrProxyRequired
	// ErrIncorrectPassphrase is the reason of an operation suspended again
	// because its passphrase did not unlock the key.
	ErrIncorrectPassphrase = key.ErrIncorrectPassphrase
)

// InsecureAlgorithmError names the algorithm the policy rejected.
type InsecureAlgorithmError struct {
	// Class is "hash", "cipher" or "key".
	Class string
	Name  string
}

func (e *InsecureAlgorithmError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInsecureAlgorithm.Error(), e.Class, e.Name)
}

// Is makes errors.Is match ErrInsecureAlgorithm.
func (e *InsecureAlgorithmError) Is(target error) bool {
	return target == ErrInsecureAlgorithm
}

func insecureHash(hash crypto.Hash) error {
	return &InsecureAlgorithmError{Class: "hash", Name: hash.String()}
}

func insecureCipher(cipher packet.CipherFunction) error {
	return &InsecureAlgorithmError{Class: "cipher", Name: fmt.Sprintf("%d", cipher)}
}

func insecureKey(desc policy.KeyDescriptor) error {
	name := fmt.Sprintf("algorithm %d", desc.Algorithm)
	if desc.CurveOID != "" {
		name += " curve " + desc.CurveOID
	} else {
		name += fmt.Sprintf(" %d bits", desc.BitStrength)
	}
	return &InsecureAlgorithmError{Class: "key", Name: name}
}
