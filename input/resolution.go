package input

import (
	"time"

	"github.com/ProtonMail/go-pgp-input/internal"
	"github.com/ProtonMail/go-pgp-input/proxy"
)

// SignedHash is a signature made by a hardware token for a SignRequest.
type SignedHash struct {
	SignRequest
	Signature []byte
}

// Resolution is the input supplied by the host for a Precondition.
// It repeats the correlation keys of the precondition it answers.
type Resolution struct {
	Kind          Kind
	MasterKeyID   uint64
	SubKeyID      uint64
	SignatureTime time.Time

	// Passphrase answers KindPassphrase unless Cancelled is set.
	Passphrase []byte
	// Cancelled is set if the user declined to enter the passphrase.
	Cancelled bool

	// Signatures answer KindHardwareSign, in request order.
	Signatures []SignedHash

	// InputHash and SessionKey answer KindHardwareDecrypt.
	InputHash  []byte
	SessionKey []byte

	// ProxyDecision and ProxyStatus answer KindProxy. ProxyStatus is the
	// status queried after acting on the decision.
	ProxyDecision proxy.Decision
	ProxyStatus   proxy.Status
}

// resolutionFor copies the correlation keys of p into a resolution of the
// given kind. Answering p with a resolution of another kind fails Check.
func resolutionFor(kind Kind, p Precondition) Resolution {
	return Resolution{
		Kind:          kind,
		MasterKeyID:   p.masterKeyID,
		SubKeyID:      p.subKeyID,
		SignatureTime: p.signatureTime,
	}
}

// ResolvePassphrase answers a passphrase precondition.
func ResolvePassphrase(p Precondition, passphrase []byte) Resolution {
	r := resolutionFor(KindPassphrase, p)
	r.Passphrase = internal.Clone(passphrase)
	return r
}

// CancelPassphrase answers a passphrase precondition the user declined.
func CancelPassphrase(p Precondition) Resolution {
	r := resolutionFor(KindPassphrase, p)
	r.Cancelled = true
	return r
}

// ResolveHardwareSign pairs the signatures returned by a hardware token,
// in order, with the requests of p. Missing or extra signatures are kept
// as they are and rejected by Check.
func ResolveHardwareSign(p Precondition, signatures ...[]byte) Resolution {
	r := resolutionFor(KindHardwareSign, p)
	for i, sig := range signatures {
		var req SignRequest
		if i < len(p.requests) {
			req = p.requests[i].clone()
		}
		r.Signatures = append(r.Signatures, SignedHash{SignRequest: req, Signature: internal.Clone(sig)})
	}
	return r
}

// ResolveHardwareDecrypt answers a hardware decrypt precondition with the
// decrypted session key: algorithm octet, key, two octet checksum.
func ResolveHardwareDecrypt(p Precondition, sessionKey []byte) Resolution {
	r := resolutionFor(KindHardwareDecrypt, p)
	r.InputHash = internal.Clone(p.inputHash)
	r.SessionKey = internal.Clone(sessionKey)
	return r
}

// ResolveProxy answers a proxy precondition with the user's decision and
// the proxy status after acting on it.
func ResolveProxy(p Precondition, decision proxy.Decision, status proxy.Status) Resolution {
	r := resolutionFor(KindProxy, p)
	r.ProxyDecision = decision
	r.ProxyStatus = status
	return r
}
