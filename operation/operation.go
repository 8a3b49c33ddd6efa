// Package operation drives one OpenPGP operation (sign, decrypt, verify a
// linked identity) through the input it is missing.
//
// A Coordinator never prompts, talks to a token or opens a connection.
// When input is missing it returns a Suspended outcome carrying a Pending
// value: the precondition to show to the user plus everything needed to
// continue later. The host answers with an input.Resolution and calls
// Resume, possibly in another process, until the outcome is Completed or
// Failed.
package operation

import (
	"bytes"
	"crypto"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ProtonMail/go-pgp-input/input"
	"github.com/ProtonMail/go-pgp-input/internal"
	"github.com/ProtonMail/go-pgp-input/key"
	"github.com/ProtonMail/go-pgp-input/policy"
	"github.com/ProtonMail/go-pgp-input/proxy"
	"github.com/google/uuid"
)

// Kind is the kind of operation.
type Kind string

const (
	KindSign       Kind = "sign"
	KindDecrypt    Kind = "decrypt"
	KindVerifyLink Kind = "verify-link"
)

func (k Kind) usesSecretKey() bool {
	return k == KindSign || k == KindDecrypt
}

// KeyStore is the read-only key storage the coordinator consults.
// *key.Ring implements it.
type KeyStore interface {
	Descriptor(keyID uint64) (policy.KeyDescriptor, error)
	MasterKeyID(keyID uint64) (uint64, error)
	SecretKeyType(keyID uint64) (key.SecretKeyType, error)
	// CheckPassphrase returns an error matching key.ErrIncorrectPassphrase
	// if passphrase does not unlock the secret part of keyID.
	CheckPassphrase(keyID uint64, passphrase []byte) error
}

// Network describes the network step of an operation.
type Network struct {
	Proxy proxy.Config `json:"proxy"`
	// Status is the proxy status when the operation starts.
	Status proxy.Status `json:"status"`
	// Target is the address the step connects to.
	Target string `json:"target,omitempty"`
}

// Spec describes an operation.
type Spec struct {
	Kind Kind
	// KeyID is the key that signs or decrypts. For KindVerifyLink it is
	// the public key whose linked identity is verified, or zero.
	KeyID uint64
	// SignatureTime is the creation time of all signatures, in whole
	// milliseconds. It defaults to the coordinator's clock, cut to the
	// millisecond, when a sign operation starts.
	SignatureTime time.Time
	// Requests are the digests to sign, in order.
	Requests []input.SignRequest
	// Hashes are hash algorithms of signatures the operation verifies.
	Hashes []crypto.Hash
	// Cipher is the symmetric cipher of the data, or zero if unknown.
	Cipher packet.CipherFunction
	// SessionKeyPacket is the encrypted session key a hardware token decrypts.
	SessionKeyPacket []byte
	// LinkedIdentity is the URI of the linked identity to verify.
	LinkedIdentity string
	// Network is set for operations that connect somewhere.
	Network *Network
	// Input is input already known when the operation starts, such as a
	// cached passphrase.
	Input CryptoInput
}

func (s Spec) clone() Spec {
	c := s
	c.Requests = make([]input.SignRequest, len(s.Requests))
	for i, r := range s.Requests {
		c.Requests[i] = input.SignRequest{Hash: r.Hash, Digest: internal.Clone(r.Digest)}
	}
	if s.Requests == nil {
		c.Requests = nil
	}
	c.Hashes = append([]crypto.Hash(nil), s.Hashes...)
	c.SessionKeyPacket = internal.Clone(s.SessionKeyPacket)
	if s.Network != nil {
		network := *s.Network
		c.Network = &network
	}
	c.Input = s.Input.clone()
	return c
}

func (s Spec) validate() error {
	if !input.NormalizeTime(s.SignatureTime).Equal(s.SignatureTime) {
		return input.NewContractViolation("signature time %v is finer than a millisecond", s.SignatureTime)
	}
	switch s.Kind {
	case KindSign:
		if s.KeyID == 0 {
			return input.NewContractViolation("sign operation without key")
		}
		if len(s.Requests) == 0 {
			return input.NewContractViolation("sign operation without digests")
		}
	case KindDecrypt:
		if s.KeyID == 0 {
			return input.NewContractViolation("decrypt operation without key")
		}
	case KindVerifyLink:
		if s.LinkedIdentity == "" {
			return input.NewContractViolation("verify-link operation without linked identity")
		}
	default:
		return input.NewContractViolation("unknown operation kind %q", s.Kind)
	}
	return nil
}

// CryptoInput is the input an operation has gathered so far.
// It may hold secrets and must be stored accordingly.
type CryptoInput struct {
	Passphrase    []byte             `json:"passphrase,omitempty"`
	HasPassphrase bool               `json:"hasPassphrase,omitempty"`
	Signatures    []input.SignedHash `json:"signatures,omitempty"`
	// SessionKey is the session key decrypted by a hardware token.
	SessionKey    []byte         `json:"sessionKey,omitempty"`
	ProxyDecision proxy.Decision `json:"proxyDecision,omitempty"`
	// ProxyStatus overrides the status of the Network step once the user
	// acted on a proxy prompt.
	ProxyStatus *proxy.Status `json:"proxyStatus,omitempty"`
}

// SetPassphrase records a passphrase, e.g. one read from a cache.
func (in *CryptoInput) SetPassphrase(passphrase []byte) {
	in.Passphrase = internal.Clone(passphrase)
	in.HasPassphrase = true
}

func (in *CryptoInput) clearPassphrase() {
	in.Passphrase = nil
	in.HasPassphrase = false
}

func (in CryptoInput) clone() CryptoInput {
	c := in
	c.Passphrase = internal.Clone(in.Passphrase)
	c.Signatures = nil
	for _, s := range in.Signatures {
		c.Signatures = append(c.Signatures, cloneSignedHash(s))
	}
	c.SessionKey = internal.Clone(in.SessionKey)
	if in.ProxyStatus != nil {
		status := *in.ProxyStatus
		c.ProxyStatus = &status
	}
	return c
}

// signature returns the signature already made for a request.
func (in CryptoInput) signature(req input.SignRequest) ([]byte, bool) {
	for _, s := range in.Signatures {
		if s.Hash == req.Hash && bytes.Equal(s.Digest, req.Digest) {
			return s.Signature, true
		}
	}
	return nil, false
}

// addSignature records s unless its request is already signed.
func (in *CryptoInput) addSignature(s input.SignedHash) {
	if _, ok := in.signature(s.SignRequest); ok {
		return
	}
	in.Signatures = append(in.Signatures, cloneSignedHash(s))
}

// merge adds the input carried by a checked resolution.
func (in *CryptoInput) merge(r input.Resolution) error {
	switch r.Kind {
	case input.KindPassphrase:
		if r.Cancelled {
			return ErrUserCancelled
		}
		in.SetPassphrase(r.Passphrase)
	case input.KindHardwareSign:
		for _, s := range r.Signatures {
			in.addSignature(s)
		}
	case input.KindHardwareDecrypt:
		in.SessionKey = internal.Clone(r.SessionKey)
	case input.KindProxy:
		in.ProxyDecision = r.ProxyDecision
		status := r.ProxyStatus
		in.ProxyStatus = &status
	}
	return nil
}

func cloneSignedHash(s input.SignedHash) input.SignedHash {
	return input.SignedHash{
		SignRequest: input.SignRequest{Hash: s.Hash, Digest: internal.Clone(s.Digest)},
		Signature:   internal.Clone(s.Signature),
	}
}

// Pending is a suspended operation. It is plain data: it can be encoded
// to JSON, stored, and resumed by any coordinator.
type Pending struct {
	ID           uuid.UUID
	Spec         Spec
	Precondition input.Precondition
	Input        CryptoInput
}

// Kind returns the kind of the suspended operation.
func (p Pending) Kind() Kind {
	return p.Spec.Kind
}

// Status is the status of an Outcome.
type Status int8

const (
	StatusCompleted Status = iota
	StatusSuspended
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusSuspended:
		return "suspended"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the result of starting or resuming an operation.
// Result is set when completed, Pending when suspended. Err is set when
// failed. When suspended, Err is ErrProxyRequired while waiting on a proxy
// decision and ErrIncorrectPassphrase when a passphrase was rejected.
type Outcome struct {
	Status  Status
	Result  *Result
	Pending *Pending
	Err     error
}

// Precondition returns the input the operation waits for, or the zero
// precondition if it is not suspended.
func (o Outcome) Precondition() input.Precondition {
	if o.Pending == nil {
		return input.Precondition{}
	}
	return o.Pending.Precondition
}

// SessionKey is a decrypted session key.
type SessionKey struct {
	Cipher packet.CipherFunction `json:"cipher"`
	Key    []byte                `json:"key"`
}

// Result is the input a completed operation hands to the caller.
type Result struct {
	ID            uuid.UUID `json:"id"`
	Kind          Kind      `json:"kind"`
	SignatureTime time.Time `json:"signatureTime,omitempty"`
	// Signatures are the hardware signatures in request order.
	Signatures []input.SignedHash `json:"signatures,omitempty"`
	// Passphrase unlocks a software key; HasPassphrase is false for keys
	// without passphrase.
	Passphrase    []byte      `json:"passphrase,omitempty"`
	HasPassphrase bool        `json:"hasPassphrase,omitempty"`
	SessionKey    *SessionKey `json:"sessionKey,omitempty"`
	// Route and Target are set for operations with a network step.
	Route  *proxy.Route `json:"route,omitempty"`
	Target string       `json:"target,omitempty"`
}
