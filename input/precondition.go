// Package input describes the input an OpenPGP operation is missing
// when it cannot complete right away, and the input supplied later to
// resume it.
//
// A Precondition is created by the operation layer and handed to the host,
// which turns it into a prompt (passphrase dialog, smartcard tap, proxy
// dialog) and answers with a Resolution. Both are plain values with a flat,
// versioned JSON form, so they can cross process boundaries.
package input

import (
	"bytes"
	"crypto"
	"time"

	"github.com/ProtonMail/go-pgp-input/constants"
	"github.com/ProtonMail/go-pgp-input/internal"
	"github.com/ProtonMail/go-pgp-input/proxy"
)

// Kind tags the variant of a Precondition or Resolution.
type Kind string

const (
	KindPassphrase      Kind = constants.InputPassphrase
	KindHardwareSign    Kind = constants.InputHardwareSign
	KindHardwareDecrypt Kind = constants.InputHardwareDecrypt
	KindProxy           Kind = constants.InputProxy
)

func (k Kind) valid() bool {
	switch k {
	case KindPassphrase, KindHardwareSign, KindHardwareDecrypt, KindProxy:
		return true
	}
	return false
}

// SignRequest is a digest to be signed by a hardware token.
// Two requests are the same if hash and digest are equal.
type SignRequest struct {
	Hash   crypto.Hash
	Digest []byte
}

func (r SignRequest) equal(o SignRequest) bool {
	return r.Hash == o.Hash && bytes.Equal(r.Digest, o.Digest)
}

type requestKey struct {
	hash   crypto.Hash
	digest string
}

func (r SignRequest) key() requestKey {
	return requestKey{hash: r.Hash, digest: string(r.Digest)}
}

func (r SignRequest) clone() SignRequest {
	return SignRequest{Hash: r.Hash, Digest: internal.Clone(r.Digest)}
}

// Precondition is an immutable description of missing input.
// The zero value is not a valid precondition.
type Precondition struct {
	kind          Kind
	hasKeyIDs     bool
	masterKeyID   uint64
	subKeyID      uint64
	signatureTime time.Time
	requests      []SignRequest
	inputHash     []byte
	proxy         proxy.Config
}

// NewPassphrase asks for the passphrase of a secret key. signatureTime
// may be zero if the operation does not sign.
func NewPassphrase(masterKeyID, subKeyID uint64, signatureTime time.Time) Precondition {
	return Precondition{
		kind:          KindPassphrase,
		hasKeyIDs:     true,
		masterKeyID:   masterKeyID,
		subKeyID:      subKeyID,
		signatureTime: signatureTime,
	}
}

// NewHardwareSign asks a hardware token to sign the requests, in order,
// with one key at one signature time. Prefer building it through a SignBatch.
func NewHardwareSign(masterKeyID, subKeyID uint64, signatureTime time.Time, requests ...SignRequest) Precondition {
	p := Precondition{
		kind:          KindHardwareSign,
		hasKeyIDs:     true,
		masterKeyID:   masterKeyID,
		subKeyID:      subKeyID,
		signatureTime: signatureTime,
		requests:      make([]SignRequest, len(requests)),
	}
	for i, r := range requests {
		p.requests[i] = r.clone()
	}
	return p
}

// NewHardwareDecrypt asks a hardware token to decrypt a session key packet.
func NewHardwareDecrypt(masterKeyID, subKeyID uint64, inputHash []byte) Precondition {
	return Precondition{
		kind:        KindHardwareDecrypt,
		hasKeyIDs:   true,
		masterKeyID: masterKeyID,
		subKeyID:    subKeyID,
		inputHash:   internal.Clone(inputHash),
	}
}

// NewProxyDecision asks the user to install or start the proxy, or to
// connect directly.
func NewProxyDecision(config proxy.Config) Precondition {
	return Precondition{
		kind:  KindProxy,
		proxy: config,
	}
}

// PassphraseFor returns the passphrase precondition for the key and
// signature time of p, e.g. the PIN of the card behind a hardware request.
func PassphraseFor(p Precondition) Precondition {
	return Precondition{
		kind:          KindPassphrase,
		hasKeyIDs:     p.hasKeyIDs,
		masterKeyID:   p.masterKeyID,
		subKeyID:      p.subKeyID,
		signatureTime: p.signatureTime,
	}
}

// Kind returns the variant of the precondition.
func (p Precondition) Kind() Kind {
	return p.kind
}

// IsZero reports whether p is the zero value.
func (p Precondition) IsZero() bool {
	return p.kind == ""
}

// MasterKeyID returns the primary key id; zero for proxy preconditions.
func (p Precondition) MasterKeyID() uint64 {
	return p.masterKeyID
}

// SubKeyID returns the id of the key that must be used.
func (p Precondition) SubKeyID() uint64 {
	return p.subKeyID
}

// HasKeyIDs reports whether the precondition is bound to a key.
func (p Precondition) HasKeyIDs() bool {
	return p.hasKeyIDs
}

// SignatureTime returns the creation time of the signatures,
// or the zero time if none is set.
func (p Precondition) SignatureTime() time.Time {
	return p.signatureTime
}

// Requests returns a copy of the hardware sign requests.
func (p Precondition) Requests() []SignRequest {
	if p.requests == nil {
		return nil
	}
	requests := make([]SignRequest, len(p.requests))
	for i, r := range p.requests {
		requests[i] = r.clone()
	}
	return requests
}

// InputHash returns a copy of the session key packet to decrypt.
func (p Precondition) InputHash() []byte {
	return internal.Clone(p.inputHash)
}

// ProxyConfig returns the proxy configuration a proxy decision is about.
func (p Precondition) ProxyConfig() proxy.Config {
	return p.proxy
}

// Check verifies that r answers p: same kind, same correlation keys and,
// for hardware signatures, one signature per request in request order.
func (p Precondition) Check(r Resolution) error {
	if r.Kind != p.kind {
		return mismatch("kind", "%s resolution for %s precondition", r.Kind, p.kind)
	}
	if p.hasKeyIDs && (r.MasterKeyID != p.masterKeyID || r.SubKeyID != p.subKeyID) {
		return mismatch("key", "resolution for key %x/%x, expected %x/%x",
			r.MasterKeyID, r.SubKeyID, p.masterKeyID, p.subKeyID)
	}
	if !p.signatureTime.IsZero() && !r.SignatureTime.Equal(p.signatureTime) {
		return mismatch("signatureTime", "resolution for signature time %v, expected %v",
			r.SignatureTime, p.signatureTime)
	}
	switch p.kind {
	case KindHardwareSign:
		if len(r.Signatures) != len(p.requests) {
			return mismatch("signatures", "%d signatures for %d requests", len(r.Signatures), len(p.requests))
		}
		for i, s := range r.Signatures {
			if !s.SignRequest.equal(p.requests[i]) {
				return mismatch("signatures", "signature %d does not match its request", i)
			}
			if len(s.Signature) == 0 {
				return mismatch("signatures", "signature %d is empty", i)
			}
		}
	case KindHardwareDecrypt:
		if !bytes.Equal(r.InputHash, p.inputHash) {
			return mismatch("inputHash", "resolution for a different session key packet")
		}
		if len(r.SessionKey) == 0 {
			return mismatch("sessionKey", "no decrypted session key")
		}
	case KindProxy:
		if r.ProxyDecision != proxy.DecisionStartProxy && r.ProxyDecision != proxy.DecisionUseDirect {
			return mismatch("proxyDecision", "no proxy decision %q", r.ProxyDecision)
		}
	}
	return nil
}

// normalizeTime cuts t to the millisecond precision of the wire format.
func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.UnixMilli(t.UnixMilli()).UTC()
}
