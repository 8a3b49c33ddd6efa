package input

import (
	"crypto"
	"encoding/json"
	"time"

	openpgp "github.com/ProtonMail/go-crypto/openpgp/v2"
	"github.com/ProtonMail/go-pgp-input/constants"
	"github.com/ProtonMail/go-pgp-input/proxy"
	"github.com/pkg/errors"
)

// Wire form: a flat object tagged with "v" and "kind". Hash algorithms are
// OpenPGP hash ids, times are unix milliseconds.

type wireRequest struct {
	Hash   uint8  `json:"hash"`
	Digest []byte `json:"digest"`
}

type wireSignedHash struct {
	Hash      uint8  `json:"hash"`
	Digest    []byte `json:"digest"`
	Signature []byte `json:"signature"`
}

type wirePrecondition struct {
	Version       int           `json:"v"`
	Kind          Kind          `json:"kind"`
	MasterKeyID   *uint64       `json:"masterKeyId,omitempty"`
	SubKeyID      *uint64       `json:"subKeyId,omitempty"`
	SignatureTime *int64        `json:"signatureTime,omitempty"`
	Requests      []SignRequest `json:"requests,omitempty"`
	InputHash     []byte        `json:"inputHash,omitempty"`
	Proxy         *proxy.Config `json:"proxy,omitempty"`
}

type wireResolution struct {
	Version       int            `json:"v"`
	Kind          Kind           `json:"kind"`
	MasterKeyID   uint64         `json:"masterKeyId,omitempty"`
	SubKeyID      uint64         `json:"subKeyId,omitempty"`
	SignatureTime *int64         `json:"signatureTime,omitempty"`
	Passphrase    []byte         `json:"passphrase,omitempty"`
	Cancelled     bool           `json:"cancelled,omitempty"`
	Signatures    []SignedHash   `json:"signatures,omitempty"`
	InputHash     []byte         `json:"inputHash,omitempty"`
	SessionKey    []byte         `json:"sessionKey,omitempty"`
	ProxyDecision proxy.Decision `json:"proxyDecision,omitempty"`
	ProxyStatus   *proxy.Status  `json:"proxyStatus,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p Precondition) MarshalJSON() ([]byte, error) {
	if !p.kind.valid() {
		return nil, errors.Errorf("gopenpgp: cannot encode precondition of kind %q", p.kind)
	}
	signatureTime, err := EncodeTime(p.signatureTime)
	if err != nil {
		return nil, err
	}
	w := wirePrecondition{
		Version:       constants.WireVersion,
		Kind:          p.kind,
		SignatureTime: signatureTime,
		Requests:      p.requests,
		InputHash:     p.inputHash,
	}
	if p.hasKeyIDs {
		master, sub := p.masterKeyID, p.subKeyID
		w.MasterKeyID, w.SubKeyID = &master, &sub
	}
	if p.kind == KindProxy {
		config := p.proxy
		w.Proxy = &config
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown versions and kinds,
// and preconditions missing the fields of their kind, are rejected.
func (p *Precondition) UnmarshalJSON(data []byte) error {
	var w wirePrecondition
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "gopenpgp: unable to decode precondition")
	}
	if w.Version != constants.WireVersion {
		return errors.Errorf("gopenpgp: unsupported precondition version %d", w.Version)
	}
	if !w.Kind.valid() {
		return errors.Errorf("gopenpgp: unknown precondition kind %q", w.Kind)
	}
	hasKeyIDs := w.MasterKeyID != nil && w.SubKeyID != nil
	if w.Kind != KindProxy && !hasKeyIDs {
		return errors.Errorf("gopenpgp: %s precondition without key ids", w.Kind)
	}
	signatureTime := decodeTime(w.SignatureTime)
	requests := w.Requests

	switch w.Kind {
	case KindPassphrase:
		*p = NewPassphrase(*w.MasterKeyID, *w.SubKeyID, signatureTime)
	case KindHardwareSign:
		if signatureTime.IsZero() || len(requests) == 0 {
			return errors.New("gopenpgp: hardware sign precondition without signature time or requests")
		}
		*p = NewHardwareSign(*w.MasterKeyID, *w.SubKeyID, signatureTime, requests...)
	case KindHardwareDecrypt:
		if len(w.InputHash) == 0 {
			return errors.New("gopenpgp: hardware decrypt precondition without input")
		}
		*p = NewHardwareDecrypt(*w.MasterKeyID, *w.SubKeyID, w.InputHash)
	case KindProxy:
		if w.Proxy == nil {
			return errors.New("gopenpgp: proxy precondition without proxy configuration")
		}
		*p = NewProxyDecision(*w.Proxy)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Resolution) MarshalJSON() ([]byte, error) {
	signatureTime, err := EncodeTime(r.SignatureTime)
	if err != nil {
		return nil, err
	}
	w := wireResolution{
		Version:       constants.WireVersion,
		Kind:          r.Kind,
		MasterKeyID:   r.MasterKeyID,
		SubKeyID:      r.SubKeyID,
		SignatureTime: signatureTime,
		Passphrase:    r.Passphrase,
		Cancelled:     r.Cancelled,
		InputHash:     r.InputHash,
		SessionKey:    r.SessionKey,
		ProxyDecision: r.ProxyDecision,
		Signatures:    r.Signatures,
	}
	if r.Kind == KindProxy {
		status := r.ProxyStatus
		w.ProxyStatus = &status
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Resolution) UnmarshalJSON(data []byte) error {
	var w wireResolution
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "gopenpgp: unable to decode resolution")
	}
	if w.Version != constants.WireVersion {
		return errors.Errorf("gopenpgp: unsupported resolution version %d", w.Version)
	}
	if !w.Kind.valid() {
		return errors.Errorf("gopenpgp: unknown resolution kind %q", w.Kind)
	}
	res := Resolution{
		Kind:          w.Kind,
		MasterKeyID:   w.MasterKeyID,
		SubKeyID:      w.SubKeyID,
		SignatureTime: decodeTime(w.SignatureTime),
		Passphrase:    w.Passphrase,
		Cancelled:     w.Cancelled,
		InputHash:     w.InputHash,
		SessionKey:    w.SessionKey,
		ProxyDecision: w.ProxyDecision,
		Signatures:    w.Signatures,
	}
	if w.ProxyStatus != nil {
		res.ProxyStatus = *w.ProxyStatus
	}
	*r = res
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r SignRequest) MarshalJSON() ([]byte, error) {
	id, err := HashID(r.Hash)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireRequest{Hash: id, Digest: r.Digest})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *SignRequest) UnmarshalJSON(data []byte) error {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "gopenpgp: unable to decode sign request")
	}
	hash, err := HashFromID(w.Hash)
	if err != nil {
		return err
	}
	*r = SignRequest{Hash: hash, Digest: w.Digest}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s SignedHash) MarshalJSON() ([]byte, error) {
	id, err := HashID(s.Hash)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireSignedHash{Hash: id, Digest: s.Digest, Signature: s.Signature})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SignedHash) UnmarshalJSON(data []byte) error {
	var w wireSignedHash
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "gopenpgp: unable to decode signature")
	}
	hash, err := HashFromID(w.Hash)
	if err != nil {
		return err
	}
	*s = SignedHash{SignRequest: SignRequest{Hash: hash, Digest: w.Digest}, Signature: w.Signature}
	return nil
}

// HashID returns the OpenPGP id of a hash algorithm.
func HashID(hash crypto.Hash) (uint8, error) {
	id, ok := openpgp.HashToHashId(hash)
	if !ok {
		return 0, errors.Errorf("gopenpgp: hash %v has no OpenPGP id", hash)
	}
	return id, nil
}

// HashFromID returns the hash algorithm of an OpenPGP hash id.
func HashFromID(id uint8) (crypto.Hash, error) {
	hash, ok := openpgp.HashIdToHash(id)
	if !ok {
		return 0, errors.Errorf("gopenpgp: unknown hash id %d", id)
	}
	return hash, nil
}

// NormalizeTime cuts t to the millisecond precision of the wire format.
// The zero time stays zero.
func NormalizeTime(t time.Time) time.Time {
	return normalizeTime(t)
}

// EncodeTime returns t in unix milliseconds, or nil for the zero time.
// Times with a sub-millisecond component cannot be encoded without
// changing them and are rejected.
func EncodeTime(t time.Time) (*int64, error) {
	if t.IsZero() {
		return nil, nil
	}
	if !normalizeTime(t).Equal(t) {
		return nil, errors.Errorf("gopenpgp: signature time %v is finer than a millisecond", t)
	}
	ms := t.UnixMilli()
	return &ms, nil
}

func decodeTime(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ms).UTC()
}
