package operation

import (
	"encoding/json"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ProtonMail/go-pgp-input/constants"
	"github.com/ProtonMail/go-pgp-input/input"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type wireSpec struct {
	Kind             Kind                  `json:"kind"`
	KeyID            uint64                `json:"keyId,omitempty"`
	SignatureTime    *int64                `json:"signatureTime,omitempty"`
	Requests         []input.SignRequest   `json:"requests,omitempty"`
	Hashes           []uint8               `json:"hashes,omitempty"`
	Cipher           packet.CipherFunction `json:"cipher,omitempty"`
	SessionKeyPacket []byte                `json:"sessionKeyPacket,omitempty"`
	LinkedIdentity   string                `json:"linkedIdentity,omitempty"`
	Network          *Network              `json:"network,omitempty"`
	Input            CryptoInput           `json:"input"`
}

// MarshalJSON implements json.Marshaler. Hashes are OpenPGP hash ids and
// the signature time is in unix milliseconds.
func (s Spec) MarshalJSON() ([]byte, error) {
	signatureTime, err := input.EncodeTime(s.SignatureTime)
	if err != nil {
		return nil, err
	}
	w := wireSpec{
		Kind:             s.Kind,
		SignatureTime:    signatureTime,
		KeyID:            s.KeyID,
		Requests:         s.Requests,
		Cipher:           s.Cipher,
		SessionKeyPacket: s.SessionKeyPacket,
		LinkedIdentity:   s.LinkedIdentity,
		Network:          s.Network,
		Input:            s.Input,
	}
	for _, h := range s.Hashes {
		id, err := input.HashID(h)
		if err != nil {
			return nil, err
		}
		w.Hashes = append(w.Hashes, id)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var w wireSpec
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "gopenpgp: unable to decode operation")
	}
	spec := Spec{
		Kind:             w.Kind,
		KeyID:            w.KeyID,
		Requests:         w.Requests,
		Cipher:           w.Cipher,
		SessionKeyPacket: w.SessionKeyPacket,
		LinkedIdentity:   w.LinkedIdentity,
		Network:          w.Network,
		Input:            w.Input,
	}
	if w.SignatureTime != nil {
		spec.SignatureTime = time.UnixMilli(*w.SignatureTime).UTC()
	}
	for _, id := range w.Hashes {
		h, err := input.HashFromID(id)
		if err != nil {
			return err
		}
		spec.Hashes = append(spec.Hashes, h)
	}
	*s = spec
	return nil
}

type wirePending struct {
	Version      int                `json:"v"`
	ID           uuid.UUID          `json:"id"`
	Kind         Kind               `json:"kind"`
	Spec         Spec               `json:"spec"`
	Precondition input.Precondition `json:"precondition"`
	Input        CryptoInput        `json:"input"`
}

// MarshalJSON implements json.Marshaler.
func (p Pending) MarshalJSON() ([]byte, error) {
	return json.Marshal(wirePending{
		Version:      constants.WireVersion,
		ID:           p.ID,
		Kind:         p.Spec.Kind,
		Spec:         p.Spec,
		Precondition: p.Precondition,
		Input:        p.Input,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Pending operations of
// another version, or whose operation is invalid, are rejected.
func (p *Pending) UnmarshalJSON(data []byte) error {
	var w wirePending
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "gopenpgp: unable to decode pending operation")
	}
	if w.Version != constants.WireVersion {
		return errors.Errorf("gopenpgp: unsupported pending operation version %d", w.Version)
	}
	if w.ID == uuid.Nil {
		return errors.New("gopenpgp: pending operation without id")
	}
	if w.Kind != w.Spec.Kind {
		return errors.Errorf("gopenpgp: pending %s operation holds a %s operation", w.Kind, w.Spec.Kind)
	}
	if err := w.Spec.validate(); err != nil {
		return err
	}
	*p = Pending{
		ID:           w.ID,
		Spec:         w.Spec,
		Precondition: w.Precondition,
		Input:        w.Input,
	}
	return nil
}
