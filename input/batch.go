package input

import (
	"crypto"
	"time"
)

// SignBatch collects the digests one hardware token signs with one key at
// one signature time, so that a single tap covers all of them.
// A SignBatch is not safe for concurrent use.
type SignBatch struct {
	signatureTime time.Time
	masterKeyID   uint64
	subKeyID      uint64
	requests      []SignRequest
	seen          map[requestKey]struct{}
}

// NewSignBatch creates an empty batch for a key and signature time.
func NewSignBatch(signatureTime time.Time, masterKeyID, subKeyID uint64) *SignBatch {
	return &SignBatch{
		signatureTime: signatureTime,
		masterKeyID:   masterKeyID,
		subKeyID:      subKeyID,
		seen:          make(map[requestKey]struct{}),
	}
}

// AddHash appends a digest to sign with the given hash algorithm, unless
// the batch already holds it. The algorithm is checked against the policy
// when the operation resumes, not here.
func (b *SignBatch) AddHash(digest []byte, hash crypto.Hash) {
	req := SignRequest{Hash: hash, Digest: digest}
	if _, ok := b.seen[req.key()]; ok {
		return
	}
	req = req.clone()
	b.requests = append(b.requests, req)
	b.seen[req.key()] = struct{}{}
}

// Merge appends the requests of other that are not already in b.
// Batches of another key or signature time cannot be merged.
func (b *SignBatch) Merge(other *SignBatch) error {
	if err := b.compatible(other.signatureTime, true, other.masterKeyID, other.subKeyID); err != nil {
		return err
	}
	b.addMissing(other.requests)
	return nil
}

// MergePrecondition merges the requests of a hardware sign precondition.
func (b *SignBatch) MergePrecondition(p Precondition) error {
	if p.kind != KindHardwareSign {
		return NewContractViolation("cannot merge a %s precondition into a sign batch", p.kind)
	}
	if err := b.compatible(p.signatureTime, p.hasKeyIDs, p.masterKeyID, p.subKeyID); err != nil {
		return err
	}
	b.addMissing(p.requests)
	return nil
}

// IsEmpty reports whether the batch has no requests.
func (b *SignBatch) IsEmpty() bool {
	return len(b.requests) == 0
}

// Len returns the number of requests.
func (b *SignBatch) Len() int {
	return len(b.requests)
}

// Build returns a hardware sign precondition holding a snapshot of the
// requests. The batch can keep growing afterwards.
func (b *SignBatch) Build() Precondition {
	return NewHardwareSign(b.masterKeyID, b.subKeyID, b.signatureTime, b.requests...)
}

func (b *SignBatch) compatible(signatureTime time.Time, hasKeyIDs bool, masterKeyID, subKeyID uint64) error {
	if !signatureTime.Equal(b.signatureTime) {
		return NewContractViolation("signature times must match: %v != %v", signatureTime, b.signatureTime)
	}
	if !hasKeyIDs || masterKeyID != b.masterKeyID || subKeyID != b.subKeyID {
		return NewContractViolation("keys must match: %x/%x != %x/%x",
			masterKeyID, subKeyID, b.masterKeyID, b.subKeyID)
	}
	return nil
}

func (b *SignBatch) addMissing(requests []SignRequest) {
	for _, r := range requests {
		b.AddHash(r.Digest, r.Hash)
	}
}
