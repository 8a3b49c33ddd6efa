package helper

import (
	"encoding/json"
	"strings"

	"github.com/ProtonMail/go-pgp-input/input"
	"github.com/ProtonMail/go-pgp-input/key"
	"github.com/ProtonMail/go-pgp-input/operation"
	"github.com/ProtonMail/go-pgp-input/policy"
	"github.com/pkg/errors"
)

// ExplicitOutcome is an operation.Outcome in a form gomobile can bind.
// Exactly one of Result, Pending and Error is set; Precondition is set
// with Pending.
type ExplicitOutcome struct {
	Status       string
	Result       []byte
	Pending      []byte
	Precondition []byte
	Error        string
	// ProxyRequired is set while the operation waits on a proxy decision.
	ProxyRequired bool
	// IncorrectPassphrase is set when the operation asks again for a
	// passphrase that did not unlock the key.
	IncorrectPassphrase bool
}

// StartOperation starts the JSON encoded operation spec with the keys in
// armoredKeys under the named policy.
func StartOperation(policyName, armoredKeys string, spec []byte) (*ExplicitOutcome, error) {
	c, err := newMobileCoordinator(policyName, armoredKeys)
	if err != nil {
		return nil, err
	}
	var s operation.Spec
	if err := json.Unmarshal(spec, &s); err != nil {
		return nil, err
	}
	return explicitOutcome(c.Start(s))
}

// ResumeOperation resumes a JSON encoded pending operation with a JSON
// encoded resolution.
func ResumeOperation(policyName, armoredKeys string, pending, resolution []byte) (*ExplicitOutcome, error) {
	c, err := newMobileCoordinator(policyName, armoredKeys)
	if err != nil {
		return nil, err
	}
	var p operation.Pending
	if err := json.Unmarshal(pending, &p); err != nil {
		return nil, err
	}
	var r input.Resolution
	if err := json.Unmarshal(resolution, &r); err != nil {
		return nil, err
	}
	return explicitOutcome(c.Resume(p, r))
}

func newMobileCoordinator(policyName, armoredKeys string) (*operation.Coordinator, error) {
	p, err := policy.ByName(policyName)
	if err != nil {
		return nil, err
	}
	ring, err := key.ReadRing(strings.NewReader(armoredKeys), true)
	if err != nil {
		return nil, err
	}
	return operation.NewCoordinator(p, ring), nil
}

func explicitOutcome(outcome operation.Outcome) (*ExplicitOutcome, error) {
	explicit := &ExplicitOutcome{Status: outcome.Status.String()}
	var err error
	switch outcome.Status {
	case operation.StatusCompleted:
		explicit.Result, err = json.Marshal(outcome.Result)
	case operation.StatusSuspended:
		explicit.ProxyRequired = errors.Is(outcome.Err, operation.ErrProxyRequired)
		explicit.IncorrectPassphrase = errors.Is(outcome.Err, operation.ErrIncorrectPassphrase)
		if explicit.Pending, err = json.Marshal(outcome.Pending); err != nil {
			break
		}
		explicit.Precondition, err = json.Marshal(outcome.Pending.Precondition)
	case operation.StatusFailed:
		explicit.Error = outcome.Err.Error()
	}
	if err != nil {
		return nil, errors.Wrap(err, "gopenpgp: unable to encode outcome")
	}
	return explicit, nil
}
