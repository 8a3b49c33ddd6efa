package operation

import (
	"time"

	"github.com/ProtonMail/go-pgp-input/input"
	"github.com/ProtonMail/go-pgp-input/internal"
	"github.com/ProtonMail/go-pgp-input/key"
	"github.com/ProtonMail/go-pgp-input/linked"
	"github.com/ProtonMail/go-pgp-input/policy"
	"github.com/ProtonMail/go-pgp-input/proxy"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a Coordinator.
type State int8

const (
	StateInitiated State = iota
	StateSuspended
	StateResumed
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitiated:
		return "initiated"
	case StateSuspended:
		return "suspended"
	case StateResumed:
		return "resumed"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger; the default is the logrus standard logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Coordinator) {
		c.log = internal.Logger(logger)
	}
}

// WithClock sets the clock used for default signature times.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// Coordinator drives a single operation. Use one coordinator per
// operation; a Coordinator is not safe for concurrent use.
type Coordinator struct {
	policy *policy.Policy
	keys   KeyStore
	clock  internal.Clock
	log    logrus.FieldLogger

	id    uuid.UUID
	state State
}

// NewCoordinator creates a coordinator that checks algorithms against p
// and reads keys from keys.
func NewCoordinator(p *policy.Policy, keys KeyStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		policy: p,
		keys:   keys,
		clock:  time.Now,
		log:    logrus.StandardLogger(),
		state:  StateInitiated,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the id of the operation, or uuid.Nil before it started.
func (c *Coordinator) ID() uuid.UUID {
	return c.id
}

// State returns the lifecycle state.
func (c *Coordinator) State() State {
	return c.state
}

// Start runs the operation described by spec as far as the available
// input allows. A coordinator can be started once.
func (c *Coordinator) Start(spec Spec) Outcome {
	if c.id != uuid.Nil {
		return Outcome{
			Status: StatusFailed,
			Err:    input.NewContractViolation("operation %s already started", c.id),
		}
	}
	c.id = uuid.New()

	spec = spec.clone()
	if spec.Kind == KindSign && spec.SignatureTime.IsZero() {
		spec.SignatureTime = input.NormalizeTime(c.clock())
	}
	if err := spec.validate(); err != nil {
		return c.fail(err)
	}
	c.logger().WithField("operation_kind", spec.Kind).Debug("gopenpgp: operation started")
	return c.drive(spec, spec.Input.clone())
}

// Resume continues a suspended operation with the resolution of its
// precondition. A resolution that does not answer the precondition fails
// the operation. A fresh coordinator can resume any pending operation;
// a coordinator that already runs an operation only resumes that one.
func (c *Coordinator) Resume(pending Pending, r input.Resolution) Outcome {
	if pending.ID == uuid.Nil || pending.Precondition.IsZero() {
		return Outcome{
			Status: StatusFailed,
			Err:    input.NewContractViolation("nothing to resume"),
		}
	}
	if c.id != uuid.Nil && c.id != pending.ID {
		return Outcome{
			Status: StatusFailed,
			Err:    input.NewContractViolation("operation %s cannot resume operation %s", c.id, pending.ID),
		}
	}
	c.id = pending.ID

	if err := pending.Precondition.Check(r); err != nil {
		return c.fail(err)
	}
	in := pending.Input.clone()
	if err := in.merge(r); err != nil {
		return c.fail(err)
	}
	c.state = StateResumed
	c.logger().WithField("input_kind", r.Kind).Debug("gopenpgp: operation resumed")
	return c.drive(pending.Spec.clone(), in)
}

// drive evaluates policy, then secret material, then the network step.
func (c *Coordinator) drive(spec Spec, in CryptoInput) Outcome {
	if err := c.checkPolicy(spec); err != nil {
		return c.fail(err)
	}

	result := &Result{
		ID:            c.id,
		Kind:          spec.Kind,
		SignatureTime: spec.SignatureTime,
		Passphrase:    internal.Clone(in.Passphrase),
		HasPassphrase: in.HasPassphrase,
	}
	if len(in.SessionKey) > 0 {
		sessionKey, err := c.checkSessionKey(in.SessionKey)
		if err != nil {
			return c.fail(err)
		}
		result.SessionKey = sessionKey
	}

	if spec.Kind.usesSecretKey() {
		p, reason, err := c.material(spec, &in, result)
		if err != nil {
			return c.fail(err)
		}
		if !p.IsZero() {
			return c.suspend(spec, in, p, reason)
		}
	}

	if spec.Kind == KindVerifyLink || spec.Network != nil {
		p, err := c.network(spec, in, result)
		if err != nil {
			return c.fail(err)
		}
		if !p.IsZero() {
			return c.suspend(spec, in, p, ErrProxyRequired)
		}
	}

	c.state = StateCompleted
	c.logger().Debug("gopenpgp: operation completed")
	return Outcome{Status: StatusCompleted, Result: result}
}

func (c *Coordinator) checkPolicy(spec Spec) error {
	for _, r := range spec.Requests {
		if !c.policy.IsSecureHash(r.Hash) {
			return insecureHash(r.Hash)
		}
	}
	for _, h := range spec.Hashes {
		if !c.policy.IsSecureHash(h) {
			return insecureHash(h)
		}
	}
	if spec.Cipher != 0 && !c.policy.IsSecureSymmetric(spec.Cipher) {
		return insecureCipher(spec.Cipher)
	}
	if spec.KeyID != 0 {
		desc, err := c.keys.Descriptor(spec.KeyID)
		if err != nil {
			return errors.Wrap(err, "gopenpgp: unable to read key")
		}
		if !c.policy.IsSecureKey(desc) {
			return insecureKey(desc)
		}
	}
	return nil
}

// checkSessionKey parses a session key decrypted by a hardware token and
// checks its cipher, which is only known after decryption.
func (c *Coordinator) checkSessionKey(data []byte) (*SessionKey, error) {
	sessionKey, err := parseSessionKey(data)
	if err != nil {
		return nil, err
	}
	if !c.policy.IsSecureSymmetric(sessionKey.Cipher) {
		return nil, insecureCipher(sessionKey.Cipher)
	}
	if err := sessionKey.checkKeySize(); err != nil {
		return nil, err
	}
	return sessionKey, nil
}

// material returns the precondition for missing secret input, or the
// zero precondition if the key can be used. A passphrase the key store
// rejects is dropped from in and asked for again; the returned reason is
// then ErrIncorrectPassphrase.
func (c *Coordinator) material(spec Spec, in *CryptoInput, result *Result) (input.Precondition, error, error) {
	secretType, err := c.keys.SecretKeyType(spec.KeyID)
	if err != nil {
		return input.Precondition{}, nil, errors.Wrap(err, "gopenpgp: unable to read key")
	}
	masterKeyID, err := c.keys.MasterKeyID(spec.KeyID)
	if err != nil {
		return input.Precondition{}, nil, errors.Wrap(err, "gopenpgp: unable to read key")
	}

	switch secretType {
	case key.PassphraseEmpty:
		return input.Precondition{}, nil, nil
	case key.Passphrase:
		if !in.HasPassphrase {
			return input.NewPassphrase(masterKeyID, spec.KeyID, spec.SignatureTime), nil, nil
		}
		err := c.keys.CheckPassphrase(spec.KeyID, in.Passphrase)
		if errors.Is(err, key.ErrIncorrectPassphrase) {
			c.logger().Debug("gopenpgp: passphrase rejected")
			in.clearPassphrase()
			result.Passphrase, result.HasPassphrase = nil, false
			return input.NewPassphrase(masterKeyID, spec.KeyID, spec.SignatureTime), ErrIncorrectPassphrase, nil
		}
		if err != nil {
			return input.Precondition{}, nil, errors.Wrap(err, "gopenpgp: unable to check passphrase")
		}
		return input.Precondition{}, nil, nil
	case key.DivertToCard:
		// The card PIN comes first; the card checks it.
		if !in.HasPassphrase {
			return input.NewPassphrase(masterKeyID, spec.KeyID, spec.SignatureTime), nil, nil
		}
		if spec.Kind == KindDecrypt {
			if result.SessionKey == nil {
				if len(spec.SessionKeyPacket) == 0 {
					return input.Precondition{}, nil, input.NewContractViolation("decrypt operation on a card without session key packet")
				}
				return input.NewHardwareDecrypt(masterKeyID, spec.KeyID, spec.SessionKeyPacket), nil, nil
			}
			return input.Precondition{}, nil, nil
		}
		batch := input.NewSignBatch(spec.SignatureTime, masterKeyID, spec.KeyID)
		for _, req := range spec.Requests {
			signature, ok := in.signature(req)
			if !ok {
				batch.AddHash(req.Digest, req.Hash)
				continue
			}
			result.Signatures = append(result.Signatures, cloneSignedHash(input.SignedHash{
				SignRequest: req,
				Signature:   signature,
			}))
		}
		if !batch.IsEmpty() {
			result.Signatures = nil
			return batch.Build(), nil, nil
		}
		return input.Precondition{}, nil, nil
	}
	return input.Precondition{}, nil, errors.Wrapf(ErrSecretKeyUnavailable, "gopenpgp: key %016x", spec.KeyID)
}

// network returns the proxy precondition while a required proxy is
// neither running nor overridden, and sets the route otherwise.
func (c *Coordinator) network(spec Spec, in CryptoInput, result *Result) (input.Precondition, error) {
	network := Network{Proxy: proxy.NoProxy()}
	if spec.Network != nil {
		network = *spec.Network
	}
	target := network.Target
	touchesNetwork := true
	if spec.Kind == KindVerifyLink {
		identity, err := linked.Parse(spec.LinkedIdentity)
		if err != nil {
			return input.Precondition{}, err
		}
		if identity.IsRaw() {
			return input.Precondition{}, errors.Wrap(linked.ErrNotLinkedIdentity, "gopenpgp: identity has no verifiable resource")
		}
		touchesNetwork = identity.NeedsNetwork()
		if target == "" {
			target = identity.Endpoint()
		}
	}

	status := network.Status
	if in.ProxyStatus != nil {
		status = *in.ProxyStatus
	}
	gate := proxy.NewGate(network.Proxy, touchesNetwork, c.log)
	state := gate.Evaluate(status)
	if in.ProxyDecision != proxy.DecisionNone {
		var err error
		if state, err = gate.Resolve(in.ProxyDecision, status); err != nil {
			return input.Precondition{}, err
		}
	}
	if state.RequiresDecision() {
		return input.NewProxyDecision(network.Proxy), nil
	}

	route, err := gate.Route()
	if err != nil {
		return input.Precondition{}, err
	}
	result.Route = &route
	result.Target = target
	c.logger().WithFields(route.Fields()).WithField("target", target).Debug("gopenpgp: network route decided")
	return input.Precondition{}, nil
}

func (c *Coordinator) suspend(spec Spec, in CryptoInput, p input.Precondition, reason error) Outcome {
	c.state = StateSuspended
	c.logger().WithField("input_kind", p.Kind()).Debug("gopenpgp: operation suspended")
	return Outcome{
		Status: StatusSuspended,
		Pending: &Pending{
			ID:           c.id,
			Spec:         spec,
			Precondition: p,
			Input:        in,
		},
		Err: reason,
	}
}

func (c *Coordinator) fail(err error) Outcome {
	c.state = StateFailed
	c.logger().WithError(err).Debug("gopenpgp: operation failed")
	return Outcome{Status: StatusFailed, Err: err}
}

func (c *Coordinator) logger() logrus.FieldLogger {
	return c.log.WithField("operation", c.id.String())
}
