// Package helper runs operations against a host that answers their
// preconditions, and wraps the operation API for gomobile.
package helper

import (
	"context"

	"github.com/ProtonMail/go-pgp-input/input"
	"github.com/ProtonMail/go-pgp-input/internal"
	"github.com/ProtonMail/go-pgp-input/operation"
	"github.com/ProtonMail/go-pgp-input/proxy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrCancelled is returned by a PassphraseProvider when the user declined.
var ErrCancelled = errors.New("gopenpgp: cancelled by user")

// PassphraseProvider asks for the passphrase or card PIN of a key.
type PassphraseProvider interface {
	Passphrase(ctx context.Context, p input.Precondition) ([]byte, error)
}

// HardwareToken talks to a smartcard.
type HardwareToken interface {
	// Sign returns one signature per request of p, in request order.
	Sign(ctx context.Context, p input.Precondition) ([][]byte, error)
	// Decrypt returns the decrypted session key of p's session key packet.
	Decrypt(ctx context.Context, p input.Precondition) ([]byte, error)
}

// ProxyPrompter asks the user whether to start the proxy or connect directly.
type ProxyPrompter interface {
	Decide(ctx context.Context, p input.Precondition, status proxy.Status) (proxy.Decision, error)
}

// Host answers preconditions. Collaborators that an operation never needs
// can be left nil.
type Host struct {
	Passphrases  PassphraseProvider
	Hardware     HardwareToken
	Proxy        ProxyPrompter
	ProxyRuntime proxy.Runtime
	Logger       logrus.FieldLogger
}

// Run starts the operation and resolves its preconditions through the host
// until it completes or fails. When ctx is done the pending state is
// discarded and ctx.Err() is returned.
func Run(ctx context.Context, c *operation.Coordinator, spec operation.Spec, host *Host) (*operation.Result, error) {
	outcome := c.Start(spec)
	for {
		switch outcome.Status {
		case operation.StatusCompleted:
			return outcome.Result, nil
		case operation.StatusFailed:
			return nil, outcome.Err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resolution, err := host.Resolve(ctx, outcome.Precondition())
		if err != nil {
			return nil, err
		}
		outcome = c.Resume(*outcome.Pending, resolution)
	}
}

// Resolve asks the host's collaborators for the input p describes.
func (h *Host) Resolve(ctx context.Context, p input.Precondition) (input.Resolution, error) {
	log := internal.Logger(h.Logger).WithField("input_kind", p.Kind())
	log.Debug("gopenpgp: resolving precondition")

	switch p.Kind() {
	case input.KindPassphrase:
		if h.Passphrases == nil {
			return input.Resolution{}, errors.New("gopenpgp: no passphrase provider")
		}
		passphrase, err := h.Passphrases.Passphrase(ctx, p)
		if errors.Is(err, ErrCancelled) {
			return input.CancelPassphrase(p), nil
		}
		if err != nil {
			return input.Resolution{}, errors.Wrap(err, "gopenpgp: unable to read passphrase")
		}
		return input.ResolvePassphrase(p, passphrase), nil

	case input.KindHardwareSign:
		if h.Hardware == nil {
			return input.Resolution{}, errors.New("gopenpgp: no hardware token")
		}
		signatures, err := h.Hardware.Sign(ctx, p)
		if err != nil {
			return input.Resolution{}, errors.Wrap(err, "gopenpgp: hardware token failed to sign")
		}
		return input.ResolveHardwareSign(p, signatures...), nil

	case input.KindHardwareDecrypt:
		if h.Hardware == nil {
			return input.Resolution{}, errors.New("gopenpgp: no hardware token")
		}
		sessionKey, err := h.Hardware.Decrypt(ctx, p)
		if err != nil {
			return input.Resolution{}, errors.Wrap(err, "gopenpgp: hardware token failed to decrypt")
		}
		return input.ResolveHardwareDecrypt(p, sessionKey), nil

	case input.KindProxy:
		return h.resolveProxy(ctx, p, log)
	}
	return input.Resolution{}, errors.Errorf("gopenpgp: unknown precondition kind %q", p.Kind())
}

func (h *Host) resolveProxy(ctx context.Context, p input.Precondition, log logrus.FieldLogger) (input.Resolution, error) {
	if h.Proxy == nil || h.ProxyRuntime == nil {
		return input.Resolution{}, errors.New("gopenpgp: no proxy prompter or runtime")
	}
	status, err := h.ProxyRuntime.Status(ctx)
	if err != nil {
		return input.Resolution{}, errors.Wrap(err, "gopenpgp: unable to query proxy status")
	}
	decision, err := h.Proxy.Decide(ctx, p, status)
	if err != nil {
		return input.Resolution{}, errors.Wrap(err, "gopenpgp: no proxy decision")
	}

	if decision == proxy.DecisionStartProxy {
		if !status.Installed {
			if err := h.ProxyRuntime.PromptInstall(ctx); err != nil {
				return input.Resolution{}, errors.Wrap(err, "gopenpgp: unable to prompt proxy install")
			}
		}
		if !status.Running {
			if err := h.ProxyRuntime.PromptStart(ctx); err != nil {
				return input.Resolution{}, errors.Wrap(err, "gopenpgp: unable to prompt proxy start")
			}
		}
		if status, err = h.ProxyRuntime.Status(ctx); err != nil {
			return input.Resolution{}, errors.Wrap(err, "gopenpgp: unable to query proxy status")
		}
		log.WithField("proxy_running", status.Running).Debug("gopenpgp: proxy status after prompt")
	}
	return input.ResolveProxy(p, decision, status), nil
}
