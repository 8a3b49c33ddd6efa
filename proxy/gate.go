package proxy

import (
	"github.com/ProtonMail/go-pgp-input/internal"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrProxyRequired is returned while a required proxy is neither running
// nor overridden by the user.
var ErrProxyRequired = errors.New("gopenpgp: proxy required but not available")

// State is the routing state of a network-touching step.
type State int8

const (
	// StateNotApplicable means the step does not touch the network.
	StateNotApplicable State = iota
	// StateNoProxyRequired means the configuration allows direct connections.
	StateNoProxyRequired
	// StateNotInstalled means the required proxy is not installed.
	StateNotInstalled
	// StateNotRunning means the required proxy is installed but not running.
	StateNotRunning
	// StateRunning means traffic is routed through the proxy.
	StateRunning
	// StateUserOverrodeToDirect means the user chose to bypass the required proxy.
	StateUserOverrodeToDirect
)

func (s State) String() string {
	switch s {
	case StateNotApplicable:
		return "not-applicable"
	case StateNoProxyRequired:
		return "no-proxy-required"
	case StateNotInstalled:
		return "not-installed"
	case StateNotRunning:
		return "not-running"
	case StateRunning:
		return "running"
	case StateUserOverrodeToDirect:
		return "user-overrode-to-direct"
	}
	return "unknown"
}

// RequiresDecision reports whether the user has to install or start the
// proxy, or override it, before the step can proceed.
func (s State) RequiresDecision() bool {
	return s == StateNotInstalled || s == StateNotRunning
}

// Decision is the user's answer to a proxy prompt.
type Decision string

const (
	DecisionNone       Decision = ""
	DecisionStartProxy Decision = "start-proxy"
	DecisionUseDirect  Decision = "use-direct"
)

// Gate tracks the routing decision of one network-touching step.
// It is not safe for concurrent use.
type Gate struct {
	config  Config
	network bool
	state   State
	log     logrus.FieldLogger
}

// NewGate creates a gate for a step; touchesNetwork is false for steps
// that never connect anywhere.
func NewGate(config Config, touchesNetwork bool, logger logrus.FieldLogger) *Gate {
	return &Gate{
		config:  config,
		network: touchesNetwork,
		state:   StateNotApplicable,
		log:     internal.Logger(logger),
	}
}

// State returns the last evaluated state.
func (g *Gate) State() State {
	return g.state
}

// Config returns the proxy configuration of the gate.
func (g *Gate) Config() Config {
	return g.config
}

// Evaluate computes the state from the proxy status.
// A user override, once made, is kept.
func (g *Gate) Evaluate(status Status) State {
	if g.state == StateUserOverrodeToDirect {
		return g.state
	}
	switch {
	case !g.network:
		g.state = StateNotApplicable
	case !g.config.Required:
		g.state = StateNoProxyRequired
	case !status.Installed:
		g.state = StateNotInstalled
	case !status.Running:
		g.state = StateNotRunning
	default:
		g.state = StateRunning
	}
	g.log.WithField("proxy_state", g.state.String()).Debug("gopenpgp: proxy evaluated")
	return g.state
}

// Resolve applies the user's decision. After DecisionStartProxy the status
// must be re-queried by the caller; a proxy that is still not running keeps
// the gate in a state that requires a decision.
func (g *Gate) Resolve(decision Decision, status Status) (State, error) {
	switch decision {
	case DecisionUseDirect:
		if g.network && g.config.Required {
			g.state = StateUserOverrodeToDirect
			g.log.WithFields(logrus.Fields{
				"proxy_state":    g.state.String(),
				"proxy_override": true,
			}).Warn("gopenpgp: user chose to bypass the required proxy")
			return g.state, nil
		}
		return g.Evaluate(status), nil
	case DecisionStartProxy:
		return g.Evaluate(status), nil
	}
	return g.state, errors.Errorf("gopenpgp: unknown proxy decision %q", decision)
}

// Route returns the route for the network call, or ErrProxyRequired if
// the gate still requires a decision.
func (g *Gate) Route() (Route, error) {
	switch g.state {
	case StateNotApplicable, StateNoProxyRequired:
		return Route{Direct: true}, nil
	case StateUserOverrodeToDirect:
		return Route{Config: g.config, Direct: true, Overridden: true}, nil
	case StateRunning:
		return Route{Config: g.config}, nil
	}
	return Route{}, errors.Wrap(ErrProxyRequired, g.state.String())
}
