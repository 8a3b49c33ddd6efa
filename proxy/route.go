package proxy

import (
	"net/url"

	"github.com/ProtonMail/go-pgp-input/internal"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xproxy "golang.org/x/net/proxy"
)

// Route is the routing decision carried onto the network call.
type Route struct {
	Config Config `json:"config"`
	// Direct is set if the call connects without the proxy.
	Direct bool `json:"direct"`
	// Overridden is set if Direct was chosen by the user despite a required proxy.
	Overridden bool `json:"overridden,omitempty"`
}

// Dialer returns a dialer that connects along the route.
// HTTP proxies are used through URL instead.
func (r Route) Dialer() (xproxy.Dialer, error) {
	if r.Direct {
		return xproxy.Direct, nil
	}
	switch r.Config.Type {
	case TypeSOCKS:
		dialer, err := xproxy.SOCKS5("tcp", r.Config.Address(), nil, xproxy.Direct)
		if err != nil {
			return nil, errors.Wrap(err, "gopenpgp: unable to create proxy dialer")
		}
		return dialer, nil
	}
	return nil, errors.Errorf("gopenpgp: no dialer for proxy type %q", r.Config.Type)
}

// URL returns the proxy URL, or nil for a direct route.
func (r Route) URL() *url.URL {
	if r.Direct {
		return nil
	}
	scheme := "http"
	if r.Config.Type == TypeSOCKS {
		scheme = "socks5"
	}
	return &url.URL{Scheme: scheme, Host: r.Config.Address()}
}

// Fields returns the log fields describing the route.
func (r Route) Fields() logrus.Fields {
	fields := logrus.Fields{
		"proxy_direct":   r.Direct,
		"proxy_override": r.Overridden,
	}
	if !r.Direct {
		fields["proxy_address"] = r.Config.Address()
	}
	return fields
}

// LogRequest records a network call made along the route. Calls that
// bypass a required proxy are logged at warn level.
func (r Route) LogRequest(logger logrus.FieldLogger, target string) {
	entry := internal.Logger(logger).WithFields(r.Fields()).WithField("target", target)
	if r.Overridden {
		entry.Warn("gopenpgp: network request without required proxy")
		return
	}
	entry.Debug("gopenpgp: network request")
}
