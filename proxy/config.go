// Package proxy decides how a network-touching step of an operation is
// routed: directly, through an anonymizing proxy, or not at all until the
// user installs or starts the proxy, or explicitly chooses a direct connection.
package proxy

import (
	"context"
	"net"
	"strconv"
)

// Type is the protocol spoken by the proxy.
type Type string

const (
	TypeSOCKS Type = "socks"
	TypeHTTP  Type = "http"
)

// Config is the proxy configuration from the user's preferences.
type Config struct {
	// Required is set if network traffic must be anonymized.
	Required bool   `json:"required"`
	Type     Type   `json:"type,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
}

// NoProxy returns a configuration that connects directly.
func NoProxy() Config {
	return Config{}
}

// Tor returns the configuration for a local Tor SOCKS port.
func Tor() Config {
	return Config{Required: true, Type: TypeSOCKS, Host: "127.0.0.1", Port: 9050}
}

// TorHTTP returns the configuration for a local Tor HTTP tunnel.
func TorHTTP() Config {
	return Config{Required: true, Type: TypeHTTP, Host: "127.0.0.1", Port: 8118}
}

// Address returns host:port of the proxy.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Status is the installation and running status of the proxy software.
type Status struct {
	Installed bool `json:"installed"`
	Running   bool `json:"running"`
}

// Runtime is implemented by the host to query and prompt for the proxy software.
// The proxy process itself is never managed here.
type Runtime interface {
	// Status returns the current status of the proxy software.
	Status(ctx context.Context) (Status, error)
	// PromptInstall asks the user to install the proxy software.
	PromptInstall(ctx context.Context) error
	// PromptStart asks the user to start the proxy software.
	PromptStart(ctx context.Context) error
}
