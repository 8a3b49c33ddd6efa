// Package linked parses linked identities: user attributes that link an
// OpenPGP key to a resource on the web, such as a DNS record or a post,
// which holds a proof of key ownership. Verifying such a proof means
// fetching the resource, so it is the network-touching step of an operation.
package linked

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ProtonMail/go-pgp-input/constants"
	"github.com/ProtonMail/go-pgp-input/internal"
	"github.com/pkg/errors"
)

// ErrNotLinkedIdentity is returned for user attributes without a linked identity subpacket.
var ErrNotLinkedIdentity = errors.New("gopenpgp: not a linked identity")

// Resource is the kind of resource holding the proof.
type Resource string

const (
	// ResourceNone marks a raw identity: the URI parses but no verifier knows it.
	ResourceNone    Resource = ""
	ResourceHTTPS   Resource = "https"
	ResourceDNS     Resource = "dns"
	ResourceGitHub  Resource = "github"
	ResourceTwitter Resource = "twitter"
)

// Identity is a parsed linked identity.
type Identity struct {
	URI      *url.URL
	Resource Resource
}

// FromUserAttribute parses the first subpacket of a user attribute.
func FromUserAttribute(attr *packet.UserAttribute) (*Identity, error) {
	if attr == nil || len(attr.Contents) == 0 {
		return nil, errors.Wrap(ErrNotLinkedIdentity, "gopenpgp: empty user attribute")
	}
	sub := attr.Contents[0]
	return FromSubpacket(sub.SubType, sub.Contents)
}

// FromSubpacket parses a user attribute subpacket of the given type.
func FromSubpacket(subType uint8, data []byte) (*Identity, error) {
	if subType != constants.LinkedIdentitySubpacketType {
		return nil, errors.Wrapf(ErrNotLinkedIdentity, "gopenpgp: subpacket type %d", subType)
	}
	if !utf8.Valid(data) {
		return nil, internal.ErrIncorrectUtf8
	}
	return Parse(string(data))
}

// Parse parses a linked identity URI.
func Parse(raw string) (*Identity, error) {
	uri, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "gopenpgp: error parsing uri in linked identity")
	}
	if uri.Scheme == "" {
		return nil, errors.New("gopenpgp: linked identity uri without scheme")
	}
	return &Identity{URI: uri, Resource: resourceOf(uri)}, nil
}

func resourceOf(uri *url.URL) Resource {
	switch strings.ToLower(uri.Scheme) {
	case "dns":
		if uri.Opaque != "" || uri.Host != "" {
			return ResourceDNS
		}
	case "https":
		switch host := strings.ToLower(uri.Hostname()); {
		case host == "":
			return ResourceNone
		case host == "github.com" || host == "gist.github.com":
			return ResourceGitHub
		case host == "twitter.com" || host == "x.com":
			return ResourceTwitter
		default:
			return ResourceHTTPS
		}
	}
	return ResourceNone
}

// IsRaw reports whether no verifier knows the resource.
func (id *Identity) IsRaw() bool {
	return id.Resource == ResourceNone
}

// NeedsNetwork reports whether verifying the identity fetches a resource.
func (id *Identity) NeedsNetwork() bool {
	return !id.IsRaw()
}

// Endpoint returns what is fetched to verify the identity: a URL for web
// resources, a domain name for DNS.
func (id *Identity) Endpoint() string {
	switch id.Resource {
	case ResourceDNS:
		if id.URI.Host != "" {
			return id.URI.Host
		}
		name := id.URI.Opaque
		if i := strings.IndexByte(name, '?'); i >= 0 {
			name = name[:i]
		}
		return name
	case ResourceNone:
		return ""
	}
	u := *id.URI
	u.Fragment = ""
	return u.String()
}

// Subpacket encodes the identity as user attribute subpacket contents.
func (id *Identity) Subpacket() *packet.OpaqueSubpacket {
	return &packet.OpaqueSubpacket{
		SubType:  constants.LinkedIdentitySubpacketType,
		Contents: []byte(id.URI.String()),
	}
}
