package geolib

import (
	"net"
	"net/http"
	"net/textproto"
	"sort"
)

// FallbackClientAddress is returned by ClientAddress if environment has
// no clues about a client.
const FallbackClientAddress = "127.0.0.0"

// ClientAddressHeaders is a list of proxy headers which are checked
// by ClientAddress, in order of priority.
//
// These headers are trusted blindly, it is assumed that application
// works behind a trusted chain of proxies. Clients can spoof them
// otherwise.
var ClientAddressHeaders = [...]string{
	"Client-IP",
	"X-Forwarded-For",
	"X-Forwarded",
	"Forwarded-For",
	"Forwarded",
}

// Environment is a set of clues about a client: values of HTTP headers
// and an address of the peer which has established a connection.
type Environment struct {
	Headers     map[string]string
	PeerAddress string
}

func (e Environment) header(name string) string {
	if value := e.Headers[name]; value != "" {
		return value
	}

	canonicalName := textproto.CanonicalMIMEHeaderKey(name)
	keys := make([]string, 0, len(e.Headers))

	for k := range e.Headers {
		if textproto.CanonicalMIMEHeaderKey(k) == canonicalName {
			keys = append(keys, k)
		}
	}

	// the same header may come in several spellings. Pick one in a
	// stable order.
	sort.Strings(keys)

	for _, k := range keys {
		if value := e.Headers[k]; value != "" {
			return value
		}
	}

	return ""
}

// EnvironmentFromRequest collects an environment of the HTTP request.
// Port is stripped from the remote address.
func EnvironmentFromRequest(req *http.Request) Environment {
	env := Environment{
		Headers:     make(map[string]string, len(ClientAddressHeaders)),
		PeerAddress: req.RemoteAddr,
	}

	for _, v := range ClientAddressHeaders {
		if value := req.Header.Get(v); value != "" {
			env.Headers[v] = value
		}
	}

	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		env.PeerAddress = host
	}

	return env
}

// ClientAddress returns a first non-empty value among proxy headers and
// a peer address. Values are not validated: a garbage in a header
// is returned as is and rejected later by IsEligible.
func ClientAddress(env Environment) string {
	for _, v := range ClientAddressHeaders {
		if value := env.header(v); value != "" {
			return value
		}
	}

	if env.PeerAddress != "" {
		return env.PeerAddress
	}

	return FallbackClientAddress
}
