/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
)

// URI is a textual endpoint descriptor of the form scheme://host[:port] or
// scheme:///path. See GLOSSARY: Canonical FaceUri.
type URI struct {
	scheme string
	path   string // host (IP) for IP schemes, filesystem path for unix, MAC for ether
	zone   string // IPv6 zone id, if any
	port   uint16
}

// DecodeURIString parses a FaceUri string into a URI. The result is not
// guaranteed to be canonical; call Canonize/IsCanonical to check.
func DecodeURIString(s string) *URI {
	u := new(URI)

	schemeSep := strings.Index(s, "://")
	if schemeSep < 0 {
		return u
	}
	u.scheme = s[:schemeSep]
	rest := s[schemeSep+3:]

	switch u.scheme {
	case "unix":
		u.path = rest
		return u
	case "fd":
		u.path = rest
		return u
	case "ether", "dev":
		// ether://[interface]/mac or dev://ifname
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) == 2 {
			u.path = parts[1]
		} else {
			u.path = parts[0]
		}
		return u
	}

	host, port, err := net.SplitHostPort(rest)
	if err != nil {
		// no port present
		host = rest
	}
	if p, err := strconv.ParseUint(port, 10, 16); err == nil {
		u.port = uint16(p)
	}
	if i := strings.Index(host, "%"); i >= 0 {
		u.zone = host[i+1:]
		host = host[:i]
	}
	u.path = host
	return u
}

// Scheme returns the URI's scheme.
func (u *URI) Scheme() string {
	return u.scheme
}

// Path returns the host (for IP schemes), filesystem path (unix), or MAC
// address/interface name (ether/dev).
func (u *URI) Path() string {
	return u.path
}

// PathHost is an alias for Path, used at IP-scheme call sites for clarity.
func (u *URI) PathHost() string {
	return u.path
}

// PathZone returns the IPv6 zone identifier, if present.
func (u *URI) PathZone() string {
	return u.zone
}

// Port returns the numeric port, or 0 if the scheme has none.
func (u *URI) Port() uint16 {
	return u.port
}

// isIPScheme reports whether the scheme addresses an IP endpoint.
func (u *URI) isIPScheme() bool {
	switch u.scheme {
	case "tcp4", "tcp6", "udp4", "udp6":
		return true
	}
	return false
}

// Canonize normalizes the URI in place: resolves a DNS host to its first
// numeric address and infers tcp4/tcp6 or udp4/udp6 from the address
// family. Schemes that are not IP-addressed are left untouched.
func (u *URI) Canonize() {
	switch u.scheme {
	case "tcp", "tcp4", "tcp6", "udp", "udp4", "udp6":
	default:
		return
	}

	ip := net.ParseIP(u.path)
	if ip == nil {
		addrs, err := net.LookupIP(u.path)
		if err != nil || len(addrs) == 0 {
			return
		}
		ip = addrs[0]
	}

	isV4 := ip.To4() != nil
	base := "tcp"
	if strings.HasPrefix(u.scheme, "udp") {
		base = "udp"
	}
	if isV4 {
		u.scheme = base + "4"
		u.path = ip.To4().String()
	} else {
		u.scheme = base + "6"
		u.path = ip.String()
	}
}

// IsCanonical reports whether the URI is in canonical form: the scheme and
// host are normalized, and for IP schemes the host is a numeric address of
// the matching family with an explicit port.
func (u *URI) IsCanonical() bool {
	switch u.scheme {
	case "tcp4", "udp4":
		ip := net.ParseIP(u.path)
		return ip != nil && ip.To4() != nil && u.port != 0
	case "tcp6", "udp6":
		ip := net.ParseIP(u.path)
		return ip != nil && ip.To4() == nil && u.port != 0
	case "unix":
		return u.path != ""
	case "fd":
		return u.path != ""
	case "ws", "wsclient":
		return u.path != "" && u.port != 0
	case "ether":
		_, err := net.ParseMAC(u.path)
		return err == nil
	case "dev":
		return u.path != ""
	case "http3":
		return u.path != "" && u.port != 0
	default:
		return false
	}
}

// String renders the URI in its textual form.
func (u *URI) String() string {
	switch u.scheme {
	case "unix", "fd":
		return fmt.Sprintf("%s://%s", u.scheme, u.path)
	case "ether":
		return fmt.Sprintf("ether://[%s]", u.path)
	case "dev":
		return fmt.Sprintf("dev://%s", u.path)
	}
	host := u.path
	if u.zone != "" {
		host = host + "%" + u.zone
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if u.port != 0 {
		return fmt.Sprintf("%s://%s:%d", u.scheme, host, u.port)
	}
	return fmt.Sprintf("%s://%s", u.scheme, host)
}

// MakeNullFaceURI returns the FaceUri used by the null/black-hole face.
func MakeNullFaceURI() *URI {
	return DecodeURIString("null://")
}

// MakeWebSocketServerFaceURI builds the local FaceUri for a WebSocket
// listener from its bind URL.
func MakeWebSocketServerFaceURI(u *url.URL) *URI {
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		host = u.Host
	}
	port, _ := strconv.ParseUint(portStr, 10, 16)
	return &URI{scheme: "ws", path: host, port: uint16(port)}
}

// MakeWebSocketClientFaceURI builds the remote FaceUri for an accepted
// WebSocket connection from the peer's network address.
func MakeWebSocketClientFaceURI(addr net.Addr) *URI {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	port, _ := strconv.ParseUint(portStr, 10, 16)
	return &URI{scheme: "wsclient", path: host, port: uint16(port)}
}

// MakeFDFaceURI returns the remote FaceUri used to identify a connected
// file descriptor without an addressable peer (Unix-domain accepts).
func MakeFDFaceURI(fd uintptr) *URI {
	return &URI{scheme: "fd", path: strconv.FormatUint(uint64(fd), 10)}
}

// MakeUnixFaceURI builds a local FaceUri for a Unix-domain socket path.
func MakeUnixFaceURI(path string) *URI {
	return &URI{scheme: "unix", path: path}
}

// MakeIPFaceURI builds a canonical FaceUri for an IP endpoint.
func MakeIPFaceURI(scheme string, ip net.IP, port uint16) *URI {
	u := &URI{scheme: scheme, port: port}
	if ip.To4() != nil {
		u.path = ip.To4().String()
	} else {
		u.path = ip.String()
	}
	return u
}

// MakeEtherFaceURI builds a FaceUri naming an Ethernet multicast/unicast
// address.
func MakeEtherFaceURI(mac net.HardwareAddr) *URI {
	return &URI{scheme: "ether", path: mac.String()}
}

// MakeDevFaceURI builds a FaceUri naming a network interface (used as a
// secondary sub-scheme for netdev-bound faces, e.g. tcp4+dev).
func MakeDevFaceURI(ifname string) *URI {
	return &URI{scheme: "dev", path: ifname}
}

// MakeHTTP3FaceURI builds a canonical FaceUri for an HTTP/3 WebTransport
// endpoint.
func MakeHTTP3FaceURI(host string, port uint16) *URI {
	return &URI{scheme: "http3", path: host, port: port}
}

// MakeQuicFaceURI builds an http3 FaceUri from a netip.AddrPort, the form
// QUIC/WebTransport session endpoints are reported in.
func MakeQuicFaceURI(addr netip.AddrPort) *URI {
	return MakeHTTP3FaceURI(addr.Addr().String(), addr.Port())
}
