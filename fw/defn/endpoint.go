/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn

import (
	"net"
	"strconv"
)

// Endpoint is a scheme-specific remote address value. Endpoints are
// values; equality is structural (see spec DATA MODEL, Endpoint).
type Endpoint struct {
	Network string // "tcp4", "tcp6", "udp4", "udp6", "unix", "ether", ...
	Addr    string // normalized "ip:port", filesystem path, or MAC string
}

// EndpointFromURI extracts the Endpoint a channel should key its face map
// by from a (possibly non-canonical) remote URI.
func EndpointFromURI(u *URI) Endpoint {
	switch u.Scheme() {
	case "unix", "fd":
		return Endpoint{Network: "unix", Addr: u.Path()}
	case "ether":
		return Endpoint{Network: "ether", Addr: u.Path()}
	default:
		return Endpoint{
			Network: u.Scheme(),
			Addr:    net.JoinHostPort(u.Path(), strconv.FormatUint(uint64(u.Port()), 10)),
		}
	}
}
