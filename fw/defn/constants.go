/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn

// MaxNDNPacketSize is the maximum allowed size of an NDN packet, including
// any link-layer overhead, in bytes.
const MaxNDNPacketSize = 8800

// Scope indicates whether a face connects to a peer on the local host or
// a remote one.
type Scope int

const (
	NonLocal Scope = iota
	Local
)

// Returns "local" or "non-local".
func (s Scope) String() string {
	if s == Local {
		return "local"
	}
	return "non-local"
}

// LinkType indicates whether a face is a point-to-point link or shares its
// medium with other faces (e.g. multicast).
type LinkType int

const (
	PointToPoint LinkType = iota
	MultiAccess
)

// Returns "point-to-point" or "multi-access".
func (l LinkType) String() string {
	if l == MultiAccess {
		return "multi-access"
	}
	return "point-to-point"
}
