/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import "net"

// NetworkInterfaceInfo is a read-only snapshot of one network interface,
// grounded on original_source/core/network-interface.{hpp,cpp}.
type NetworkInterfaceInfo struct {
	Name        string
	HardwareLen int
	MAC         net.HardwareAddr
	IPv4        []net.IP
	IPv6        []net.IP
	Broadcast   net.IP
	IsUp        bool
	IsMulticast bool
	IsLoopback  bool
}

// ListNetworkInterfaces takes a read-only snapshot of the host's network
// interfaces, as spec §5 requires ("system network-interface enumerator
// (read-only snapshot per config pass)").
func ListNetworkInterfaces() []NetworkInterfaceInfo {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	out := make([]NetworkInterfaceInfo, 0, len(ifaces))
	for _, iface := range ifaces {
		info := NetworkInterfaceInfo{
			Name:        iface.Name,
			MAC:         iface.HardwareAddr,
			IsUp:        iface.Flags&net.FlagUp != 0,
			IsMulticast: iface.Flags&net.FlagMulticast != 0,
			IsLoopback:  iface.Flags&net.FlagLoopback != 0,
		}

		addrs, err := iface.Addrs()
		if err != nil {
			out = append(out, info)
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if v4 := ipNet.IP.To4(); v4 != nil {
				info.IPv4 = append(info.IPv4, v4)
				bcast := make(net.IP, len(v4))
				for i := range v4 {
					bcast[i] = v4[i] | ^ipNet.Mask[i]
				}
				info.Broadcast = bcast
			} else {
				info.IPv6 = append(info.IPv6, ipNet.IP)
			}
		}
		out = append(out, info)
	}
	return out
}

// Predicate decides whether a NetworkInterfaceInfo passes a
// whitelist/blacklist filter, per spec §6's grammar (`ifname`, `ether`,
// `subnet`, `*`). With no whitelist and no blacklist, every interface
// passes. A whitelist (even empty) restricts to interfaces it matches;
// a blacklist excludes interfaces it matches.
type Predicate struct {
	whitelist    []PredicateEntry
	blacklist    []PredicateEntry
	hasWhitelist bool
	hasBlacklist bool
}

// NewPredicate builds a Predicate from the whitelist/blacklist entries of
// a config subsection.
func NewPredicate(whitelist, blacklist []PredicateEntry) (*Predicate, error) {
	for _, e := range whitelist {
		if err := validatePredicateEntry(e); err != nil {
			return nil, err
		}
	}
	for _, e := range blacklist {
		if err := validatePredicateEntry(e); err != nil {
			return nil, err
		}
	}
	return &Predicate{
		whitelist:    whitelist,
		blacklist:    blacklist,
		hasWhitelist: whitelist != nil,
		hasBlacklist: blacklist != nil,
	}, nil
}

func validatePredicateEntry(e PredicateEntry) error {
	if e.Ether != "" {
		if _, err := net.ParseMAC(e.Ether); err != nil {
			return err
		}
	}
	if e.Subnet != "" {
		if _, _, err := net.ParseCIDR(e.Subnet); err != nil {
			return err
		}
	}
	return nil
}

func entryMatches(e PredicateEntry, info NetworkInterfaceInfo) bool {
	switch {
	case e.All:
		return true
	case e.IfName != "":
		return e.IfName == info.Name
	case e.Ether != "":
		return info.MAC != nil && e.Ether == info.MAC.String()
	case e.Subnet != "":
		_, cidr, err := net.ParseCIDR(e.Subnet)
		if err != nil {
			return false
		}
		for _, ip := range append(append([]net.IP{}, info.IPv4...), info.IPv6...) {
			if cidr.Contains(ip) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Match reports whether info passes this predicate.
func (p *Predicate) Match(info NetworkInterfaceInfo) bool {
	if p.hasBlacklist {
		for _, e := range p.blacklist {
			if entryMatches(e, info) {
				return false
			}
		}
	}
	if p.hasWhitelist {
		for _, e := range p.whitelist {
			if entryMatches(e, info) {
				return true
			}
		}
		return false
	}
	return true
}
