/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
)

// activeConfig holds the most recently committed face_system configuration
// (spec §4.5: "on commit, the factory reconciles its running state with
// the new configuration"). UDPFactory.ProcessConfig swaps it in;
// individual transports read it through the CfgXxx accessors below, the
// pattern the teacher's package-level Cfg* functions follow.
var activeConfig atomic.Pointer[core.FaceSystemConfig]

// SetActiveConfig installs the face_system subsection the CfgXxx
// accessors read from. Called by UDPFactory.ProcessConfig on a commit
// pass; never on a dry run.
func SetActiveConfig(cfg *core.FaceSystemConfig) {
	activeConfig.Store(cfg)
}

func activeUdp() *core.UdpConfig {
	if cfg := activeConfig.Load(); cfg != nil && cfg.Udp != nil {
		return cfg.Udp
	}
	return &core.UdpConfig{}
}

// Well-known NDN multicast parameters (RFC-less convention shared by NFD
// and its Go ports), used when the operator's config leaves them at zero.
const (
	defaultUDP4MulticastGroup = "224.0.23.170"
	defaultUDP6MulticastGroup = "ff02::1234"
	defaultUDPMulticastPort   = 56363
)

// CfgUDPLifetime is the idle-reap period for on-demand UDP unicast faces
// (spec §4.1 "Idle reaping"), also used as the keep-alive refresh window
// for tracking `*t.expirationTime`.
func CfgUDPLifetime() time.Duration {
	if s := activeUdp().IdleTimeout; s > 0 {
		return time.Duration(s) * time.Second
	}
	return 60 * time.Second
}

// CfgUDPUnicastPort is the local port new outgoing unicast UDP transports
// bind to absent an explicit local URI.
func CfgUDPUnicastPort() int {
	if p := activeUdp().Port; p != 0 {
		return int(p)
	}
	return 6363
}

// CfgUDPDefaultMtu is the MTU unicast and multicast UDP transports report.
func CfgUDPDefaultMtu() int {
	if m := activeUdp().DefaultMtu; m != 0 {
		return int(m)
	}
	return defn.MaxNDNPacketSize
}

// CfgUDP4MulticastAddress is the configured (or default) IPv4 multicast
// group UDP multicast faces join.
func CfgUDP4MulticastAddress() string {
	if g := activeUdp().McastGroup; g != "" {
		if ip := net.ParseIP(g); ip != nil && ip.To4() != nil {
			return g
		}
	}
	return defaultUDP4MulticastGroup
}

// CfgUDP6MulticastAddress is the configured (or default) IPv6 multicast
// group UDP multicast faces join.
func CfgUDP6MulticastAddress() string {
	if g := activeUdp().McastGroup; g != "" {
		if ip := net.ParseIP(g); ip != nil && ip.To4() == nil {
			return g
		}
	}
	return defaultUDP6MulticastGroup
}

// CfgUDPMulticastPort is the UDP port multicast faces send/receive on.
func CfgUDPMulticastPort() int {
	if p := activeUdp().McastPort; p != 0 {
		return int(p)
	}
	return defaultUDPMulticastPort
}

// InterfaceByIP returns the network interface that owns ip, used to bind
// a multicast receive socket to the correct link (spec §4.5 multicast
// reconciliation operates per-interface).
func InterfaceByIP(ip net.IP) (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if ok && ipNet.IP.Equal(ip) {
				return &ifaces[i], nil
			}
		}
	}
	return nil, fmt.Errorf("no interface found with address %s", ip)
}
