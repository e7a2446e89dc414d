/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the top-level configuration tree, mirroring the grammar of
// spec §6. It is decoded from a YAML file by ReadYaml, or from the
// bracketed INFO grammar by ReadInfo.
type Config struct {
	Core       CoreConfig       `yaml:"core"`
	FaceSystem FaceSystemConfig `yaml:"face_system"`
}

// CoreConfig holds settings unrelated to the face system (process-level
// knobs), matching the teacher's fw/core.Config.Core subsection.
type CoreConfig struct {
	BaseDir      string `yaml:"base_dir"`
	LogLevel     string `yaml:"log_level"`
	CpuProfile   string `yaml:"-"`
	MemProfile   string `yaml:"-"`
	BlockProfile string `yaml:"-"`
}

// PredicateEntry is one entry of a whitelist/blacklist section.
type PredicateEntry struct {
	IfName string `yaml:"ifname,omitempty"`
	Ether  string `yaml:"ether,omitempty"`
	Subnet string `yaml:"subnet,omitempty"`
	All    bool   `yaml:"all,omitempty"` // "*"
}

// TcpConfig is the `tcp { ... }` subsection.
type TcpConfig struct {
	Port     uint16 `yaml:"port" schema:"port"`
	EnableV4 bool   `yaml:"enable_v4" schema:"enable_v4"`
	EnableV6 bool   `yaml:"enable_v6" schema:"enable_v6"`
}

// UdpConfig is the `udp { ... }` subsection.
type UdpConfig struct {
	Port              uint16           `yaml:"port" schema:"port"`
	EnableV4          bool             `yaml:"enable_v4" schema:"enable_v4"`
	EnableV6          bool             `yaml:"enable_v6" schema:"enable_v6"`
	IdleTimeout       uint32           `yaml:"idle_timeout" schema:"idle_timeout"`
	KeepAliveInterval uint32           `yaml:"keep_alive_interval" schema:"keep_alive_interval"`
	Mcast             bool             `yaml:"mcast" schema:"mcast"`
	McastGroup        string           `yaml:"mcast_group" schema:"mcast_group"`
	McastPort         uint16           `yaml:"mcast_port" schema:"mcast_port"`
	DefaultMtu        uint32           `yaml:"default_mtu" schema:"default_mtu"`
	Whitelist         []PredicateEntry `yaml:"whitelist" schema:"-"`
	Blacklist         []PredicateEntry `yaml:"blacklist" schema:"-"`
}

// UnixConfig is the `unix { ... }` subsection.
type UnixConfig struct {
	Path string `yaml:"path" schema:"path"`
}

// WebSocketConfig is the `websocket { ... }` subsection.
type WebSocketConfig struct {
	Listen   bool   `yaml:"listen" schema:"listen"`
	Port     uint16 `yaml:"port" schema:"port"`
	EnableV4 bool   `yaml:"enable_v4" schema:"enable_v4"`
	EnableV6 bool   `yaml:"enable_v6" schema:"enable_v6"`
	TLSCert  string `yaml:"tls_cert" schema:"tls_cert"`
	TLSKey   string `yaml:"tls_key" schema:"tls_key"`
}

// HTTP3Config is the `http3 { ... }` subsection (domain-stack expansion).
type HTTP3Config struct {
	Listen  bool   `yaml:"listen" schema:"listen"`
	Port    uint16 `yaml:"port" schema:"port"`
	TLSCert string `yaml:"tls_cert" schema:"tls_cert"`
	TLSKey  string `yaml:"tls_key" schema:"tls_key"`
}

// EtherConfig is the `ether { ... }` subsection.
type EtherConfig struct {
	Mcast      bool             `yaml:"mcast" schema:"mcast"`
	McastGroup string           `yaml:"mcast_group" schema:"mcast_group"`
	Whitelist  []PredicateEntry `yaml:"whitelist" schema:"-"`
	Blacklist  []PredicateEntry `yaml:"blacklist" schema:"-"`
}

// NetdevBoundRule is one `rule { ... }` entry.
type NetdevBoundRule struct {
	Remote    []string         `yaml:"remote" schema:"remote"`
	Whitelist []PredicateEntry `yaml:"whitelist" schema:"-"`
	Blacklist []PredicateEntry `yaml:"blacklist" schema:"-"`
}

// NetdevBoundConfig is the `netdev_bound { ... }` subsection.
type NetdevBoundConfig struct {
	Rules []NetdevBoundRule `yaml:"rule"`
}

// FaceSystemConfig is the `face_system { ... }` section of spec §6. Every
// pointer field is nil when the subsection is absent from the config.
type FaceSystemConfig struct {
	Tcp         *TcpConfig         `yaml:"tcp"`
	Udp         *UdpConfig         `yaml:"udp"`
	Unix        *UnixConfig        `yaml:"unix"`
	WebSocket   *WebSocketConfig   `yaml:"websocket"`
	HTTP3       *HTTP3Config       `yaml:"http3"`
	Ether       *EtherConfig       `yaml:"ether"`
	NetdevBound *NetdevBoundConfig `yaml:"netdev_bound"`
}

// DefaultConfig returns a Config with the defaults the teacher's
// fw/cmd/cmd.go relies on before overlaying the user's file.
func DefaultConfig() *Config {
	return &Config{
		Core: CoreConfig{LogLevel: "INFO"},
	}
}

// ReadYaml decodes a YAML config file into cfg, matching
// toolutils.ReadYaml's call shape in the teacher (fw/cmd/cmd.go).
func ReadYaml(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.UnmarshalWithOptions(b, cfg, yaml.Strict()); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
