/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/schema"
)

// infoSection is one `name { ... }` node of the bracketed INFO config
// grammar described in spec §6. Scalars hold leaf key/value pairs
// (possibly repeated, e.g. several `whitelist` predicate lines); children
// hold nested bracketed subsections (possibly repeated, e.g. several
// `rule { ... }` entries).
type infoSection struct {
	scalars  url.Values
	children map[string][]*infoSection
}

func newInfoSection() *infoSection {
	return &infoSection{scalars: url.Values{}, children: map[string][]*infoSection{}}
}

// infoTokenizer splits the INFO grammar into words and braces. Quoted
// strings (for filesystem paths containing spaces) are supported.
type infoTokenizer struct {
	s   string
	pos int
}

func (t *infoTokenizer) next() (string, bool) {
	for t.pos < len(t.s) && (t.s[t.pos] == ' ' || t.s[t.pos] == '\t' || t.s[t.pos] == '\n' || t.s[t.pos] == '\r') {
		t.pos++
	}
	if t.pos >= len(t.s) {
		return "", false
	}
	if t.s[t.pos] == '{' || t.s[t.pos] == '}' {
		tok := string(t.s[t.pos])
		t.pos++
		return tok, true
	}
	if t.s[t.pos] == '"' {
		end := strings.IndexByte(t.s[t.pos+1:], '"')
		if end < 0 {
			tok := t.s[t.pos+1:]
			t.pos = len(t.s)
			return tok, true
		}
		tok := t.s[t.pos+1 : t.pos+1+end]
		t.pos += end + 2
		return tok, true
	}
	start := t.pos
	for t.pos < len(t.s) && !strings.ContainsRune(" \t\n\r{}", rune(t.s[t.pos])) {
		t.pos++
	}
	return t.s[start:t.pos], true
}

// parseInfoSection parses the body of one `{ ... }` block (or the
// top-level document) until a closing brace or EOF.
func parseInfoSection(t *infoTokenizer) (*infoSection, error) {
	sec := newInfoSection()
	for {
		key, ok := t.next()
		if !ok {
			return sec, nil
		}
		if key == "}" {
			return sec, nil
		}

		val, ok := t.next()
		if !ok {
			return nil, fmt.Errorf("unexpected end of input after key %q", key)
		}
		if val == "{" {
			child, err := parseInfoSection(t)
			if err != nil {
				return nil, err
			}
			sec.children[key] = append(sec.children[key], child)
			continue
		}
		if val == "}" {
			return nil, fmt.Errorf("unexpected '}' after key %q", key)
		}
		sec.scalars.Add(key, val)
	}
}

// ParseInfoString parses the bracketed INFO form of spec §6 into a Config.
func ParseInfoString(s string) (*Config, error) {
	t := &infoTokenizer{s: s}
	root, err := parseInfoSection(t)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	fsNodes := root.children["face_system"]
	if len(fsNodes) > 1 {
		return nil, fmt.Errorf("duplicate top-level face_system section")
	}
	if len(fsNodes) == 0 {
		return cfg, nil
	}
	if err := decodeFaceSystemInfo(fsNodes[0], &cfg.FaceSystem); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadInfo parses an INFO-form config file, mirroring ReadYaml.
func ReadInfo(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	parsed, err := ParseInfoString(string(b))
	if err != nil {
		return err
	}
	*cfg = *parsed
	return nil
}

var schemaDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(false)
	return d
}()

func decodePredicateList(nodes []*infoSection) ([]PredicateEntry, error) {
	var out []PredicateEntry
	for _, n := range nodes {
		for key, values := range n.scalars {
			for _, v := range values {
				switch key {
				case "ifname":
					out = append(out, PredicateEntry{IfName: v})
				case "ether":
					out = append(out, PredicateEntry{Ether: v})
				case "subnet":
					out = append(out, PredicateEntry{Subnet: v})
				case "*":
					// handled after the loop
				default:
					return nil, fmt.Errorf("unknown predicate entry key %q", key)
				}
			}
		}
		if _, ok := n.scalars["*"]; ok {
			out = append(out, PredicateEntry{All: true})
		}
	}
	return out, nil
}

func firstChild(sec *infoSection, name string) (*infoSection, error) {
	nodes := sec.children[name]
	if len(nodes) > 1 {
		return nil, fmt.Errorf("duplicate %q section", name)
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

// decodeFaceSystemInfo decodes one parsed `face_system { ... }` node into
// fsc, validating that every child name is recognized and not duplicated
// (spec §6 validation rules).
func decodeFaceSystemInfo(sec *infoSection, fsc *FaceSystemConfig) error {
	known := map[string]bool{
		"tcp": true, "udp": true, "unix": true, "websocket": true,
		"http3": true, "ether": true, "netdev_bound": true,
	}
	for name, nodes := range sec.children {
		if !known[name] {
			return fmt.Errorf("unrecognized face_system section %q", name)
		}
		if len(nodes) > 1 {
			return fmt.Errorf("duplicate face_system section %q", name)
		}
	}

	if n, err := firstChild(sec, "tcp"); err != nil {
		return err
	} else if n != nil {
		fsc.Tcp = &TcpConfig{}
		if err := schemaDecoder.Decode(fsc.Tcp, n.scalars); err != nil {
			return fmt.Errorf("tcp: %w", err)
		}
	}

	if n, err := firstChild(sec, "udp"); err != nil {
		return err
	} else if n != nil {
		fsc.Udp = &UdpConfig{}
		if err := schemaDecoder.Decode(fsc.Udp, n.scalars); err != nil {
			return fmt.Errorf("udp: %w", err)
		}
		if wl, err := firstChild(n, "whitelist"); err == nil && wl != nil {
			if fsc.Udp.Whitelist, err = decodePredicateList(n.children["whitelist"]); err != nil {
				return err
			}
		}
		if bl, err := firstChild(n, "blacklist"); err == nil && bl != nil {
			if fsc.Udp.Blacklist, err = decodePredicateList(n.children["blacklist"]); err != nil {
				return err
			}
		}
	}

	if n, err := firstChild(sec, "unix"); err != nil {
		return err
	} else if n != nil {
		fsc.Unix = &UnixConfig{}
		if err := schemaDecoder.Decode(fsc.Unix, n.scalars); err != nil {
			return fmt.Errorf("unix: %w", err)
		}
	}

	if n, err := firstChild(sec, "websocket"); err != nil {
		return err
	} else if n != nil {
		fsc.WebSocket = &WebSocketConfig{}
		if err := schemaDecoder.Decode(fsc.WebSocket, n.scalars); err != nil {
			return fmt.Errorf("websocket: %w", err)
		}
	}

	if n, err := firstChild(sec, "http3"); err != nil {
		return err
	} else if n != nil {
		fsc.HTTP3 = &HTTP3Config{}
		if err := schemaDecoder.Decode(fsc.HTTP3, n.scalars); err != nil {
			return fmt.Errorf("http3: %w", err)
		}
	}

	if n, err := firstChild(sec, "ether"); err != nil {
		return err
	} else if n != nil {
		fsc.Ether = &EtherConfig{}
		if err := schemaDecoder.Decode(fsc.Ether, n.scalars); err != nil {
			return fmt.Errorf("ether: %w", err)
		}
		if _, ok := n.children["whitelist"]; ok {
			var err error
			if fsc.Ether.Whitelist, err = decodePredicateList(n.children["whitelist"]); err != nil {
				return err
			}
		}
		if _, ok := n.children["blacklist"]; ok {
			var err error
			if fsc.Ether.Blacklist, err = decodePredicateList(n.children["blacklist"]); err != nil {
				return err
			}
		}
	}

	if n, err := firstChild(sec, "netdev_bound"); err != nil {
		return err
	} else if n != nil {
		fsc.NetdevBound = &NetdevBoundConfig{}
		for _, ruleNode := range n.children["rule"] {
			rule := NetdevBoundRule{Remote: ruleNode.scalars["remote"]}
			if _, ok := ruleNode.children["whitelist"]; ok {
				var err error
				if rule.Whitelist, err = decodePredicateList(ruleNode.children["whitelist"]); err != nil {
					return err
				}
			}
			if _, ok := ruleNode.children["blacklist"]; ok {
				var err error
				if rule.Blacklist, err = decodePredicateList(ruleNode.children["blacklist"]); err != nil {
					return err
				}
			}
			fsc.NetdevBound.Rules = append(fsc.NetdevBound.Rules, rule)
		}
	}

	return nil
}
