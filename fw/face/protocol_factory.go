package face

import (
	"fmt"

	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
)

// ProcessConfigContext carries the dry-run/commit distinction of spec §4.5
// through a ProtocolFactory's ProcessConfig call.
type ProcessConfigContext struct {
	IsDryRun bool
}

// CreateFaceRequest is the argument to ProtocolFactory.CreateFace.
type CreateFaceRequest struct {
	RemoteURI   *defn.URI
	LocalURI    *defn.URI // optional
	Persistency spec_mgmt.Persistency
	Timeout     int // seconds, 0 = scheme default
}

// ProtocolFactory is the per-scheme-family orchestrator of spec §4.5: it
// owns Channels, parses its config subsection, and routes CreateFace calls
// to the right Channel.
type ProtocolFactory interface {
	fmt.Stringer

	// ID is the factory's registry name (e.g. "tcp", "udp"), the name
	// FaceSystem.process_config looks for as a face_system child section.
	ID() string

	// ProcessConfig applies a configuration subsection. On commit
	// (ctx.IsDryRun == false) the factory reconciles channels, multicast
	// faces, and prohibited endpoints against the new config; on dry run
	// it validates only and must not mutate any running state.
	ProcessConfig(section any, ctx ProcessConfigContext) error

	// CreateFace creates (or reuses) a face to req.RemoteURI.
	CreateFace(req CreateFaceRequest, onCreated func(*Face), onFailed func(code int, reason string))

	// GetChannels is a read-only enumeration for status reporting.
	GetChannels() []Channel

	// ProvidedSchemes lists the URI schemes this factory currently serves
	// (spec §4.6: "rebuild the scheme → factory index from each factory's
	// advertised provided-schemes").
	ProvidedSchemes() []string
}

// prohibitedEndpointSet is the per-factory refusal set of spec §4.5:
// every channel's own local endpoint, plus the expansion of any
// operator-prohibited wildcard address to every concrete interface
// address (and broadcast address) on the host.
type prohibitedEndpointSet struct {
	entries map[string]bool
}

func newProhibitedEndpointSet() *prohibitedEndpointSet {
	return &prohibitedEndpointSet{entries: make(map[string]bool)}
}

func (s *prohibitedEndpointSet) add(host string, port uint16) {
	s.entries[fmt.Sprintf("%s:%d", host, port)] = true
}

// addWildcard expands a prohibited 0.0.0.0/:: + port into every concrete
// address on the host, per spec §4.5 and §7 scenario 6.
func (s *prohibitedEndpointSet) addWildcard(host string, port uint16) {
	s.add(host, port) // the wildcard literal itself is also prohibited
	isV4 := host == "0.0.0.0"
	for _, info := range core.ListNetworkInterfaces() {
		if isV4 {
			for _, ip := range info.IPv4 {
				s.add(ip.String(), port)
			}
			if info.Broadcast != nil {
				s.add(info.Broadcast.String(), port)
			}
		} else {
			for _, ip := range info.IPv6 {
				s.add(ip.String(), port)
			}
		}
	}
	if isV4 {
		s.add("255.255.255.255", port)
	}
}

func (s *prohibitedEndpointSet) contains(host string, port uint16) bool {
	return s.entries[fmt.Sprintf("%s:%d", host, port)]
}

// multicastReconcile diffs a desired set of keys against the currently
// live set, closing faces no longer desired and creating faces for newly
// desired keys, per spec §4.5's three-step algorithm. live is mutated in
// place to reflect the result. create only returns the new Face;
// multicastReconcile stores it into live itself.
func multicastReconcile[K comparable](
	live map[K]*Face,
	desired map[K]bool,
	create func(k K) (*Face, error),
) {
	for k, f := range live {
		if !desired[k] {
			f.Close()
			delete(live, k)
		}
	}
	for k := range desired {
		if _, ok := live[k]; ok {
			continue
		}
		f, err := create(k)
		if err != nil {
			core.Log.Warn(loggableString("multicast-reconcile"), "Unable to create multicast face", "key", fmt.Sprintf("%v", k), "err", err)
			continue
		}
		live[k] = f
	}
}

// loggableString adapts a plain string to fmt.Stringer for core.Log calls
// made outside any particular component's own receiver.
type loggableString string

func (s loggableString) String() string { return string(s) }
