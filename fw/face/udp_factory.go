package face

import (
	"fmt"
	"net"

	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
)

// UDPFactory is the ProtocolFactory for the udp4/udp6 schemes, including
// multicast group membership (spec §4.5 "Multicast reconciliation").
type UDPFactory struct {
	v4, v6        *UDPChannel
	prohibited    *prohibitedEndpointSet
	mcastGroup    string // last-applied group, to detect a group change
	mcastFaces    map[string]*Face // keyed by interface name
	mcastEnabled  bool
}

func NewUDPFactory() *UDPFactory {
	return &UDPFactory{
		prohibited: newProhibitedEndpointSet(),
		mcastFaces: make(map[string]*Face),
	}
}

func (f *UDPFactory) String() string { return "udp-factory" }
func (f *UDPFactory) ID() string     { return "udp" }

func (f *UDPFactory) ProcessConfig(section any, ctx ProcessConfigContext) error {
	cfg, _ := section.(*core.UdpConfig)
	if cfg == nil {
		return nil
	}
	if !cfg.EnableV4 && !cfg.EnableV6 {
		return fmt.Errorf("udp: enable_v4 and enable_v6 cannot both be false")
	}
	pred, err := core.NewPredicate(cfg.Whitelist, cfg.Blacklist)
	if err != nil {
		return err
	}
	if cfg.Mcast {
		if err := validateMcastGroup(cfg.McastGroup); err != nil {
			return err
		}
	}
	if ctx.IsDryRun {
		return nil
	}

	SetActiveConfig(&core.FaceSystemConfig{Udp: cfg})

	if cfg.EnableV4 && f.v4 == nil {
		ch, err := NewUDPChannel(defn.DecodeURIString(fmt.Sprintf("udp4://0.0.0.0:%d", cfg.Port)))
		if err != nil {
			return err
		}
		if err := ch.Listen(nil, nil); err != nil {
			return err
		}
		f.v4 = ch
	} else if !cfg.EnableV4 && f.v4 != nil {
		f.v4.Close()
		f.v4 = nil
	}

	if cfg.EnableV6 && f.v6 == nil {
		ch, err := NewUDPChannel(defn.DecodeURIString(fmt.Sprintf("udp6://[::]:%d", cfg.Port)))
		if err != nil {
			return err
		}
		if err := ch.Listen(nil, nil); err != nil {
			return err
		}
		f.v6 = ch
	} else if !cfg.EnableV6 && f.v6 != nil {
		f.v6.Close()
		f.v6 = nil
	}

	f.prohibited = newProhibitedEndpointSet()
	if f.v4 != nil {
		f.prohibited.addWildcard("0.0.0.0", cfg.Port)
	}
	if f.v6 != nil {
		f.prohibited.addWildcard("::", cfg.Port)
	}

	f.reconcileMulticast(cfg, pred)
	return nil
}

// reconcileMulticast applies spec §4.5's (ifname, group) → Face algorithm.
// A group change invalidates every existing multicast face first.
func (f *UDPFactory) reconcileMulticast(cfg *core.UdpConfig, pred *core.Predicate) {
	if !cfg.Mcast {
		for name, face := range f.mcastFaces {
			face.Close()
			delete(f.mcastFaces, name)
		}
		f.mcastEnabled = false
		f.mcastGroup = ""
		return
	}

	group := cfg.McastGroup
	if f.mcastEnabled && group != f.mcastGroup {
		for name, face := range f.mcastFaces {
			face.Close()
			delete(f.mcastFaces, name)
		}
	}
	f.mcastEnabled = true
	f.mcastGroup = group

	desired := make(map[string]bool)
	for _, info := range core.ListNetworkInterfaces() {
		if info.IsLoopback || !info.IsMulticast || !info.IsUp || len(info.IPv4) == 0 {
			continue
		}
		if !pred.Match(info) {
			continue
		}
		desired[info.Name] = true
	}

	ifaceLocalURI := make(map[string]*defn.URI)
	for _, info := range core.ListNetworkInterfaces() {
		if len(info.IPv4) > 0 {
			ifaceLocalURI[info.Name] = defn.DecodeURIString(fmt.Sprintf("udp4://%s:0", info.IPv4[0]))
		}
	}

	multicastReconcile(f.mcastFaces, desired, func(ifname string) (*Face, error) {
		localURI := ifaceLocalURI[ifname]
		if localURI == nil {
			return nil, fmt.Errorf("no IPv4 address on interface %s", ifname)
		}
		t, err := MakeMulticastUDPTransport(localURI)
		if err != nil {
			return nil, err
		}
		options := MakeNDNLPLinkServiceOptions()
		return MakeNDNLPLinkService(t, options).Run(nil), nil
	})
}

func validateMcastGroup(group string) error {
	if group == "" {
		return nil
	}
	ip := net.ParseIP(group)
	if ip == nil || !ip.IsMulticast() {
		return fmt.Errorf("udp: mcast_group %q is not a valid multicast address", group)
	}
	return nil
}

func (f *UDPFactory) CreateFace(req CreateFaceRequest, onCreated func(*Face), onFailed func(code int, reason string)) {
	scheme := req.RemoteURI.Scheme()
	if scheme != "udp4" && scheme != "udp6" {
		onFailed(406, "unsupported scheme for udp factory")
		return
	}
	if f.prohibited != nil && f.prohibited.contains(req.RemoteURI.PathHost(), req.RemoteURI.Port()) {
		onFailed(406, "endpoint is prohibited")
		return
	}

	ch := f.v4
	if scheme == "udp6" {
		ch = f.v6
	}
	if ch == nil {
		onFailed(406, "channel for requested scheme is not enabled")
		return
	}
	ch.Connect(req.RemoteURI, req.Persistency, onCreated, onFailed, 0)
}

func (f *UDPFactory) GetChannels() []Channel {
	var out []Channel
	if f.v4 != nil {
		out = append(out, f.v4)
	}
	if f.v6 != nil {
		out = append(out, f.v6)
	}
	return out
}

func (f *UDPFactory) ProvidedSchemes() []string {
	var out []string
	if f.v4 != nil {
		out = append(out, "udp4")
	}
	if f.v6 != nil {
		out = append(out, "udp6")
	}
	return out
}
