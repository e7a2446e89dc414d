package face

import (
	"fmt"
	"net"

	"github.com/ndn-facesys/facesys/fw/core"
)

// EtherFactory is the ProtocolFactory for the ether scheme: multicast
// Ethernet faces, one per (interface, group) pair (spec §4.5 "Multicast
// reconciliation (Ethernet, UDP multicast)").
type EtherFactory struct {
	mcastGroup   string
	mcastEnabled bool
	faces        map[string]*Face // keyed by interface name
}

func NewEtherFactory() *EtherFactory {
	return &EtherFactory{faces: make(map[string]*Face)}
}

func (f *EtherFactory) String() string { return "ether-factory" }
func (f *EtherFactory) ID() string     { return "ether" }

func (f *EtherFactory) ProcessConfig(section any, ctx ProcessConfigContext) error {
	cfg, _ := section.(*core.EtherConfig)
	if cfg == nil || !cfg.Mcast {
		if !ctx.IsDryRun {
			f.reconcile(nil, nil)
		}
		return nil
	}

	mac, err := net.ParseMAC(cfg.McastGroup)
	if err != nil {
		return fmt.Errorf("ether: mcast_group %q is not a valid MAC address: %w", cfg.McastGroup, err)
	}
	pred, err := core.NewPredicate(cfg.Whitelist, cfg.Blacklist)
	if err != nil {
		return err
	}
	if ctx.IsDryRun {
		return nil
	}

	f.reconcile(mac, pred)
	return nil
}

func (f *EtherFactory) reconcile(mac net.HardwareAddr, pred *core.Predicate) {
	if mac == nil {
		for name, face := range f.faces {
			face.Close()
			delete(f.faces, name)
		}
		f.mcastEnabled = false
		f.mcastGroup = ""
		return
	}

	group := mac.String()
	if f.mcastEnabled && group != f.mcastGroup {
		for name, face := range f.faces {
			face.Close()
			delete(f.faces, name)
		}
	}
	f.mcastEnabled = true
	f.mcastGroup = group

	ifaces, _ := net.Interfaces()
	byName := make(map[string]net.Interface, len(ifaces))
	for _, ifc := range ifaces {
		byName[ifc.Name] = ifc
	}

	desired := make(map[string]bool)
	for _, info := range core.ListNetworkInterfaces() {
		if info.IsLoopback || !info.IsMulticast || !info.IsUp {
			continue
		}
		if pred != nil && !pred.Match(info) {
			continue
		}
		desired[info.Name] = true
	}

	multicastReconcile(f.faces, desired, func(name string) (*Face, error) {
		ifc, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("interface %s vanished during reconciliation", name)
		}
		t, err := MakeEtherTransport(&ifc, mac)
		if err != nil {
			return nil, err
		}
		options := MakeNDNLPLinkServiceOptions()
		return MakeNDNLPLinkService(t, options).Run(nil), nil
	})
}

func (f *EtherFactory) CreateFace(req CreateFaceRequest, onCreated func(*Face), onFailed func(code int, reason string)) {
	onFailed(406, "ether factory faces are multicast-only; use config to enable a group")
}

func (f *EtherFactory) GetChannels() []Channel { return nil }

func (f *EtherFactory) ProvidedSchemes() []string {
	if f.mcastEnabled {
		return []string{"ether"}
	}
	return nil
}
