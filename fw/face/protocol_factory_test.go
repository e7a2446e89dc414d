package face

import (
	"fmt"
	"testing"

	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
	"github.com/stretchr/testify/require"
)

// TestProhibitedEndpointSetWildcardExpansion covers the host-independent
// parts of spec §7 scenario 6: the wildcard literal itself, and the
// IPv4 limited-broadcast address, are always prohibited once a wildcard
// is added - regardless of the host's actual interface addresses, which
// addWildcard also expands via core.ListNetworkInterfaces() but which a
// unit test cannot pin down.
func TestProhibitedEndpointSetWildcardExpansion(t *testing.T) {
	s := newProhibitedEndpointSet()
	s.addWildcard("0.0.0.0", 1024)

	require.True(t, s.contains("0.0.0.0", 1024))
	require.True(t, s.contains("255.255.255.255", 1024))
	require.False(t, s.contains("0.0.0.0", 1025))
	require.False(t, s.contains("192.0.2.9", 1024))
}

func TestProhibitedEndpointSetIPv6WildcardDoesNotAddBroadcast(t *testing.T) {
	s := newProhibitedEndpointSet()
	s.addWildcard("::", 6363)

	require.True(t, s.contains("::", 6363))
	require.False(t, s.contains("255.255.255.255", 6363))
}

// TestMulticastReconcile exercises spec §4.5's three-step algorithm:
// faces no longer desired are closed and removed, faces for newly
// desired keys are created, and untouched keys are left alone.
func TestMulticastReconcile(t *testing.T) {
	ifnamePort := map[string]int{"eth0": 1, "eth1": 2, "eth2": 3}
	mkURI := func(ifname string) *defn.URI {
		return defn.DecodeURIString(fmt.Sprintf("udp4://239.0.0.1:%d", 56360+ifnamePort[ifname]))
	}

	live := map[string]*Face{
		"eth0": newFakeFace(mkURI("eth0"), mkURI("eth0"), spec_mgmt.PersistencyPermanent),
		"eth1": newFakeFace(mkURI("eth1"), mkURI("eth1"), spec_mgmt.PersistencyPermanent),
	}
	staleFace := live["eth1"]

	var created []string
	desired := map[string]bool{"eth0": true, "eth2": true}

	multicastReconcile(live, desired, func(ifname string) (*Face, error) {
		created = append(created, ifname)
		return newFakeFace(mkURI(ifname), mkURI(ifname), spec_mgmt.PersistencyPermanent), nil
	})

	require.Equal(t, []string{"eth2"}, created)
	require.Equal(t, TransportClosed, staleFace.State())
	require.Contains(t, live, "eth0")
	require.Contains(t, live, "eth2")
	require.NotContains(t, live, "eth1")
	require.Len(t, live, 2)
}

// TestMulticastReconcileSkipsFailedCreate ensures a create error for one
// key does not stop reconciliation of the others.
func TestMulticastReconcileSkipsFailedCreate(t *testing.T) {
	live := map[string]*Face{}
	desired := map[string]bool{"bad": true, "good": true}

	multicastReconcile(live, desired, func(ifname string) (*Face, error) {
		if ifname == "bad" {
			return nil, fmt.Errorf("boom")
		}
		uri := defn.DecodeURIString("udp4://239.0.0.1:56363")
		return newFakeFace(uri, uri, spec_mgmt.PersistencyPermanent), nil
	})

	require.NotContains(t, live, "bad")
	require.Contains(t, live, "good")
}
