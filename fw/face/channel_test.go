package face

import (
	"testing"

	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
	"github.com/stretchr/testify/require"
)

// TestAllowedPersistencyUpgrade covers spec §4.4's monotone-upgrade
// table: on-demand -> persistent/permanent and persistent -> permanent
// are allowed, as is requesting the current persistency; any downgrade
// is not.
func TestAllowedPersistencyUpgrade(t *testing.T) {
	cases := []struct {
		current, requested spec_mgmt.Persistency
		want                bool
	}{
		{spec_mgmt.PersistencyOnDemand, spec_mgmt.PersistencyOnDemand, true},
		{spec_mgmt.PersistencyOnDemand, spec_mgmt.PersistencyPersistent, true},
		{spec_mgmt.PersistencyOnDemand, spec_mgmt.PersistencyPermanent, true},
		{spec_mgmt.PersistencyPersistent, spec_mgmt.PersistencyOnDemand, false},
		{spec_mgmt.PersistencyPersistent, spec_mgmt.PersistencyPersistent, true},
		{spec_mgmt.PersistencyPersistent, spec_mgmt.PersistencyPermanent, true},
		{spec_mgmt.PersistencyPermanent, spec_mgmt.PersistencyOnDemand, false},
		{spec_mgmt.PersistencyPermanent, spec_mgmt.PersistencyPersistent, false},
		{spec_mgmt.PersistencyPermanent, spec_mgmt.PersistencyPermanent, true},
	}
	for _, c := range cases {
		got := allowedPersistencyUpgrade(c.current, c.requested)
		require.Equal(t, c.want, got, "current=%v requested=%v", c.current, c.requested)
	}
}

// TestChannelBaseDedupAndAutoRemoval covers the dedup map itself: register
// then lookup finds the same face, and a face transitioning to CLOSED
// removes itself.
func TestChannelBaseDedupAndAutoRemoval(t *testing.T) {
	cb := newChannelBase()
	remote := defn.DecodeURIString("tcp4://192.0.2.1:6363")
	local := defn.DecodeURIString("tcp4://192.0.2.9:6363")
	f := newFakeFace(remote, local, spec_mgmt.PersistencyPersistent)

	cb.register(remote.String(), f)
	got, ok := cb.lookup(remote.String())
	require.True(t, ok)
	require.Same(t, f, got)
	require.Equal(t, 1, cb.size())

	f.Close()
	_, ok = cb.lookup(remote.String())
	require.False(t, ok)
	require.Equal(t, 0, cb.size())
}
