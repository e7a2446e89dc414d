package face

import (
	"testing"

	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
	"github.com/stretchr/testify/require"
)

// TestValidTransportTransition covers spec §3's state machine edges,
// including that CLOSED is terminal and that invalid edges (e.g.
// UP -> UP, or out of CLOSED) are rejected.
func TestValidTransportTransition(t *testing.T) {
	require.True(t, validTransportTransition(transportStateUninitialized, TransportUp))
	require.False(t, validTransportTransition(transportStateUninitialized, TransportDown))

	require.True(t, validTransportTransition(TransportUp, TransportDown))
	require.True(t, validTransportTransition(TransportUp, TransportClosing))
	require.True(t, validTransportTransition(TransportUp, TransportFailed))
	require.False(t, validTransportTransition(TransportUp, TransportUp))

	require.True(t, validTransportTransition(TransportDown, TransportUp))
	require.True(t, validTransportTransition(TransportDown, TransportClosing))
	require.True(t, validTransportTransition(TransportDown, TransportFailed))

	require.True(t, validTransportTransition(TransportClosing, TransportClosed))
	require.True(t, validTransportTransition(TransportFailed, TransportClosed))
	require.False(t, validTransportTransition(TransportClosing, TransportUp))

	require.False(t, validTransportTransition(TransportClosed, TransportUp))
	require.False(t, validTransportTransition(TransportClosed, TransportClosed))
}

// TestCloseAsIdempotent covers spec §4.1's "Idempotent. Transitions
// UP|DOWN -> CLOSING on the first call" - a second Close must not run
// cleanup again or re-fire the state-change callback.
func TestCloseAsIdempotent(t *testing.T) {
	remote := defn.DecodeURIString("tcp4://192.0.2.1:6363")
	local := defn.DecodeURIString("tcp4://192.0.2.9:6363")
	tr := newFakeTransport(remote, local, spec_mgmt.PersistencyPersistent)

	var transitions []TransportState
	tr.setOnStateChange(func(old, new TransportState) { transitions = append(transitions, new) })

	cleanups := 0
	tr.closeAs(TransportClosing, "test", func() { cleanups++ })
	tr.closeAs(TransportClosing, "test", func() { cleanups++ })

	require.Equal(t, 1, cleanups)
	require.Equal(t, []TransportState{TransportClosing, TransportClosed}, transitions)
	require.Equal(t, TransportClosed, tr.State())
}

// TestCloseAsFromFailed covers the FAILED -> CLOSED path used by the
// on-demand/persistent error policy (spec §4.1's error-policy table).
func TestCloseAsFromFailed(t *testing.T) {
	remote := defn.DecodeURIString("tcp4://192.0.2.1:6363")
	local := defn.DecodeURIString("tcp4://192.0.2.9:6363")
	tr := newFakeTransport(remote, local, spec_mgmt.PersistencyOnDemand)

	tr.closeAs(TransportFailed, "send error", func() {})
	require.Equal(t, TransportClosed, tr.State())
	require.False(t, tr.IsRunning())
}
