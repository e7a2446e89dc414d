package face

import (
	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
)

// fakeTransport is a minimal transport used to build real *Face values in
// tests without opening actual sockets, mirroring how link_service_test-
// style helpers in the teacher's engine tests stand in for a real link.
type fakeTransport struct {
	transportBase
	done chan struct{}
}

func newFakeTransport(remote, local *defn.URI, persistency spec_mgmt.Persistency) *fakeTransport {
	t := &fakeTransport{done: make(chan struct{})}
	t.makeTransportBase(remote, local, persistency, defn.NonLocal, defn.PointToPoint, defn.MaxNDNPacketSize)
	t.setState(TransportUp, "")
	return t
}

func (t *fakeTransport) String() string { return "fake-transport (" + t.remoteURI.String() + ")" }

func (t *fakeTransport) SetPersistency(persistency spec_mgmt.Persistency) bool {
	t.persistency = persistency
	return true
}

func (t *fakeTransport) GetSendQueueSize() uint64 { return 0 }
func (t *fakeTransport) sendFrame(frame []byte)   {}
func (t *fakeTransport) runReceive()              { <-t.done }

func (t *fakeTransport) Close() {
	t.closeAs(TransportClosing, "test teardown", func() { close(t.done) })
}

// newFakeFace builds a running *Face over a fakeTransport, for tests that
// exercise Channel/factory bookkeeping without real I/O.
func newFakeFace(remote, local *defn.URI, persistency spec_mgmt.Persistency) *Face {
	t := newFakeTransport(remote, local, persistency)
	options := MakeNDNLPLinkServiceOptions()
	return MakeNDNLPLinkService(t, options).Run(nil)
}
