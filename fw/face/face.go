/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"
	"sync/atomic"

	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
)

// faceIDCounter assigns monotonically increasing FaceIDs, mirroring the
// table's own id allocator (spec §6.1: "FaceId is allocated once, at
// creation, and never reused").
var faceIDCounter atomic.Uint64

// faceCounters holds the per-packet-type statistics spec §6.2 requires a
// face to expose to management (ndn-cxx/NFD naming: nIn*/nOut*).
type faceCounters struct {
	nInInterests  atomic.Uint64
	nInData       atomic.Uint64
	nInNacks      atomic.Uint64
	nOutInterests atomic.Uint64
	nOutData      atomic.Uint64
	nOutNacks     atomic.Uint64
	nUnrecognized atomic.Uint64
}

// Face is the network-layer endpoint of spec §4.3: a stable FaceId that
// survives transport reconnection, paired with one transport and one
// LinkService. Higher layers (forwarding, management) interact only with
// Face, never with transport or LinkService directly.
type Face struct {
	id          uint64
	transport   transport
	linkService LinkService

	counters faceCounters

	// afterReceiveInterest etc. are the signals a forwarder attaches to.
	// Exactly one is invoked per received network-layer packet, per
	// spec §4.3's dispatch contract.
	afterReceiveInterest func(pkt []byte, face *Face)
	afterReceiveData     func(pkt []byte, face *Face)
	afterReceiveNack      func(pkt []byte, face *Face)

	// afterStateChange mirrors the owning transport's TransportState
	// transitions up to whoever manages this face (typically the table
	// holding it), per spec §4.3 "state aggregation": a Face is UP iff
	// its transport is UP, and DOWN/CLOSED otherwise.
	afterStateChange func(old, new TransportState)
}

// newFace allocates a FaceId, wires t's state-change callback to mirror
// onto the Face, and returns the new Face. Called only from
// LinkService.Run so a Face and its LinkService always come into being
// together (spec §4.3: "A Face cannot exist without a LinkService").
func newFace(t transport, l LinkService) *Face {
	f := &Face{
		id:          faceIDCounter.Add(1),
		transport:   t,
		linkService: l,
	}
	t.setFaceID(f.id)
	t.setLinkService(l)
	t.setOnStateChange(f.onTransportStateChange)
	return f
}

func (f *Face) onTransportStateChange(old, new TransportState) {
	core.Log.Info(f, "Face state change", "old", old.String(), "new", new.String())
	if f.afterStateChange != nil {
		f.afterStateChange(old, new)
	}
}

func (f *Face) String() string {
	return fmt.Sprintf("face (id=%d remote=%s local=%s)", f.id, f.transport.RemoteURI(), f.transport.LocalURI())
}

// SetCallbacks registers the forwarder's packet-dispatch and
// state-aggregation signals. Unset callbacks are safe no-ops.
func (f *Face) SetCallbacks(
	onInterest func(pkt []byte, face *Face),
	onData func(pkt []byte, face *Face),
	onNack func(pkt []byte, face *Face),
	onStateChange func(old, new TransportState),
) {
	f.afterReceiveInterest = onInterest
	f.afterReceiveData = onData
	f.afterReceiveNack = onNack
	f.afterStateChange = onStateChange
}

func (f *Face) dispatchInterest(pkt []byte) {
	f.counters.nInInterests.Add(1)
	if f.afterReceiveInterest != nil {
		f.afterReceiveInterest(pkt, f)
	}
}

func (f *Face) dispatchData(pkt []byte) {
	f.counters.nInData.Add(1)
	if f.afterReceiveData != nil {
		f.afterReceiveData(pkt, f)
	}
}

func (f *Face) dispatchNack(pkt []byte) {
	f.counters.nInNacks.Add(1)
	if f.afterReceiveNack != nil {
		f.afterReceiveNack(pkt, f)
	}
}

// SendInterest, SendData, and SendNack hand a wire-encoded network-layer
// packet to the link service for framing and transmission. The caller is
// responsible for TLV-encoding pkt; the face system never inspects packet
// semantics beyond its top-level TLV type (spec §1).
func (f *Face) SendInterest(pkt []byte) { f.linkService.sendInterest(pkt) }
func (f *Face) SendData(pkt []byte)     { f.linkService.sendData(pkt) }
func (f *Face) SendNack(pkt []byte)     { f.linkService.sendNack(pkt) }

// Close tears down the face's transport. Idempotent, per the transport's
// own close semantics (spec §4.1).
func (f *Face) Close() { f.transport.Close() }

func (f *Face) ID() uint64                         { return f.id }
func (f *Face) LocalURI() *defn.URI                { return f.transport.LocalURI() }
func (f *Face) RemoteURI() *defn.URI                { return f.transport.RemoteURI() }
func (f *Face) Scope() defn.Scope                   { return f.transport.Scope() }
func (f *Face) Persistency() spec_mgmt.Persistency  { return f.transport.Persistency() }
func (f *Face) LinkType() defn.LinkType             { return f.transport.LinkType() }
func (f *Face) MTU() int                            { return f.transport.MTU() }
func (f *Face) State() TransportState { return f.transport.State() }
func (f *Face) IsRunning() bool       { return f.transport.IsRunning() }

// SetPersistency forwards to the transport, returning false if this
// transport type rejects the requested persistency (spec §3's
// per-transport persistency table).
func (f *Face) SetPersistency(persistency spec_mgmt.Persistency) bool {
	return f.transport.SetPersistency(persistency)
}

// Counters snapshots the face's packet counters for management responses
// (spec §6.2).
type Counters struct {
	NInInterests  uint64
	NInData       uint64
	NInNacks      uint64
	NOutInterests uint64
	NOutData      uint64
	NOutNacks     uint64
	NUnrecognized uint64
	NInBytes      uint64
	NOutBytes     uint64
}

func (f *Face) Counters() Counters {
	return Counters{
		NInInterests:  f.counters.nInInterests.Load(),
		NInData:       f.counters.nInData.Load(),
		NInNacks:      f.counters.nInNacks.Load(),
		NOutInterests: f.counters.nOutInterests.Load(),
		NOutData:      f.counters.nOutData.Load(),
		NOutNacks:     f.counters.nOutNacks.Load(),
		NUnrecognized: f.counters.nUnrecognized.Load(),
		NInBytes:      f.transport.NInBytes(),
		NOutBytes:     f.transport.NOutBytes(),
	}
}
