/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"sync/atomic"
	"time"

	"github.com/ndn-facesys/facesys/fw/core"
	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
)

// TransportState is the connection-lifecycle state machine of spec §3:
// {UP, DOWN, CLOSING, FAILED, CLOSED}, reached only through the transitions
// validTransportTransition enumerates.
type TransportState int32

const (
	transportStateUninitialized TransportState = iota
	TransportUp
	TransportDown
	TransportClosing
	TransportFailed
	TransportClosed
)

func (s TransportState) String() string {
	switch s {
	case TransportUp:
		return "UP"
	case TransportDown:
		return "DOWN"
	case TransportClosing:
		return "CLOSING"
	case TransportFailed:
		return "FAILED"
	case TransportClosed:
		return "CLOSED"
	default:
		return "UNINITIALIZED"
	}
}

// validTransportTransition reports whether old -> new is a legal edge of the
// state machine. CLOSED is terminal: no edge leaves it.
func validTransportTransition(old, new TransportState) bool {
	switch old {
	case transportStateUninitialized:
		return new == TransportUp
	case TransportUp:
		return new == TransportDown || new == TransportClosing || new == TransportFailed
	case TransportDown:
		return new == TransportUp || new == TransportClosing || new == TransportFailed
	case TransportClosing, TransportFailed:
		return new == TransportClosed
	default: // CLOSED
		return false
	}
}

// transport provides an interface for transports for specific face types
type transport interface {
	String() string
	setFaceID(faceID uint64)
	setLinkService(linkService LinkService)

	RemoteURI() *defn.URI
	LocalURI() *defn.URI
	Persistency() spec_mgmt.Persistency
	SetPersistency(persistency spec_mgmt.Persistency) bool
	Scope() defn.Scope
	LinkType() defn.LinkType
	MTU() int
	SetMTU(mtu int)
	ExpirationPeriod() time.Duration
	FaceID() uint64

	// Get the number of queued outgoing packets
	GetSendQueueSize() uint64
	// Send a frame (make if copy if necessary)
	sendFrame([]byte)
	// Receive frames in an infinite loop
	runReceive()
	// Transport is currently running (up)
	IsRunning() bool
	// Close the transport (runReceive should exit)
	Close()

	// State returns the current lifecycle state (spec §3).
	State() TransportState
	// setOnStateChange registers the Face's state-mirroring callback.
	setOnStateChange(f func(old, new TransportState))

	// Counters
	NInBytes() uint64
	NOutBytes() uint64
}

// transportBase provides logic common types between transport types
type transportBase struct {
	linkService LinkService
	running     atomic.Bool

	state         atomic.Int32
	onStateChange func(old, new TransportState)

	faceID         uint64
	remoteURI      *defn.URI
	localURI       *defn.URI
	scope          defn.Scope
	persistency    spec_mgmt.Persistency
	linkType       defn.LinkType
	mtu            int
	expirationTime *time.Time

	// Counters
	nInBytes  uint64
	nOutBytes uint64
}

// State returns the transport's current lifecycle state.
func (t *transportBase) State() TransportState {
	return TransportState(t.state.Load())
}

// setOnStateChange registers the callback the Face uses to mirror
// transport-state transitions (spec §4.3 state aggregation).
func (t *transportBase) setOnStateChange(f func(old, new TransportState)) {
	t.onStateChange = f
}

// setState attempts old -> new per validTransportTransition, logs it, and
// notifies the owning Face. It reports whether the transition was applied;
// an invalid or repeated transition is a silent no-op, which is what makes
// Close() idempotent (spec §4.1: "Idempotent. Transitions UP|DOWN ->
// CLOSING on the first call").
func (t *transportBase) setState(new TransportState, reason string) bool {
	old := TransportState(t.state.Load())
	if !validTransportTransition(old, new) {
		return false
	}
	if !t.state.CompareAndSwap(int32(old), int32(new)) {
		return false // lost the race to another caller
	}
	if new == TransportUp {
		t.running.Store(true)
	} else if new != TransportDown {
		t.running.Store(false)
	}

	if reason != "" {
		core.Log.Info(t, "Transport state change", "old", old.String(), "new", new.String(), "reason", reason)
	} else {
		core.Log.Info(t, "Transport state change", "old", old.String(), "new", new.String())
	}
	if t.onStateChange != nil {
		t.onStateChange(old, new)
	}
	return true
}

// closeAs runs the CLOSING|FAILED -> CLOSED sequence exactly once: it
// transitions into target (CLOSING for an explicit close, FAILED for an
// unrecoverable I/O error), invokes cleanup to release the transport's OS
// resources, and finishes the terminal transition to CLOSED.
func (t *transportBase) closeAs(target TransportState, reason string, cleanup func()) {
	if !t.setState(target, reason) {
		return
	}
	if cleanup != nil {
		cleanup()
	}
	t.setState(TransportClosed, reason)
}

// Initializes the transportBase instance with specified remote and local URIs, persistency, scope, link type, and MTU values for transport configuration.
func (t *transportBase) makeTransportBase(
	remoteURI *defn.URI,
	localURI *defn.URI,
	persistency spec_mgmt.Persistency,
	scope defn.Scope,
	linkType defn.LinkType,
	mtu int,
) {
	t.running = atomic.Bool{}
	t.remoteURI = remoteURI
	t.localURI = localURI
	t.persistency = persistency
	t.scope = scope
	t.linkType = linkType
	t.mtu = mtu
}

//
// Setters
//

// Sets the face ID of the transport to the specified value.
func (t *transportBase) setFaceID(faceID uint64) {
	t.faceID = faceID
}

// Sets the link service for the transport, enabling it to utilize the provided `LinkService` implementation for network communication.
func (t *transportBase) setLinkService(linkService LinkService) {
	t.linkService = linkService
}

//
// Getters
//

// Returns the local URI associated with the transport instance.
func (t *transportBase) LocalURI() *defn.URI {
	return t.localURI
}

// Returns the remote URI associated with the transport connection.
func (t *transportBase) RemoteURI() *defn.URI {
	return t.remoteURI
}

// Returns the persistency setting of the transport.
func (t *transportBase) Persistency() spec_mgmt.Persistency {
	return t.persistency
}

// Returns the current scope of the transport base.
func (t *transportBase) Scope() defn.Scope {
	return t.scope
}

// Returns the link type of the transport as a `defn.LinkType` value.
func (t *transportBase) LinkType() defn.LinkType {
	return t.linkType
}

// Returns the maximum transmission unit (MTU) size for the transport.
func (t *transportBase) MTU() int {
	return t.mtu
}

// Sets the Maximum Transmission Unit (MTU) for the transport, specifying the maximum size of data packets that can be transmitted.
func (t *transportBase) SetMTU(mtu int) {
	t.mtu = mtu
}

// ExpirationPeriod returns the time until this face expires.
// If transport not on-demand, returns 0.
func (t *transportBase) ExpirationPeriod() time.Duration {
	if t.expirationTime == nil || t.persistency != spec_mgmt.PersistencyOnDemand {
		return 0
	}
	return time.Until(*t.expirationTime)
}

// Returns the unique identifier of the face associated with this transport.
func (t *transportBase) FaceID() uint64 {
	return t.faceID
}

// Returns whether the transport is currently running.
func (t *transportBase) IsRunning() bool {
	return t.running.Load()
}

//
// Counters
//

// Returns the total number of bytes received by the transport.
func (t *transportBase) NInBytes() uint64 {
	return t.nInBytes
}

// Returns the total number of bytes transmitted by this transport as a 64-bit unsigned integer.
func (t *transportBase) NOutBytes() uint64 {
	return t.nOutBytes
}
