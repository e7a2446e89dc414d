/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"
	"sync"
	"time"

	defn "github.com/ndn-facesys/facesys/fw/defn"
	spec_mgmt "github.com/ndn-facesys/facesys/std/ndn/mgmt_2022"
)

// Channel binds to a local endpoint, accepts or initiates connections, and
// deduplicates per remote endpoint, per spec §4.4. The teacher pack never
// has this abstraction - its listener files (tcp-listener.go et al) create
// Faces directly with no dedup map or connect path - so Channel is built
// fresh, grounded on those listeners' accept-loop shape plus
// original_source/daemon/face/channel.hpp for the dedup/connect/upgrade
// contract.
type Channel interface {
	fmt.Stringer

	// Listen starts (or, if already listening, no-ops) the accept loop.
	// Every accepted connection yields a Face via onFaceCreated; accept
	// failures other than cancellation invoke onAcceptFailed and do not
	// stop the loop.
	Listen(onFaceCreated func(*Face), onAcceptFailed func(reason string)) error

	// Connect initiates an outgoing connection to remote, or returns the
	// existing Face for remote if one exists (applying a persistency
	// upgrade per the monotone-upgrade table, §4.4). A connect that does
	// not complete within timeout invokes onFailed with a timeout reason.
	Connect(
		remote *defn.URI,
		persistency spec_mgmt.Persistency,
		onFaceCreated func(*Face),
		onFailed func(code int, reason string),
		timeout time.Duration,
	)

	// Size returns the number of faces this channel currently owns.
	Size() int
	// IsListening reports whether Listen has been called and succeeded.
	IsListening() bool
	// Close stops listening and releases the channel's listening socket.
	// Faces already accepted or connected through it are unaffected.
	Close()
}

// allowedPersistencyUpgrade is the monotone-upgrade table of spec §4.4:
// on-demand -> persistent, on-demand -> permanent, persistent -> permanent.
// Any other requested change is silently ignored.
func allowedPersistencyUpgrade(current, requested spec_mgmt.Persistency) bool {
	if requested == current {
		return true
	}
	switch current {
	case spec_mgmt.PersistencyOnDemand:
		return requested == spec_mgmt.PersistencyPersistent || requested == spec_mgmt.PersistencyPermanent
	case spec_mgmt.PersistencyPersistent:
		return requested == spec_mgmt.PersistencyPermanent
	default:
		return false
	}
}

// channelBase provides the dedup map and listening-state bookkeeping every
// concrete Channel shares. Embedders are responsible for their own
// accept/connect I/O; channelBase only owns the RemoteEndpoint -> Face
// map and the persistency-upgrade decision.
type channelBase struct {
	mu         sync.Mutex
	faces      map[string]*Face
	listening  bool
}

func newChannelBase() channelBase {
	return channelBase{faces: make(map[string]*Face)}
}

// lookup returns the existing face for remote, if any.
func (c *channelBase) lookup(remote string) (*Face, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.faces[remote]
	return f, ok
}

// register records f under remote, and arranges for it to be forgotten
// when its transport reaches CLOSED (spec §4.4: "An entry is removed on
// the face's final state change to CLOSED").
func (c *channelBase) register(remote string, f *Face) {
	c.mu.Lock()
	c.faces[remote] = f
	c.mu.Unlock()

	existing := f.afterStateChange
	f.afterStateChange = func(old, new TransportState) {
		if existing != nil {
			existing(old, new)
		}
		if new == TransportClosed {
			c.mu.Lock()
			if c.faces[remote] == f {
				delete(c.faces, remote)
			}
			c.mu.Unlock()
		}
	}
}

func (c *channelBase) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.faces)
}

func (c *channelBase) isListening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// markListening returns true the first time it is called (idempotent
// Listen, spec §4.4: "idempotent. After first call, the channel is in
// listening state").
func (c *channelBase) markListening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listening {
		return false
	}
	c.listening = true
	return true
}

// tryUpgrade applies the monotone-upgrade rule to an existing face found
// by Connect, mutating its persistency in place if allowed.
func tryUpgrade(existing *Face, requested spec_mgmt.Persistency) {
	current := existing.Persistency()
	if !allowedPersistencyUpgrade(current, requested) {
		return
	}
	if requested != current {
		existing.SetPersistency(requested)
	}
}
