/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn

import "errors"

// ErrNotCanonical is returned when a FaceUri used to construct a face or
// transport is not in canonical form (numeric host, explicit port).
var ErrNotCanonical = errors.New("URI could not be canonized")

// ErrUnsupportedPersistency is returned by SetPersistency when the
// requested persistency is not valid for the transport.
var ErrUnsupportedPersistency = errors.New("unsupported persistency for this transport")

// ErrUnsupportedProtocol is returned by a ProtocolFactory when asked to
// create a face for a scheme it does not provide.
var ErrUnsupportedProtocol = errors.New("unsupported protocol")

// ErrProhibitedEndpoint is returned when a connect target is in a
// factory's prohibited-endpoint set.
var ErrProhibitedEndpoint = errors.New("endpoint is prohibited")

// ErrNoChannel is returned when no channel has a compatible local address
// family to reach the requested remote endpoint.
var ErrNoChannel = errors.New("no channel available to reach remote endpoint")

// ErrConnectTimeout is returned when a connect attempt does not complete
// within the configured timeout.
var ErrConnectTimeout = errors.New("connect to remote endpoint timed out")
