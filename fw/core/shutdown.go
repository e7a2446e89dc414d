/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

// ShouldQuit is checked by every listener's accept loop between
// iterations so a coordinated shutdown can stop accepting new
// connections without tearing down already-established faces out from
// under them.
var ShouldQuit = false
