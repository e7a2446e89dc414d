/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	enc "github.com/ndn-facesys/facesys/std/encoding"
)

// tlvStatus is the result of attempting to parse one top-level TLV block
// from the front of a byte buffer. The wire-format codec itself (parsing
// the packet payload into Interest/Data/Nack) is an external collaborator
// per spec §1; this file only locates block boundaries using the
// in-module TLV varnum primitives (std/encoding.ParseTLNum).
type tlvStatus int

const (
	tlvIncomplete tlvStatus = iota // need more bytes to know the length
	tlvMalformed                   // the type/length prefix itself is invalid
	tlvComplete                    // a full, in-bounds block is present
)

// parseTopLevelTLV inspects buf for one complete top-level TLV block.
// On tlvComplete it returns the block's TLV type and its total length
// (header + value) in n.
func parseTopLevelTLV(buf []byte) (typ enc.TLNum, n int, status tlvStatus) {
	if len(buf) == 0 {
		return 0, 0, tlvIncomplete
	}

	typ, typLen, ok := tryParseTLNum(buf)
	if !ok {
		if len(buf) >= 9 {
			return 0, 0, tlvMalformed
		}
		return 0, 0, tlvIncomplete
	}

	if typLen >= len(buf) {
		return 0, 0, tlvIncomplete
	}
	length, lenLen, ok := tryParseTLNum(buf[typLen:])
	if !ok {
		if len(buf)-typLen >= 9 {
			return 0, 0, tlvMalformed
		}
		return 0, 0, tlvIncomplete
	}

	total := typLen + lenLen + int(length)
	if total > len(buf) {
		return 0, 0, tlvIncomplete
	}
	return typ, total, tlvComplete
}

// tryParseTLNum parses one TLNum from the front of buf, reporting how
// many bytes it consumed. It returns ok=false if buf does not yet contain
// enough bytes to know (the caller decides incomplete vs malformed based
// on how much data is available).
func tryParseTLNum(buf []byte) (val enc.TLNum, n int, ok bool) {
	if len(buf) == 0 {
		return 0, 0, false
	}
	need := 1
	switch {
	case buf[0] <= 0xfc:
		need = 1
	case buf[0] == 0xfd:
		need = 3
	case buf[0] == 0xfe:
		need = 5
	case buf[0] == 0xff:
		need = 9
	}
	if len(buf) < need {
		return 0, 0, false
	}
	val, n = enc.ParseTLNum(enc.Buffer(buf))
	return val, n, true
}

// declaredLength returns the total declared length of the TLV block
// starting at buf, if the header has fully arrived, regardless of
// whether the value bytes have. Used to detect an oversize packet before
// the framing buffer fills (spec §4.1: "An oversize packet whose
// declared length exceeds MAX_NDN_PACKET_SIZE is fatal even before the
// buffer fills").
func declaredLength(buf []byte) (total int, headerKnown bool) {
	_, typLen, ok := tryParseTLNum(buf)
	if !ok {
		return 0, false
	}
	if typLen >= len(buf) {
		return 0, false
	}
	length, lenLen, ok := tryParseTLNum(buf[typLen:])
	if !ok {
		return 0, false
	}
	return typLen + lenLen + int(length), true
}

// NDNLPv2 / NDN packet top-level TLV types, used only to route a received
// block to the correct afterReceive* signal (spec §4.2).
const (
	tlvInterest enc.TLNum = 5
	tlvData     enc.TLNum = 6
	tlvLpPacket enc.TLNum = 100
)
