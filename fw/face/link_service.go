/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"

	"github.com/ndn-facesys/facesys/fw/core"
	enc "github.com/ndn-facesys/facesys/std/encoding"
)

// LinkService mediates between network-layer packets (Interest, Data,
// Nack) and link-layer blocks, per spec §4.2. The default implementation
// here follows the teacher's universal use of NDNLPLinkService: every
// outgoing packet is wrapped in a minimal NDNLPv2 LpPacket envelope (a
// Fragment field, plus a Nack field for Nacks); no reassembly or
// congestion marking is implemented, since fragmentation/reassembly is an
// explicit extension point the spec marks out of core scope. Bare,
// unenveloped Interest/Data blocks are also accepted on receive, so a
// peer speaking raw NDN TLV still interoperates.
type LinkService interface {
	handleIncomingFrame(block []byte)
	sendInterest(pkt []byte)
	sendData(pkt []byte)
	sendNack(pkt []byte)
}

// NDNLPLinkServiceOptions configures the envelope behavior.
type NDNLPLinkServiceOptions struct {
	IsFragmentationEnabled bool
}

// MakeNDNLPLinkServiceOptions returns the default options: fragmentation
// enabled (disabled explicitly by stream-transport listeners, which rely
// on the underlying stream to carry arbitrarily large packets).
func MakeNDNLPLinkServiceOptions() NDNLPLinkServiceOptions {
	return NDNLPLinkServiceOptions{IsFragmentationEnabled: true}
}

// NDNLPLinkService is the concrete LinkService every transport in this
// package is paired with.
type NDNLPLinkService struct {
	transport transport
	face      *Face
	options   NDNLPLinkServiceOptions
}

// MakeNDNLPLinkService constructs a link service bound to t.
func MakeNDNLPLinkService(t transport, options NDNLPLinkServiceOptions) *NDNLPLinkService {
	return &NDNLPLinkService{transport: t, options: options}
}

// Run attaches the link service to its transport's Face and starts the
// transport's receive loop in a new goroutine. onRunning, if non-nil, is
// invoked once the Face has been constructed (used by tests to observe
// the created Face before the goroutine races ahead).
func (l *NDNLPLinkService) Run(onRunning func(*Face)) *Face {
	f := newFace(l.transport, l)
	l.face = f
	l.transport.setLinkService(l)
	if onRunning != nil {
		onRunning(f)
	}
	go func() {
		l.transport.runReceive()
	}()
	return f
}

func (l *NDNLPLinkService) String() string {
	return fmt.Sprintf("ndnlp-link-service (%s)", l.transport)
}

// sendInterest always envelopes pkt in an LP fragment and passes it to
// the transport's sendFrame.
func (l *NDNLPLinkService) sendInterest(pkt []byte) {
	l.face.counters.nOutInterests.Add(1)
	l.transport.sendFrame(encodeLpFragment(pkt))
}

func (l *NDNLPLinkService) sendData(pkt []byte) {
	l.face.counters.nOutData.Add(1)
	l.transport.sendFrame(encodeLpFragment(pkt))
}

func (l *NDNLPLinkService) sendNack(pkt []byte) {
	l.face.counters.nOutNacks.Add(1)
	l.transport.sendFrame(encodeLpNack(pkt))
}

// handleIncomingFrame classifies one link-layer block and dispatches it
// to exactly one afterReceive* signal on the owning Face, or drops and
// counts it if its top-level TLV type is not recognized (spec §4.2).
func (l *NDNLPLinkService) handleIncomingFrame(block []byte) {
	typ, _, status := parseTopLevelTLV(block)
	if status != tlvComplete {
		l.face.counters.nUnrecognized.Add(1)
		core.Log.Warn(l, "Received frame that does not parse as a single TLV block - DROP")
		return
	}

	switch typ {
	case tlvInterest:
		l.face.dispatchInterest(block)
	case tlvData:
		l.face.dispatchData(block)
	case tlvLpPacket:
		l.handleLpPacket(block)
	default:
		l.face.counters.nUnrecognized.Add(1)
		core.Log.Warn(l, "Received frame with unrecognized top-level TLV type - DROP", "type", uint64(typ))
	}
}

func (l *NDNLPLinkService) handleLpPacket(block []byte) {
	isNack, fragment, ok := decodeLpPacket(block)
	if !ok {
		l.face.counters.nUnrecognized.Add(1)
		core.Log.Warn(l, "Received malformed LpPacket - DROP")
		return
	}

	if isNack {
		l.face.dispatchNack(fragment)
		return
	}

	if len(fragment) == 0 {
		l.face.counters.nUnrecognized.Add(1)
		return
	}

	innerType, _, status := parseTopLevelTLV(fragment)
	if status != tlvComplete {
		l.face.counters.nUnrecognized.Add(1)
		return
	}

	switch innerType {
	case tlvInterest:
		l.face.dispatchInterest(fragment)
	case tlvData:
		l.face.dispatchData(fragment)
	default:
		l.face.counters.nUnrecognized.Add(1)
		core.Log.Warn(l, "LpPacket fragment has unrecognized type - DROP", "type", uint64(innerType))
	}
}

//
// Minimal NDNLPv2 envelope encode/decode: LpPacket(100) { Fragment(80),
// Nack(800) }. Only the fields the face system needs to route packets are
// implemented; sequencing, reassembly, and congestion marks are the
// generic-link-service extension point the spec excludes from core scope.
//

const (
	tlvFragment enc.TLNum = 80
	tlvNack     enc.TLNum = 800
)

func encodeTLV(typ enc.TLNum, value []byte) []byte {
	length := enc.TLNum(len(value))
	buf := make([]byte, typ.EncodingLength()+length.EncodingLength()+len(value))
	n := typ.EncodeInto(buf)
	n += length.EncodeInto(buf[n:])
	copy(buf[n:], value)
	return buf
}

func encodeLpFragment(pkt []byte) []byte {
	fragment := encodeTLV(tlvFragment, pkt)
	return encodeTLV(tlvLpPacket, fragment)
}

func encodeLpNack(pkt []byte) []byte {
	nackField := encodeTLV(tlvNack, nil)
	fragment := encodeTLV(tlvFragment, pkt)
	value := make([]byte, 0, len(nackField)+len(fragment))
	value = append(value, nackField...)
	value = append(value, fragment...)
	return encodeTLV(tlvLpPacket, value)
}

// decodeLpPacket walks the top-level children of an LpPacket(100) block,
// reporting whether a Nack field was present and the contents of the
// Fragment field, if any.
func decodeLpPacket(block []byte) (isNack bool, fragment []byte, ok bool) {
	_, headerLen, status := tryParseTLNumTriple(block)
	if !status {
		return false, nil, false
	}
	value := block[headerLen:]

	for len(value) > 0 {
		childType, childTotal, st := parseTopLevelTLV(value)
		if st != tlvComplete {
			return false, nil, false
		}
		childHeaderLen := childTotal - lpChildValueLen(value, childTotal)
		childValue := value[childHeaderLen:childTotal]

		switch childType {
		case tlvNack:
			isNack = true
		case tlvFragment:
			fragment = childValue
		}
		value = value[childTotal:]
	}
	return isNack, fragment, true
}

// lpChildValueLen returns the length of one child TLV's value region,
// used only to slice out its bytes once parseTopLevelTLV has validated
// the block.
func lpChildValueLen(buf []byte, total int) int {
	_, typLen, _ := tryParseTLNum(buf)
	_, lenLen, _ := tryParseTLNum(buf[typLen:])
	return total - typLen - lenLen
}

func tryParseTLNumTriple(buf []byte) (enc.TLNum, int, bool) {
	typ, typLen, ok := tryParseTLNum(buf)
	if !ok {
		return 0, 0, false
	}
	if typLen >= len(buf) {
		return 0, 0, false
	}
	_, lenLen, ok := tryParseTLNum(buf[typLen:])
	if !ok {
		return 0, 0, false
	}
	return typ, typLen + lenLen, true
}
