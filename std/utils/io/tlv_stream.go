package io

import (
	"fmt"
	"io"

	enc "github.com/ndn-facesys/facesys/std/encoding"
)

// maxTlvStreamBuffer mirrors fw/defn.MaxNDNPacketSize. It is duplicated
// here rather than imported to keep std/ independent of fw/.
const maxTlvStreamBuffer = 8800

const readChunkSize = maxTlvStreamBuffer

// ErrTlvStreamOverflow is returned when a declared or accumulated TLV
// block exceeds maxTlvStreamBuffer, per spec §4.1: "An oversize packet
// whose declared length exceeds MAX_NDN_PACKET_SIZE is fatal even before
// the buffer fills."
var ErrTlvStreamOverflow = fmt.Errorf("failed to parse incoming packet or packet too large to process")

// ReadTlvStream reads r until it yields an error, parsing one top-level
// NDN TLV block at a time and passing each to onFrame. Blocks may be
// concatenated with no additional framing (the TLV length prefix is the
// only delimiter), matching stream transports' wire format; it also
// works unmodified for datagram reads, since each Read call returns
// exactly one datagram's bytes and the parser drains whatever full
// blocks that datagram contains.
//
// onFrame returns false to stop reading early. ignoreErr, if non-nil, is
// consulted on a Read error; if it returns true the error is treated as
// transient and the read loop continues (used by UDP transports to
// swallow ICMP-triggered "connection refused" errors from a prior send).
func ReadTlvStream(r io.Reader, onFrame func([]byte) bool, ignoreErr func(error) bool) error {
	buf := make([]byte, 0, maxTlvStreamBuffer)
	chunk := make([]byte, readChunkSize)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			for {
				typ, total, status, overflow := parseTopLevelTLVChecked(buf)
				_ = typ
				if overflow {
					return ErrTlvStreamOverflow
				}
				if status != tlvComplete {
					break
				}
				if !onFrame(buf[:total]) {
					return nil
				}
				buf = buf[total:]
			}

			if len(buf) >= maxTlvStreamBuffer {
				return ErrTlvStreamOverflow
			}
		}

		if err != nil {
			if ignoreErr != nil && ignoreErr(err) {
				continue
			}
			return err
		}
	}
}

type tlvParseStatus int

const (
	tlvIncomplete tlvParseStatus = iota
	tlvComplete
)

// parseTopLevelTLVChecked locates one top-level TLV block at the front of
// buf, reporting overflow=true if the declared length is already known to
// exceed maxTlvStreamBuffer (spec §4.1's "fatal even before the buffer
// fills" rule).
func parseTopLevelTLVChecked(buf []byte) (typ enc.TLNum, total int, status tlvParseStatus, overflow bool) {
	if len(buf) == 0 {
		return 0, 0, tlvIncomplete, false
	}

	typLen := tlNumLen(buf[0])
	if typLen > len(buf) {
		return 0, 0, tlvIncomplete, false
	}
	typ, _ = enc.ParseTLNum(enc.Buffer(buf))

	if typLen >= len(buf) {
		return 0, 0, tlvIncomplete, false
	}
	lenBuf := buf[typLen:]
	lenLen := tlNumLen(lenBuf[0])
	if lenLen > len(lenBuf) {
		return 0, 0, tlvIncomplete, false
	}
	length, _ := enc.ParseTLNum(enc.Buffer(lenBuf))

	declared := typLen + lenLen + int(length)
	if declared > maxTlvStreamBuffer {
		return 0, 0, tlvIncomplete, true
	}
	if declared > len(buf) {
		return 0, 0, tlvIncomplete, false
	}
	return typ, declared, tlvComplete, false
}

func tlNumLen(first byte) int {
	switch {
	case first <= 0xfc:
		return 1
	case first == 0xfd:
		return 3
	case first == 0xfe:
		return 5
	default:
		return 9
	}
}
