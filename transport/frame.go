// Package transport is the boundary the hub uses to move bytes:
// reliable per-peer sockets (which also carry gossip), the handshake's
// blocking reliable exchange, and the best-effort unreliable channel
// for unreliable broadcast. Grounded on net/tcp/protocol/protocol.go's
// framing and net/tcp/tcp.go's Matrix dial/accept/keepalive idiom,
// adapted from the teacher's asymmetric client/server split to a
// single symmetric Socket per connected peer — club nodes are peers,
// not clients-of-a-server.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	framePattern byte = 0x59
	frameVersion byte = 0x01

	// reliableHeaderLen is pattern(1) + version(1) + length(4), the
	// teacher's 7-byte header with the sender-id byte dropped: a
	// symmetric P2P link has no client/server asymmetry to tag.
	reliableHeaderLen = 6

	// maxFrameLen bounds a single frame's payload, mirroring
	// net/tcp/protocol's maxPayloadLen.
	maxFrameLen uint32 = 16384
)

// WriteFrame writes pattern‖version‖len(payload) as a 4-byte
// little-endian uint32‖payload to w in one call.
func WriteFrame(w io.Writer, payload []byte) error {
	if uint32(len(payload)) > maxFrameLen {
		return fmt.Errorf("transport: payload length=%d exceeds maxFrameLen=%d", len(payload), maxFrameLen)
	}

	header := make([]byte, reliableHeaderLen)
	header[0] = framePattern
	header[1] = frameVersion
	binary.LittleEndian.PutUint32(header[2:], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("transport: failed to write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("transport: failed to write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one frame written by WriteFrame.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, reliableHeaderLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if header[0] != framePattern {
		return nil, fmt.Errorf("transport: invalid frame pattern %X", header[0])
	}
	if header[1] != frameVersion {
		return nil, fmt.Errorf("transport: unsupported frame version %X", header[1])
	}

	payloadLen := binary.LittleEndian.Uint32(header[2:])
	if payloadLen > maxFrameLen {
		return nil, fmt.Errorf("transport: payloadLen=%d exceeds maxFrameLen=%d", payloadLen, maxFrameLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("transport: failed to read frame payload: %w", err)
	}
	return payload, nil
}
