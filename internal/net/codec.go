package net

import (
	"encoding/binary"
	"fmt"
	"io"
)

const headerSize = 4

// DefaultMaxFrame bounds a single frame when no limit is configured.
const DefaultMaxFrame = 1 << 20

// ReadFrame reads one frame from r.
// Wire format: [4 bytes LE: total length including header][payload].
// A zero-length payload is valid; it is the client's leave message.
func ReadFrame(r io.Reader, maxFrame int) ([]byte, error) {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	totalLen := int64(binary.LittleEndian.Uint32(header[:]))
	payloadLen := totalLen - headerSize
	if payloadLen < 0 || payloadLen > int64(maxFrame) {
		return nil, fmt.Errorf("invalid frame length: %d", totalLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", payloadLen, err)
	}
	return payload, nil
}

// WriteFrame writes one frame to w in a single Write call.
// Wire format: [4 bytes LE: len(data)+4][data].
func WriteFrame(w io.Writer, data []byte) error {
	buf := make([]byte, headerSize+len(data))
	binary.LittleEndian.PutUint32(buf[:headerSize], uint32(len(buf)))
	copy(buf[headerSize:], data)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
