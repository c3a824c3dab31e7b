package persistence

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

// Constants for the AOF binary framing.
const (
	// MagicByte marks the start of a valid frame. It allows resynchronization
	// scans when the tail of the file is corrupted.
	MagicByte = 0xA5

	// HeaderSize is the fixed frame metadata size:
	// 1 byte (Magic) + 1 byte (OpCode) + 4 bytes (Length) + 4 bytes (CRC32).
	HeaderSize = 10

	// OpCodeCommand marks a standard database command frame.
	OpCodeCommand = 0x01
)

var (
	// ErrInvalidMagic indicates the stream lost synchronization or is not a valid AOF.
	ErrInvalidMagic = errors.New("invalid magic byte")
	// ErrChecksumMismatch indicates corruption within the frame payload.
	ErrChecksumMismatch = errors.New("crc32 checksum mismatch")
	// ErrIncompleteFrame indicates the file ended mid-frame (e.g. power loss).
	ErrIncompleteFrame = errors.New("incomplete frame")
)

// EncodeFrame wraps a payload in a binary frame:
// [Magic(1)][OpCode(1)][Length(4)][CRC(4)][Payload(N)].
func EncodeFrame(payload []byte) []byte {
	out := make([]byte, HeaderSize+len(payload))
	out[0] = MagicByte
	out[1] = OpCodeCommand
	binary.LittleEndian.PutUint32(out[2:6], uint32(len(payload)))
	binary.LittleEndian.PutUint32(out[6:10], crc32.ChecksumIEEE(payload))
	copy(out[HeaderSize:], payload)
	return out
}

// ReadFrame reads and validates the next frame from the reader.
// Returns the payload, the total bytes consumed, and an error.
// A clean end of file is reported as io.EOF; a partial header or payload
// is reported as ErrIncompleteFrame so the caller can stop replay there.
func ReadFrame(r io.Reader) ([]byte, int, error) {
	header := make([]byte, HeaderSize)

	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		return nil, 0, ErrIncompleteFrame
	}

	if header[0] != MagicByte {
		return nil, HeaderSize, ErrInvalidMagic
	}

	length := binary.LittleEndian.Uint32(header[2:6])
	wantCRC := binary.LittleEndian.Uint32(header[6:10])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, HeaderSize, ErrIncompleteFrame
	}

	if crc32.ChecksumIEEE(payload) != wantCRC {
		return nil, HeaderSize + int(length), ErrChecksumMismatch
	}

	return payload, HeaderSize + int(length), nil
}
