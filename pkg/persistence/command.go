package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
)

// Command is a single replayable database mutation read back from the AOF.
// Args are binary-safe: values may contain arbitrary bytes (JSON payloads).
type Command struct {
	Name string
	Args [][]byte
}

// FormatCommand encodes a command (name + binary-safe args) into a framed
// record ready to be appended to the AOF.
//
// Payload layout: [argc(2)][len(4) bytes(N)]... where the first element is
// the command name. Length-prefixing keeps values with spaces or newlines
// intact, which a line-based format would not.
func FormatCommand(name string, args ...[]byte) string {
	size := 2 + 4 + len(name)
	for _, a := range args {
		size += 4 + len(a)
	}

	payload := make([]byte, 0, size)
	var scratch [4]byte

	binary.LittleEndian.PutUint16(scratch[:2], uint16(len(args)+1))
	payload = append(payload, scratch[:2]...)

	appendArg := func(b []byte) {
		binary.LittleEndian.PutUint32(scratch[:4], uint32(len(b)))
		payload = append(payload, scratch[:4]...)
		payload = append(payload, b...)
	}
	appendArg([]byte(name))
	for _, a := range args {
		appendArg(a)
	}

	return string(EncodeFrame(payload))
}

// ParseCommand reads the next framed command from the reader.
// Returns io.EOF at a clean end of file.
func ParseCommand(r *bufio.Reader) (*Command, error) {
	payload, _, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return decodePayload(payload)
}

func decodePayload(payload []byte) (*Command, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("command payload too short (%d bytes)", len(payload))
	}
	argc := int(binary.LittleEndian.Uint16(payload[:2]))
	if argc == 0 {
		return nil, fmt.Errorf("command payload has zero elements")
	}

	off := 2
	parts := make([][]byte, 0, argc)
	for i := 0; i < argc; i++ {
		if off+4 > len(payload) {
			return nil, fmt.Errorf("truncated command payload at element %d", i)
		}
		n := int(binary.LittleEndian.Uint32(payload[off : off+4]))
		off += 4
		if off+n > len(payload) {
			return nil, fmt.Errorf("truncated command value at element %d", i)
		}
		parts = append(parts, payload[off:off+n])
		off += n
	}

	return &Command{
		Name: string(parts[0]),
		Args: parts[1:],
	}, nil
}
