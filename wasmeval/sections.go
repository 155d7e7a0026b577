package wasmeval

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	wasmMagic   = 0x6d736100 // "\0asm"
	wasmVersion = 1

	sectionExport = 7
	kindGlobal    = 0x03
)

var errOverflow = errors.New("leb128: overflow")

// exportedGlobals returns the names of the globals a core module exports, in
// section order. wazero's CompiledModule lists exported functions and
// memories but not globals.
func exportedGlobals(src []byte) ([]string, error) {
	r := bytes.NewReader(src)

	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if binary.LittleEndian.Uint32(header[:4]) != wasmMagic {
		return nil, errors.New("invalid magic number")
	}
	if binary.LittleEndian.Uint32(header[4:]) != wasmVersion {
		return nil, errors.New("unsupported binary version")
	}

	for {
		id, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		size, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("section %d size: %w", id, err)
		}
		if int64(size) > int64(r.Len()) {
			return nil, fmt.Errorf("section %d: size %d exceeds remaining %d bytes", id, size, r.Len())
		}
		if id != sectionExport {
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, err
			}
			continue
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		return parseExportGlobals(bytes.NewReader(body))
	}
}

func parseExportGlobals(r *bytes.Reader) ([]string, error) {
	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("export count: %w", err)
	}
	var names []string
	for i := uint32(0); i < count; i++ {
		n, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("export %d name: %w", i, err)
		}
		name := make([]byte, n)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("export %d name: %w", i, err)
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("export %d kind: %w", i, err)
		}
		if _, err := readU32(r); err != nil {
			return nil, fmt.Errorf("export %d index: %w", i, err)
		}
		if kind == kindGlobal {
			names = append(names, string(name))
		}
	}
	return names, nil
}

// readU32 reads an unsigned LEB128 value.
func readU32(r io.ByteReader) (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, errOverflow
		}
	}
}
