package btelem

import (
	"encoding/binary"
	"io"
)

// MaxFrameSize bounds a single framed payload (schema stream or packet)
// read over a transport. A buffered WireCodec.Serialize at maximal
// defaults can exceed 1 MiB; this leaves ample headroom while still
// rejecting a corrupt or hostile length prefix.
const MaxFrameSize = 8 << 20 // 8 MiB

// WriteFramed writes a 4-byte little-endian length prefix followed by
// payload — the framing a transport prepends before each schema stream
// and each packet. It is a standalone helper, not a server: the
// accept/serve loop itself is an external collaborator outside this
// package.
func WriteFramed(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFramed reads one length-prefixed frame written by WriteFramed.
func ReadFramed(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
