package btelem

import (
	"encoding/binary"
	"math"
)

// Packed-packet wire sizes. Fields are written in the host's native byte
// order, exactly as original_source/src/btelem.c's packed structs are —
// plain field assignment, no htons-style swap — since the officially
// supported target is a little-endian host.
const (
	packetHeaderSize = 16
	entryHeaderSize  = 16
)

type packedEntry struct {
	id        uint16
	size      uint16
	offset    uint32
	timestamp int64
}

// drainPacked is the packed batch drain: it fills buf with a single
// transport-ready packet — a 16-byte packet header, a fixed-stride entry
// header table, then a tightly packed payload region — and reports the
// total packet size. It never rolls back the client's cursor: an entry
// that wouldn't fit is simply left for the next drain.
//
// Grounded on original_source/src/btelem.c's btelem_drain_packed. The
// original computes a worst-case entry table size, tentatively reserves
// payload space after it, walks the ring once, then memmoves the payload
// down to close the gap against the *actual* table size. This port keeps
// the same worst-case-then-settle accounting (so entry_count never
// exceeds (buf_size - header) / 16) but assembles the actual table and
// payload into local slices first and
// copies them into buf once the final sizes are known, rather than
// memmove-ing a single shared buffer in place — Go has no use for the C
// version's single-buffer-no-extra-allocation constraint on this path,
// since the ring and client state, not this function, are what must stay
// allocation-free.
func drainPacked(r *Ring, c *Client, buf []byte) (int, error) {
	if len(buf) < packetHeaderSize {
		return 0, ErrBufferTooSmall
	}

	head := r.Head()
	skipOverrun(c, head, r.capacity)

	if c.cursor >= head {
		return 0, nil
	}

	maxEntries := (uint64(len(buf)) - packetHeaderSize) / entryHeaderSize
	if avail := head - c.cursor; avail < maxEntries {
		maxEntries = avail
	}
	if r.capacity < maxEntries {
		maxEntries = r.capacity
	}

	worstCaseTableEnd := packetHeaderSize + maxEntries*entryHeaderSize
	payloadCap := 0
	if uint64(len(buf)) > worstCaseTableEnd {
		payloadCap = len(buf) - int(worstCaseTableEnd)
	}

	entries := make([]packedEntry, 0, maxEntries)
	payload := make([]byte, 0, payloadCap)

	var snap Snapshot
walk:
	for c.cursor < head && uint64(len(entries)) < maxEntries {
		switch r.readSlot(c.cursor, &snap) {
		case readNotCommitted:
			break walk
		case readDropped:
			c.dropped++
			c.cursor++
			continue
		}

		if !c.accepts(snap.ID) {
			c.cursor++
			continue
		}
		if len(payload)+int(snap.PayloadSize) > payloadCap {
			break walk
		}

		entries = append(entries, packedEntry{
			id:        snap.ID,
			size:      snap.PayloadSize,
			offset:    uint32(len(payload)),
			timestamp: snap.Timestamp,
		})
		payload = append(payload, snap.PayloadBytes()...)
		c.cursor++
	}

	if len(entries) == 0 {
		return 0, nil
	}

	dropDelta := c.dropped - c.droppedReported
	if dropDelta > math.MaxUint32 {
		dropDelta = math.MaxUint32
	}
	c.droppedReported += dropDelta

	tableEnd := packetHeaderSize + len(entries)*entryHeaderSize
	total := tableEnd + len(payload)

	binary.NativeEndian.PutUint16(buf[0:2], uint16(len(entries)))
	binary.NativeEndian.PutUint16(buf[2:4], 0)
	binary.NativeEndian.PutUint32(buf[4:8], uint32(len(payload)))
	binary.NativeEndian.PutUint32(buf[8:12], uint32(dropDelta))
	binary.NativeEndian.PutUint32(buf[12:16], 0)

	for i, e := range entries {
		off := packetHeaderSize + i*entryHeaderSize
		binary.NativeEndian.PutUint16(buf[off:off+2], e.id)
		binary.NativeEndian.PutUint16(buf[off+2:off+4], e.size)
		binary.NativeEndian.PutUint32(buf[off+4:off+8], e.offset)
		binary.NativeEndian.PutUint64(buf[off+8:off+16], uint64(e.timestamp))
	}
	copy(buf[tableEnd:total], payload)

	return total, nil
}
