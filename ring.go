package btelem

import (
	"sync/atomic"
	"unsafe"
)

// Ring is a fixed-capacity, lock-free multi-producer / multi-consumer
// record ring. A single monotonic head counter allocates slots; a per-slot
// sequence number implements the commit protocol. No producer ever
// blocks, allocates, or takes a lock; drains are independent of the ring
// and of each other.
//
// Grounded on order-matching-engine/internal/disruptor's RingBuffer +
// Sequencer (cache-mindful slot array, atomic cursor, mask-indexed slot
// selection), generalized from its CAS-claim-then-publish protocol to a
// simpler fetch-add-then-release protocol: because Add hands every
// producer a unique slot, there is no need for a CAS retry loop on this
// path.
type Ring struct {
	head     atomic.Uint64
	capacity uint64
	mask     uint64
	entries  []entrySlot
}

// RingByteSize reports the byte size of the backing array for a ring of
// the given capacity — the Go analogue of the original library's
// btelem_ring_size helper, useful for callers sizing a pre-reserved arena
// even though NewRing owns its own allocation.
func RingByteSize(capacity uint64) uint64 {
	var e entrySlot
	return capacity * uint64(unsafe.Sizeof(e))
}

// NewRing allocates a ring with the given capacity, which must be a power
// of two. Capacity is a hard cap set once at construction; it never
// changes for the ring's lifetime.
func NewRing(capacity uint64) (*Ring, error) {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		return nil, ErrInvalidArgument
	}
	return &Ring{
		capacity: capacity,
		mask:     capacity - 1,
		entries:  make([]entrySlot, capacity),
	}, nil
}

// Capacity returns the ring's fixed slot count.
func (r *Ring) Capacity() uint64 { return r.capacity }

// Head returns the current allocation counter with acquire ordering —
// the absolute index one past the most recently reserved slot.
func (r *Ring) Head() uint64 { return r.head.Load() }

// log reserves a slot and publishes payload under schema id. It never
// blocks and never allocates; payload must already be sized to fit
// MaxPayload (callers go through Log, which enforces this before calling
// log). Returns the absolute sequence number assigned to the entry.
func (r *Ring) log(id uint16, timestampNanos int64, payload []byte) uint64 {
	// Step 1: fetch-and-add head with relaxed ordering — any number of
	// producers may race this and each gets a distinct slot.
	seq := r.head.Add(1) - 1
	slot := &r.entries[seq&r.mask]

	// Step 3: release-publish seq=0 first. A consumer that observes this
	// mid-write must treat the slot as "not yet committed" and stop,
	// never read stale payload bytes as if they belonged to this
	// generation.
	slot.seq.Store(0)

	// Step 4: plain writes, protected on both sides by the seq release
	// stores (step 3 above, step 5 below).
	slot.timestamp = timestampNanos
	slot.id = id
	slot.payloadSize = uint16(len(payload))
	copy(slot.payload[:], payload)

	// Step 5: release-publish the commit stamp.
	slot.seq.Store(seq + 1)
	return seq
}

// readResult is the outcome of a single torn-read-safe slot read.
type readResult int

const (
	readOK readResult = iota
	readNotCommitted
	readDropped
)

// readSlot loads the slot's seq with acquire ordering, and either reports
// that the gap stops the drain here (the producer hasn't committed yet),
// reports a drop (the slot has already moved on to a later generation,
// including one that raced the snapshot copy itself), or hands back a
// coherent Snapshot.
func (r *Ring) readSlot(cursor uint64, out *Snapshot) readResult {
	slot := &r.entries[cursor&r.mask]
	want := cursor + 1

	seq1 := slot.seq.Load()
	if seq1 != want {
		if seq1 < want {
			return readNotCommitted
		}
		return readDropped
	}

	out.Seq = seq1
	out.Timestamp = slot.timestamp
	out.ID = slot.id
	out.PayloadSize = slot.payloadSize
	out.Payload = slot.payload

	seq2 := slot.seq.Load()
	if seq2 != seq1 {
		return readDropped
	}
	return readOK
}
