package btelem

// CallbackFunc receives one drained entry. Returning true stops the drain
// after this entry; returning false continues.
type CallbackFunc func(entry *Snapshot) (stop bool)

// drainCallback walks committed entries past c's cursor, applying the
// torn-read-safe protocol and the client's filter, invoking fn for each
// surviving, accepted entry. It returns the number of entries emitted.
//
// Grounded structurally on original_source/src/btelem.c's btelem_drain
// loop; the stop-rather-than-spin behavior on an uncommitted gap is also
// the shape of order-matching-engine/internal/disruptor/processor.go's
// processLoop, generalized from disruptor's spin-wait (that consumer is
// guaranteed eventual data and may wait) to btelem's never-block consumer
// contract: consumers never suspend on ring state.
func drainCallback(r *Ring, c *Client, fn CallbackFunc) int {
	head := r.Head()
	skipOverrun(c, head, r.capacity)

	var snap Snapshot
	emitted := 0
	for c.cursor < head {
		switch r.readSlot(c.cursor, &snap) {
		case readNotCommitted:
			return emitted
		case readDropped:
			c.dropped++
			c.cursor++
			continue
		}

		c.cursor++
		if !c.accepts(snap.ID) {
			continue
		}

		emitted++
		if fn(&snap) {
			return emitted
		}
	}
	return emitted
}
