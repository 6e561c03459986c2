package btelem

// Client is one consumer's state against a Ring: its read cursor, its
// schema-id filter, and its cumulative drop accounting. Grounded on
// original_source/src/btelem.c's struct btelem_client and
// btelem_client_open/close/set_filter/available.
//
// Per DESIGN.md Open Question 1, the filter is a per-id byte array (a
// []bool indexed by schema id), not the 64-bit mask the original source's
// struct also shows in one revision: the byte-array form is strictly more
// expressive since it supports ids past 63.
type Client struct {
	cursor          uint64
	filterActive    bool
	filter          []bool
	dropped         uint64
	droppedReported uint64
	active          bool
}

// Cursor returns the client's next-to-read absolute index.
func (c *Client) Cursor() uint64 { return c.cursor }

// Dropped returns the client's cumulative overrun count.
func (c *Client) Dropped() uint64 { return c.dropped }

// accepts reports whether the client's filter admits schema id.
func (c *Client) accepts(id uint16) bool {
	if !c.filterActive {
		return true
	}
	if int(id) >= len(c.filter) {
		return false
	}
	return c.filter[id]
}

// clientTable is the small fixed-capacity table of client slots a Context
// owns. open/close/setFilter are not on the hot path and are not
// lock-free; they must be serialized by the embedder against themselves
// (a supervisory thread). Neither the table nor Context takes a lock for
// them.
type clientTable struct {
	clients []Client
}

func newClientTable(maxClients int) *clientTable {
	return &clientTable{clients: make([]Client, maxClients)}
}

func (t *clientTable) open(head uint64, filter []bool) (int, error) {
	for i := range t.clients {
		if !t.clients[i].active {
			filterActive := len(filter) > 0
			t.clients[i] = Client{
				cursor:       head,
				filterActive: filterActive,
				filter:       filter,
				active:       true,
			}
			return i, nil
		}
	}
	return -1, ErrNoFreeClients
}

func (t *clientTable) get(id int) (*Client, error) {
	if id < 0 || id >= len(t.clients) {
		return nil, ErrClientNotFound
	}
	c := &t.clients[id]
	if !c.active {
		return nil, ErrClientInactive
	}
	return c, nil
}

func (t *clientTable) close(id int) error {
	c, err := t.get(id)
	if err != nil {
		return err
	}
	c.active = false
	return nil
}

func (t *clientTable) setFilter(id int, filter []bool) error {
	c, err := t.get(id)
	if err != nil {
		return err
	}
	c.filterActive = len(filter) > 0
	c.filter = filter
	return nil
}

// skipOverrun implements once-per-drain overrun accounting: if the
// client fell behind the oldest entry the ring still holds, jump
// the cursor forward to the oldest entry and count the gap as dropped in
// one step, instead of walking every overwritten slot individually.
func skipOverrun(c *Client, head, capacity uint64) {
	if head <= capacity {
		return
	}
	oldest := head - capacity
	if c.cursor < oldest {
		c.dropped += oldest - c.cursor
		c.cursor = oldest
	}
}

// available reports how many entries the ring still holds between the
// client's cursor and the ring's head, and how many entries before those
// the current gap implies were dropped — without mutating the client.
func available(c *Client, head, capacity uint64) (avail uint64, dropped uint64) {
	if head <= c.cursor {
		return 0, 0
	}
	oldest := uint64(0)
	if head > capacity {
		oldest = head - capacity
	}
	if c.cursor < oldest {
		return head - oldest, oldest - c.cursor
	}
	return head - c.cursor, 0
}
