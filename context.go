package btelem

import (
	"time"
	"unsafe"

	"go.uber.org/zap"
)

// Context owns one Ring, its Registry, and its client table, wired
// together the way the original library's single `btelem_ctx` is. Ring
// and Registry are constructed once and never torn down while producers
// or consumers exist.
type Context struct {
	ring     *Ring
	registry *Registry
	clients  *clientTable
	logger   *zap.Logger
	opened   bool
}

// NewContext allocates a ring and client table sized by cfg and an empty
// schema registry, using logger for setup/teardown/reject-path logging
// (never on the Log/Drain hot paths, which allocate nothing). A nil
// logger installs zap.NewNop().
func NewContext(cfg Config, logger *zap.Logger) (*Context, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ring, err := NewRing(cfg.RingCapacity)
	if err != nil {
		return nil, err
	}
	return &Context{
		ring:     ring,
		registry: NewRegistry(cfg.MaxSchemaEntries),
		clients:  newClientTable(cfg.MaxClients),
		logger:   logger,
	}, nil
}

// Register adds a schema descriptor to the context's registry. Once a
// client has been opened, Register returns ErrRegistryClosed (DESIGN.md
// Open Question 3).
func (ctx *Context) Register(d *SchemaDescriptor) error {
	if err := ctx.registry.Register(d); err != nil {
		ctx.logger.Warn("schema registration rejected",
			zap.Error(err), zap.Any("descriptor", d))
		return err
	}
	ctx.logger.Debug("schema registered", zap.Uint16("id", d.ID), zap.String("name", d.Name))
	return nil
}

// Lookup returns the descriptor registered for id, if any.
func (ctx *Context) Lookup(id uint16) (*SchemaDescriptor, bool) {
	return ctx.registry.Lookup(id)
}

// SchemaWire returns a codec for serializing the current registry
// contents to its wire format.
func (ctx *Context) SchemaWire() *WireCodec {
	return NewWireCodec(ctx.registry)
}

// checkPayloadFits is the runtime analogue of a compile-time static
// assertion at the log call site: Go's generics do not let a type parameter's
// unsafe.Sizeof be used as a compile-time constant (an array bound with a
// type-parameter-dependent length is rejected regardless of
// instantiation), so there is no way to fail the build the way the
// original C macro does. This performs the same check on every Log call
// instead — still before any slot is touched, still
// cheaper than the ring operation itself, just not a build-time failure.
func checkPayloadFits(size int) error {
	if size > MaxPayload {
		return ErrPayloadTooLarge
	}
	return nil
}

// Log reserves a slot and publishes v, a fixed-size plain-old-data
// payload, under schema id. v is copied byte-for-byte, inline and
// without allocation — T must not contain pointers, slices, maps, or
// strings, since those wouldn't survive being viewed as raw bytes. Use
// LogBytes directly if you've already encoded the payload.
//
// This is a free function, not a method, because Go does not allow a
// method to introduce its own type parameter.
func Log[T any](ctx *Context, id uint16, v T) (uint64, error) {
	size := int(unsafe.Sizeof(v))
	if err := checkPayloadFits(size); err != nil {
		return 0, err
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&v)), size)
	return ctx.LogBytes(id, b)
}

// LogBytes reserves a slot and publishes payload, already encoded to its
// wire bytes, under schema id. payload must be <= MaxPayload bytes.
func (ctx *Context) LogBytes(id uint16, payload []byte) (uint64, error) {
	if len(payload) > MaxPayload {
		return 0, ErrPayloadTooLarge
	}
	return ctx.ring.log(id, nowNanos(), payload), nil
}

// nowNanos is the ring's clock source: nanoseconds since the Unix epoch.
func nowNanos() int64 { return time.Now().UnixNano() }

// OpenClient attaches a new consumer at the ring's current head, seeded
// with an optional filter: if ids is empty the client accepts every
// schema id, otherwise only the ids listed. Opening the first client
// permanently closes the registry to new registrations.
func (ctx *Context) OpenClient(ids ...uint16) (int, error) {
	ctx.opened = true
	ctx.registry.close()

	var filter []bool
	if len(ids) > 0 {
		filter = make([]bool, len(ctx.registry.entries))
		for _, id := range ids {
			if int(id) < len(filter) {
				filter[id] = true
			}
		}
	}
	id, err := ctx.clients.open(ctx.ring.Head(), filter)
	if err != nil {
		ctx.logger.Warn("client open failed", zap.Error(err))
		return -1, err
	}
	ctx.logger.Debug("client opened", zap.Int("client_id", id))
	return id, nil
}

// CloseClient deactivates a client. Its slot becomes reusable immediately;
// the caller must ensure no drain against this client id is in flight.
func (ctx *Context) CloseClient(id int) error {
	return ctx.clients.close(id)
}

// SetFilter replaces a client's accepted schema-id set.
func (ctx *Context) SetFilter(id int, ids ...uint16) error {
	var filter []bool
	if len(ids) > 0 {
		filter = make([]bool, len(ctx.registry.entries))
		for _, sid := range ids {
			if int(sid) < len(filter) {
				filter[sid] = true
			}
		}
	}
	return ctx.clients.setFilter(id, filter)
}

// Available reports how many entries the ring still holds between a
// client's cursor and the ring's head, and how many entries before those
// the current gap implies were dropped, without mutating any state.
func (ctx *Context) Available(id int) (avail, dropped uint64, err error) {
	c, err := ctx.clients.get(id)
	if err != nil {
		return 0, 0, err
	}
	a, d := available(c, ctx.ring.Head(), ctx.ring.capacity)
	return a, d, nil
}

// Drain walks committed entries past client id's cursor, applying its
// filter, invoking fn per accepted entry.
func (ctx *Context) Drain(id int, fn CallbackFunc) (int, error) {
	if fn == nil {
		return -1, ErrNilCallback
	}
	c, err := ctx.clients.get(id)
	if err != nil {
		return -1, err
	}
	return drainCallback(ctx.ring, c, fn), nil
}

// DrainPacked fills buf with a single transport-ready packet of entries
// past client id's cursor.
func (ctx *Context) DrainPacked(id int, buf []byte) (int, error) {
	c, err := ctx.clients.get(id)
	if err != nil {
		return 0, err
	}
	return drainPacked(ctx.ring, c, buf)
}

// Ring exposes the underlying ring for callers that need its capacity or
// head (e.g. monitoring), without exposing mutation.
func (ctx *Context) Ring() *Ring { return ctx.ring }
