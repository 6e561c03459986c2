package btelem

import "sync"

// FieldType tags a field's primitive wire representation.
type FieldType uint8

const (
	TypeU8 FieldType = iota
	TypeU16
	TypeU32
	TypeU64
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeF32
	TypeF64
	TypeBool
	TypeBytes
	TypeEnum     FieldType = 12
	TypeBitfield FieldType = 13
)

// EnumDef is the ordered label table for an enum-typed field: the value N
// is rendered as Labels[N].
type EnumDef struct {
	Labels []string
}

// BitDef is one named sub-field of a bitfield, LSB-based.
type BitDef struct {
	Name  string
	Start uint8
	Width uint8
}

// BitfieldDef is the bit layout for a bitfield-typed field.
type BitfieldDef struct {
	Bits []BitDef
}

// Field describes one member of a schema's payload.
type Field struct {
	Name     string
	Offset   uint16
	Size     uint16
	Type     FieldType
	Count    uint8 // 1 for scalar, >1 for array
	Enum     *EnumDef
	Bitfield *BitfieldDef
}

// SchemaDescriptor describes one logged entry type: its numeric id, name,
// description, declared payload size, and ordered field list.
type SchemaDescriptor struct {
	ID          uint16
	Name        string
	Description string
	PayloadSize uint16
	Fields      []Field
}

// Registry maps a schema id to its descriptor. Registering an id again
// overwrites its slot, and registration happens entirely before any
// client attaches;
// DESIGN.md Open Question 3 resolves this by rejecting registration once
// the owning Context has opened its first client.
//
// Grounded on original_source/src/btelem.c's btelem_register: id-range
// and payload-size validation, slot overwrite on re-registration.
type Registry struct {
	mu      sync.RWMutex
	entries []*SchemaDescriptor
	count   int
	closed  bool
}

// NewRegistry allocates a registry with room for up to capacity schema
// ids (producer-side default 64).
func NewRegistry(capacity int) *Registry {
	return &Registry{entries: make([]*SchemaDescriptor, capacity)}
}

// Register adds or overwrites the descriptor for d.ID. It fails if the id
// is out of range, the declared payload size exceeds MaxPayload, d is
// nil, or the registry has been closed to new registrations.
func (reg *Registry) Register(d *SchemaDescriptor) error {
	if d == nil {
		return ErrInvalidArgument
	}
	if int(d.ID) >= len(reg.entries) {
		return ErrSchemaIDOutOfRange
	}
	if d.PayloadSize > MaxPayload {
		return ErrPayloadTooLarge
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.closed {
		return ErrRegistryClosed
	}
	reg.entries[d.ID] = d
	if int(d.ID)+1 > reg.count {
		reg.count = int(d.ID) + 1
	}
	return nil
}

// close rejects any further Register calls. Called once a Context opens
// its first client (DESIGN.md Open Question 3).
func (reg *Registry) close() {
	reg.mu.Lock()
	reg.closed = true
	reg.mu.Unlock()
}

// Lookup returns the descriptor registered for id, if any.
func (reg *Registry) Lookup(id uint16) (*SchemaDescriptor, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if int(id) >= len(reg.entries) {
		return nil, false
	}
	d := reg.entries[id]
	return d, d != nil
}

// registered returns every non-nil descriptor in ascending id order.
func (reg *Registry) registered() []*SchemaDescriptor {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*SchemaDescriptor, 0, reg.count)
	for i := 0; i < reg.count; i++ {
		if d := reg.entries[i]; d != nil {
			out = append(out, d)
		}
	}
	return out
}
