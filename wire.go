package btelem

import (
	"encoding/binary"
	"unsafe"
)

// Wire-format size limits. These bound the fixed-stride records the
// schema codec writes and must never change without breaking every
// existing decoder — a decoder is compatible with a producer iff its own
// constants are >= the producer's.
const (
	NameMax         = 64
	DescMax         = 128
	MaxFields       = 16
	EnumLabelMax    = 32
	EnumMaxValues   = 64
	BitfieldMaxBits = 16
	BitNameMax      = 32
)

const (
	schemaHeaderSize = 3    // u8 endianness + u16 entry_count
	fieldWireSize    = 70   // name[64] + offset(2) + size(2) + type(1) + count(1)
	schemaWireSize   = 1318 // id(2)+payload_size(2)+field_count(2)+name[64]+description[128]+fields[16]*70
	enumWireSize     = 2053 // schema_id(2)+field_index(2)+label_count(1)+labels[64][32]
	bitfieldWireSize = 549  // schema_id(2)+field_index(2)+bit_count(1)+names[16][32]+starts[16]+widths[16]
)

// endiannessTag mirrors original_source/src/btelem.c's
// `ctx->endianness = BTELEM_LITTLE_ENDIAN ? 0 : 1`: it records which byte
// order this host used for the fields below, so a decoder can refuse a
// mismatched stream rather than silently misread it. Multi-byte fields
// are written in the host's native order — the same plain-struct-assignment
// the original performs, no byte-swap — since the officially supported
// target is little-endian.
var endiannessTag = func() byte {
	var probe uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&probe))
	if b[0] == 1 {
		return 0 // little-endian host
	}
	return 1 // big-endian host
}()

type enumRef struct {
	schemaID   uint16
	fieldIndex uint16
	def        *EnumDef
}

type bitfieldRef struct {
	schemaID   uint16
	fieldIndex uint16
	def        *BitfieldDef
}

// WireCodec serializes a Registry's contents to its fixed-layout wire
// stream, in either buffered or streamed form. Both modes produce
// byte-for-byte identical output.
//
// Grounded on original_source/src/btelem.c's btelem_schema_serialize
// (zero-then-fill, strncpy-with-guaranteed-terminator string packing) and
// src/btelem_serve.c's chunked emit shape.
type WireCodec struct {
	reg *Registry
}

// NewWireCodec wraps reg for serialization.
func NewWireCodec(reg *Registry) *WireCodec { return &WireCodec{reg: reg} }

func (c *WireCodec) collect() (schemas []*SchemaDescriptor, enums []enumRef, bitfields []bitfieldRef) {
	schemas = c.reg.registered()
	for _, s := range schemas {
		for i, f := range s.Fields {
			if i >= MaxFields {
				break
			}
			if f.Enum != nil {
				enums = append(enums, enumRef{schemaID: s.ID, fieldIndex: uint16(i), def: f.Enum})
			}
			if f.Bitfield != nil {
				bitfields = append(bitfields, bitfieldRef{schemaID: s.ID, fieldIndex: uint16(i), def: f.Bitfield})
			}
		}
	}
	return
}

// Len reports the total byte length Serialize would produce.
func (c *WireCodec) Len() int {
	schemas, enums, bitfields := c.collect()
	return schemaHeaderSize +
		len(schemas)*schemaWireSize +
		2 + len(enums)*enumWireSize +
		2 + len(bitfields)*bitfieldWireSize
}

// Serialize writes the full wire stream into buf and returns the byte
// length written. A nil buf returns the required length without writing
// anything — the sanctioned way for a caller to size its buffer.
func (c *WireCodec) Serialize(buf []byte) (int, error) {
	schemas, enums, bitfields := c.collect()
	needed := schemaHeaderSize +
		len(schemas)*schemaWireSize +
		2 + len(enums)*enumWireSize +
		2 + len(bitfields)*bitfieldWireSize

	if buf == nil {
		return needed, nil
	}
	if len(buf) < needed {
		return 0, ErrBufferTooSmall
	}

	off := 0
	buf[off] = endiannessTag
	off++
	binary.NativeEndian.PutUint16(buf[off:off+2], uint16(len(schemas)))
	off += 2

	for _, s := range schemas {
		off += putSchemaWire(buf[off:], s)
	}

	binary.NativeEndian.PutUint16(buf[off:off+2], uint16(len(enums)))
	off += 2
	for _, e := range enums {
		off += putEnumWire(buf[off:], e)
	}

	binary.NativeEndian.PutUint16(buf[off:off+2], uint16(len(bitfields)))
	off += 2
	for _, b := range bitfields {
		off += putBitfieldWire(buf[off:], b)
	}

	return off, nil
}

// ChunkFunc receives one fixed-size chunk of the wire stream. Returning a
// non-nil error aborts emission; Emit surfaces it to its caller.
type ChunkFunc func(chunk []byte) error

// Emit produces the identical byte sequence as Serialize, but as a series
// of fixed-size chunks: the header, one schema record per call, the
// enum-section count, one enum record per call, the bitfield-section
// count, one bitfield record per call: the buffered form can exceed 1 MiB
// at maximal defaults, too much contiguous memory to require per
// connection.
func (c *WireCodec) Emit(emit ChunkFunc) error {
	schemas, enums, bitfields := c.collect()

	header := make([]byte, schemaHeaderSize)
	header[0] = endiannessTag
	binary.NativeEndian.PutUint16(header[1:3], uint16(len(schemas)))
	if err := emit(header); err != nil {
		return err
	}

	rec := make([]byte, schemaWireSize)
	for _, s := range schemas {
		clearBytes(rec)
		putSchemaWire(rec, s)
		if err := emit(rec); err != nil {
			return err
		}
	}

	count := make([]byte, 2)
	binary.NativeEndian.PutUint16(count, uint16(len(enums)))
	if err := emit(count); err != nil {
		return err
	}
	erec := make([]byte, enumWireSize)
	for _, e := range enums {
		clearBytes(erec)
		putEnumWire(erec, e)
		if err := emit(erec); err != nil {
			return err
		}
	}

	binary.NativeEndian.PutUint16(count, uint16(len(bitfields)))
	if err := emit(count); err != nil {
		return err
	}
	brec := make([]byte, bitfieldWireSize)
	for _, b := range bitfields {
		clearBytes(brec)
		putBitfieldWire(brec, b)
		if err := emit(brec); err != nil {
			return err
		}
	}

	return nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func putString(dst []byte, s string) {
	clearBytes(dst)
	n := len(s)
	if n > len(dst)-1 {
		n = len(dst) - 1
	}
	copy(dst, s[:n])
	// dst[n:] is already zero, guaranteeing a terminating zero byte.
}

func putSchemaWire(dst []byte, s *SchemaDescriptor) int {
	clearBytes(dst[:schemaWireSize])
	binary.NativeEndian.PutUint16(dst[0:2], s.ID)
	binary.NativeEndian.PutUint16(dst[2:4], s.PayloadSize)
	binary.NativeEndian.PutUint16(dst[4:6], uint16(len(s.Fields)))
	putString(dst[6:6+NameMax], s.Name)
	putString(dst[6+NameMax:6+NameMax+DescMax], s.Description)

	fieldsOff := 6 + NameMax + DescMax
	fc := len(s.Fields)
	if fc > MaxFields {
		fc = MaxFields
	}
	for i := 0; i < fc; i++ {
		putFieldWire(dst[fieldsOff+i*fieldWireSize:fieldsOff+(i+1)*fieldWireSize], &s.Fields[i])
	}
	return schemaWireSize
}

func putFieldWire(dst []byte, f *Field) {
	putString(dst[0:NameMax], f.Name)
	binary.NativeEndian.PutUint16(dst[NameMax:NameMax+2], f.Offset)
	binary.NativeEndian.PutUint16(dst[NameMax+2:NameMax+4], f.Size)
	dst[NameMax+4] = byte(f.Type)
	dst[NameMax+5] = f.Count
}

func putEnumWire(dst []byte, e enumRef) int {
	clearBytes(dst[:enumWireSize])
	binary.NativeEndian.PutUint16(dst[0:2], e.schemaID)
	binary.NativeEndian.PutUint16(dst[2:4], e.fieldIndex)
	labels := e.def.Labels
	lc := len(labels)
	if lc > EnumMaxValues {
		lc = EnumMaxValues
	}
	dst[4] = byte(lc)
	labelsOff := 5
	for i := 0; i < lc; i++ {
		putString(dst[labelsOff+i*EnumLabelMax:labelsOff+(i+1)*EnumLabelMax], labels[i])
	}
	return enumWireSize
}

func putBitfieldWire(dst []byte, b bitfieldRef) int {
	clearBytes(dst[:bitfieldWireSize])
	binary.NativeEndian.PutUint16(dst[0:2], b.schemaID)
	binary.NativeEndian.PutUint16(dst[2:4], b.fieldIndex)
	bits := b.def.Bits
	bc := len(bits)
	if bc > BitfieldMaxBits {
		bc = BitfieldMaxBits
	}
	dst[4] = byte(bc)

	namesOff := 5
	startsOff := namesOff + BitfieldMaxBits*BitNameMax
	widthsOff := startsOff + BitfieldMaxBits
	for i := 0; i < bc; i++ {
		putString(dst[namesOff+i*BitNameMax:namesOff+(i+1)*BitNameMax], bits[i].Name)
		dst[startsOff+i] = bits[i].Start
		dst[widthsOff+i] = bits[i].Width
	}
	return bitfieldWireSize
}
