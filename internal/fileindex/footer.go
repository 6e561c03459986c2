// Package fileindex implements the footer/index tail of the persisted
// .btlm file format — the one piece of on-disk layout the telemetry core
// still owns. Writing and reading packets themselves lives outside this
// package; this package only knows about the index entries and the
// footer that points at them.
//
// Grounded on original_source/include/btelem/btelem_types.h's
// btelem_index_entry / btelem_index_footer structs.
package fileindex

import "encoding/binary"

const (
	// Magic is the footer's identifying value, "BTLI" read as a
	// little-endian u32.
	Magic = 0x494C5442

	// EntrySize is the on-wire size of one Entry: 28 bytes.
	EntrySize = 28

	// FooterSize is the on-wire size of Footer: 16 bytes.
	FooterSize = 16
)

// Entry indexes one packet written to the file: its offset and the
// timestamp range and entry count it covers, letting a reader binary
// search the index instead of scanning the whole file.
type Entry struct {
	Offset     uint64
	TSMin      uint64
	TSMax      uint64
	EntryCount uint32
}

// Footer sits at the very end of the file; a reader seeks to EOF-16,
// checks Magic, and if it matches, seeks to IndexOffset to load
// IndexCount index Entries.
type Footer struct {
	IndexOffset uint64
	IndexCount  uint32
	Magic       uint32
}

// Encode appends e's wire bytes to dst.
func (e Entry) Encode(dst []byte) []byte {
	var b [EntrySize]byte
	binary.LittleEndian.PutUint64(b[0:8], e.Offset)
	binary.LittleEndian.PutUint64(b[8:16], e.TSMin)
	binary.LittleEndian.PutUint64(b[16:24], e.TSMax)
	binary.LittleEndian.PutUint32(b[24:28], e.EntryCount)
	return append(dst, b[:]...)
}

// DecodeEntry reads one index Entry from the front of b.
func DecodeEntry(b []byte) Entry {
	return Entry{
		Offset:     binary.LittleEndian.Uint64(b[0:8]),
		TSMin:      binary.LittleEndian.Uint64(b[8:16]),
		TSMax:      binary.LittleEndian.Uint64(b[16:24]),
		EntryCount: binary.LittleEndian.Uint32(b[24:28]),
	}
}

// Encode appends f's wire bytes to dst.
func (f Footer) Encode(dst []byte) []byte {
	var b [FooterSize]byte
	binary.LittleEndian.PutUint64(b[0:8], f.IndexOffset)
	binary.LittleEndian.PutUint32(b[8:12], f.IndexCount)
	binary.LittleEndian.PutUint32(b[12:16], f.Magic)
	return append(dst, b[:]...)
}

// DecodeFooter reads a Footer from the last FooterSize bytes of a file.
func DecodeFooter(b []byte) Footer {
	return Footer{
		IndexOffset: binary.LittleEndian.Uint64(b[0:8]),
		IndexCount:  binary.LittleEndian.Uint32(b[8:12]),
		Magic:       binary.LittleEndian.Uint32(b[12:16]),
	}
}

// Valid reports whether f's magic matches the expected value — the check
// a reader performs before trusting IndexOffset/IndexCount.
func (f Footer) Valid() bool { return f.Magic == Magic }
