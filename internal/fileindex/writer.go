package fileindex

import (
	"bytes"
	"os"

	"github.com/natefinch/atomic"
)

// Writer accumulates the index entries for packets a caller has already
// appended to a data file, then finalizes the file with an index section
// and footer.
type Writer struct {
	entries []Entry
}

// NewWriter returns an empty index writer.
func NewWriter() *Writer { return &Writer{} }

// Add records the index entry for one packet already written to the data
// file at e.Offset.
func (w *Writer) Add(e Entry) { w.entries = append(w.entries, e) }

// Finalize appends the accumulated index entries and the footer to the
// file at path, atomically: it reads the current contents, appends the
// index section and footer in memory, then writes the whole result via a
// write-to-temp-then-rename (github.com/natefinch/atomic), so a crash
// mid-write can never leave a file whose last 16 bytes match Magic but
// whose index entries are truncated.
func (w *Writer) Finalize(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	indexOffset := uint64(len(data))
	for _, e := range w.entries {
		data = e.Encode(data)
	}
	footer := Footer{
		IndexOffset: indexOffset,
		IndexCount:  uint32(len(w.entries)),
		Magic:       Magic,
	}
	data = footer.Encode(data)

	return atomic.WriteFile(path, bytes.NewReader(data))
}
