package fileindex

import (
	"errors"
	"io"
)

// ErrFileTooSmall is returned when a file is shorter than a single
// footer.
var ErrFileTooSmall = errors.New("fileindex: file too small to hold a footer")

// ErrBadMagic is returned when the trailing 16 bytes don't carry the
// expected magic value — the file has no valid footer. A reader detects
// a valid footer by loading the last 16 bytes and checking the magic.
var ErrBadMagic = errors.New("fileindex: footer magic mismatch")

// ReadFooter loads and validates the footer at the end of a file of the
// given size.
func ReadFooter(r io.ReaderAt, size int64) (Footer, error) {
	if size < FooterSize {
		return Footer{}, ErrFileTooSmall
	}
	buf := make([]byte, FooterSize)
	if _, err := r.ReadAt(buf, size-FooterSize); err != nil {
		return Footer{}, err
	}
	f := DecodeFooter(buf)
	if !f.Valid() {
		return Footer{}, ErrBadMagic
	}
	return f, nil
}

// ReadIndex loads the index entries footer points at.
func ReadIndex(r io.ReaderAt, footer Footer) ([]Entry, error) {
	buf := make([]byte, int(footer.IndexCount)*EntrySize)
	if len(buf) > 0 {
		if _, err := r.ReadAt(buf, int64(footer.IndexOffset)); err != nil {
			return nil, err
		}
	}
	entries := make([]Entry, footer.IndexCount)
	for i := range entries {
		entries[i] = DecodeEntry(buf[i*EntrySize : (i+1)*EntrySize])
	}
	return entries, nil
}
