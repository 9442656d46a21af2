// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package capture

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4"
)

// Open opens an archive from r. It checks that the file actually is a
// capture archive and returns ErrFileFormat when it is not.
func Open(r io.ReaderAt) (*Archive, error) {
	rawMagic := make([]byte, MagicLength)
	if num, err := r.ReadAt(rawMagic, 0); err != nil {
		return nil, err
	} else if num < MagicLength || !bytes.Equal(rawMagic, magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); err != nil {
		return nil, err
	} else if num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToInt64(headerSizeBytes)
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		return nil, err
	} else if int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	return &Archive{
		reader:    r,
		header:    header,
		dataStart: MagicLength + HeaderSizeNumberLength + headerSize,
	}, nil
}

// Archive provides concurrent io for a capture file, and can provide
// an io.Reader for each snapshot separately.
type Archive struct {
	reader    io.ReaderAt
	header    Header
	dataStart int64
}

// Header returns the archive header, index included.
func (a *Archive) Header() Header {
	return a.header
}

// Index returns the snapshot index.
func (a *Archive) Index() []IndexEntry {
	return a.header.Index
}

func (a *Archive) find(name string) (IndexEntry, bool) {
	for _, e := range a.header.Index {
		if e.Name == name {
			return e, true
		}
	}
	return IndexEntry{}, false
}

// Open returns a Reader streaming the decompressed contents of one
// snapshot.
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.find(name)
	if !ok {
		return nil, ErrNoEntry
	}
	section := io.NewSectionReader(a.reader, a.dataStart+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:     entry,
		decomp:    lz4.NewReader(section),
		remaining: entry.Size,
	}, nil
}

// ReadAll returns the entire decompressed contents of a snapshot with
// a given name.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, r.entry.Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Reader is a reader for a single snapshot in an Archive.
type Reader struct {
	entry     IndexEntry
	decomp    io.Reader
	remaining int64
}

// Entry returns the index entry the Reader was opened on.
func (r *Reader) Entry() IndexEntry {
	return r.entry
}

// Read reads already decompressed data.
func (r *Reader) Read(p []byte) (n int, err error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err = r.decomp.Read(p)
	r.remaining -= int64(n)
	return n, err
}
