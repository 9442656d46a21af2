// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package capture

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pierrec/lz4"
	log "github.com/sirupsen/logrus"
)

// NewBuilder creates a new Builder. Do not fill the Index in the
// header, it will be overwritten anyway.
func NewBuilder(header Header) (*Builder, error) {
	temp, err := os.MkdirTemp("", "captureBuilder")
	if err != nil {
		return nil, ErrTempFail
	}
	return &Builder{
		tempDir: temp,
		header:  header,
	}, nil
}

type tempEntry struct {

	// Name is the actual name of the snapshot.
	Name string

	// TempName is the temporary name given by the Builder.
	TempName string

	// Size in uncompressed state.
	Size int64

	Compressed int64

	ElementSize  int64
	ElementCount int64
}

// Builder accumulates snapshots and writes them out as one archive.
// Whenever Add is called the snapshot is compressed into a temporary
// dir; WriteTo bundles everything together. Archives are versioned
// and cannot be appended to.
type Builder struct {
	tempDir string
	header  Header

	mutex   sync.Mutex
	entries []tempEntry
	seq     int
}

// Add appends a snapshot of raw buffer bytes with the given name and
// element bookkeeping. It blocks until lz4 finishes compression and
// is safe to use concurrently from different goroutines.
func (b *Builder) Add(name string, elementSize int, data []byte) error {
	b.mutex.Lock()
	b.seq++
	tempName := strconv.Itoa(b.seq)
	b.mutex.Unlock()

	f, err := os.Create(filepath.Join(b.tempDir, tempName))
	if err != nil {
		return ErrTempFail
	}
	defer f.Close()

	writer := lz4.NewWriter(f)
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return ErrTempFail
	}
	info, err := f.Stat()
	if err != nil {
		return ErrTempFail
	}

	var count int64
	if elementSize > 0 {
		count = int64(len(data) / elementSize)
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.entries = append(b.entries, tempEntry{
		Name:         name,
		TempName:     tempName,
		Size:         int64(len(data)),
		Compressed:   info.Size(),
		ElementSize:  int64(elementSize),
		ElementCount: count,
	})
	log.WithFields(log.Fields{
		"name":       name,
		"bytes":      len(data),
		"compressed": info.Size(),
	}).Debug("snapshot staged")
	return nil
}

// WriteTo bundles and writes all snapshots added to the Builder into
// an archive that is ready to use, then discards the staged entries.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	header := b.header
	header.Index = nil
	var offset int64
	for _, e := range b.entries {
		header.Index = append(header.Index, IndexEntry{
			Name:           e.Name,
			Offset:         offset,
			Size:           e.Size,
			CompressedSize: e.Compressed,
			ElementSize:    e.ElementSize,
			ElementCount:   e.ElementCount,
		})
		offset += e.Compressed
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}

	var written int64
	n, err := w.Write(magic[:])
	written += int64(n)
	if err != nil {
		return written, err
	}
	n, err = w.Write(int64ToBinary(int64(len(rawHeader))))
	written += int64(n)
	if err != nil {
		return written, err
	}
	n, err = w.Write(rawHeader)
	written += int64(n)
	if err != nil {
		return written, err
	}

	for _, e := range b.entries {
		f, err := os.Open(filepath.Join(b.tempDir, e.TempName))
		if err != nil {
			return written, ErrTempFail
		}
		copied, err := io.Copy(w, f)
		f.Close()
		written += copied
		if err != nil {
			return written, err
		}
	}

	b.entries = b.entries[:0]
	return written, nil
}

// Close removes the Builder's temporary directory.
func (b *Builder) Close() error {
	return os.RemoveAll(b.tempDir)
}
