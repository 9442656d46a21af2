// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package buffer

import (
	"fmt"
)

// Mapping is a scoped, exclusive host view over a region of a Buffer.
// Release must run on every exit path, typically via defer; for
// non-persistent buffers it unmaps the driver memory, for persistent
// buffers it only ends the scope.
type Mapping struct {
	buf      *Buffer
	data     []byte
	released bool
}

// Map blocks until all fences overlapping the requested element range
// have signalled, then returns a mapping of count elements starting
// at the given element offset. Persistent buffers map once on the
// first call and reuse the cached pointer afterwards, but still wait
// on fences. Out-of-bounds ranges panic.
func (b *Buffer) Map(offset, count int) (*Mapping, error) {
	if offset < 0 || count < 0 || offset+count > b.elemCount {
		panic(fmt.Sprintf("buffer: map of %d elements at offset %d exceeds length %d", count, offset, b.elemCount))
	}
	byteOff, byteLen := offset*b.elemSize, count*b.elemSize
	b.waitFences(byteOff, byteLen)

	if b.persistent {
		b.mu.Lock()
		if b.persistentMem == nil {
			mem, err := b.dev.Map(b.handle, 0, b.SizeBytes())
			if err != nil {
				b.mu.Unlock()
				return nil, fmt.Errorf("buffer: persistent map: %s", err)
			}
			b.persistentMem = mem
		}
		data := b.persistentMem[byteOff : byteOff+byteLen]
		b.mu.Unlock()
		return &Mapping{buf: b, data: data}, nil
	}

	data, err := b.dev.Map(b.handle, byteOff, byteLen)
	if err != nil {
		return nil, fmt.Errorf("buffer: map: %s", err)
	}
	return &Mapping{buf: b, data: data}, nil
}

// Bytes returns the mapped region. The slice aliases driver memory
// and must not be retained past Release.
func (m *Mapping) Bytes() []byte {
	if m.released {
		panic("buffer: use of released mapping")
	}
	return m.data
}

// Release ends the mapping scope. Safe to call more than once.
func (m *Mapping) Release() {
	if m.released {
		return
	}
	m.released = true
	m.data = nil
	if !m.buf.persistent {
		m.buf.dev.Unmap(m.buf.handle)
	}
}
