// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vertex

import (
	"github.com/devblok/vbuf/gfx"
)

// VerticesSource describes an attribute source to the draw-dispatch
// layer: which buffer, which element range, and whether the source
// advances per instance. This is the sole export the rendering
// pipeline consumes from this package.
type VerticesSource struct {
	Handle       gfx.BufferHandle
	Bindings     Format
	ElementsSize int
	Offset       int
	Length       int
	PerInstance  bool
}

// VerticesSourcer is anything that can be drawn from: vertex buffers,
// their slices, type-erased buffers and per-instance markers.
type VerticesSourcer interface {
	VerticesSource() VerticesSource
}

// PerInstance marks an attribute source as advancing once per
// rendered instance, not once per vertex. It is a read-only
// annotation; obtain one from PerInstanceIfSupported.
type PerInstance struct {
	slice VertexBufferAnySlice
}

// VerticesSource implements VerticesSourcer with the per-instance
// flag set.
func (p PerInstance) VerticesSource() VerticesSource {
	src := p.slice.VerticesSource()
	src.PerInstance = true
	return src
}
