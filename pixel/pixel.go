// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pixel implements staging buffers for texture transfer.
// Contrary to textures, pixel buffers hold data in a client-defined
// format; they carry bytes to or from video memory before or after
// being turned into a texture. The texture-transfer layer tags a
// buffer with dimensions and format after a transfer so a later
// read-back can interpret the raw bytes.
package pixel

import (
	"fmt"
	"image"
	"image/draw"
	"unsafe"

	"github.com/devblok/vbuf/buffer"
	"github.com/devblok/vbuf/gfx"
)

// ClientFormat identifies the client-side layout of one pixel.
type ClientFormat int

// Supported client formats.
const (
	FormatR8 ClientFormat = iota
	FormatRG8
	FormatRGB8
	FormatRGBA8
	FormatBGRA8
	FormatRGBA32F
)

var pixelSizes = [...]int{
	FormatR8:      1,
	FormatRG8:     2,
	FormatRGB8:    3,
	FormatRGBA8:   4,
	FormatBGRA8:   4,
	FormatRGBA32F: 16,
}

// PixelSize returns the number of bytes one pixel occupies.
func (f ClientFormat) PixelSize() int {
	return pixelSizes[f]
}

// RGBA is the standard 8-bit-per-channel pixel element.
type RGBA struct {
	R, G, B, A uint8
}

// Buffer stores the content of a texture in pack direction. The type
// parameter is the pixel element the buffer contains; it occupies no
// storage.
type Buffer[T any] struct {
	buffer *buffer.Buffer

	width, height int
	format        ClientFormat
	hasInfo       bool
}

// NewEmpty builds a pixel buffer with uninitialized content sized for
// capacity pixels.
func NewEmpty[T any](dev gfx.Device, capacity int) (*Buffer[T], error) {
	var zero T
	raw, err := buffer.Empty(dev, gfx.PixelPackBuffer, int(unsafe.Sizeof(zero)), capacity, buffer.Simple())
	if err != nil {
		return nil, err
	}
	return &Buffer[T]{buffer: raw}, nil
}

// Len returns the length of the buffer, in number of pixels.
func (b *Buffer[T]) Len() int {
	return b.buffer.Len()
}

// Handle returns the driver-side identity of the buffer, consumed by
// the texture-transfer layer.
func (b *Buffer[T]) Handle() gfx.BufferHandle {
	return b.buffer.Handle()
}

// Dimensions returns the shape the most recent texture transfer
// produced, or ok=false when no transfer has tagged the buffer yet.
func (b *Buffer[T]) Dimensions() (width, height int, ok bool) {
	return b.width, b.height, b.hasInfo
}

// Format returns the client format of the most recent texture
// transfer, or ok=false when no transfer has tagged the buffer yet.
func (b *Buffer[T]) Format() (ClientFormat, bool) {
	return b.format, b.hasInfo
}

// Release destroys the underlying driver allocation.
func (b *Buffer[T]) Release() {
	b.buffer.Release()
}

// SetTransferInfo tags the buffer with the dimensions and client
// format the most recent texture transfer produced. It is meant for
// the texture-transfer layer only, not general use. The metadata must
// match the byte length actually reserved; a mismatch panics.
func SetTransferInfo[T any](b *Buffer[T], width, height int, format ClientFormat) {
	if width*height*format.PixelSize() != b.buffer.SizeBytes() {
		panic(fmt.Sprintf("pixel: %dx%d %d byte pixels do not fit a %d byte buffer",
			width, height, format.PixelSize(), b.buffer.SizeBytes()))
	}
	b.width = width
	b.height = height
	b.format = format
	b.hasInfo = true
}

// ReadRGBA reads a tagged RGBA8 pack buffer back into an image.
// Returns ok=false when the buffer has no transfer metadata or the
// device does not support read-back.
func ReadRGBA(b *Buffer[RGBA]) (*image.RGBA, bool) {
	if !b.hasInfo || b.format != FormatRGBA8 {
		return nil, false
	}
	raw, ok := b.buffer.ReadIfSupported()
	if !ok {
		return nil, false
	}
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, raw)
	return img, true
}

// PixelsFromImage transforms an image into the right arrangement of
// RGBA pixels for upload, by drawing it onto a controlled RGBA canvas.
// A non-zero rowPitch is applied when the target rows are wider than
// the image's own.
func PixelsFromImage(img image.Image, rowPitch int) []uint8 {
	canvas := image.NewRGBA(img.Bounds())
	if rowPitch > 4*img.Bounds().Dx() {
		canvas.Stride = rowPitch
		canvas.Pix = make([]uint8, rowPitch*img.Bounds().Dy())
	}
	draw.Draw(canvas, canvas.Bounds(), img, image.Point{}, draw.Src)
	return canvas.Pix
}
