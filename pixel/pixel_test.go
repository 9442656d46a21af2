// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pixel_test

import (
	"image"
	"image/color"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/vbuf/gfx"
	"github.com/devblok/vbuf/gfx/gfxtest"
	"github.com/devblok/vbuf/pixel"
)

func TestNewEmpty(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice()

	buf, err := pixel.NewEmpty[pixel.RGBA](dev, 16)
	c.Assert(err, qt.IsNil)
	defer buf.Release()

	c.Assert(buf.Len(), qt.Equals, 16)

	_, _, ok := buf.Dimensions()
	c.Assert(ok, qt.Equals, false)
	_, ok = buf.Format()
	c.Assert(ok, qt.Equals, false)
}

func TestSetTransferInfo(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice()

	buf, err := pixel.NewEmpty[pixel.RGBA](dev, 16)
	c.Assert(err, qt.IsNil)
	defer buf.Release()

	pixel.SetTransferInfo(buf, 4, 4, pixel.FormatRGBA8)

	w, h, ok := buf.Dimensions()
	c.Assert(ok, qt.Equals, true)
	c.Assert(w, qt.Equals, 4)
	c.Assert(h, qt.Equals, 4)

	format, ok := buf.Format()
	c.Assert(ok, qt.Equals, true)
	c.Assert(format, qt.Equals, pixel.FormatRGBA8)
}

func TestSetTransferInfoMismatchPanics(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice()

	buf, err := pixel.NewEmpty[pixel.RGBA](dev, 16)
	c.Assert(err, qt.IsNil)
	defer buf.Release()

	c.Assert(func() {
		pixel.SetTransferInfo(buf, 5, 4, pixel.FormatRGBA8)
	}, qt.PanicMatches, `pixel: 5x4 4 byte pixels do not fit a 64 byte buffer`)
}

func TestReadRGBA(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice()

	buf, err := pixel.NewEmpty[pixel.RGBA](dev, 4)
	c.Assert(err, qt.IsNil)
	defer buf.Release()

	// Simulate a texture transfer: raw pixels land in the buffer and
	// the transfer layer tags it.
	raw := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
	c.Assert(dev.Upload(buf.Handle(), 0, raw), qt.IsNil)
	pixel.SetTransferInfo(buf, 2, 2, pixel.FormatRGBA8)

	img, ok := pixel.ReadRGBA(buf)
	c.Assert(ok, qt.Equals, true)
	c.Assert(img.Bounds(), qt.Equals, image.Rect(0, 0, 2, 2))
	c.Assert(img.RGBAAt(0, 0), qt.Equals, color.RGBA{R: 255, A: 255})
	c.Assert(img.RGBAAt(1, 1), qt.Equals, color.RGBA{R: 255, G: 255, B: 255, A: 255})
}

func TestReadRGBAAbsent(t *testing.T) {
	c := qt.New(t)

	// Untagged buffer.
	dev := gfxtest.NewDevice()
	buf, err := pixel.NewEmpty[pixel.RGBA](dev, 4)
	c.Assert(err, qt.IsNil)
	_, ok := pixel.ReadRGBA(buf)
	c.Assert(ok, qt.Equals, false)
	buf.Release()

	// Device without read-back.
	dev = gfxtest.NewDevice(gfxtest.WithoutExtension(gfx.ExtBufferReadBack))
	buf, err = pixel.NewEmpty[pixel.RGBA](dev, 4)
	c.Assert(err, qt.IsNil)
	defer buf.Release()
	pixel.SetTransferInfo(buf, 2, 2, pixel.FormatRGBA8)
	_, ok = pixel.ReadRGBA(buf)
	c.Assert(ok, qt.Equals, false)
}

func TestPixelSize(t *testing.T) {
	c := qt.New(t)

	c.Assert(pixel.FormatR8.PixelSize(), qt.Equals, 1)
	c.Assert(pixel.FormatRGB8.PixelSize(), qt.Equals, 3)
	c.Assert(pixel.FormatBGRA8.PixelSize(), qt.Equals, 4)
	c.Assert(pixel.FormatRGBA32F.PixelSize(), qt.Equals, 16)
}

func TestPixelsFromImage(t *testing.T) {
	c := qt.New(t)

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(2, 1, color.RGBA{R: 7, G: 8, B: 9, A: 255})

	pix := pixel.PixelsFromImage(img, 0)
	c.Assert(len(pix), qt.Equals, 3*2*4)
	c.Assert(pix[(1*3+2)*4], qt.Equals, uint8(7))

	// A wider row pitch pads each row to the requested stride.
	pix = pixel.PixelsFromImage(img, 16)
	c.Assert(len(pix), qt.Equals, 16*2)
	c.Assert(pix[1*16+2*4], qt.Equals, uint8(7))
}
