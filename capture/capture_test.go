// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package capture_test

import (
	"bytes"
	"io"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/vbuf/capture"
	"github.com/devblok/vbuf/gfx"
	"github.com/devblok/vbuf/gfx/gfxtest"
	"github.com/devblok/vbuf/vertex"
)

func newHeader() capture.Header {
	return capture.Header{
		Author:      "test",
		DateCreated: time.Now().Unix(),
		Version:     1,
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	c := qt.New(t)

	builder, err := capture.NewBuilder(newHeader())
	c.Assert(err, qt.IsNil)
	defer builder.Close()

	first := bytes.Repeat([]byte{1, 2, 3, 4}, 32)
	second := bytes.Repeat([]byte{9, 8}, 100)
	c.Assert(builder.Add("first", 4, first), qt.IsNil)
	c.Assert(builder.Add("second", 2, second), qt.IsNil)

	var out bytes.Buffer
	written, err := builder.WriteTo(&out)
	c.Assert(err, qt.IsNil)
	c.Assert(written, qt.Equals, int64(out.Len()))

	archive, err := capture.Open(bytes.NewReader(out.Bytes()))
	c.Assert(err, qt.IsNil)
	c.Assert(archive.Header().Author, qt.Equals, "test")

	index := archive.Index()
	c.Assert(len(index), qt.Equals, 2)
	c.Assert(index[0].Name, qt.Equals, "first")
	c.Assert(index[0].Size, qt.Equals, int64(len(first)))
	c.Assert(index[0].ElementSize, qt.Equals, int64(4))
	c.Assert(index[0].ElementCount, qt.Equals, int64(32))
	c.Assert(index[1].Offset, qt.Equals, index[0].CompressedSize)

	data, err := archive.ReadAll("first")
	c.Assert(err, qt.IsNil)
	c.Assert(data, qt.DeepEquals, first)

	data, err = archive.ReadAll("second")
	c.Assert(err, qt.IsNil)
	c.Assert(data, qt.DeepEquals, second)
}

func TestReaderStreams(t *testing.T) {
	c := qt.New(t)

	builder, err := capture.NewBuilder(newHeader())
	c.Assert(err, qt.IsNil)
	defer builder.Close()

	payload := bytes.Repeat([]byte{0xAB}, 1000)
	c.Assert(builder.Add("blob", 1, payload), qt.IsNil)

	var out bytes.Buffer
	_, err = builder.WriteTo(&out)
	c.Assert(err, qt.IsNil)

	archive, err := capture.Open(bytes.NewReader(out.Bytes()))
	c.Assert(err, qt.IsNil)

	r, err := archive.Open("blob")
	c.Assert(err, qt.IsNil)
	c.Assert(r.Entry().Name, qt.Equals, "blob")

	data, err := io.ReadAll(r)
	c.Assert(err, qt.IsNil)
	c.Assert(data, qt.DeepEquals, payload)

	n, err := r.Read(make([]byte, 1))
	c.Assert(n, qt.Equals, 0)
	c.Assert(err, qt.Equals, io.EOF)
}

func TestOpenRejectsGarbage(t *testing.T) {
	c := qt.New(t)

	_, err := capture.Open(bytes.NewReader([]byte("GIF89a trust me, a capture archive")))
	c.Assert(err, qt.Equals, capture.ErrFileFormat)
}

func TestNoEntry(t *testing.T) {
	c := qt.New(t)

	builder, err := capture.NewBuilder(newHeader())
	c.Assert(err, qt.IsNil)
	defer builder.Close()

	var out bytes.Buffer
	_, err = builder.WriteTo(&out)
	c.Assert(err, qt.IsNil)

	archive, err := capture.Open(bytes.NewReader(out.Bytes()))
	c.Assert(err, qt.IsNil)
	_, err = archive.ReadAll("missing")
	c.Assert(err, qt.Equals, capture.ErrNoEntry)
}

func TestWriteToResetsEntries(t *testing.T) {
	c := qt.New(t)

	builder, err := capture.NewBuilder(newHeader())
	c.Assert(err, qt.IsNil)
	defer builder.Close()

	c.Assert(builder.Add("once", 1, []byte{1, 2, 3}), qt.IsNil)

	var out bytes.Buffer
	_, err = builder.WriteTo(&out)
	c.Assert(err, qt.IsNil)

	out.Reset()
	_, err = builder.WriteTo(&out)
	c.Assert(err, qt.IsNil)

	archive, err := capture.Open(bytes.NewReader(out.Bytes()))
	c.Assert(err, qt.IsNil)
	c.Assert(len(archive.Index()), qt.Equals, 0)
}

type snapVertex struct {
	Position [3]float32
}

func (snapVertex) VertexFormat() vertex.Format {
	return vertex.MustDerive(snapVertex{})
}

func TestAddVertices(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice()

	verts := []snapVertex{
		{Position: [3]float32{1, 2, 3}},
		{Position: [3]float32{4, 5, 6}},
	}
	vb, err := vertex.New(dev, verts)
	c.Assert(err, qt.IsNil)
	defer vb.Release()

	builder, err := capture.NewBuilder(newHeader())
	c.Assert(err, qt.IsNil)
	defer builder.Close()

	c.Assert(capture.AddVertices(builder, "verts", vb), qt.IsNil)

	var out bytes.Buffer
	_, err = builder.WriteTo(&out)
	c.Assert(err, qt.IsNil)

	archive, err := capture.Open(bytes.NewReader(out.Bytes()))
	c.Assert(err, qt.IsNil)

	entry := archive.Index()[0]
	c.Assert(entry.ElementSize, qt.Equals, int64(12))
	c.Assert(entry.ElementCount, qt.Equals, int64(2))

	data, err := archive.ReadAll("verts")
	c.Assert(err, qt.IsNil)
	c.Assert(data, qt.DeepEquals, vertex.Bytes(verts))
}

func TestAddVerticesNoReadBack(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice(gfxtest.WithoutExtension(gfx.ExtBufferReadBack))

	vb, err := vertex.New(dev, []snapVertex{{Position: [3]float32{1, 2, 3}}})
	c.Assert(err, qt.IsNil)
	defer vb.Release()

	builder, err := capture.NewBuilder(newHeader())
	c.Assert(err, qt.IsNil)
	defer builder.Close()

	c.Assert(capture.AddVertices(builder, "verts", vb), qt.Equals, capture.ErrReadBack)
}

func BenchmarkBuilderAdd(b *testing.B) {
	builder, err := capture.NewBuilder(newHeader())
	if err != nil {
		b.Fatal(err)
	}
	defer builder.Close()

	data := bytes.Repeat([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 4096)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := builder.Add("bench", 8, data); err != nil {
			b.Fatal(err)
		}
	}
}
