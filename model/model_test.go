// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/packr"

	"github.com/devblok/vbuf/gfx/gfxtest"
	"github.com/devblok/vbuf/model"
	"github.com/devblok/vbuf/vertex"
)

var assets = packr.NewBox("../assets")

func loadCube(t *testing.T) model.Object {
	t.Helper()
	contents, err := assets.Find("cube.dae")
	if err != nil {
		t.Fatal(err)
	}
	obj, err := model.ImportColladaObject(contents)
	if err != nil {
		t.Fatal(err)
	}
	return obj
}

func TestImportColladaObject(t *testing.T) {
	c := qt.New(t)

	obj := loadCube(t)
	verts := obj.Vertices()
	c.Assert(len(verts), qt.Equals, 36)

	// Cube corners stay on the unit cube, normals are unit axes.
	for _, v := range verts {
		for i := 0; i < 3; i++ {
			if v.Pos[i] != 1 && v.Pos[i] != -1 {
				t.Fatalf("position component out of cube: %v", v.Pos)
			}
		}
		c.Assert(v.Color, qt.Equals, glm.Vec4{1, 1, 0, 1})
		if v.Normal.Len() < 0.99 || v.Normal.Len() > 1.01 {
			t.Fatalf("normal not unit length: %v", v.Normal)
		}
	}
}

func TestImportColladaObjectErrors(t *testing.T) {
	c := qt.New(t)

	_, err := model.ImportColladaObject([]byte("garbage"))
	c.Assert(err, qt.Not(qt.IsNil))

	noPositions := `<COLLADA><library_geometries><geometry id="g"><mesh>
		<source id="g-other"><float_array id="a" count="0"></float_array></source>
		<triangles count="0"><input semantic="VERTEX" source="#v" offset="0"/><p></p></triangles>
	</mesh></geometry></library_geometries></COLLADA>`
	_, err = model.ImportColladaObject([]byte(noPositions))
	c.Assert(err, qt.Not(qt.IsNil))

	badIndex := `<COLLADA><library_geometries><geometry id="g"><mesh>
		<source id="g-positions"><float_array id="a" count="3">0 0 0</float_array></source>
		<triangles count="1"><input semantic="VERTEX" source="#v" offset="0"/><p>0 5 0</p></triangles>
	</mesh></geometry></library_geometries></COLLADA>`
	_, err = model.ImportColladaObject([]byte(badIndex))
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestObjectTransforms(t *testing.T) {
	c := qt.New(t)

	obj := loadCube(t)
	c.Assert(obj.Position(), qt.Equals, glm.Ident4())
	c.Assert(obj.Rotation(), qt.Equals, glm.Ident4())

	pos := glm.Translate3D(1, 2, 3)
	rot := glm.HomogRotate3DY(0.5)
	obj.SetPosition(pos)
	obj.SetRotation(rot)
	c.Assert(obj.Position(), qt.Equals, pos)
	c.Assert(obj.Rotation(), qt.Equals, rot)
}

func TestVertexFormat(t *testing.T) {
	c := qt.New(t)

	format := model.Vertex{}.VertexFormat()
	c.Assert(format, qt.DeepEquals, vertex.Format{
		{Name: "Pos", Offset: 0, Type: vertex.Float32Vec3},
		{Name: "Normal", Offset: 12, Type: vertex.Float32Vec3},
		{Name: "Color", Offset: 24, Type: vertex.Float32Vec4},
	})
	c.Assert(format.Span(), qt.Equals, 40)
}

func TestVertexBufferFromObject(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice()

	obj := loadCube(t)
	buf, err := vertex.New(dev, obj.Vertices())
	c.Assert(err, qt.IsNil)
	defer buf.Release()

	c.Assert(buf.Len(), qt.Equals, 36)
	c.Assert(buf.ElementsSize(), qt.Equals, 40)
	c.Assert(buf.Read(), qt.DeepEquals, obj.Vertices())
}
