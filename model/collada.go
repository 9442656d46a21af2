// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"fmt"
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/vbuf/collada"
)

// ImportColladaObject reads given file contents and converts the
// first geometry into an Object ready for vertex buffer creation.
func ImportColladaObject(fileContents []byte) (Object, error) {
	doc, err := collada.Parse(fileContents)
	if err != nil {
		return nil, err
	}

	mesh := doc.Geometries[0].Mesh
	positions, ok := mesh.SourceBySuffix("positions")
	if !ok {
		return nil, fmt.Errorf("model: mesh has no positions source")
	}
	normals, hasNormals := mesh.SourceBySuffix("normals")

	stride := mesh.Triangles.Stride()
	if stride == 0 {
		return nil, fmt.Errorf("model: mesh has no triangle inputs")
	}
	vertexInput, ok := mesh.Triangles.InputBySemantic("VERTEX")
	if !ok {
		return nil, fmt.Errorf("model: mesh has no VERTEX input")
	}
	normalInput, hasNormalInput := mesh.Triangles.InputBySemantic("NORMAL")

	var vertices []Vertex
	index := mesh.Triangles.Index
	for base := 0; base+stride <= len(index); base += stride {
		var vert Vertex
		pi := index[base+int(vertexInput.Offset)]
		if 3*pi+2 >= len(positions.Floats.Data) {
			return nil, fmt.Errorf("model: position index %d out of range", pi)
		}
		vert.Pos = glm.Vec3{
			positions.Floats.Data[3*pi],
			positions.Floats.Data[3*pi+1],
			positions.Floats.Data[3*pi+2],
		}
		if hasNormals && hasNormalInput {
			ni := index[base+int(normalInput.Offset)]
			if 3*ni+2 >= len(normals.Floats.Data) {
				return nil, fmt.Errorf("model: normal index %d out of range", ni)
			}
			vert.Normal = glm.Vec3{
				normals.Floats.Data[3*ni],
				normals.Floats.Data[3*ni+1],
				normals.Floats.Data[3*ni+2],
			}
		}
		vert.Color = glm.Vec4{1.0, 1.0, 0.0, 1.0}
		vertices = append(vertices, vert)
	}

	return &ColladaObject{
		position: glm.Ident4(),
		rotation: glm.Ident4(),
		vertices: vertices,
	}, nil
}

// ColladaObject is imported from a collada (.dae) file.
// Loaded and held in memory.
type ColladaObject struct {
	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4

	vertices []Vertex
}

// SetPosition implements interface
func (co *ColladaObject) SetPosition(pos glm.Mat4) {
	co.mutex.Lock()
	co.position = pos
	co.mutex.Unlock()
}

// Position implements interface
func (co *ColladaObject) Position() glm.Mat4 {
	co.mutex.RLock()
	defer co.mutex.RUnlock()
	return co.position
}

// SetRotation implements interface
func (co *ColladaObject) SetRotation(rot glm.Mat4) {
	co.mutex.Lock()
	co.rotation = rot
	co.mutex.Unlock()
}

// Rotation implements interface
func (co *ColladaObject) Rotation() glm.Mat4 {
	co.mutex.RLock()
	defer co.mutex.RUnlock()
	return co.rotation
}

// Vertices implements interface
func (co *ColladaObject) Vertices() []Vertex {
	return co.vertices
}
