// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds mesh objects that feed vertex buffers.
package model

import (
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/vbuf/vertex"
)

// Object represents a supported model.
type Object interface {

	// SetPosition sets the object's current position in space.
	// Has to be thread-safe
	SetPosition(glm.Mat4)

	// Position gets the object's current position in space.
	// Has to be thread-safe
	Position() glm.Mat4

	// SetRotation sets the object's rotation matrix.
	// Has to be thread-safe
	SetRotation(glm.Mat4)

	// Rotation gets the object's rotation matrix.
	// Has to be thread-safe
	Rotation() glm.Mat4

	// Vertices returns the vertices for vertex buffer creation,
	// so it has to match the attribute bindings exactly
	Vertices() []Vertex
}

// Vertex is a model vertex.
type Vertex struct {
	Pos    glm.Vec3
	Normal glm.Vec3
	Color  glm.Vec4
}

// VertexFormat implements vertex.Vertex. The mgl32 vectors are fixed
// float32 arrays, so the layout derives mechanically.
func (Vertex) VertexFormat() vertex.Format {
	return vertex.MustDerive(Vertex{})
}

// Uniform defines a model-view-projection object.
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}
