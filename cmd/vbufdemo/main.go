// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// vbufdemo exercises the vertex buffer path against a real driver:
// it loads a mesh from the embedded assets, uploads it into a vertex
// buffer, rewrites it through a mapping, reads it back and dumps the
// snapshot into a capture archive.
package main

import (
	"os"
	"runtime"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/vbuf/capture"
	"github.com/devblok/vbuf/model"
	"github.com/devblok/vbuf/vertex"
	"github.com/devblok/vbuf/vkr"
)

func init() {
	runtime.LockOSThread()
}

var staticResources = packr.NewBox("../../assets")

func main() {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		log.Fatalf("sdl.Init(): %s", err)
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		log.Fatalf("sdl.VulkanLoadLibrary(): %s", err)
	}
	defer sdl.VulkanUnloadLibrary()

	dev, err := vkr.New(vkr.DefaultApplicationInfo, vkr.Config{
		ProcAddr: sdl.VulkanGetVkGetInstanceProcAddr(),
	})
	if err != nil {
		log.Fatalf("vkr.New(): %s", err)
	}
	defer dev.Release()

	obj, err := model.ImportColladaObject(staticResources.Bytes("cube.dae"))
	if err != nil {
		log.Fatalf("model.ImportColladaObject(): %s", err)
	}

	buf, err := vertex.New(dev, obj.Vertices())
	if err != nil {
		log.Fatalf("vertex.New(): %s", err)
	}
	defer buf.Release()
	log.WithFields(log.Fields{
		"vertices":      buf.Len(),
		"elements_size": buf.ElementsSize(),
	}).Info("vertex buffer created")

	// Rewrite the colors in place through a mapping.
	mapping, err := buf.Map()
	if err != nil {
		log.Fatalf("map: %s", err)
	}
	verts := mapping.Slice()
	for i := range verts {
		verts[i].Color = glm.Vec4{0, 1, 0, 1}
	}
	mapping.Release()

	builder, err := capture.NewBuilder(capture.Header{
		Author:      "vbufdemo",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		log.Fatalf("capture.NewBuilder(): %s", err)
	}
	defer builder.Close()

	if err := capture.AddVertices(builder, "cube", buf); err != nil {
		log.Fatalf("capture.AddVertices(): %s", err)
	}

	out, err := os.Create("vbufdemo.vbc")
	if err != nil {
		log.Fatalf("os.Create(): %s", err)
	}
	defer out.Close()
	if _, err := builder.WriteTo(out); err != nil {
		log.Fatalf("capture write: %s", err)
	}
	log.Info("capture written to vbufdemo.vbc")
}
